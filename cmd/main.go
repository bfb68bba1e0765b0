/*
Package main is the entry point for the roomchat terminal client.

It is responsible for loading configuration, initializing the global logging system,
connecting to the chat server, running the chat session with its console presenter,
optionally serving the local HTTP bridge, and gracefully handling operating system
interrupt signals (SIGINT, SIGTERM).
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"roomchat/internal/app/chat"
	"roomchat/internal/app/console"
	"roomchat/internal/app/metrics"
	"roomchat/internal/app/stream"
	"roomchat/internal/app/transport"
	"roomchat/internal/configs"
	"roomchat/internal/handler"
	"roomchat/internal/pkg/logx"
	"roomchat/internal/pkg/randx"
)

func main() {
	// Load configuration from environment variables
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	logx.InitGlobalLogger(cfg.IsDevelopment())

	sessionID := randx.SessionID()

	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Str("server_url", cfg.ServerURL).
		Str("username", cfg.Username).
		Bool("generated_username", cfg.GeneratedUsername).
		Str("session_id", sessionID).
		Int("bridge_port", cfg.BridgePort).
		Msg("Configuration loaded successfully")

	// Create a context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dialCtx, cancelDial := context.WithTimeout(ctx, cfg.DialTimeout)
	conn, err := transport.Dial(dialCtx, cfg.ServerURL, transport.Options{
		HandshakeTimeout: cfg.DialTimeout,
		SendQueueSize:    cfg.SendQueueSize,
	})
	cancelDial()
	if err != nil {
		logx.Fatal(err, "Failed to connect to chat server")
	}

	presenters := chat.Presenters{console.NewRenderer(os.Stdout)}

	var hub *stream.Hub
	if cfg.BridgeEnabled() {
		hub = stream.NewHub()
		presenters = append(presenters, hub)
	}

	session, err := chat.NewSession(chat.Config{
		Username:      cfg.Username,
		SessionID:     sessionID,
		TypingTimeout: cfg.TypingTimeout,
		MailboxSize:   cfg.InboundQueueSize,
		MessageRate:   rate.Limit(cfg.MessageRate),
		MessageBurst:  cfg.MessageBurst,
	}, conn, presenters, chat.WithObserver(metrics.Observer{}))
	if err != nil {
		logx.Fatal(err, "Failed to create chat session")
	}

	// runCtx ends the session on a signal or when the connection goes away.
	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	connDone := make(chan struct{})
	go func() {
		defer close(connDone)
		defer cancelRun()

		if err := conn.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			logx.Error(err, "Connection to chat server lost")
			return
		}
		logx.Info("Connection to chat server closed")
	}()

	var server *http.Server
	if hub != nil {
		go hub.Run(runCtx)

		deps := &handler.AppDeps{
			Session: session,
			Hub:     hub,
			Config:  cfg,
		}

		serverAddr := fmt.Sprintf("127.0.0.1:%d", cfg.BridgePort)
		server = &http.Server{
			Addr:         serverAddr,
			Handler:      handler.Router(deps),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  120 * time.Second,
		}

		go func() {
			logx.Info(fmt.Sprintf("Chat bridge listening on http://%s", serverAddr))
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logx.Error(err, "Chat bridge failed to start")
			}
		}()
	}

	fmt.Fprintf(os.Stdout, "Joined as %s. Type a message and press Enter.\n", session.Username())

	go func() {
		if err := console.ReadLines(runCtx, os.Stdin, session); err != nil {
			logx.Warn("Console input stopped", "error", err.Error())
			return
		}
		// Without a bridge the terminal is the only presenter; end of input ends the session.
		if hub == nil {
			cancelRun()
		}
	}()

	if err := session.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		logx.Error(err, "Chat session stopped")
	}

	logx.Info("Starting graceful shutdown...")
	cancelRun()

	if server != nil {
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logx.Error(err, "Chat bridge forced to shutdown")
		}
	}

	conn.Close()
	select {
	case <-connDone:
	case <-time.After(5 * time.Second):
		logx.Warn("Timed out waiting for the connection to close")
	}

	logx.Info("Client gracefully stopped.")
}
