/*
Package handler provides the HTTP handlers and routing setup for the local chat bridge.

The bridge lets a browser presenter drive the running session: it reads snapshots, submits
messages and input changes, and subscribes to live snapshots over a WebSocket. This file
defines the main Router, applying logging, CORS and IP-based rate limiting middleware.
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"roomchat/internal/app/metrics"
	"roomchat/internal/pkg/limiter"
	"roomchat/internal/pkg/logx"
	"roomchat/internal/pkg/resp"
)

const (
	// IntentRate is the per-IP refill rate for message and input requests, per second.
	IntentRate = 5
	// IntentBurst is the per-IP burst for message and input requests.
	IntentBurst = 20
	// StreamRate is the per-IP refill rate for /ws upgrades, per second.
	StreamRate = 0.2
	// StreamBurst is the per-IP burst for /ws upgrades.
	StreamBurst = 5
)

// Router sets up the bridge routing table.
func Router(deps *AppDeps) http.Handler {
	intentLimiter := limiter.NewIPRateLimiter(rate.Limit(IntentRate), IntentBurst)
	streamLimiter := limiter.NewIPRateLimiter(rate.Limit(StreamRate), StreamBurst)

	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	var wsUpgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.IsDevelopment() {
				return true
			}

			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("Stream connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := []string{}
	if deps.Config.IsDevelopment() {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins: corsAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{},
		MaxAge:         300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		data := map[string]string{
			"status":  "ok",
			"service": "roomchat bridge",
		}
		resp.RespondSuccess(w, r, data)
	})

	r.Handle("/metrics", metrics.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Get("/snapshot", HandleSnapshot(deps))

		api.Group(func(intents chi.Router) {
			intents.Use(intentLimiter.Middleware)
			intents.Post("/messages", HandleSubmitMessage(deps))
			intents.Post("/input", HandleInputChanged(deps))
		})
	})

	r.Get("/ws", HandleStream(deps, wsUpgrader, streamLimiter))

	return r
}
