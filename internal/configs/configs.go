/*
Package configs is responsible for loading and parsing the application's configuration settings.

Settings come from operating system environment variables, optionally seeded from a .env file
in the working directory. They cover the running environment, the chat server endpoint and
identity, the typing and send tuning knobs, and the optional local HTTP bridge.
*/
package configs

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"roomchat/internal/pkg/randx"
)

// AppConfig contains all configuration parameters required for the application to run.
type AppConfig struct {
	// General Settings
	Environment string `env:"ENVIRONMENT" envDefault:"development"`

	// Chat Server Settings
	ServerURL   string        `env:"CHAT_SERVER_URL" envDefault:"ws://127.0.0.1:8080"`
	Username    string        `env:"CHAT_USERNAME"`
	DialTimeout time.Duration `env:"DIAL_TIMEOUT" envDefault:"10s"`

	// Session Settings
	TypingTimeout    time.Duration `env:"TYPING_TIMEOUT" envDefault:"3s"`
	SendQueueSize    int           `env:"SEND_QUEUE_SIZE" envDefault:"256"`
	InboundQueueSize int           `env:"INBOUND_QUEUE_SIZE" envDefault:"256"`
	MessageRate      float64       `env:"MESSAGE_RATE" envDefault:"5"`
	MessageBurst     int           `env:"MESSAGE_BURST" envDefault:"10"`

	// Bridge Settings
	BridgePort     int      `env:"BRIDGE_PORT" envDefault:"0"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`

	// GeneratedUsername is true when no CHAT_USERNAME was configured.
	GeneratedUsername bool
}

// IsDevelopment reports whether the application runs in the development environment.
func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

// BridgeEnabled reports whether the local HTTP bridge should be started.
func (c *AppConfig) BridgeEnabled() bool {
	return c.BridgePort != 0
}

// LoadConfig reads and validates the application configuration.
// A .env file in the working directory, when present, seeds variables that are not already set.
func LoadConfig() (*AppConfig, error) {
	_ = godotenv.Load()

	return loadFromEnv()
}

func loadFromEnv() (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *AppConfig) normalize() error {
	// --- Chat Server Settings ---
	u, err := url.Parse(c.ServerURL)
	if err != nil {
		return fmt.Errorf("invalid CHAT_SERVER_URL environment variable: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("CHAT_SERVER_URL must use the ws or wss scheme, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("CHAT_SERVER_URL must include a host")
	}

	c.Username = strings.TrimSpace(c.Username)
	if c.Username == "" {
		nickname, err := randx.Nickname()
		if err != nil {
			return fmt.Errorf("failed to generate a guest nickname: %w", err)
		}
		c.Username = nickname
		c.GeneratedUsername = true
	}

	if c.DialTimeout <= 0 {
		return fmt.Errorf("DIAL_TIMEOUT must be positive, got %s", c.DialTimeout)
	}

	// --- Session Settings ---
	if c.TypingTimeout <= 0 {
		return fmt.Errorf("TYPING_TIMEOUT must be positive, got %s", c.TypingTimeout)
	}
	if c.SendQueueSize <= 0 {
		return fmt.Errorf("SEND_QUEUE_SIZE must be positive, got %d", c.SendQueueSize)
	}
	if c.InboundQueueSize <= 0 {
		return fmt.Errorf("INBOUND_QUEUE_SIZE must be positive, got %d", c.InboundQueueSize)
	}
	if c.MessageRate <= 0 {
		return fmt.Errorf("MESSAGE_RATE must be positive, got %v", c.MessageRate)
	}
	if c.MessageBurst <= 0 {
		return fmt.Errorf("MESSAGE_BURST must be positive, got %d", c.MessageBurst)
	}

	// --- Bridge Settings ---
	if c.BridgePort != 0 && (c.BridgePort < 1024 || c.BridgePort > 65535) {
		return fmt.Errorf("bridge port %d is outside the recommended range (%d-%d) to avoid privileged ports", c.BridgePort, 1024, 65535)
	}

	origins := make([]string, 0, len(c.AllowedOrigins))
	for _, origin := range c.AllowedOrigins {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	c.AllowedOrigins = origins

	return nil
}
