package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config carries the tunable settings of the messaging core.
type Config struct {
	// BackendURL is the websocket address of the messaging backend. Empty
	// selects the in-memory simulated transport.
	BackendURL string

	// StatePath is the file holding persisted recents.
	StatePath string

	// UploadBucket is the storage bucket attachments upload into.
	UploadBucket string

	// TypingWindow is the typing auto-expiry window.
	TypingWindow time.Duration

	// SearchDebounce is the quiet period before a search recomputes.
	SearchDebounce time.Duration
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		StatePath:      ".mnada/recents.json",
		UploadBucket:   "attachments",
		TypingWindow:   3 * time.Second,
		SearchDebounce: 300 * time.Millisecond,
	}
}

// Load builds a Config from the environment, reading a .env file first when
// one exists. A missing .env file is not an error.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.WithFields(logrus.Fields{
			"function": "Load",
			"error":    err.Error(),
		}).Warn("Could not read .env file")
	}

	cfg := Default()
	if v := os.Getenv("MNADA_BACKEND_URL"); v != "" {
		cfg.BackendURL = v
	}
	if v := os.Getenv("MNADA_STATE_PATH"); v != "" {
		cfg.StatePath = v
	}
	if v := os.Getenv("MNADA_UPLOAD_BUCKET"); v != "" {
		cfg.UploadBucket = v
	}
	if v := os.Getenv("MNADA_TYPING_WINDOW"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.TypingWindow = d
		}
	}
	if v := os.Getenv("MNADA_SEARCH_DEBOUNCE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.SearchDebounce = d
		}
	}
	return cfg
}
