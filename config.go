package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config is the process configuration read from the environment.
type Config struct {
	Port      string // PORT
	ProjectID string // GCP_PROJECT_ID; empty disables theme suggestions
	Region    string // GCP_REGION
	Model     string // GEMINI_MODEL
	DataDir   string // DATA_DIR; empty keeps puzzles in memory only
	Corpora   string // CORPORA, the corpus registry file
	LogLevel  string // LOG_LEVEL
}

// loadConfig reads .env if present, then the environment.
func loadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return &Config{
		Port:      getenv("PORT", "8080"),
		ProjectID: os.Getenv("GCP_PROJECT_ID"),
		Region:    os.Getenv("GCP_REGION"),
		Model:     os.Getenv("GEMINI_MODEL"),
		DataDir:   os.Getenv("DATA_DIR"),
		Corpora:   getenv("CORPORA", "data/corpora.yaml"),
		LogLevel:  getenv("LOG_LEVEL", "info"),
	}, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// newLogger returns a text logger at the named level. Unknown levels mean
// info.
func newLogger(level string, w io.Writer) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}
