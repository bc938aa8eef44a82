// Package main is the entry point for the blog server.
//
// MAIN PACKAGE IN GO:
// Every Go program starts execution in the main() function of the "main" package.
// The main package should be kept minimal. Its job is to:
// 1. Read configuration (from env vars or a .env file)
// 2. Create dependencies (logger, data directory)
// 3. Start the application
//
// All actual logic lives in imported packages (internal/server, internal/handler, etc.).
// This separation makes the app testable and its components reusable.
//
// WHY cmd/server/?
// The cmd/ directory is a Go convention for executable entry points.
// A project might have multiple executables (e.g., cmd/server, cmd/migrate, cmd/cli).
// Each gets its own directory with its own main.go.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/blog/internal/config"
	"github.com/sakif/blog/internal/logging"
	"github.com/sakif/blog/internal/server"
)

func main() {
	// === 1. READ CONFIGURATION ===
	// config.Load reads .env (if there is one) and then the process environment.
	// It reports every bad or missing variable at once, so a misconfigured
	// deployment fails with the full list instead of one error per restart.
	cfg, err := config.Load()
	if err != nil {
		// No logger yet: the log level and format are part of the config.
		fmt.Fprintf(os.Stderr, "configuration error:\n%v\n", err)
		os.Exit(1)
	}

	// === 2. SET UP LOGGING ===
	// LOG_FORMAT=json for log shippers, text for a terminal.
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	// === 3. ENSURE THE DATA DIRECTORY EXISTS ===
	// os.MkdirAll creates all parent directories if needed (like `mkdir -p`).
	// 0755 = owner can read/write/execute, others can read/execute.
	if cfg.DBPath != ":memory:" {
		dbDir := filepath.Dir(cfg.DBPath)
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", dbDir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	// === 4. CREATE AND START THE SERVER ===
	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start() blocks until the server is shut down (via Ctrl+C or SIGTERM)
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
