// Package cli holds the start-up steps shared by cmd/billreminder,
// cmd/notify-worker and cmd/billctl.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"billreminder/internal/config"
	"billreminder/internal/log"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the process logger from cfg and installs it as the
// slog default.
func SetupLogger(cfg *config.Config, component string, w io.Writer) *log.Logger {
	logger := log.New(log.Config{
		Level:     log.ParseLevel(cfg.LogLevel),
		Format:    cfg.LogFormat,
		Component: component,
		Output:    w,
	})
	log.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig loads configuration and runs the common checks.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoadConfig is LoadAndValidateConfig for main packages: it prints the
// problem and exits with status 1.
func MustLoadConfig() *config.Config {
	cfg, err := LoadAndValidateConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return cfg
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM. The
// returned stop function restores default signal handling, so a second
// signal kills the process.
func SignalContext(parent context.Context, logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		if parent.Err() == nil {
			logger.Info("Shutdown signal received")
		}
		stop()
	}()
	return ctx, stop
}
