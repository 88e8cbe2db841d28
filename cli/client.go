// Package cli provides Cobra command definitions for ghasweep.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/korosuke613/ghasweep/config"
	"github.com/korosuke613/ghasweep/github"
)

// loadConfig loads configuration and re-initializes the logger with the
// configured level and format.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	initLogger(&cfg.Log)
	return cfg, nil
}

// newGitHubClient builds a client from the configured credentials.
// A personal access token wins over App credentials when both are set.
func newGitHubClient(cfg *config.Config) (*github.Client, error) {
	if cfg.GitHub.Token != "" {
		return github.NewTokenClient(cfg.GitHub.Token), nil
	}

	privateKey, err := cfg.GetPrivateKey()
	if err != nil {
		return nil, err
	}
	client, err := github.NewAppClient(cfg.GitHub.AppID, privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize GitHub client: %w", err)
	}
	return client, nil
}

func initLogger(logCfg *config.LogConfig) {
	level := logCfg.SlogLevel()
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch strings.ToLower(logCfg.Format) {
	case "text":
		handler = slog.NewTextHandler(os.Stderr, opts)
	default:
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler))
}
