package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents the entire application configuration.
type Config struct {
	GitHub GitHubConfig
	Sweep  SweepConfig
	Log    LogConfig
	WebAPI WebAPIConfig
}

// GitHubConfig holds authentication settings. Either a personal access
// token or GitHub App credentials must be present.
type GitHubConfig struct {
	Token          string
	AppID          int64
	PrivateKey     string
	PrivateKeyPath string
}

// SweepConfig holds sweep behavior settings.
type SweepConfig struct {
	PolicyFile    string
	DeleteWorkers int
	DryRun        bool
	Timezone      string
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string
	Format string
}

// SlogLevel converts the Level string to slog.Level.
func (lc *LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(lc.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WebAPIConfig holds web API server settings.
type WebAPIConfig struct {
	Enabled bool
	Host    string
	Port    int
}

// Load reads configuration from GHSWEEP_* environment variables.
func Load() (*Config, error) {
	appID, err := envInt64("GHSWEEP_APP_ID", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid GHSWEEP_APP_ID: %w", err)
	}

	deleteWorkers, err := envInt("GHSWEEP_DELETE_WORKERS", 1)
	if err != nil {
		return nil, fmt.Errorf("invalid GHSWEEP_DELETE_WORKERS: %w", err)
	}

	dryRun, err := envBool("GHSWEEP_DRY_RUN", false)
	if err != nil {
		return nil, fmt.Errorf("invalid GHSWEEP_DRY_RUN: %w", err)
	}

	timezone := envStr("GHSWEEP_TIMEZONE", "UTC")

	logLevel := envStr("GHSWEEP_LOG_LEVEL", "info")
	logFormat := envStr("GHSWEEP_LOG_FORMAT", "json")

	webapiEnabled, err := envBool("GHSWEEP_WEBAPI_ENABLED", true)
	if err != nil {
		return nil, fmt.Errorf("invalid GHSWEEP_WEBAPI_ENABLED: %w", err)
	}

	webapiHost := envStr("GHSWEEP_WEBAPI_HOST", "0.0.0.0")

	webapiPort, err := envInt("GHSWEEP_WEBAPI_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid GHSWEEP_WEBAPI_PORT: %w", err)
	}

	config := &Config{
		GitHub: GitHubConfig{
			Token:          os.Getenv("GHSWEEP_TOKEN"),
			AppID:          appID,
			PrivateKey:     os.Getenv("GHSWEEP_APP_PRIVATE_KEY"),
			PrivateKeyPath: os.Getenv("GHSWEEP_APP_PRIVATE_KEY_PATH"),
		},
		Sweep: SweepConfig{
			PolicyFile:    envStr("GHSWEEP_POLICY_FILE", "policies.yaml"),
			DeleteWorkers: deleteWorkers,
			DryRun:        dryRun,
			Timezone:      timezone,
		},
		Log: LogConfig{
			Level:  logLevel,
			Format: logFormat,
		},
		WebAPI: WebAPIConfig{
			Enabled: webapiEnabled,
			Host:    webapiHost,
			Port:    webapiPort,
		},
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// HasAppAuth reports whether GitHub App credentials are configured.
func (c *Config) HasAppAuth() bool {
	return c.GitHub.AppID > 0 && (c.GitHub.PrivateKey != "" || c.GitHub.PrivateKeyPath != "")
}

// GetPrivateKey returns the App private key bytes.
// Priority: GHSWEEP_APP_PRIVATE_KEY env > GHSWEEP_APP_PRIVATE_KEY_PATH file.
func (c *Config) GetPrivateKey() ([]byte, error) {
	if c.GitHub.PrivateKey != "" {
		return []byte(c.GitHub.PrivateKey), nil
	}
	if c.GitHub.PrivateKeyPath != "" {
		data, err := os.ReadFile(c.GitHub.PrivateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read private key file: %w", err)
		}
		return data, nil
	}
	return nil, errors.New("private key not configured (set GHSWEEP_APP_PRIVATE_KEY or GHSWEEP_APP_PRIVATE_KEY_PATH)")
}

func (c *Config) validate() error {
	if c.GitHub.Token == "" && !c.HasAppAuth() {
		return errors.New("authentication not configured (set GHSWEEP_TOKEN, or GHSWEEP_APP_ID with a private key)")
	}
	if c.Sweep.DeleteWorkers < 1 {
		return fmt.Errorf("invalid GHSWEEP_DELETE_WORKERS (%d): must be at least 1", c.Sweep.DeleteWorkers)
	}
	if _, err := time.LoadLocation(c.Sweep.Timezone); err != nil {
		return fmt.Errorf("invalid GHSWEEP_TIMEZONE (%q): %w", c.Sweep.Timezone, err)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
		// OK
	default:
		return fmt.Errorf("invalid GHSWEEP_LOG_LEVEL (%q): must be one of debug, info, warn, error", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
		// OK
	default:
		return fmt.Errorf("invalid GHSWEEP_LOG_FORMAT (%q): must be one of json, text", c.Log.Format)
	}
	return nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("expected integer for %s: %w", key, err)
	}
	return n, nil
}

func envInt64(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("expected integer for %s: %w", key, err)
	}
	return n, nil
}

func envBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("expected boolean for %s: %w", key, err)
	}
	return b, nil
}
