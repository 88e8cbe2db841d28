package config

import (
	"os"
	"path/filepath"
	"testing"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("GHSWEEP_TOKEN", "ghp_dummy")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.GitHub.Token != "ghp_dummy" {
		t.Errorf("Token = %q, want %q", cfg.GitHub.Token, "ghp_dummy")
	}
	if cfg.Sweep.PolicyFile != "policies.yaml" {
		t.Errorf("PolicyFile = %q, want %q", cfg.Sweep.PolicyFile, "policies.yaml")
	}
	if cfg.Sweep.DeleteWorkers != 1 {
		t.Errorf("DeleteWorkers = %d, want 1", cfg.Sweep.DeleteWorkers)
	}
	if cfg.Sweep.DryRun {
		t.Errorf("DryRun = true, want false")
	}
	if cfg.Sweep.Timezone != "UTC" {
		t.Errorf("Timezone = %q, want %q", cfg.Sweep.Timezone, "UTC")
	}
	if cfg.Log.Level != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.Log.Level, "info")
	}
	if cfg.Log.Format != "json" {
		t.Errorf("LogFormat = %q, want %q", cfg.Log.Format, "json")
	}
	if !cfg.WebAPI.Enabled {
		t.Errorf("WebAPI.Enabled = false, want true")
	}
	if cfg.WebAPI.Host != "0.0.0.0" {
		t.Errorf("WebAPI.Host = %q, want %q", cfg.WebAPI.Host, "0.0.0.0")
	}
	if cfg.WebAPI.Port != 8080 {
		t.Errorf("WebAPI.Port = %d, want 8080", cfg.WebAPI.Port)
	}
}

func TestLoad_AllEnvVars(t *testing.T) {
	t.Setenv("GHSWEEP_TOKEN", "ghp_test")
	t.Setenv("GHSWEEP_POLICY_FILE", "/etc/ghasweep/policies.yaml")
	t.Setenv("GHSWEEP_DELETE_WORKERS", "4")
	t.Setenv("GHSWEEP_DRY_RUN", "true")
	t.Setenv("GHSWEEP_TIMEZONE", "Asia/Tokyo")
	t.Setenv("GHSWEEP_LOG_LEVEL", "debug")
	t.Setenv("GHSWEEP_LOG_FORMAT", "text")
	t.Setenv("GHSWEEP_WEBAPI_ENABLED", "false")
	t.Setenv("GHSWEEP_WEBAPI_HOST", "127.0.0.1")
	t.Setenv("GHSWEEP_WEBAPI_PORT", "9090")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Sweep.PolicyFile != "/etc/ghasweep/policies.yaml" {
		t.Errorf("PolicyFile = %q, want %q", cfg.Sweep.PolicyFile, "/etc/ghasweep/policies.yaml")
	}
	if cfg.Sweep.DeleteWorkers != 4 {
		t.Errorf("DeleteWorkers = %d, want 4", cfg.Sweep.DeleteWorkers)
	}
	if !cfg.Sweep.DryRun {
		t.Errorf("DryRun = false, want true")
	}
	if cfg.Sweep.Timezone != "Asia/Tokyo" {
		t.Errorf("Timezone = %q, want %q", cfg.Sweep.Timezone, "Asia/Tokyo")
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.Log.Level, "debug")
	}
	if cfg.Log.Format != "text" {
		t.Errorf("LogFormat = %q, want %q", cfg.Log.Format, "text")
	}
	if cfg.WebAPI.Enabled {
		t.Errorf("WebAPI.Enabled = true, want false")
	}
	if cfg.WebAPI.Host != "127.0.0.1" {
		t.Errorf("WebAPI.Host = %q, want %q", cfg.WebAPI.Host, "127.0.0.1")
	}
	if cfg.WebAPI.Port != 9090 {
		t.Errorf("WebAPI.Port = %d, want 9090", cfg.WebAPI.Port)
	}
}

func TestLoad_AppAuth(t *testing.T) {
	t.Setenv("GHSWEEP_TOKEN", "")
	t.Setenv("GHSWEEP_APP_ID", "123456")
	t.Setenv("GHSWEEP_APP_PRIVATE_KEY", "dummy-pem")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !cfg.HasAppAuth() {
		t.Error("HasAppAuth = false, want true")
	}
	if cfg.GitHub.AppID != 123456 {
		t.Errorf("AppID = %d, want 123456", cfg.GitHub.AppID)
	}
}

func TestLoad_NoAuth(t *testing.T) {
	t.Setenv("GHSWEEP_TOKEN", "")
	t.Setenv("GHSWEEP_APP_ID", "")
	t.Setenv("GHSWEEP_APP_PRIVATE_KEY", "")
	t.Setenv("GHSWEEP_APP_PRIVATE_KEY_PATH", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestLoad_InvalidWorkers(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("GHSWEEP_DELETE_WORKERS", "0")

	if _, err := Load(); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestLoad_InvalidTimezone(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("GHSWEEP_TIMEZONE", "Mars/Olympus")

	if _, err := Load(); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("GHSWEEP_LOG_LEVEL", "verbose")

	if _, err := Load(); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestLoad_InvalidLogFormat(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("GHSWEEP_LOG_FORMAT", "yaml")

	if _, err := Load(); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestGetPrivateKey_EnvTakesPriority(t *testing.T) {
	t.Setenv("GHSWEEP_TOKEN", "")
	t.Setenv("GHSWEEP_APP_ID", "1")
	t.Setenv("GHSWEEP_APP_PRIVATE_KEY", "inline-pem")
	t.Setenv("GHSWEEP_APP_PRIVATE_KEY_PATH", "/nonexistent")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	key, err := cfg.GetPrivateKey()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(key) != "inline-pem" {
		t.Errorf("key = %q, want %q", key, "inline-pem")
	}
}

func TestGetPrivateKey_FromFile(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), "app.pem")
	if err := os.WriteFile(keyPath, []byte("file-pem"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("GHSWEEP_TOKEN", "")
	t.Setenv("GHSWEEP_APP_ID", "1")
	t.Setenv("GHSWEEP_APP_PRIVATE_KEY", "")
	t.Setenv("GHSWEEP_APP_PRIVATE_KEY_PATH", keyPath)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	key, err := cfg.GetPrivateKey()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(key) != "file-pem" {
		t.Errorf("key = %q, want %q", key, "file-pem")
	}
}
