package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	os.Unsetenv("API_BASE_URL")
	os.Unsetenv("SESSION_SECRET")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.PollInterval != 15*time.Second {
		t.Errorf("expected default poll interval 15s, got %s", cfg.PollInterval)
	}
	if cfg.LoginMarkerTTL != 8760*time.Hour {
		t.Errorf("expected default marker TTL 8760h, got %s", cfg.LoginMarkerTTL)
	}
	if cfg.LoginMarkerCookie != "is_login" {
		t.Errorf("expected marker cookie is_login, got %s", cfg.LoginMarkerCookie)
	}
	if cfg.MaxPhotoBytes != 5*1024*1024 {
		t.Errorf("expected 5MiB photo limit, got %d", cfg.MaxPhotoBytes)
	}
	if !cfg.StopOnTerminal {
		t.Error("expected STOP_ON_TERMINAL to default to true")
	}
	if cfg.SessionSecret == "" {
		t.Error("expected development secret outside production")
	}
}

func TestLoad_WithAPIBaseURL(t *testing.T) {
	os.Setenv("API_BASE_URL", "https://api.relief.test/api/v1/")
	defer os.Unsetenv("API_BASE_URL")
	os.Setenv("POLL_INTERVAL", "5s")
	defer os.Unsetenv("POLL_INTERVAL")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.APIBaseURL != "https://api.relief.test/api/v1" {
		t.Errorf("expected trailing slash trimmed, got %s", cfg.APIBaseURL)
	}
	if cfg.PollInterval != 5*time.Second {
		t.Errorf("expected poll interval 5s, got %s", cfg.PollInterval)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}

func TestValidate_RequiresAPIBaseURL(t *testing.T) {
	c := &Config{PollInterval: time.Second, LoginMarkerTTL: time.Hour, MaxPhotoBytes: 1}
	err := c.Validate()
	if err == nil || !strings.Contains(err.Error(), "API_BASE_URL") {
		t.Fatalf("expected API_BASE_URL error, got %v", err)
	}

	c.APIBaseURL = "ftp://example.com"
	if err := c.Validate(); err == nil {
		t.Error("expected error for non-http scheme")
	}
}

func TestValidate_ProductionSecret(t *testing.T) {
	c := &Config{
		APIBaseURL:     "https://api.relief.test",
		Env:            "production",
		PollInterval:   time.Second,
		LoginMarkerTTL: time.Hour,
		MaxPhotoBytes:  1,
		SessionSecret:  devSessionSecret,
	}
	if err := c.Validate(); err == nil {
		t.Error("expected error for development secret in production")
	}

	c.SessionSecret = "short"
	if err := c.Validate(); err == nil {
		t.Error("expected error for short secret in production")
	}

	c.SessionSecret = strings.Repeat("s", 32)
	if err := c.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestConfig_IsDev(t *testing.T) {
	c := &Config{Env: "development"}
	if !c.IsDev() {
		t.Error("expected IsDev() to return true for development")
	}

	c.Env = "production"
	if c.IsDev() {
		t.Error("expected IsDev() to return false for production")
	}
}

func TestConfig_ResolvedLogLevel(t *testing.T) {
	c := &Config{}
	if got := c.ResolvedLogLevel("warn"); got != "warn" {
		t.Errorf("expected fallback warn, got %s", got)
	}
	c.LogLevel = "debug"
	if got := c.ResolvedLogLevel("warn"); got != "debug" {
		t.Errorf("expected debug, got %s", got)
	}
}
