package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// devSessionSecret signs login markers when SESSION_SECRET is unset outside
// production, so a CLI marker survives between runs on a developer machine.
const devSessionSecret = "relief-development-session-secret"

type Config struct {
	APIBaseURL        string        `mapstructure:"API_BASE_URL"`
	Port              string        `mapstructure:"PORT"`
	Env               string        `mapstructure:"ENV"`
	LogLevel          string        `mapstructure:"LOG_LEVEL"`
	PollInterval      time.Duration `mapstructure:"POLL_INTERVAL"`
	RequestTimeout    time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	RedirectDelay     time.Duration `mapstructure:"REDIRECT_DELAY"`
	StopOnTerminal    bool          `mapstructure:"STOP_ON_TERMINAL"`
	SessionSecret     string        `mapstructure:"SESSION_SECRET"`
	LoginMarkerTTL    time.Duration `mapstructure:"LOGIN_MARKER_TTL"`
	LoginMarkerCookie string        `mapstructure:"LOGIN_MARKER_COOKIE"`
	StateDir          string        `mapstructure:"STATE_DIR"`
	CORSOrigins       []string      `mapstructure:"CORS_ORIGINS"`
	MaxPhotoBytes     int64         `mapstructure:"MAX_PHOTO_BYTES"`
	BodyLimit         string        `mapstructure:"BODY_LIMIT"`
	UploadBodyLimit   string        `mapstructure:"UPLOAD_BODY_LIMIT"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "")
	v.SetDefault("POLL_INTERVAL", "15s")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("REDIRECT_DELAY", "2s")
	v.SetDefault("STOP_ON_TERMINAL", true)
	v.SetDefault("LOGIN_MARKER_TTL", "8760h")
	v.SetDefault("LOGIN_MARKER_COOKIE", "is_login")
	v.SetDefault("STATE_DIR", defaultStateDir())
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("MAX_PHOTO_BYTES", 5*1024*1024)
	v.SetDefault("BODY_LIMIT", "1M")
	v.SetDefault("UPLOAD_BODY_LIMIT", "6M")

	// Bind env vars explicitly so Unmarshal picks them up
	for _, key := range []string{
		"API_BASE_URL", "PORT", "ENV", "LOG_LEVEL", "POLL_INTERVAL",
		"REQUEST_TIMEOUT", "REDIRECT_DELAY", "STOP_ON_TERMINAL", "SESSION_SECRET",
		"LOGIN_MARKER_TTL", "LOGIN_MARKER_COOKIE", "STATE_DIR", "CORS_ORIGINS",
		"MAX_PHOTO_BYTES", "BODY_LIMIT", "UPLOAD_BODY_LIMIT",
	} {
		v.BindEnv(key)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")

	if cfg.SessionSecret == "" && !cfg.IsProduction() {
		log.Println("WARNING: SESSION_SECRET is not set; login markers are signed with the development secret.")
		cfg.SessionSecret = devSessionSecret
	}

	return cfg, nil
}

func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".relief"
	}
	return filepath.Join(home, ".relief")
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when running with ENV=production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// ResolvedLogLevel returns LOG_LEVEL, or fallback when it is unset.
func (c *Config) ResolvedLogLevel(fallback string) string {
	if c.LogLevel != "" {
		return c.LogLevel
	}
	return fallback
}

// Validate checks that the configuration can reach a backend and sign login
// markers. Production requires an explicit SESSION_SECRET of at least 32 bytes.
func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("API_BASE_URL is required")
	}
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("API_BASE_URL must be an absolute http(s) URL, got %q", c.APIBaseURL)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive, got %s", c.PollInterval)
	}
	if c.LoginMarkerTTL <= 0 {
		return fmt.Errorf("LOGIN_MARKER_TTL must be positive, got %s", c.LoginMarkerTTL)
	}
	if c.MaxPhotoBytes <= 0 {
		return fmt.Errorf("MAX_PHOTO_BYTES must be positive, got %d", c.MaxPhotoBytes)
	}
	if c.IsProduction() && (c.SessionSecret == "" || c.SessionSecret == devSessionSecret) {
		return fmt.Errorf("SESSION_SECRET is required in production")
	}
	if c.IsProduction() && len(c.SessionSecret) < 32 {
		return fmt.Errorf("SESSION_SECRET must be at least 32 bytes, got %d", len(c.SessionSecret))
	}
	return nil
}
