package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type Config struct {
	Mode     Mode   `yaml:"mode"`
	HTTPAddr string `yaml:"http_addr"`

	DBDriver string `yaml:"db_driver"`
	DBDSN    string `yaml:"db_dsn"`

	AuthHMACSecret string        `yaml:"auth_hmac_secret"`
	TokenTTL       time.Duration `yaml:"token_ttl"`

	CORSOriginsOnline  []string `yaml:"cors_origins_online"`
	CORSOriginsOffline []string `yaml:"cors_origins_offline"`

	// Max projects loaded in parallel while building a report.
	ReportConcurrency int  `yaml:"report_concurrency"`
	EnableMetrics     bool `yaml:"enable_metrics"`

	// "en" or "he"; used when Accept-Language doesn't match.
	DefaultLang string `yaml:"default_lang"`

	// Stamped on every event log entry.
	SiteID string `yaml:"site_id"`
}

func defaults() Config {
	return Config{
		Mode:               ModeOffline,
		HTTPAddr:           ":8080",
		DBDriver:           "sqlite",
		AuthHMACSecret:     "supersecret-dev-key",
		TokenTTL:           8 * time.Hour,
		CORSOriginsOnline:  []string{"https://judging.mindengage.ai"},
		CORSOriginsOffline: []string{"http://localhost:3000", "http://localhost:5173"},
		ReportConcurrency:  4,
		EnableMetrics:      true,
		DefaultLang:        "en",
		SiteID:             "local",
	}
}

// Load reads .env (if present), then CONFIG_FILE (YAML, optional), then the
// environment. Later sources win.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config file: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config file %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// FromEnv applies only the environment over the defaults. Malformed values
// keep their default.
func FromEnv() Config {
	cfg := defaults()
	applyEnv(&cfg)
	return cfg
}

func (c Config) Validate() error {
	switch c.Mode {
	case ModeOffline, ModeOnline:
	default:
		return fmt.Errorf("config: unknown mode %q", c.Mode)
	}
	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("config: unsupported db driver %q", c.DBDriver)
	}
	if c.Mode == ModeOnline && c.AuthHMACSecret == defaults().AuthHMACSecret {
		return fmt.Errorf("config: AUTH_HMAC_SECRET must be set in online mode")
	}
	if c.ReportConcurrency < 1 {
		return fmt.Errorf("config: report concurrency must be >= 1")
	}
	return nil
}

// CORSOrigins returns the origins for the active mode.
func (c Config) CORSOrigins() []string {
	if c.Mode == ModeOnline {
		return c.CORSOriginsOnline
	}
	return c.CORSOriginsOffline
}

func applyEnv(c *Config) {
	c.Mode = Mode(envOr("MODE", string(c.Mode)))
	c.HTTPAddr = envOr("HTTP_ADDR", c.HTTPAddr)
	c.DBDriver = envOr("DB_DRIVER", c.DBDriver)
	c.DBDSN = envOr("DB_DSN", c.DBDSN)
	c.AuthHMACSecret = envOr("AUTH_HMAC_SECRET", c.AuthHMACSecret)
	c.TokenTTL = envDuration("TOKEN_TTL", c.TokenTTL)
	c.CORSOriginsOnline = csvOr("CORS_ORIGINS_ONLINE", c.CORSOriginsOnline)
	c.CORSOriginsOffline = csvOr("CORS_ORIGINS_OFFLINE", c.CORSOriginsOffline)
	c.ReportConcurrency = envInt("REPORT_CONCURRENCY", c.ReportConcurrency)
	c.EnableMetrics = envBool("ENABLE_METRICS", c.EnableMetrics)
	c.DefaultLang = envOr("DEFAULT_LANG", c.DefaultLang)
	c.SiteID = envOr("SITE_ID", c.SiteID)
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}
func envInt(k string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(k)); err == nil {
		return v
	}
	return def
}
func envDuration(k string, def time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(k)); err == nil && v > 0 {
		return v
	}
	return def
}
func csvOr(k string, def []string) []string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
