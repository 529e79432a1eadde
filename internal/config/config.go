package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port               string   `mapstructure:"PORT"`
	Env                string   `mapstructure:"ENV"`
	DatabaseURL        string   `mapstructure:"DATABASE_URL"`
	DBMaxConns         int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns         int32    `mapstructure:"DB_MIN_CONNS"`
	WebhookSecret      string   `mapstructure:"WEBHOOK_SECRET"`
	DashboardJWTSecret string   `mapstructure:"DASHBOARD_JWT_SECRET"`
	DefaultWindowHours int      `mapstructure:"DEFAULT_WINDOW_HOURS"`
	MaxWindowHours     int      `mapstructure:"MAX_WINDOW_HOURS"`
	DefaultQueryLimit  int      `mapstructure:"DEFAULT_QUERY_LIMIT"`
	MaxQueryLimit      int      `mapstructure:"MAX_QUERY_LIMIT"`
	BodyLimit          string   `mapstructure:"BODY_LIMIT"`
	CORSOrigins        []string `mapstructure:"CORS_ORIGINS"`
	DemoMode           bool     `mapstructure:"DEMO_MODE"`
	PatientNames       string   `mapstructure:"PATIENT_NAMES"`
	GatewaySeed        string   `mapstructure:"GATEWAY_SEED"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("DEFAULT_WINDOW_HOURS", 24)
	v.SetDefault("MAX_WINDOW_HOURS", 744)
	v.SetDefault("DEFAULT_QUERY_LIMIT", 500)
	v.SetDefault("MAX_QUERY_LIMIT", 5000)
	v.SetDefault("BODY_LIMIT", "1M")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("DEMO_MODE", false)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("WEBHOOK_SECRET")
	v.BindEnv("DASHBOARD_JWT_SECRET")
	v.BindEnv("DEFAULT_WINDOW_HOURS")
	v.BindEnv("MAX_WINDOW_HOURS")
	v.BindEnv("DEFAULT_QUERY_LIMIT")
	v.BindEnv("MAX_QUERY_LIMIT")
	v.BindEnv("BODY_LIMIT")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("DEMO_MODE")
	v.BindEnv("PATIENT_NAMES")
	v.BindEnv("GATEWAY_SEED")

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

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.WebhookSecret == "" {
		log.Println("WARNING: WEBHOOK_SECRET is empty; the webhook endpoint accepts unauthenticated deliveries.")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Validate checks window and limit bounds. A misconfigured maximum would
// silently defeat the clamping on the query endpoints, so refuse to start.
func (c *Config) Validate() error {
	if c.MaxWindowHours < 1 {
		return fmt.Errorf("MAX_WINDOW_HOURS must be at least 1, got %d", c.MaxWindowHours)
	}
	if c.DefaultWindowHours < 1 || c.DefaultWindowHours > c.MaxWindowHours {
		return fmt.Errorf("DEFAULT_WINDOW_HOURS must be in 1..%d, got %d", c.MaxWindowHours, c.DefaultWindowHours)
	}
	if c.MaxQueryLimit < 1 {
		return fmt.Errorf("MAX_QUERY_LIMIT must be at least 1, got %d", c.MaxQueryLimit)
	}
	if c.DefaultQueryLimit < 1 || c.DefaultQueryLimit > c.MaxQueryLimit {
		return fmt.Errorf("DEFAULT_QUERY_LIMIT must be in 1..%d, got %d", c.MaxQueryLimit, c.DefaultQueryLimit)
	}
	return nil
}

// ParseNameMap parses the PATIENT_NAMES seed ("id=name,id2=name2") into a map.
// Malformed entries are skipped rather than failing startup.
func (c *Config) ParseNameMap() map[string]string {
	return parsePairs(c.PatientNames)
}

// ParseGatewaySeed parses the GATEWAY_SEED binding seed ("gateway=patient,...").
func (c *Config) ParseGatewaySeed() map[string]string {
	return parsePairs(c.GatewaySeed)
}

func parsePairs(s string) map[string]string {
	out := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		k, v, ok := strings.Cut(pair, "=")
		k = strings.TrimSpace(k)
		v = strings.TrimSpace(v)
		if !ok || k == "" || v == "" {
			continue
		}
		out[k] = v
	}
	return out
}
