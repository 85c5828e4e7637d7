// Package config loads server settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	DatabaseURL    string // empty runs on the in-memory store
	MigrationsPath string
	JWTSecret      string
	GRPCPort       string
	WebPort        string
	AppURL         string

	RedisAddr       string // empty uses an in-process cache
	RedisPassword   string
	RedisDB         int
	HistoryCacheTTL time.Duration

	SendGridAPIKey string
	SMTPHost       string
	SMTPPort       int
	SMTPUsername   string
	SMTPPassword   string
	MailFrom       string
	MailFromName   string

	LogLevel  string
	LogFormat string

	RateLimitRPS   float64
	RateLimitBurst int
}

var defaults = map[string]any{
	"migrations_path":   "db/migrations",
	"port":              "50051",
	"web_port":          "8080",
	"app_url":           "http://localhost:3000",
	"redis_db":          0,
	"history_cache_ttl": "5m",
	"smtp_port":         587,
	"mail_from":         "no-reply@medtrack.local",
	"mail_from_name":    "MedTrack",
	"log_level":         "info",
	"log_format":        "json",
	"rate_limit_rps":    5.0,
	"rate_limit_burst":  10,
}

// Load reads envFiles (missing files are ignored) into the process
// environment, then resolves every setting from it.
func Load(envFiles ...string) (*Config, error) {
	_ = godotenv.Load(envFiles...)

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()
	// AutomaticEnv only answers keys viper already knows about
	for _, k := range []string{"database_url", "jwt_secret", "redis_addr", "redis_password",
		"sendgrid_api_key", "smtp_host", "smtp_username", "smtp_password"} {
		_ = v.BindEnv(k)
	}

	cfg := &Config{
		DatabaseURL:     v.GetString("database_url"),
		MigrationsPath:  v.GetString("migrations_path"),
		JWTSecret:       v.GetString("jwt_secret"),
		GRPCPort:        v.GetString("port"),
		WebPort:         v.GetString("web_port"),
		AppURL:          v.GetString("app_url"),
		RedisAddr:       v.GetString("redis_addr"),
		RedisPassword:   v.GetString("redis_password"),
		RedisDB:         v.GetInt("redis_db"),
		HistoryCacheTTL: v.GetDuration("history_cache_ttl"),
		SendGridAPIKey:  v.GetString("sendgrid_api_key"),
		SMTPHost:        v.GetString("smtp_host"),
		SMTPPort:        v.GetInt("smtp_port"),
		SMTPUsername:    v.GetString("smtp_username"),
		SMTPPassword:    v.GetString("smtp_password"),
		MailFrom:        v.GetString("mail_from"),
		MailFromName:    v.GetString("mail_from_name"),
		LogLevel:        v.GetString("log_level"),
		LogFormat:       v.GetString("log_format"),
		RateLimitRPS:    v.GetFloat64("rate_limit_rps"),
		RateLimitBurst:  v.GetInt("rate_limit_burst"),
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if cfg.HistoryCacheTTL <= 0 {
		return nil, errors.New("HISTORY_CACHE_TTL must be positive")
	}
	return cfg, nil
}
