package config

import (
	"os"
	"strconv"
	"time"
)

// SMTP holds the outbound mail transport settings. Notifications are
// disabled process-wide when Host is empty.
type SMTP struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	StartTLS bool
}

// Config captures every environment knob the service reads. Loaded once at
// process start and passed down explicitly; nothing reads the environment
// after FromEnv returns.
type Config struct {
	Addr        string
	PostgresDSN string

	AuthSecret string
	TokenTTL   time.Duration

	FrontendURL string

	UploadDir      string
	UploadBaseURL  string
	MaxUploadBytes int64

	RateBurst     int
	RatePerSecond int

	SMTP SMTP
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	frontend := envString("RENTFLOW_FRONTEND_URL", "http://localhost:8080")
	return Config{
		Addr:        envString("RENTFLOW_ADDR", ":8080"),
		PostgresDSN: os.Getenv("RENTFLOW_PG_DSN"),

		AuthSecret: envString("RENTFLOW_AUTH_SECRET", "dev-secret-change-in-production"),
		TokenTTL:   time.Duration(envInt("RENTFLOW_TOKEN_TTL_MINUTES", 30)) * time.Minute,

		FrontendURL: frontend,

		UploadDir:      envString("RENTFLOW_UPLOAD_DIR", "uploads"),
		UploadBaseURL:  envString("RENTFLOW_UPLOAD_BASE_URL", frontend+"/uploads"),
		MaxUploadBytes: envInt64("RENTFLOW_MAX_UPLOAD_BYTES", 10<<20),

		RateBurst:     envInt("RENTFLOW_RATE_BURST", 50),
		RatePerSecond: envInt("RENTFLOW_RATE_PER_SEC", 25),

		SMTP: SMTP{
			Host:     os.Getenv("RENTFLOW_SMTP_HOST"),
			Port:     envInt("RENTFLOW_SMTP_PORT", 587),
			Username: os.Getenv("RENTFLOW_SMTP_USERNAME"),
			Password: os.Getenv("RENTFLOW_SMTP_PASSWORD"),
			From:     os.Getenv("RENTFLOW_SMTP_FROM"),
			StartTLS: envBool("RENTFLOW_SMTP_STARTTLS", true),
		},
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
