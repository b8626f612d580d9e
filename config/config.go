package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env        string
	Port       string
	DBURL      string
	JWTSecret  string
	AppURL     string
	CORSOrigin string
	Currency   string
	LogLevel   string

	RequestTimeout  time.Duration
	ProviderTimeout time.Duration

	EnrollRetryAttempts int
	EnrollRetryDelay    time.Duration

	PendingPurchaseTTL time.Duration
	SweepSchedule      string

	RedisURL string
	OTPTTL   time.Duration

	Stripe   StripeConfig
	Razorpay RazorpayConfig
	SMTP     SMTPConfig
	Google   GoogleConfig
}

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
}

func (s StripeConfig) Enabled() bool { return s.SecretKey != "" }

type RazorpayConfig struct {
	KeyID         string
	KeySecret     string
	WebhookSecret string
}

func (r RazorpayConfig) Enabled() bool { return r.KeyID != "" && r.KeySecret != "" }

type SMTPConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	From     string
}

func (s SMTPConfig) Enabled() bool { return s.Host != "" && s.From != "" }

type GoogleConfig struct {
	ClientID         string
	ClientSecret     string
	RedirectURL      string
	FrontendRedirect string
}

func (g GoogleConfig) Enabled() bool {
	return g.ClientID != "" && g.ClientSecret != "" && g.RedirectURL != ""
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Using system environment variables.")
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from an arbitrary lookup function.
func FromEnv(lookup func(string) (string, bool)) (*Config, error) {
	e := envReader{lookup: lookup}

	cfg := &Config{
		Env:       e.get("APP_ENV", "development"),
		Port:      e.get("PORT", "8080"),
		DBURL:     e.must("DB_URL"),
		JWTSecret: e.must("JWT_SECRET"),
		AppURL:    strings.TrimRight(e.get("APP_URL", "http://localhost:5173"), "/"),
		Currency:  strings.ToUpper(e.get("CURRENCY", "USD")),
		LogLevel:  e.get("LOG_LEVEL", "info"),

		RequestTimeout:  e.duration("REQUEST_TIMEOUT", 15*time.Second),
		ProviderTimeout: e.duration("PROVIDER_TIMEOUT", 10*time.Second),

		EnrollRetryAttempts: e.int("ENROLL_RETRY_ATTEMPTS", 3),
		EnrollRetryDelay:    e.duration("ENROLL_RETRY_DELAY", 200*time.Millisecond),

		PendingPurchaseTTL: e.duration("PENDING_PURCHASE_TTL", 0),
		SweepSchedule:      e.get("SWEEP_SCHEDULE", "0 */15 * * * *"),

		RedisURL: e.get("REDIS_URL", "redis://localhost:6379/0"),
		OTPTTL:   e.duration("OTP_TTL", 10*time.Minute),

		Stripe: StripeConfig{
			SecretKey:     e.get("STRIPE_SECRET_KEY", ""),
			WebhookSecret: e.get("STRIPE_WEBHOOK_SECRET", ""),
		},
		Razorpay: RazorpayConfig{
			KeyID:         e.get("RAZORPAY_KEY_ID", ""),
			KeySecret:     e.get("RAZORPAY_KEY_SECRET", ""),
			WebhookSecret: e.get("RAZORPAY_WEBHOOK_SECRET", ""),
		},
		SMTP: SMTPConfig{
			Host:     e.get("SMTP_HOST", ""),
			Port:     e.get("SMTP_PORT", "587"),
			User:     e.get("SMTP_USER", ""),
			Password: e.get("SMTP_PASSWORD", ""),
			From:     e.get("SMTP_FROM", ""),
		},
		Google: GoogleConfig{
			ClientID:         e.get("GOOGLE_CLIENT_ID", ""),
			ClientSecret:     e.get("GOOGLE_CLIENT_SECRET", ""),
			RedirectURL:      e.get("GOOGLE_REDIRECT_URL", ""),
			FrontendRedirect: e.get("GOOGLE_FRONTEND_REDIRECT", ""),
		},
	}
	cfg.CORSOrigin = e.get("CORS_ORIGIN", cfg.AppURL)

	if cfg.EnrollRetryAttempts < 1 {
		e.errs = append(e.errs, "ENROLL_RETRY_ATTEMPTS must be at least 1")
	}
	if len(e.errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(e.errs, "; "))
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool { return c.Env == "production" }

type envReader struct {
	lookup func(string) (string, bool)
	errs   []string
}

func (e *envReader) must(key string) string {
	v, ok := e.lookup(key)
	if !ok || strings.TrimSpace(v) == "" {
		e.errs = append(e.errs, "missing required environment variable: "+key)
		return ""
	}
	return strings.TrimSpace(v)
}

func (e *envReader) get(key, fallback string) string {
	if v, ok := e.lookup(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func (e *envReader) duration(key string, fallback time.Duration) time.Duration {
	raw := e.get(key, "")
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		e.errs = append(e.errs, fmt.Sprintf("%s: invalid duration %q", key, raw))
		return fallback
	}
	return d
}

func (e *envReader) int(key string, fallback int) int {
	raw := e.get(key, "")
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		e.errs = append(e.errs, fmt.Sprintf("%s: invalid integer %q", key, raw))
		return fallback
	}
	return n
}
