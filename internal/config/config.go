// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is read once at start. Absent credentials switch the matching capability off
// rather than failing startup.
type Config struct {
	Addr string `envconfig:"ADDR" default:":8080"`

	// PostgresURL selects durable mode when non-empty.
	PostgresURL string `envconfig:"POSTGRES_URL"`

	StripeSecretKey     string `envconfig:"STRIPE_SECRET_KEY"`
	StripePriceID       string `envconfig:"STRIPE_PRICE_ID"`
	StripeWebhookSecret string `envconfig:"STRIPE_WEBHOOK_SECRET"`

	MailTo        string        `envconfig:"MAIL_TO" default:"info@naguprint.fi"`
	MailFrom      string        `envconfig:"MAIL_FROM" default:"BriefBridge <noreply@briefbridge.dev>"`
	ResendAPIKey  string        `envconfig:"RESEND_API_KEY"`
	ResendBaseURL string        `envconfig:"RESEND_BASE_URL" default:"https://api.resend.com"`
	NotifyTimeout time.Duration `envconfig:"NOTIFY_TIMEOUT" default:"10s"`

	// AdminJWTKey, when set, protects brief listing with HS256 bearer tokens.
	AdminJWTKey string `envconfig:"ADMIN_JWT_KEY"`

	ListLimit       int `envconfig:"LIST_LIMIT" default:"100"`
	MemoryRetention int `envconfig:"MEMORY_RETENTION" default:"200"`

	SubmitWindow time.Duration `envconfig:"SUBMIT_WINDOW" default:"10m"`
	SubmitMax    int           `envconfig:"SUBMIT_MAX" default:"20"`

	AllowedOrigin string `envconfig:"ALLOWED_ORIGIN" default:"*"`
}

// Load parses the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values no component can run with.
func (c *Config) Validate() error {
	if c.ListLimit <= 0 {
		return fmt.Errorf("LIST_LIMIT must be positive, got %d", c.ListLimit)
	}
	if c.MemoryRetention <= 0 {
		return fmt.Errorf("MEMORY_RETENTION must be positive, got %d", c.MemoryRetention)
	}
	if c.SubmitMax < 0 {
		return fmt.Errorf("SUBMIT_MAX must not be negative, got %d", c.SubmitMax)
	}
	return nil
}

// DurableEnabled reports whether a Postgres connection is configured.
func (c *Config) DurableEnabled() bool { return c.PostgresURL != "" }

// CheckoutEnabled reports whether checkout sessions can be created.
func (c *Config) CheckoutEnabled() bool { return c.StripeSecretKey != "" && c.StripePriceID != "" }

// WebhookEnabled reports whether webhook events can be verified.
func (c *Config) WebhookEnabled() bool { return c.StripeWebhookSecret != "" }

// NotifyEnabled reports whether operator emails can be sent.
func (c *Config) NotifyEnabled() bool { return c.ResendAPIKey != "" }

// AdminAuthEnabled reports whether listing requires an admin token.
func (c *Config) AdminAuthEnabled() bool { return c.AdminJWTKey != "" }

// RateLimitEnabled reports whether submissions are rate limited.
func (c *Config) RateLimitEnabled() bool {
	return c.DurableEnabled() && c.SubmitMax > 0 && c.SubmitWindow > 0
}
