package config

import (
	"os"

	"github.com/Skotchmaster/storefront/internal/search"
	"github.com/Skotchmaster/storefront/pkg/config"
)

type ServiceConfig struct {
	config.Config

	StripeSecretKey     string
	StripeWebhookSecret string
	PriceTablePath      string
	BaseURL             string

	MailAPIURL string
	MailAPIKey string
	MailFrom   string

	Search search.Config

	AllowedOrigins []string
}

// Read collects the service keys without enforcing anything.
func Read() ServiceConfig {
	return ServiceConfig{
		Config: config.Load(),

		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		PriceTablePath:      config.EnvDefault("PRICE_TABLE_PATH", "prices.yaml"),
		BaseURL:             config.EnvDefault("APP_BASE_URL", "http://localhost:5173"),

		MailAPIURL: os.Getenv("MAIL_API_URL"),
		MailAPIKey: os.Getenv("MAIL_API_KEY"),
		MailFrom:   config.EnvDefault("MAIL_FROM", "orders@localhost"),

		Search: search.Config{
			URL:      os.Getenv("ES_URL"),
			User:     os.Getenv("ES_USER"),
			Password: os.Getenv("ES_PASSWORD"),
			Index:    config.EnvDefault("ES_INDEX", "products"),
		},

		AllowedOrigins: config.CSV(os.Getenv("ALLOWED_ORIGINS")),
	}
}

// Load is Read plus the keys serve cannot start without. A missing webhook
// secret is allowed; the webhook endpoint then rejects every delivery.
func Load() ServiceConfig {
	cfg := Read()

	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmptyBytes(cfg.JWTAccessSecret, "JWT_SECRET")
	config.MustNonEmptyBytes(cfg.JWTRefreshSecret, "JWT_REFRESH_SECRET")
	config.MustNonEmpty(cfg.StripeSecretKey, "STRIPE_SECRET_KEY")

	return cfg
}

// MailEnabled reports whether transactional email goes to a real provider.
func (c ServiceConfig) MailEnabled() bool {
	return c.MailAPIURL != "" && c.MailAPIKey != ""
}

func (c ServiceConfig) SearchEnabled() bool {
	return c.Search.URL != ""
}
