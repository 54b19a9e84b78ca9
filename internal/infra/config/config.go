// internal/infra/config/config.go
package config

import (
	"os"
	"time"
)

// Config はアプリケーション全体の環境変数設定を保持します。
type Config struct {
	Port                     string
	FirestoreProjectID       string
	FirestoreCredentialsFile string
	GCSBucket                string
	AllowedOrigin            string

	// Mail
	SendGridAPIKey string // env 直値 or "sm://secret-id"（Secret Manager 解決）
	MailFromName   string
	MailFromEmail  string

	// Auth
	JWTSecret string // env 直値 or "sm://secret-id"
	TokenTTL  time.Duration

	// Recovery links
	RecoveryBaseURL string

	// Sweep knobs
	CartIdleThreshold     time.Duration
	CheckoutIdleThreshold time.Duration
	PaymentRetryGrace     time.Duration
	SweepSchedule         string // cron spec

	// Discounts
	DiscountPercent       int
	DiscountLifetime      time.Duration
	DiscountReminderDelay time.Duration

	// Reporting database (PostgreSQL). Empty host disables the archive mirror.
	PGHost     string
	PGPort     string
	PGUser     string
	PGPassword string
	PGDatabase string
}

// Load は環境変数を読み込み Config を返します。
func Load() *Config {
	defaultProject := getenvDefault("GCP_PROJECT_ID", "vornify-production")

	return &Config{
		Port:                     getenvDefault("PORT", "8080"),
		FirestoreProjectID:       getenvDefault("FIRESTORE_PROJECT_ID", defaultProject),
		FirestoreCredentialsFile: os.Getenv("FIRESTORE_CREDENTIALS_FILE"),
		GCSBucket:                getenvDefault("GCS_BUCKET", "vornify-product-images"),
		AllowedOrigin:            os.Getenv("ALLOWED_ORIGIN"),

		SendGridAPIKey: os.Getenv("SENDGRID_API_KEY"),
		MailFromName:   getenvDefault("MAIL_FROM_NAME", "Vornify"),
		MailFromEmail:  getenvDefault("MAIL_FROM_EMAIL", "no-reply@vornify.se"),

		JWTSecret: os.Getenv("JWT_SECRET"),
		TokenTTL:  getenvDuration("TOKEN_TTL", 24*time.Hour),

		RecoveryBaseURL: getenvDefault("RECOVERY_BASE_URL", "https://shop.vornify.se"),

		CartIdleThreshold:     getenvDuration("CART_IDLE_THRESHOLD", 30*time.Minute),
		CheckoutIdleThreshold: getenvDuration("CHECKOUT_IDLE_THRESHOLD", time.Hour),
		PaymentRetryGrace:     getenvDuration("PAYMENT_RETRY_GRACE", 15*time.Minute),
		SweepSchedule:         getenvDefault("SWEEP_SCHEDULE", "*/10 * * * *"),

		DiscountPercent:       10,
		DiscountLifetime:      getenvDuration("DISCOUNT_LIFETIME", 14*24*time.Hour),
		DiscountReminderDelay: getenvDuration("DISCOUNT_REMINDER_DELAY", 7*24*time.Hour),

		PGHost:     os.Getenv("PG_HOST"),
		PGPort:     getenvDefault("PG_PORT", "5432"),
		PGUser:     os.Getenv("PG_USER"),
		PGPassword: os.Getenv("PG_PASSWORD"),
		PGDatabase: getenvDefault("PG_DATABASE", "vornify_reporting"),
	}
}

// TemplateIDs returns the SendGrid dynamic template ids by mail kind key.
// Unset entries fall back to plain-text mail in the dispatcher.
func (c *Config) TemplateIDs() map[string]string {
	out := map[string]string{}
	for kind, env := range map[string]string{
		"abandoned_cart":     "SENDGRID_TPL_ABANDONED_CART",
		"checkout_recovery":  "SENDGRID_TPL_CHECKOUT_RECOVERY",
		"payment_retry":      "SENDGRID_TPL_PAYMENT_RETRY",
		"order_confirmation": "SENDGRID_TPL_ORDER_CONFIRMATION",
		"discount_welcome":   "SENDGRID_TPL_DISCOUNT_WELCOME",
		"discount_reminder":  "SENDGRID_TPL_DISCOUNT_REMINDER",
	} {
		if v := os.Getenv(env); v != "" {
			out[kind] = v
		}
	}
	return out
}

// HasPostgres reports whether the reporting mirror is configured.
func (c *Config) HasPostgres() bool {
	return c != nil && c.PGHost != "" && c.PGUser != ""
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
