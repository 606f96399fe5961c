package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// MissingConfigError é retornado quando um componente precisa de um valor
// de configuração que não foi definido.
type MissingConfigError struct {
	Component string
	Keys      []string
}

func (e *MissingConfigError) Error() string {
	return fmt.Sprintf("%s: missing configuration %s", e.Component, strings.Join(e.Keys, ", "))
}

type ServerConfig struct {
	Port           string
	AllowedOrigins []string
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// MetaConfig carries the Conversions API credentials and funnel copy sent
// along with every event.
type MetaConfig struct {
	PixelID           string
	AccessToken       string
	APIVersion        string
	BaseURL           string
	Timeout           time.Duration
	LeadSourceURL     string
	PurchaseSourceURL string
	DefaultSourceURL  string
	LeadContentName   string
	PhoneRegion       string
}

// Validate reports the credentials required to talk to the Conversions API.
func (c MetaConfig) Validate() error {
	var missing []string
	if c.PixelID == "" {
		missing = append(missing, "FACEBOOK_PIXEL_ID")
	}
	if c.AccessToken == "" {
		missing = append(missing, "FACEBOOK_ACCESS_TOKEN")
	}
	if len(missing) > 0 {
		return &MissingConfigError{Component: "meta capi", Keys: missing}
	}
	return nil
}

type HotmartConfig struct {
	WebhookSecret      string
	InsecureSkipVerify bool
}

type RabbitMQConfig struct {
	URL string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	DedupTTL time.Duration
}

type MailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	AlertTo  string
}

// Enabled is true when SMTP and an alert recipient are both set.
func (c MailConfig) Enabled() bool {
	return c.Host != "" && c.AlertTo != ""
}

type AttributionConfig struct {
	MaxAttempts   int
	SweepInterval time.Duration
	StaleAfter    time.Duration
}

// RateLimitConfig indicates how many requests are allowed within a given interval.
type RateLimitConfig struct {
	Requests int
	Interval time.Duration
}

// Config aggregates application-wide configuration values.
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Meta        MetaConfig
	Hotmart     HotmartConfig
	RabbitMQ    RabbitMQConfig
	Redis       RedisConfig
	Mail        MailConfig
	Attribution AttributionConfig
	RateLimit   RateLimitConfig
}

// Load reads configuration from environment variables and applies defaults.
// A missing DATABASE_URL is the only fatal condition at this point; the
// remaining secrets are checked by the component that needs them.
func Load() (*Config, error) {
	metaTimeout, err := getEnvDuration("META_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}
	connMaxLifetime, err := getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	if err != nil {
		return nil, err
	}
	dedupTTL, err := getEnvDuration("REDIS_DEDUP_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}
	sweepInterval, err := getEnvDuration("ATTRIBUTION_SWEEP_INTERVAL", 10*time.Minute)
	if err != nil {
		return nil, err
	}
	staleAfter, err := getEnvDuration("ATTRIBUTION_STALE_AFTER", 15*time.Minute)
	if err != nil {
		return nil, err
	}
	rl, err := ParseRateLimit(getEnvString("RATE_LIMIT_QUIZ", "10/min"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_QUIZ value: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnvString("PORT", "8080"),
			AllowedOrigins: splitList(getEnvString("CORS_ALLOWED_ORIGINS", "*")),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: connMaxLifetime,
		},
		Meta: metaFromEnv(metaTimeout),
		Hotmart: HotmartConfig{
			WebhookSecret:      os.Getenv("HOTMART_WEBHOOK_SECRET"),
			InsecureSkipVerify: getEnvBool("HOTMART_INSECURE_SKIP_VERIFY", false),
		},
		RabbitMQ: RabbitMQConfig{
			URL: os.Getenv("RABBITMQ_URL"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getEnvInt("REDIS_DB", 0),
			DedupTTL: dedupTTL,
		},
		Mail: MailConfig{
			Host:     os.Getenv("MAIL_HOST"),
			Port:     getEnvInt("MAIL_PORT", 587),
			User:     os.Getenv("MAIL_USER"),
			Password: os.Getenv("MAIL_PASS"),
			From:     getEnvString("MAIL_FROM", "nao-responda@seuquiz.com.br"),
			AlertTo:  os.Getenv("MAIL_ALERT_TO"),
		},
		Attribution: AttributionConfig{
			MaxAttempts:   getEnvInt("ATTRIBUTION_MAX_ATTEMPTS", 5),
			SweepInterval: sweepInterval,
			StaleAfter:    staleAfter,
		},
		RateLimit: rl,
	}

	if err := applyFunnelFromEnv(cfg); err != nil {
		return nil, err
	}

	if cfg.Database.URL == "" {
		return nil, &MissingConfigError{Component: "database", Keys: []string{"DATABASE_URL"}}
	}

	return cfg, nil
}

// LoadMeta reads only the Conversions API section, for tools that never
// touch the database.
func LoadMeta() (MetaConfig, error) {
	timeout, err := getEnvDuration("META_TIMEOUT", 5*time.Second)
	if err != nil {
		return MetaConfig{}, err
	}
	cfg := &Config{Meta: metaFromEnv(timeout)}
	if err := applyFunnelFromEnv(cfg); err != nil {
		return MetaConfig{}, err
	}
	return cfg.Meta, nil
}

func metaFromEnv(timeout time.Duration) MetaConfig {
	return MetaConfig{
		PixelID:           firstNonEmpty(os.Getenv("FACEBOOK_PIXEL_ID"), os.Getenv("VITE_FACEBOOK_PIXEL_ID")),
		AccessToken:       os.Getenv("FACEBOOK_ACCESS_TOKEN"),
		APIVersion:        getEnvString("META_API_VERSION", "v24.0"),
		BaseURL:           getEnvString("META_BASE_URL", "https://graph.facebook.com"),
		Timeout:           timeout,
		LeadSourceURL:     getEnvString("META_LEAD_SOURCE_URL", "https://seuquiz.com.br/quiz/results"),
		PurchaseSourceURL: getEnvString("META_PURCHASE_SOURCE_URL", "https://seuquiz.com.br/checkout/success"),
		DefaultSourceURL:  getEnvString("META_DEFAULT_SOURCE_URL", "https://seuquiz.com.br"),
		LeadContentName:   getEnvString("META_LEAD_CONTENT_NAME", "Quiz - Sono do Bebê"),
		PhoneRegion:       getEnvString("PHONE_DEFAULT_REGION", "BR"),
	}
}

func applyFunnelFromEnv(cfg *Config) error {
	if path := os.Getenv("FUNNEL_CONFIG_FILE"); path != "" {
		return ApplyFunnelFile(cfg, path)
	}
	return nil
}

// ParseRateLimit parses values like "10/min" or "3/s".
func ParseRateLimit(value string) (RateLimitConfig, error) {
	parts := strings.Split(value, "/")
	if len(parts) != 2 {
		return RateLimitConfig{}, fmt.Errorf("expected format <requests>/<interval>, got %q", value)
	}

	requests, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || requests <= 0 {
		return RateLimitConfig{}, fmt.Errorf("invalid request count: %v", parts[0])
	}

	unit := strings.ToLower(strings.TrimSpace(parts[1]))
	var interval time.Duration
	switch unit {
	case "s", "sec", "second", "seconds":
		interval = time.Second
	case "m", "min", "minute", "minutes":
		interval = time.Minute
	case "h", "hr", "hour", "hours":
		interval = time.Hour
	default:
		return RateLimitConfig{}, fmt.Errorf("unsupported interval unit: %s", unit)
	}

	return RateLimitConfig{Requests: requests, Interval: interval}, nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %q (%w)", key, value, err)
		}
		return duration, nil
	}
	return defaultValue, nil
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
