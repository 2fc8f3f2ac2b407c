package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v11"
)

// Lead storage backends.
const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
)

// JWTConfig defines issuer/secret pair for auth verification.
type JWTConfig struct {
	Issuer string
	Secret []byte
}

// MessengerConfig points at the messenger gateway used for staff chat notices.
type MessengerConfig struct {
	Endpoint           string        `env:"MESSENGER_GATEWAY_URL" envDefault:"http://messenger-gateway:3000"`
	DiscordDestination string        `env:"MESSENGER_DISCORD_INCOMING_DESTINATION"`
	SlackDestination   string        `env:"MESSENGER_SLACK_DESTINATION"`
	Timeout            time.Duration `env:"MESSENGER_GATEWAY_TIMEOUT" envDefault:"3s"`
	DiscordAttempts    int           `env:"MESSENGER_DISCORD_ATTEMPTS" envDefault:"3"`
	RetryDelay         time.Duration `env:"MESSENGER_RETRY_DELAY" envDefault:"200ms"`
}

// MailgunConfig configures staff email.
type MailgunConfig struct {
	Domain  string   `env:"MAILGUN_DOMAIN"`
	APIKey  string   `env:"MAILGUN_API_KEY"`
	APIBase string   `env:"MAILGUN_API_BASE"`
	From    string   `env:"MAILGUN_FROM"`
	To      []string `env:"MAILGUN_TO" envSeparator:","`
}

// RabbitMQConfig configures lead event publishing. Publishing is off when URL is empty.
type RabbitMQConfig struct {
	URL        string `env:"RABBITMQ_URL"`
	Exchange   string `env:"RABBITMQ_EXCHANGE" envDefault:"revision-landing.leads"`
	RoutingKey string `env:"RABBITMQ_ROUTING_KEY" envDefault:"lead.created"`
}

// Config holds runtime configuration shared across the application.
type Config struct {
	Addr                         string        `env:"HTTP_ADDR" envDefault:":8080"`
	LeadStore                    string        `env:"LEAD_STORE" envDefault:"mongo"`
	MongoURI                     string        `env:"MONGO_URI" envDefault:"mongodb://mongo:27017"`
	MongoDatabase                string        `env:"MONGO_DB" envDefault:"revision-landing"`
	LeadCollection               string        `env:"LEAD_COLLECTION" envDefault:"leads"`
	FailedNotificationCollection string        `env:"FAILED_NOTIFICATION_COLLECTION" envDefault:"failed_notifications"`
	PostgresDSN                  string        `env:"POSTGRES_DSN"`
	Timeout                      time.Duration `env:"MONGO_CONNECT_TIMEOUT" envDefault:"10s"`
	Timezone                     string        `env:"TIMEZONE" envDefault:"Asia/Seoul"`
	AllowedOrigins               []string      `env:"API_ALLOWED_ORIGINS" envSeparator:","`
	MediaBaseURL                 string        `env:"MEDIA_BASE_URL"`

	SessionSecret       string        `env:"SESSION_SECRET"`
	SessionCookieSecure bool          `env:"SESSION_COOKIE_SECURE" envDefault:"false"`
	SessionTTL          time.Duration `env:"SESSION_TTL" envDefault:"2h"`
	SessionSweep        string        `env:"SESSION_SWEEP_SCHEDULE" envDefault:"@every 10m"`
	SessionMaxEntries   int           `env:"SESSION_MAX_ENTRIES" envDefault:"50000"`

	AdminJWTSecret   string `env:"ADMIN_JWT_SECRET"`
	AdminJWTIssuer   string `env:"ADMIN_JWT_ISSUER" envDefault:"revision-landing-admin"`
	JWTAudience      string `env:"AUTH_JWT_AUDIENCE"`
	AdminLeadBaseURL string `env:"ADMIN_LEAD_BASE_URL"`

	Messenger MessengerConfig
	Mailgun   MailgunConfig
	RabbitMQ  RabbitMQConfig

	LeadRateLimitPerMin int           `env:"LEAD_RATE_LIMIT_PER_MIN" envDefault:"5"`
	LeadRateLimitBurst  int           `env:"LEAD_RATE_LIMIT_BURST" envDefault:"3"`
	TrustedProxyCount   int           `env:"TRUSTED_PROXY_COUNT" envDefault:"0"`
	StorageMaxAttempts  int           `env:"STORAGE_MAX_ATTEMPTS" envDefault:"3"`
	RequestTimeout      time.Duration `env:"REQUEST_TIMEOUT" envDefault:"5s"`
	NotifyRetrySchedule string        `env:"NOTIFY_RETRY_SCHEDULE" envDefault:"@every 5m"`
	NotifyMaxAttempts   int           `env:"NOTIFY_MAX_ATTEMPTS" envDefault:"10"`

	ServerLog *log.Logger
}

// Load reads environment variables and returns a fully populated Config.
func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("環境変数の読み込みに失敗: %w", err)
	}

	cfg.LeadStore = strings.ToLower(strings.TrimSpace(cfg.LeadStore))
	cfg.AllowedOrigins = trimList(cfg.AllowedOrigins, nil)
	cfg.Mailgun.To = trimList(cfg.Mailgun.To, nil)
	cfg.ServerLog = log.New(os.Stdout, "[revision-landing-api] ", log.LstdFlags|log.Lshortfile)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	cfg.ServerLog.Printf("loaded config: leadStore=%q messengerEndpoint=%q adminAuth=%t rabbitmq=%t mailgun=%t",
		cfg.LeadStore, cfg.Messenger.Endpoint, len(cfg.JWTConfigs()) > 0, cfg.RabbitMQ.URL != "", cfg.Mailgun.Domain != "")

	return cfg, nil
}

func (c Config) validate() error {
	var errs []error
	switch c.LeadStore {
	case StoreMongo:
	case StorePostgres:
		if strings.TrimSpace(c.PostgresDSN) == "" {
			errs = append(errs, errors.New("POSTGRES_DSN must be configured when LEAD_STORE=postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("LEAD_STORE must be %q or %q, got %q", StoreMongo, StorePostgres, c.LeadStore))
	}
	if strings.TrimSpace(c.SessionSecret) == "" {
		errs = append(errs, errors.New("SESSION_SECRET must be configured"))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("TIMEZONE: %w", err))
	}
	if c.LeadRateLimitPerMin < 0 || c.LeadRateLimitBurst < 0 {
		errs = append(errs, errors.New("LEAD_RATE_LIMIT_* must not be negative"))
	}
	if c.TrustedProxyCount < 0 {
		errs = append(errs, errors.New("TRUSTED_PROXY_COUNT must not be negative"))
	}
	if c.StorageMaxAttempts < 1 {
		errs = append(errs, errors.New("STORAGE_MAX_ATTEMPTS must be at least 1"))
	}
	return errors.Join(errs...)
}

// JWTConfigs returns the accepted admin token issuers. Empty disables admin routes.
func (c Config) JWTConfigs() []JWTConfig {
	secret := strings.TrimSpace(c.AdminJWTSecret)
	if secret == "" {
		return nil
	}
	return []JWTConfig{{
		Issuer: strings.TrimSpace(c.AdminJWTIssuer),
		Secret: []byte(secret),
	}}
}

// Location returns the configured display timezone.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func trimList(values, fallback []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
