package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App     AppConfig
	DB      DBConfig
	Redis   RedisConfig
	Admin   AdminConfig
	SMTP    SMTPConfig
	Paygate PaygateConfig
	Tickets TicketConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env         string `envconfig:"BOXOFFICE_APP_ENV" required:"true"`
	Port        string `envconfig:"BOXOFFICE_APP_PORT" default:"8080"`
	LogLevel    string `envconfig:"BOXOFFICE_LOG_LEVEL" default:"info"`
	AutoMigrate bool   `envconfig:"BOXOFFICE_AUTO_MIGRATE" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"BOXOFFICE_DB_DSN"`
	Driver string `envconfig:"BOXOFFICE_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"BOXOFFICE_DB_HOST"`
	Port     int    `envconfig:"BOXOFFICE_DB_PORT" default:"5432"`
	User     string `envconfig:"BOXOFFICE_DB_USER"`
	Password string `envconfig:"BOXOFFICE_DB_PASSWORD"`
	Name     string `envconfig:"BOXOFFICE_DB_NAME"`
	SSLMode  string `envconfig:"BOXOFFICE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BOXOFFICE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BOXOFFICE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BOXOFFICE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BOXOFFICE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (d *DBConfig) ensureDSN() error {
	if d.DSN != "" {
		return nil
	}
	if d.Host == "" || d.User == "" || d.Name == "" {
		return fmt.Errorf("database DSN or host/user/name components are required")
	}
	d.DSN = fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"BOXOFFICE_REDIS_URL"`
	Address      string        `envconfig:"BOXOFFICE_REDIS_ADDR"`
	Password     string        `envconfig:"BOXOFFICE_REDIS_PASSWORD"`
	DB           int           `envconfig:"BOXOFFICE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BOXOFFICE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BOXOFFICE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BOXOFFICE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BOXOFFICE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BOXOFFICE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// AdminConfig carries the door/admin authentication settings. A single
// operator credential is configured per deployment; there is no user table.
type AdminConfig struct {
	JWTSecret         string        `envconfig:"BOXOFFICE_ADMIN_JWT_SECRET" required:"true"`
	JWTIssuer         string        `envconfig:"BOXOFFICE_ADMIN_JWT_ISSUER" default:"boxoffice"`
	SessionTTL        time.Duration `envconfig:"BOXOFFICE_ADMIN_SESSION_TTL" default:"12h"`
	Username          string        `envconfig:"BOXOFFICE_ADMIN_USERNAME" default:"admin"`
	PasswordHash      string        `envconfig:"BOXOFFICE_ADMIN_PASSWORD_HASH" required:"true"`
	LoginWindow       time.Duration `envconfig:"BOXOFFICE_ADMIN_LOGIN_WINDOW" default:"1m"`
	LoginIPLimit      int           `envconfig:"BOXOFFICE_ADMIN_LOGIN_IP_LIMIT" default:"10"`
	LoginAccountLimit int           `envconfig:"BOXOFFICE_ADMIN_LOGIN_ACCOUNT_LIMIT" default:"5"`
}

type SMTPConfig struct {
	Host     string `envconfig:"BOXOFFICE_SMTP_HOST"`
	Port     int    `envconfig:"BOXOFFICE_SMTP_PORT" default:"587"`
	Username string `envconfig:"BOXOFFICE_SMTP_USERNAME"`
	Password string `envconfig:"BOXOFFICE_SMTP_PASSWORD"`
	From     string `envconfig:"BOXOFFICE_SMTP_FROM"`
	FromName string `envconfig:"BOXOFFICE_SMTP_FROM_NAME" default:"Box Office"`
}

// PaygateConfig describes the external payment gateway integration.
//
// WebhookSecret is the dedicated callback-signing secret; APIKey doubles as a
// fallback signing secret because the gateway has been observed signing with
// either. SuccessStatus is the status code the gateway sends for a completed
// payment.
type PaygateConfig struct {
	BaseURL        string        `envconfig:"BOXOFFICE_PAYGATE_BASE_URL"`
	APIKey         string        `envconfig:"BOXOFFICE_PAYGATE_API_KEY"`
	WebhookSecret  string        `envconfig:"BOXOFFICE_PAYGATE_WEBHOOK_SECRET"`
	SuccessStatus  string        `envconfig:"BOXOFFICE_PAYGATE_SUCCESS_STATUS" default:"1"`
	RequestTimeout time.Duration `envconfig:"BOXOFFICE_PAYGATE_REQUEST_TIMEOUT" default:"15s"`
}

// SigningSecrets returns the configured callback secrets in trial order.
func (p PaygateConfig) SigningSecrets() []string {
	var secrets []string
	if p.WebhookSecret != "" {
		secrets = append(secrets, p.WebhookSecret)
	}
	if p.APIKey != "" && p.APIKey != p.WebhookSecret {
		secrets = append(secrets, p.APIKey)
	}
	return secrets
}

type TicketConfig struct {
	VerifyBaseURL string `envconfig:"BOXOFFICE_TICKET_VERIFY_BASE_URL" required:"true"`
	FontPath      string `envconfig:"BOXOFFICE_TICKET_FONT_PATH" default:"./fonts/DejaVuSans.ttf"`
	VenueName     string `envconfig:"BOXOFFICE_TICKET_VENUE_NAME" default:""`
}
