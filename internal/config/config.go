package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Queue     QueueConfig
	SMTP      SMTPConfig
	SendGrid  SendGridConfig
	WhatsApp  WhatsAppConfig
	Auth      AuthConfig
	Log       LogConfig
	Scheduler SchedulerConfig
	Company   CompanyConfig
}

type ServerConfig struct {
	Port string
}

// DatabaseConfig selects the GORM dialector. Driver is "postgres" or "sqlite".
type DatabaseConfig struct {
	Driver string
	DSN    string
}

type JWTConfig struct {
	Secret string
	TTL    time.Duration
}

// QueueConfig controls notification delivery. An empty RabbitMQURL selects the in-process queue.
type QueueConfig struct {
	RabbitMQURL string
	Workers     int
	Size        int
	MaxAttempts int
}

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

type SendGridConfig struct {
	APIKey   string
	FromName string
}

type WhatsAppConfig struct {
	GatewayURL string
	Session    string
	APIKey     string
}

type AuthConfig struct {
	ResetCodeTTL time.Duration
}

type LogConfig struct {
	Level  string // "debug", "info", "warn", "error"
	Format string // "json" or "text"
}

// SchedulerConfig holds cron specs for background jobs
type SchedulerConfig struct {
	RetryNotifications string
	PurgeResetCodes    string
}

// CompanyConfig describes the lessor printed on rental contracts.
type CompanyConfig struct {
	Name    string
	Address string
	Phone   string
}

// SetDefaults registers every key with its default value.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("DATABASE_DRIVER", "postgres")
	v.SetDefault("DATABASE_DSN", "host=127.0.0.1 user=postgres password=postgres dbname=rentstore port=5432 sslmode=disable")
	v.SetDefault("JWT_SECRET", "change_me")
	v.SetDefault("JWT_TTL", "24h")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("NOTIFY_WORKERS", 2)
	v.SetDefault("NOTIFY_QUEUE_SIZE", 100)
	v.SetDefault("NOTIFY_MAX_ATTEMPTS", 5)
	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USER", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("SMTP_FROM", "no-reply@rentstore.local")
	v.SetDefault("SENDGRID_API_KEY", "")
	v.SetDefault("SENDGRID_FROM_NAME", "Rentstore")
	v.SetDefault("WHATSAPP_GATEWAY_URL", "")
	v.SetDefault("WHATSAPP_SESSION", "default")
	v.SetDefault("WHATSAPP_API_KEY", "")
	v.SetDefault("RESET_CODE_TTL", "15m")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("CRON_RETRY_NOTIFICATIONS", "@every 5m")
	v.SetDefault("CRON_PURGE_RESET_CODES", "@hourly")
	v.SetDefault("COMPANY_NAME", "Rentstore LLP")
	v.SetDefault("COMPANY_ADDRESS", "")
	v.SetDefault("COMPANY_PHONE", "")
}

// Load reads configuration from the environment and, when CONFIG_FILE is set, from that file.
func Load() (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	v.AutomaticEnv()

	if path := v.GetString("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}
	return FromViper(v)
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{Port: v.GetString("APP_PORT")},
		Database: DatabaseConfig{
			Driver: v.GetString("DATABASE_DRIVER"),
			DSN:    v.GetString("DATABASE_DSN"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("JWT_SECRET"),
			TTL:    v.GetDuration("JWT_TTL"),
		},
		Queue: QueueConfig{
			RabbitMQURL: v.GetString("RABBITMQ_URL"),
			Workers:     v.GetInt("NOTIFY_WORKERS"),
			Size:        v.GetInt("NOTIFY_QUEUE_SIZE"),
			MaxAttempts: v.GetInt("NOTIFY_MAX_ATTEMPTS"),
		},
		SMTP: SMTPConfig{
			Host:     v.GetString("SMTP_HOST"),
			Port:     v.GetInt("SMTP_PORT"),
			User:     v.GetString("SMTP_USER"),
			Password: v.GetString("SMTP_PASSWORD"),
			From:     v.GetString("SMTP_FROM"),
		},
		SendGrid: SendGridConfig{
			APIKey:   v.GetString("SENDGRID_API_KEY"),
			FromName: v.GetString("SENDGRID_FROM_NAME"),
		},
		WhatsApp: WhatsAppConfig{
			GatewayURL: v.GetString("WHATSAPP_GATEWAY_URL"),
			Session:    v.GetString("WHATSAPP_SESSION"),
			APIKey:     v.GetString("WHATSAPP_API_KEY"),
		},
		Auth: AuthConfig{ResetCodeTTL: v.GetDuration("RESET_CODE_TTL")},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Scheduler: SchedulerConfig{
			RetryNotifications: v.GetString("CRON_RETRY_NOTIFICATIONS"),
			PurgeResetCodes:    v.GetString("CRON_PURGE_RESET_CODES"),
		},
		Company: CompanyConfig{
			Name:    v.GetString("COMPANY_NAME"),
			Address: v.GetString("COMPANY_ADDRESS"),
			Phone:   v.GetString("COMPANY_PHONE"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that cannot fall back to a usable value.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.Database.Driver)
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET must not be empty")
	}
	if c.JWT.TTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive")
	}
	if c.Auth.ResetCodeTTL <= 0 {
		return fmt.Errorf("RESET_CODE_TTL must be positive")
	}
	if c.Queue.Workers < 1 {
		c.Queue.Workers = 1
	}
	if c.Queue.MaxAttempts < 1 {
		c.Queue.MaxAttempts = 1
	}
	return nil
}

// EmailConfigured reports whether any real mail transport has credentials.
func (c *Config) EmailConfigured() bool {
	return c.SendGrid.APIKey != "" || (c.SMTP.Host != "" && c.SMTP.User != "")
}
