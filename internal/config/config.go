package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"    validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database"  validate:"required"`
	Auth      AuthConfig      `mapstructure:"auth"      validate:"required"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" validate:"required"`
	Notifier  NotifierConfig  `mapstructure:"notifier"  validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port"             validate:"required,gt=0,lt=65536"`
	LogLevel        string        `mapstructure:"log_level"        validate:"required,oneof=debug info warn error"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"               validate:"required,url"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"    validate:"gte=1"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"    validate:"gte=0"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"gte=0"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret"             validate:"required,min=32"`
	BCryptCost           int    `mapstructure:"bcrypt_cost"            validate:"gte=4,lte=31"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"gt=0"`
}

// SchedulerConfig controls the background task lifecycle scheduler.
// By default reminders are checked every minute with a five minute
// lookahead, and archival runs every ten minutes with a three day grace
// period for tasks that carry a reminder.
type SchedulerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	ReminderInterval time.Duration `mapstructure:"reminder_interval" validate:"gt=0"`
	ArchivalInterval time.Duration `mapstructure:"archival_interval" validate:"gt=0"`
	Lookahead        time.Duration `mapstructure:"lookahead"         validate:"gt=0"`
	ArchivalGrace    time.Duration `mapstructure:"archival_grace"    validate:"gte=0"`
	Concurrency      int           `mapstructure:"concurrency"       validate:"gte=1,lte=64"`
	TaskTimeout      time.Duration `mapstructure:"task_timeout"      validate:"gt=0"`
}

// NotifierConfig selects and configures the reminder transport.
type NotifierConfig struct {
	// Driver is either "gmail" (deliver through the Gmail API) or "log"
	// (write reminders to the application log only).
	Driver string `mapstructure:"driver" validate:"required,oneof=gmail log"`
	Sender string `mapstructure:"sender" validate:"required_if=Driver gmail"`

	GmailClientID     string `mapstructure:"gmail_client_id"     validate:"required_if=Driver gmail"`
	GmailClientSecret string `mapstructure:"gmail_client_secret" validate:"required_if=Driver gmail"`
	GmailRefreshToken string `mapstructure:"gmail_refresh_token" validate:"required_if=Driver gmail"`
}
