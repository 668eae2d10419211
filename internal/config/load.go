package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable the loader reads,
// e.g. TODO_DATABASE_URL or TODO_SCHEDULER_LOOKAHEAD.
const EnvPrefix = "TODO"

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom behaves like Load but reads the given config file instead of
// searching the default locations. An empty path falls back to the search.
func LoadFrom(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/todo-api")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnv(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	v.SetDefault("auth.bcrypt_cost", 10)
	v.SetDefault("auth.token_lifetime_minutes", 60)

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.reminder_interval", time.Minute)
	v.SetDefault("scheduler.archival_interval", 10*time.Minute)
	v.SetDefault("scheduler.lookahead", 5*time.Minute)
	v.SetDefault("scheduler.archival_grace", 72*time.Hour)
	v.SetDefault("scheduler.concurrency", 4)
	v.SetDefault("scheduler.task_timeout", 30*time.Second)

	v.SetDefault("notifier.driver", "log")
}

// bindEnv registers keys that have no default so that AutomaticEnv picks
// them up during Unmarshal.
func bindEnv(v *viper.Viper) {
	keys := []string{
		"database.url",
		"auth.jwt_secret",
		"notifier.sender",
		"notifier.gmail_client_id",
		"notifier.gmail_client_secret",
		"notifier.gmail_refresh_token",
	}
	for _, key := range keys {
		// BindEnv only fails when called without a key
		_ = v.BindEnv(key)
	}
}
