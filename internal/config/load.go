package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable the loader reads,
// e.g. TASKS_SERVER_PORT for server.port.
const EnvPrefix = "TASKS"

// legacyEnv maps config keys to the unprefixed variable names older
// deployments of this service exported.
var legacyEnv = map[string]string{
	"database.url":           "MONGODB_URL",
	"email.sendgrid_api_key": "SENDGRID_API_KEY",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.shutdown_timeout_seconds", 10)

	v.SetDefault("database.driver", DriverMongoDB)
	v.SetDefault("database.name", "task-manager-api")

	v.SetDefault("auth.token_lifetime_minutes", 60)
	v.SetDefault("auth.refresh_token_lifetime_minutes", 10080)
	v.SetDefault("auth.bcrypt_cost", 10)

	v.SetDefault("email.from_name", "Task Manager")

	v.SetDefault("jobs.worker_count", 2)
	v.SetDefault("jobs.queue_size", 100)
	v.SetDefault("jobs.stuck_job_age_minutes", 30)
}

// keys lists every setting so that environment variables can be bound
// explicitly; viper only unmarshals keys it knows about.
var keys = []string{
	"server.port",
	"server.log_level",
	"server.allowed_origins",
	"server.shutdown_timeout_seconds",
	"database.driver",
	"database.url",
	"database.name",
	"auth.jwt_secret",
	"auth.token_lifetime_minutes",
	"auth.refresh_token_lifetime_minutes",
	"auth.bcrypt_cost",
	"email.sendgrid_api_key",
	"email.from_address",
	"email.from_name",
	"jobs.worker_count",
	"jobs.queue_size",
	"jobs.stuck_job_age_minutes",
}

// Load reads configuration from environment variables and an optional config
// file (config.yaml in the working directory or ./config).
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range keys {
		envNames := []string{EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}
		if legacy, ok := legacyEnv[key]; ok {
			envNames = append(envNames, legacy)
		}
		if err := v.BindEnv(append([]string{key}, envNames...)...); err != nil {
			return nil, fmt.Errorf("failed to bind environment variable for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	cfg.Server.LogLevel = strings.ToLower(strings.TrimSpace(cfg.Server.LogLevel))

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}
