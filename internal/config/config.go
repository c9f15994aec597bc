package config

// Supported values for DatabaseConfig.Driver.
const (
	DriverMongoDB  = "mongodb"
	DriverPostgres = "postgres"
)

// Config is the validated result of Load. Each section maps to a
// TASKS_<SECTION>_<KEY> environment variable prefix.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth"     validate:"required"`
	Email    EmailConfig    `mapstructure:"email"`
	Jobs     JobsConfig     `mapstructure:"jobs"     validate:"required"`
}

// ServerConfig covers the HTTP listener and process logging.
type ServerConfig struct {
	Port                   int      `mapstructure:"port"                     validate:"required,gt=0,lt=65536"`
	LogLevel               string   `mapstructure:"log_level"                validate:"required,oneof=debug info warn error"`
	AllowedOrigins         []string `mapstructure:"allowed_origins"`
	ShutdownTimeoutSeconds int      `mapstructure:"shutdown_timeout_seconds" validate:"gte=1"`
}

// DatabaseConfig selects and locates the backing store.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver" validate:"required,oneof=mongodb postgres"`
	URL    string `mapstructure:"url"    validate:"required,url"`
	// Name selects the MongoDB database. Postgres takes it from the URL.
	Name string `mapstructure:"name" validate:"required"`
}

// AuthConfig drives token signing and password hashing.
type AuthConfig struct {
	JWTSecret                   string `mapstructure:"jwt_secret"                     validate:"required,min=32"`
	TokenLifetimeMinutes        int    `mapstructure:"token_lifetime_minutes"         validate:"required,gt=0"`
	RefreshTokenLifetimeMinutes int    `mapstructure:"refresh_token_lifetime_minutes" validate:"required,gt=0"`
	BcryptCost                  int    `mapstructure:"bcrypt_cost"                    validate:"gte=4,lte=31"`
}

// EmailConfig configures the transactional email provider.
// An empty SendGridAPIKey disables delivery; messages are logged instead.
type EmailConfig struct {
	SendGridAPIKey string `mapstructure:"sendgrid_api_key"`
	FromAddress    string `mapstructure:"from_address"     validate:"required_with=SendGridAPIKey,omitempty,email"`
	FromName       string `mapstructure:"from_name"`
}

// JobsConfig tunes the background job runner.
type JobsConfig struct {
	WorkerCount        int `mapstructure:"worker_count"          validate:"gt=0"`
	QueueSize          int `mapstructure:"queue_size"            validate:"gt=0"`
	StuckJobAgeMinutes int `mapstructure:"stuck_job_age_minutes" validate:"gt=0"`
}
