package config

import (
	"fmt"
	"time"

	"github.com/advisornet/reportd/pkg/utils"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Workflow WorkflowConfig `mapstructure:"workflow"`
	Notifier NotifierConfig `mapstructure:"notifier"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsDir   string        `mapstructure:"migrations_dir"`
}

// WorkflowConfig holds approval workflow configuration
type WorkflowConfig struct {
	// DefaultApprovalOrgUUID is the organization whose approval chain is
	// used when a report's author has no organization of their own.
	DefaultApprovalOrgUUID string `mapstructure:"default_approval_org_uuid"`
	// SupportEmail is surfaced to users when no approval chain can be
	// resolved for a report.
	SupportEmail string `mapstructure:"support_email"`
}

// NotifierConfig holds notification dispatch configuration
type NotifierConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
	BatchSize    int           `mapstructure:"batch_size"`
	SenderName   string        `mapstructure:"sender_name"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	// Set defaults
	setDefaults()

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Override with environment variables
	bindEnvVars()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 30*time.Second)

	// Database defaults
	viper.SetDefault("database.path", "data/reportd.db")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	viper.SetDefault("database.migrations_dir", "migrations")

	// Notifier defaults
	viper.SetDefault("notifier.poll_interval", 15*time.Second)
	viper.SetDefault("notifier.batch_size", 20)
	viper.SetDefault("notifier.sender_name", "Report Workflow")

	// Logger defaults
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.output_path", "stdout")
	viper.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars() {
	viper.BindEnv("workflow.default_approval_org_uuid", "DEFAULT_APPROVAL_ORG_UUID")
	viper.BindEnv("workflow.support_email", "SUPPORT_EMAIL")
	viper.BindEnv("database.path", "DATABASE_PATH")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Workflow.SupportEmail == "" {
		return fmt.Errorf("workflow.support_email is required")
	}
	if err := utils.ValidateEmail(c.Workflow.SupportEmail); err != nil {
		return fmt.Errorf("workflow.support_email: %w", err)
	}
	if c.Notifier.BatchSize <= 0 {
		return fmt.Errorf("notifier.batch_size must be positive")
	}
	return nil
}
