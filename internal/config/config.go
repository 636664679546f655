package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Ledger     LedgerConfig     `mapstructure:"ledger"`
	Governance GovernanceConfig `mapstructure:"governance"`
	Logger     LoggerConfig     `mapstructure:"logger"`
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

// LedgerConfig holds fund accounting configuration
type LedgerConfig struct {
	// ReserveFloor is the minimum balance every manager pool must retain.
	// It is applied at pool creation and never withdrawable afterwards.
	ReserveFloor uint64 `mapstructure:"reserve_floor"`
}

// GovernanceConfig holds the default vote thresholds applied to proposals
// from realms that do not carry their own.
type GovernanceConfig struct {
	QuorumThreshold  uint8 `mapstructure:"quorum_threshold"`
	SupportThreshold uint8 `mapstructure:"support_threshold"`
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

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	bindEnvVars()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

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
	viper.SetDefault("database.path", "data/ledger.db")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	viper.SetDefault("database.migrations_dir", "migrations")

	// Ledger defaults
	viper.SetDefault("ledger.reserve_floor", 0)

	// Governance defaults
	viper.SetDefault("governance.quorum_threshold", 50)
	viper.SetDefault("governance.support_threshold", 50)

	// Logger defaults
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.output_path", "stdout")
	viper.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars() {
	viper.BindEnv("database.path", "LEDGER_DB_PATH")
	viper.BindEnv("ledger.reserve_floor", "LEDGER_RESERVE_FLOOR")
	viper.BindEnv("governance.quorum_threshold", "GOVERNANCE_QUORUM_THRESHOLD")
	viper.BindEnv("governance.support_threshold", "GOVERNANCE_SUPPORT_THRESHOLD")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Governance.QuorumThreshold > 100 {
		return fmt.Errorf("governance.quorum_threshold must be a percentage")
	}
	if c.Governance.SupportThreshold > 100 {
		return fmt.Errorf("governance.support_threshold must be a percentage")
	}
	return nil
}
