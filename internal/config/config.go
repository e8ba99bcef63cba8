package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	GitHub   GitHubConfig   `mapstructure:"github"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type DatabaseConfig struct {
	Type                   string `mapstructure:"type"` // "sqlite", "postgres", or "sqlserver"
	DSN                    string `mapstructure:"dsn"`
	MaxOpenConns           int    `mapstructure:"max_open_conns"`
	MaxIdleConns           int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeSeconds int    `mapstructure:"conn_max_lifetime_seconds"`
}

// GitHubConfig configures access to the GitHub API. The token is optional;
// anonymous access is sufficient for public repositories but rate-limited.
type GitHubConfig struct {
	Token   string `mapstructure:"token"`
	BaseURL string `mapstructure:"base_url"`
}

// AnalysisConfig tunes the repository analysis pipeline.
type AnalysisConfig struct {
	CloneDir                    string `mapstructure:"clone_dir"`
	CloneTimeoutSeconds         int    `mapstructure:"clone_timeout_seconds"`
	BranchResolveTimeoutSeconds int    `mapstructure:"branch_resolve_timeout_seconds"`
	CacheFreshnessHours         int    `mapstructure:"cache_freshness_hours"`
	LockStalenessMinutes        int    `mapstructure:"lock_staleness_minutes"`
	InsertBatchSize             int    `mapstructure:"insert_batch_size"`
	TopClassCount               int    `mapstructure:"top_class_count"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level"`  // "debug", "info", "warn", "error"
	Format     string `mapstructure:"format"` // "json" or "text"
	OutputFile string `mapstructure:"output_file"`
	MaxSize    int    `mapstructure:"max_size"` // MB
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"` // days
}

// CloneTimeout returns the clone timeout as a duration.
func (c AnalysisConfig) CloneTimeout() time.Duration {
	return time.Duration(c.CloneTimeoutSeconds) * time.Second
}

// BranchResolveTimeout returns the per-attempt branch resolution timeout.
func (c AnalysisConfig) BranchResolveTimeout() time.Duration {
	return time.Duration(c.BranchResolveTimeoutSeconds) * time.Second
}

// CacheFreshness returns how long a completed analysis is served from cache.
func (c AnalysisConfig) CacheFreshness() time.Duration {
	return time.Duration(c.CacheFreshnessHours) * time.Hour
}

// LockStaleness returns the age after which a processing lease is presumed
// abandoned.
func (c AnalysisConfig) LockStaleness() time.Duration {
	return time.Duration(c.LockStalenessMinutes) * time.Minute
}

func Load() (*Config, error) {
	// Pick up a local .env before viper reads the environment. Missing file
	// is not an error.
	_ = gotenv.Load()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	// Environment variable support: analysis.clone_timeout_seconds becomes
	// TAILRANK_ANALYSIS_CLONE_TIMEOUT_SECONDS
	viper.SetEnvPrefix("TAILRANK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		// A config file is optional; env vars and defaults cover everything.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("database.type", "sqlite")
	viper.SetDefault("database.dsn", "./data/tailrank.db")
	viper.SetDefault("github.base_url", "https://api.github.com")
	viper.SetDefault("analysis.clone_dir", "./data/clones")
	viper.SetDefault("analysis.clone_timeout_seconds", 120)
	viper.SetDefault("analysis.branch_resolve_timeout_seconds", 30)
	viper.SetDefault("analysis.cache_freshness_hours", 48)
	viper.SetDefault("analysis.lock_staleness_minutes", 10)
	viper.SetDefault("analysis.insert_batch_size", 100)
	viper.SetDefault("analysis.top_class_count", 10)
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")
	viper.SetDefault("logging.output_file", "./logs/tailrank.log")
	viper.SetDefault("logging.max_size", 100)
	viper.SetDefault("logging.max_backups", 3)
	viper.SetDefault("logging.max_age", 28)
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	switch c.Database.Type {
	case "sqlite", "postgres", "postgresql", "sqlserver", "mssql":
	default:
		return fmt.Errorf("unsupported database type: %s", c.Database.Type)
	}
	if c.Analysis.CloneTimeoutSeconds <= 0 {
		return fmt.Errorf("analysis.clone_timeout_seconds must be positive")
	}
	if c.Analysis.BranchResolveTimeoutSeconds <= 0 {
		return fmt.Errorf("analysis.branch_resolve_timeout_seconds must be positive")
	}
	if c.Analysis.InsertBatchSize <= 0 {
		return fmt.Errorf("analysis.insert_batch_size must be positive")
	}
	return nil
}
