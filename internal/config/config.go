package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the root configuration structure for the application
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	Queue   QueueConfig   `mapstructure:"queue"`
	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// ServerConfig holds the network settings
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           string        `mapstructure:"port"`
	MaxLineLength  int           `mapstructure:"max_line_length"` // longest accepted request line, in bytes
	MaxConnections int           `mapstructure:"max_connections"` // size of the connection handler pool
	RequestTimeout time.Duration `mapstructure:"request_timeout"` // 0 waits forever
}

// StorageConfig defines the internal structure of the storage engine
type StorageConfig struct {
	InitialSize int    `mapstructure:"initial_size"`
	ExpiryIndex string `mapstructure:"expiry_index"` // list, heap
}

// QueueConfig defines the request queue in front of the storage engine
type QueueConfig struct {
	Capacity      int           `mapstructure:"capacity"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"` // 0 disables the periodic expiration sweep
}

// LogConfig defines logging verbosity and output style
type LogConfig struct {
	Level      string `mapstructure:"level"`  // debug, info, warn, error
	Format     string `mapstructure:"format"` // json, console
	File       string `mapstructure:"file"`   // empty means stdout
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// MetricsConfig defines the prometheus endpoint
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}

// Load reads the configuration from a file and overrides it with environment variables
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(path)
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("STARLIGHT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns the configuration used when no file or environment overrides exist
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// defaults are static, a failure here is a programming error
		panic(err)
	}
	return &cfg
}

// Validate rejects values the server cannot start with
func (c *Config) Validate() error {
	switch c.Storage.ExpiryIndex {
	case "list", "heap":
	default:
		return fmt.Errorf("storage.expiry_index: unknown index %q", c.Storage.ExpiryIndex)
	}

	if c.Server.MaxLineLength <= 0 {
		return errors.New("server.max_line_length must be positive")
	}
	if c.Server.MaxConnections <= 0 {
		return errors.New("server.max_connections must be positive")
	}
	if c.Server.RequestTimeout < 0 {
		return errors.New("server.request_timeout must not be negative")
	}
	if c.Queue.Capacity < 0 {
		return errors.New("queue.capacity must not be negative")
	}

	return nil
}

// setDefaults populates viper with fallback values if they are not provided via file or ENV
func setDefaults(v *viper.Viper) {
	// Server
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "5555")
	v.SetDefault("server.max_line_length", 8192)
	v.SetDefault("server.max_connections", 1024)
	v.SetDefault("server.request_timeout", "5s")

	// Storage
	v.SetDefault("storage.initial_size", 1024)
	v.SetDefault("storage.expiry_index", "list")

	// Queue
	v.SetDefault("queue.capacity", 1024)
	v.SetDefault("queue.sweep_interval", "0s")

	// Logger
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)

	// Metrics
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.address", "127.0.0.1:9105")
}
