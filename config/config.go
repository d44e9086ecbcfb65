// Package config holds the configuration of the command line tool.
//
// Values are read, by order of precedence, from command line flags, environment
// variables prefixed with SPARSENUM, and a config.yaml file.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of the environment variables overriding the configuration.
const EnvPrefix = "SPARSENUM"

// Config is the top-level configuration.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Enumerate EnumerateConfig `mapstructure:"enumerate"`
}

// LogConfig controls structured logging level and output format.
type LogConfig struct {
	// Format is either "text" or "json".
	Format string `mapstructure:"format"`
	// Level is one of "none", "debug", "info", "warn" or "error".
	Level string `mapstructure:"level"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	// Addr is the address metrics are served on. Metrics are not served when empty.
	Addr string `mapstructure:"addr"`
}

// EnumerateConfig controls the enumeration.
type EnumerateConfig struct {
	// Limit is the maximal number of results; 0 means no limit.
	Limit int `mapstructure:"limit"`
	// Sequences enumerates sequences instead of conformations.
	Sequences bool `mapstructure:"sequences"`
	// Parallel preprocesses sibling subtrees concurrently.
	Parallel bool `mapstructure:"parallel"`
	// Checks enables runtime checks of the enumeration.
	Checks bool `mapstructure:"checks"`
	// Tolerance is the maximal difference accepted between a score and the oracle's.
	Tolerance float64 `mapstructure:"tolerance"`
}

// DefaultConfig returns the default values of the configuration.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Format: "text",
			Level:  "info",
		},
		Enumerate: EnumerateConfig{
			Limit:     10,
			Checks:    true,
			Tolerance: 1e-6,
		},
	}
}

// Verify checks the configuration is consistent.
func (c *Config) Verify() error {
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("config 'log.format' must be one of ['text', 'json'], got %q", c.Log.Format)
	}
	switch c.Log.Level {
	case "none", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config 'log.level' must be one of ['none', 'debug', 'info', 'warn', 'error'], got %q", c.Log.Level)
	}
	if c.Enumerate.Limit < 0 {
		return fmt.Errorf("config 'enumerate.limit' must be non-negative, got %d", c.Enumerate.Limit)
	}
	if c.Enumerate.Tolerance < 0 {
		return fmt.Errorf("config 'enumerate.tolerance' must be non-negative, got %g", c.Enumerate.Tolerance)
	}
	return nil
}

// NewViper returns a viper instance reading environment variables prefixed with EnvPrefix and,
// if present, a config.yaml file in one of paths.
func NewViper(paths ...string) *viper.Viper {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for _, path := range paths {
		v.AddConfigPath(path)
	}
	def := DefaultConfig()
	v.SetDefault("log.format", def.Log.Format)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("metrics.addr", def.Metrics.Addr)
	v.SetDefault("enumerate.limit", def.Enumerate.Limit)
	v.SetDefault("enumerate.sequences", def.Enumerate.Sequences)
	v.SetDefault("enumerate.parallel", def.Enumerate.Parallel)
	v.SetDefault("enumerate.checks", def.Enumerate.Checks)
	v.SetDefault("enumerate.tolerance", def.Enumerate.Tolerance)
	return v
}

// ReadConfig reads the configuration managed by v, and verifies it.
// A missing config file is not an error.
func ReadConfig(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()
	v.SetTypeByDefaultValue(true)
	if err := v.ReadInConfig(); err != nil {
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Verify(); err != nil {
		return nil, err
	}
	return cfg, nil
}
