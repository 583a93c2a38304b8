// Package config loads simpledb's CLI configuration, layering (in order of
// increasing precedence) built-in defaults, an optional config file, and
// environment variables/flags bound by the caller.
package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config is the resolved set of settings simpledb's CLI reads from.
type Config struct {
	DBDir        string `mapstructure:"db_dir"`
	OutputFormat string `mapstructure:"output_format"` // "json" | "table"
	LogLevel     string `mapstructure:"log_level"`      // "debug" | "info" | "warn" | "error"
}

// DefaultConfig returns the built-in defaults, used when no config file or
// override is present.
func DefaultConfig() Config {
	return Config{
		DBDir:        "./simpledb-data",
		OutputFormat: "table",
		LogLevel:     "info",
	}
}

// Load reads simpledb.{yaml,json,toml} from the working directory (and, if
// configPath is non-empty, that explicit path instead), falling back to
// DefaultConfig for anything unset. Environment variables prefixed
// SIMPLEDB_ override file values.
func Load(configPath string) (Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("db_dir", defaults.DBDir)
	v.SetDefault("output_format", defaults.OutputFormat)
	v.SetDefault("log_level", defaults.LogLevel)

	v.SetEnvPrefix("SIMPLEDB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("simpledb")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
