// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkpress Contributors

// Package config loads the plugin core's configuration via viper with the
// usual precedence: flags > environment > config file > defaults.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	inkerr "github.com/inkpress-dev/inkpress/pkg/errors"
)

// Config is the plugin core's configuration.
type Config struct {
	Plugins PluginsConfig `mapstructure:"plugins"`
	Sandbox SandboxConfig `mapstructure:"sandbox"`
}

// PluginsConfig locates plugin directories and persisted state.
type PluginsConfig struct {
	Dir    string `mapstructure:"dir"`
	DBPath string `mapstructure:"db_path"`
}

// SandboxConfig controls the hook worker subprocess.
type SandboxConfig struct {
	WorkerPath string        `mapstructure:"worker_path"`
	Timeout    time.Duration `mapstructure:"timeout"`
	Bubblewrap bool          `mapstructure:"bubblewrap"`
}

// SetDefaults installs default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("plugins.dir", "plugins")
	v.SetDefault("plugins.db_path", "inkpress-plugins.db")
	v.SetDefault("sandbox.worker_path", "hookworker")
	v.SetDefault("sandbox.timeout", "10s")
	v.SetDefault("sandbox.bubblewrap", false)
}

// SetupEnv binds INKPRESS_-prefixed environment variables on v.
func SetupEnv(v *viper.Viper) {
	v.SetEnvPrefix("INKPRESS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// FromViper unmarshals and validates the configuration held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, inkerr.Wrap(err, inkerr.CodeConfigParseInvalidFormat,
			"unmarshalling configuration")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Plugins.Dir) == "" {
		return inkerr.New(inkerr.CodeConfigInvalidValue, "plugins.dir must not be empty")
	}
	if strings.TrimSpace(c.Sandbox.WorkerPath) == "" {
		return inkerr.New(inkerr.CodeConfigInvalidValue, "sandbox.worker_path must not be empty")
	}
	if c.Sandbox.Timeout <= 0 {
		return inkerr.New(inkerr.CodeConfigInvalidValue, "sandbox.timeout must be positive")
	}
	return nil
}
