// Package config loads go-imagevault's runtime configuration: cache
// sizing, container-unwrap behavior, and registry probe order.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds configuration for opening and reading images.
type Config struct {
	// CacheSizeBytes bounds each QCOW cache's (L2/cluster/sector)
	// memory footprint.
	CacheSizeBytes int64 `mapstructure:"cache_size_bytes"`

	// AutoUnwrapContainers controls whether AppleSingle/MacBinary
	// filters are tried automatically when opening a path, rather
	// than requiring the caller to pick one explicitly.
	AutoUnwrapContainers bool `mapstructure:"auto_unwrap_containers"`

	// RegistryProbeOrder names the plugins to register, in probe
	// order; "clonecd" and "qcow" are the built-ins.
	RegistryProbeOrder []string `mapstructure:"registry_probe_order"`
}

// Load reads go-imagevault configuration using Viper: a YAML file
// named imagevault-config(.yaml) searched across the usual locations,
// overridable by IMAGEVAULT_-prefixed environment variables.
func Load() (*Config, error) {
	viper.SetConfigName("imagevault-config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("../..") // for tests running from subdirectories
	viper.AddConfigPath("$HOME/.imagevault")
	viper.AddConfigPath("/etc/imagevault")

	viper.SetDefault("cache_size_bytes", 16*1024*1024)
	viper.SetDefault("auto_unwrap_containers", true)
	viper.SetDefault("registry_probe_order", []string{"clonecd", "qcow"})

	viper.SetEnvPrefix("IMAGEVAULT")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults.
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}
