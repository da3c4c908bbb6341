package core

import (
	"fmt"
	"strings"
)

type LoggingConfig struct {
	GroupName string `koanf:"group_name" mapstructure:"group_name"`
}

type SchedulingConfig struct {
	// Delays strictly below the threshold reinvoke in-process instead of
	// going through the external scheduler.
	LocalThresholdSeconds int64 `koanf:"local_threshold_seconds" mapstructure:"local_threshold_seconds"`
}

type MetricsConfig struct {
	NamespacePrefix string `koanf:"namespace_prefix" mapstructure:"namespace_prefix"`
}

type Config struct {
	// ProviderName is the resource type name, e.g. "Org::Service::Resource".
	ProviderName string           `koanf:"provider_name" mapstructure:"provider_name"`
	Logging      LoggingConfig    `koanf:"logging" mapstructure:"logging"`
	Scheduling   SchedulingConfig `koanf:"scheduling" mapstructure:"scheduling"`
	Metrics      MetricsConfig    `koanf:"metrics" mapstructure:"metrics"`
}

func DefaultConfig() Config {
	return Config{
		ProviderName: "resource-provider",
		Scheduling: SchedulingConfig{
			LocalThresholdSeconds: 60,
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ProviderName) == "" {
		return fmt.Errorf("core: provider_name is required")
	}
	if c.Scheduling.LocalThresholdSeconds < 0 {
		return fmt.Errorf("core: scheduling.local_threshold_seconds must not be negative")
	}
	return nil
}
