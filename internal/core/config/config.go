package config

import (
	"time"

	"github.com/vietddude/faultline/internal/infra/rpc"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Logging LoggingConfig   `yaml:"logging"`
	Metrics MetricsConfig   `yaml:"metrics"`
	Probe   ProbeConfig     `yaml:"probe"`
	Retry   rpc.RetryConfig `yaml:"retry"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// MetricsConfig holds the Prometheus endpoint settings.
type MetricsConfig struct {
	Port int `yaml:"port"` // 0 = disabled
}

// ProbeConfig holds settings for the health probe command.
type ProbeConfig struct {
	Target   string        `yaml:"target"`
	Service  string        `yaml:"service"`
	Timeout  time.Duration `yaml:"timeout"`
	Interval time.Duration `yaml:"interval"`
	Attempts int           `yaml:"attempts"`
}
