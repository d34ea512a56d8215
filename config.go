package regulator

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EnvPrefix prefixes every environment variable read by [LoadConfigFromEnv].
const EnvPrefix = "REGULATOR_"

// Config holds the ambient settings of a Regulator built through [Builder].
type Config struct {
	Metrics MetricsConfig `envPrefix:"METRICS_"`
	Audit   AuditConfig   `envPrefix:"AUDIT_"`
	Logging LoggingConfig `envPrefix:"LOG_"`
}

// MetricsConfig controls in-process metric collection.
type MetricsConfig struct {
	Enabled                 bool `env:"ENABLED"`
	EnableLatencyHistograms bool `env:"LATENCY"`
}

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool `env:"ENABLED"`
	BufferSize int  `env:"BUFFER_SIZE"`
	DropIfFull bool `env:"DROP_IF_FULL"`
}

// LoggingConfig controls the logger created when none is supplied to the Builder.
type LoggingConfig struct {
	Enabled     bool   `env:"ENABLED"`
	Level       string `env:"LEVEL"`
	Development bool   `env:"DEVELOPMENT"`
}

// DefaultConfig returns metrics on, audit off, logging off.
func DefaultConfig() Config {
	return Config{
		Metrics: MetricsConfig{
			Enabled: true,
		},
		Audit: AuditConfig{
			BufferSize: 1024,
			DropIfFull: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfigFromEnv starts from [DefaultConfig] and overrides fields from REGULATOR_*
// environment variables, e.g. REGULATOR_METRICS_ENABLED or REGULATOR_AUDIT_BUFFER_SIZE.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return fmt.Errorf("%w: latency histograms require metrics", ErrInvalidConfig)
	}
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return fmt.Errorf("%w: audit buffer size must be > 0", ErrInvalidConfig)
	}
	if c.Logging.Enabled {
		if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
			return fmt.Errorf("%w: log level: %v", ErrInvalidConfig, err)
		}
	}
	return nil
}

// newLogger builds the logger described by cfg; disabled logging yields a no-op logger.
func newLogger(cfg LoggingConfig) (*zap.Logger, error) {
	if !cfg.Enabled {
		return zap.NewNop(), nil
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	zcfg := zap.NewProductionConfig()
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	return zcfg.Build()
}
