package regulator

import (
	"errors"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestConfigValidateRejects(t *testing.T) {
	cases := map[string]func(*Config){
		"latency without metrics": func(c *Config) {
			c.Metrics.Enabled = false
			c.Metrics.EnableLatencyHistograms = true
		},
		"audit without buffer": func(c *Config) {
			c.Audit.Enabled = true
			c.Audit.BufferSize = 0
		},
		"bad log level": func(c *Config) {
			c.Logging.Enabled = true
			c.Logging.Level = "loud"
		},
	}
	for name, mutate := range cases {
		cfg := DefaultConfig()
		mutate(&cfg)
		if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("%s: expected ErrInvalidConfig, got %v", name, err)
		}
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("REGULATOR_METRICS_ENABLED", "true")
	t.Setenv("REGULATOR_METRICS_LATENCY", "true")
	t.Setenv("REGULATOR_AUDIT_ENABLED", "true")
	t.Setenv("REGULATOR_AUDIT_BUFFER_SIZE", "16")
	t.Setenv("REGULATOR_LOG_LEVEL", "debug")

	cfg, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("LoadConfigFromEnv failed: %v", err)
	}
	if !cfg.Metrics.EnableLatencyHistograms || !cfg.Audit.Enabled || cfg.Audit.BufferSize != 16 {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("expected debug level, got %q", cfg.Logging.Level)
	}
	if !cfg.Audit.DropIfFull {
		t.Fatal("unset variables must keep defaults")
	}
}

func TestLoadConfigFromEnvRejectsBadValues(t *testing.T) {
	t.Setenv("REGULATOR_AUDIT_BUFFER_SIZE", "many")
	if _, err := LoadConfigFromEnv(); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestNewLoggerDisabledIsNop(t *testing.T) {
	logger, err := newLogger(LoggingConfig{})
	if err != nil {
		t.Fatalf("newLogger failed: %v", err)
	}
	if logger.Core().Enabled(0) {
		t.Fatal("disabled logging must produce a no-op logger")
	}
}
