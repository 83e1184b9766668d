package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"mcping/internal/addrutil"
)

const (
	// DefaultGroup is the well-known site-local probe group.
	DefaultGroup      = "ff12:c909:3199:e8ba:6f6f:7d23:e6ae:d85d"
	DefaultPort       = 9999
	DefaultIntervalMS = 1000
	DefaultTimeoutMS  = 500
	DefaultLogLevel   = "info"
)

// Config holds both role sections; a process runs exactly one role.
type Config struct {
	Responder *ResponderConfig `yaml:"responder,omitempty"`
	Prober    *ProberConfig    `yaml:"prober,omitempty"`
}

// ResponderConfig is used by the responder process.
type ResponderConfig struct {
	Group     string `yaml:"group"`
	Port      int    `yaml:"port"`
	Interface string `yaml:"interface"`
	LogLevel  string `yaml:"log_level"`
}

// ProberConfig is used by the prober process.
type ProberConfig struct {
	Group       string `yaml:"group"`
	Port        int    `yaml:"port"`
	Interface   string `yaml:"interface"`
	IntervalMS  int    `yaml:"interval_ms"`
	TimeoutMS   int    `yaml:"timeout_ms"`
	Count       int    `yaml:"count"`
	MetricsPath string `yaml:"metrics_path"`
	LogLevel    string `yaml:"log_level"`
}

// Load reads and parses a YAML config file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}

	ApplyDefaults(&cfg)
	return cfg, nil
}

// Save writes a YAML config file to disk.
func Save(path string, cfg Config) error {
	ApplyDefaults(&cfg)
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}

// Validate performs minimal validation for required fields.
func Validate(cfg Config) error {
	if cfg.Responder == nil && cfg.Prober == nil {
		return fmt.Errorf("config must contain responder or prober section")
	}
	if cfg.Responder != nil {
		if _, err := addrutil.ParseGroup(cfg.Responder.Group); err != nil {
			return fmt.Errorf("responder.group: %w", err)
		}
		if cfg.Responder.Port < 1 || cfg.Responder.Port > 65535 {
			return fmt.Errorf("responder.port %d out of range", cfg.Responder.Port)
		}
	}
	if cfg.Prober != nil {
		if _, err := addrutil.ParseGroup(cfg.Prober.Group); err != nil {
			return fmt.Errorf("prober.group: %w", err)
		}
		if cfg.Prober.Port < 1 || cfg.Prober.Port > 65535 {
			return fmt.Errorf("prober.port %d out of range", cfg.Prober.Port)
		}
		if cfg.Prober.IntervalMS <= 0 {
			return fmt.Errorf("prober.interval_ms must be positive")
		}
		if cfg.Prober.TimeoutMS <= 0 {
			return fmt.Errorf("prober.timeout_ms must be positive")
		}
		if cfg.Prober.Count < 0 {
			return fmt.Errorf("prober.count must not be negative")
		}
	}
	return nil
}

// ApplyDefaults fills in default values when empty.
func ApplyDefaults(cfg *Config) {
	if cfg.Responder != nil {
		if cfg.Responder.Group == "" {
			cfg.Responder.Group = DefaultGroup
		}
		if cfg.Responder.Port == 0 {
			cfg.Responder.Port = DefaultPort
		}
		if cfg.Responder.LogLevel == "" {
			cfg.Responder.LogLevel = DefaultLogLevel
		}
	}

	if cfg.Prober != nil {
		if cfg.Prober.Group == "" {
			cfg.Prober.Group = DefaultGroup
		}
		if cfg.Prober.Port == 0 {
			cfg.Prober.Port = DefaultPort
		}
		if cfg.Prober.IntervalMS == 0 {
			cfg.Prober.IntervalMS = DefaultIntervalMS
		}
		if cfg.Prober.TimeoutMS == 0 {
			cfg.Prober.TimeoutMS = DefaultTimeoutMS
		}
		if cfg.Prober.LogLevel == "" {
			cfg.Prober.LogLevel = DefaultLogLevel
		}
	}
}
