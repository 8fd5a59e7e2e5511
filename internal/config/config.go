package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/sbewire/internal/logging"
	"github.com/danmuck/sbewire/internal/protocol/frame"
)

// Config is the sbewire tool configuration.
type Config struct {
	LogLevel     string
	MaxBodyBytes uint32
	Compress     bool
	Workers      int
	MetricsAddr  string
}

type fileConfig struct {
	LogLevel     string `toml:"log_level"`
	MaxBodyBytes int64  `toml:"max_body_bytes"`
	Compress     bool   `toml:"compress"`
	Workers      int    `toml:"workers"`
	MetricsAddr  string `toml:"metrics_addr"`
}

func Default() Config {
	return Config{
		LogLevel:     "info",
		MaxBodyBytes: frame.DefaultLimits().MaxBodyBytes,
		Compress:     false,
		Workers:      4,
		MetricsAddr:  "",
	}
}

// Load reads path and applies every key it defines on top of Default.
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("config parse failed (%s): unknown key %q", path, undecoded[0].String())
	}

	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}
	if meta.IsDefined("max_body_bytes") {
		if raw.MaxBodyBytes <= 0 || raw.MaxBodyBytes > int64(^uint32(0)) {
			return Config{}, fmt.Errorf("max_body_bytes out of range: %d", raw.MaxBodyBytes)
		}
		cfg.MaxBodyBytes = uint32(raw.MaxBodyBytes)
	}
	if meta.IsDefined("compress") {
		cfg.Compress = raw.Compress
	}
	if meta.IsDefined("workers") {
		cfg.Workers = raw.Workers
	}
	if meta.IsDefined("metrics_addr") {
		cfg.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func Validate(cfg Config) error {
	if _, ok := logging.ParseLevel(cfg.LogLevel); !ok {
		return fmt.Errorf("config invalid log_level: %q", cfg.LogLevel)
	}
	if cfg.MaxBodyBytes == 0 {
		return fmt.Errorf("config max_body_bytes must be positive")
	}
	if cfg.Workers <= 0 {
		return fmt.Errorf("config workers must be positive: %d", cfg.Workers)
	}
	return nil
}

// Limits returns the frame limits described by cfg.
func (c Config) Limits() frame.Limits {
	return frame.Limits{MaxBodyBytes: c.MaxBodyBytes}
}

// Flags returns the frame flags described by cfg.
func (c Config) Flags() uint8 {
	if c.Compress {
		return frame.FlagLZ4
	}
	return 0
}
