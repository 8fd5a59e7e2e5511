package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Template renders cfg as a TOML document.
func Template(cfg Config) (string, error) {
	raw := fileConfig{
		LogLevel:     cfg.LogLevel,
		MaxBodyBytes: int64(cfg.MaxBodyBytes),
		Compress:     cfg.Compress,
		Workers:      cfg.Workers,
		MetricsAddr:  cfg.MetricsAddr,
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(raw); err != nil {
		return "", fmt.Errorf("config render failed: %w", err)
	}
	return buf.String(), nil
}

// WriteTemplate writes the default configuration to path.
func WriteTemplate(path string, overwrite bool) error {
	template, err := Template(Default())
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}
