package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danmuck/sbewire/internal/protocol/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sbewire.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadAppliesDefinedKeysOnly(t *testing.T) {
	path := writeConfig(t, `
log_level = "debug"
workers = 8
compress = true
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 8, cfg.Workers)
	assert.True(t, cfg.Compress)
	assert.Equal(t, Default().MaxBodyBytes, cfg.MaxBodyBytes)
	assert.Equal(t, frame.FlagLZ4, cfg.Flags())
	assert.Equal(t, frame.Limits{MaxBodyBytes: cfg.MaxBodyBytes}, cfg.Limits())
}

func TestLoadRejectsUnknownKey(t *testing.T) {
	path := writeConfig(t, "log_level = \"info\"\nbogus = 1\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bogus")
}

func TestLoadValidation(t *testing.T) {
	cases := map[string]string{
		"level":         `log_level = "loud"`,
		"workers":       `workers = 0`,
		"body zero":     `max_body_bytes = 0`,
		"body overflow": `max_body_bytes = 5000000000`,
		"syntax":        `workers = `,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			require.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}

func TestTemplateRoundTrip(t *testing.T) {
	want := Default()
	want.MetricsAddr = "127.0.0.1:9108"
	want.MaxBodyBytes = 4096
	tmpl, err := Template(want)
	require.NoError(t, err)
	assert.True(t, strings.Contains(tmpl, "max_body_bytes = 4096"), tmpl)

	got, err := Load(writeConfig(t, tmpl))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestWriteTemplateRespectsOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sbewire.toml")
	require.NoError(t, WriteTemplate(path, false))
	require.Error(t, WriteTemplate(path, false))
	require.NoError(t, WriteTemplate(path, true))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}
