package mfe

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, DefaultProduct, cfg.Product)
	assert.Equal(t, 200*time.Millisecond, cfg.LoadErrorRetryDelay)
	assert.Zero(t, cfg.LifecycleTimeout)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"empty product", func(c *Config) { c.Product = "" }, ErrConfigEmptyProduct},
		{"product with whitespace", func(c *Config) { c.Product = "my shell" }, ErrConfigInvalidProduct},
		{"product with newline", func(c *Config) { c.Product = "shell\n" }, ErrConfigInvalidProduct},
		{"bad docs url", func(c *Config) { c.DocsBaseURL = "not a url" }, ErrConfigInvalidDocsURL},
		{"docs url with whitespace", func(c *Config) { c.DocsBaseURL = "https://docs.example.com/my errors/" }, ErrConfigInvalidDocsURL},
		{"queue size", func(c *Config) { c.UnhandledQueueSize = 0 }, ErrConfigInvalidQueueSize},
		{"negative timeout", func(c *Config) { c.LifecycleTimeout = -time.Second }, ErrConfigInvalidTimeout},
		{"negative retry delay", func(c *Config) { c.LoadErrorRetryDelay = -time.Second }, ErrConfigInvalidTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), tt.want)
		})
	}
}

func TestLoadConfigYAML(t *testing.T) {
	path := writeFile(t, "mfe.yaml", `
product: shell
docsBaseUrl: https://docs.example.com/error/
stripMessages: true
lifecycleTimeout: 3s
unhandledQueueSize: 8
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "shell", cfg.Product)
	assert.Equal(t, "https://docs.example.com/error/", cfg.DocsBaseURL)
	assert.True(t, cfg.StripMessages)
	assert.Equal(t, 3*time.Second, cfg.LifecycleTimeout)
	assert.Equal(t, 8, cfg.UnhandledQueueSize)
	assert.Equal(t, 200*time.Millisecond, cfg.LoadErrorRetryDelay)

	f := cfg.Formatter()
	assert.Equal(t, "shell minified message #21: See https://docs.example.com/error/?code=21", f.Format(21, "ignored"))
}

func TestLoadConfigTOMLAndEnv(t *testing.T) {
	path := writeFile(t, "mfe.toml", `
product = "shell"
log_level = "debug"
unhandled_queue_size = 16
`)
	t.Setenv("MFE_PRODUCT", "portal")
	t.Setenv("MFE_LOAD_ERROR_RETRY_DELAY", "1s")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "portal", cfg.Product)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 16, cfg.UnhandledQueueSize)
	assert.Equal(t, time.Second, cfg.LoadErrorRetryDelay)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(writeFile(t, "mfe.ini", "product=x"))
	require.Error(t, err)

	_, err = LoadConfig(writeFile(t, "mfe.yaml", "unhandledQueueSize: -1\n"))
	assert.ErrorIs(t, err, ErrConfigInvalidQueueSize)
}
