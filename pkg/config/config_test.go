package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"TEMPLATE_STORE", "TEMPLATE_STORE_PATH", "OUTPUT_FORMAT", "REQUEST_TIMEOUT", "TEMP_DIR"} {
		t.Setenv(k, "")
	}

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "memory", cfg.TemplateStore)
	assert.Equal(t, "./data/templates", cfg.TemplateStorePath)
	assert.Equal(t, "png", cfg.OutputFormat)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, int64(5<<20), cfg.MaxSourceBytes)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("TEMPLATE_STORE", "SQLite")
	t.Setenv("TEMPLATE_STORE_PATH", "")
	t.Setenv("OUTPUT_FORMAT", ".JPG")
	t.Setenv("REQUEST_TIMEOUT", "5")
	t.Setenv("RETENTION", "2h")
	t.Setenv("BATCH_CONCURRENCY", "not-a-number")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.TemplateStore)
	assert.Equal(t, "templates.db", cfg.TemplateStorePath)
	assert.Equal(t, "jpg", cfg.OutputFormat)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 2*time.Hour, cfg.Retention)
	assert.Equal(t, 4, cfg.BatchConcurrency)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"store", func(c *Config) { c.TemplateStore = "redis" }},
		{"format", func(c *Config) { c.OutputFormat = "svg" }},
		{"filter", func(c *Config) { c.ResampleFilter = "magic" }},
		{"quality", func(c *Config) { c.JPEGQuality = 0 }},
		{"dimension", func(c *Config) { c.MaxCanvasDimension = 0 }},
		{"concurrency", func(c *Config) { c.BatchConcurrency = 0 }},
		{"temp dir", func(c *Config) { c.TempDir = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, valid().Validate())
}

func valid() *Config {
	return &Config{
		TempDir:            "tmp",
		OutputFormat:       "png",
		TemplateStore:      "memory",
		ResampleFilter:     "lanczos",
		JPEGQuality:        90,
		MaxCanvasDimension: 4096,
		MaxSourceBytes:     1 << 20,
		BatchConcurrency:   2,
	}
}
