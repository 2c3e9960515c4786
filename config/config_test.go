package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, env := range envBindings {
		t.Setenv(env, "")
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "local", cfg.Storage.Type)
	assert.Equal(t, "./uploads", cfg.Storage.LocalPath)
	assert.Equal(t, 24*time.Hour, cfg.Redis.TTL)
	assert.Equal(t, 45*time.Second, cfg.AI.Timeout)
	assert.InDelta(t, 0.2, cfg.AI.Temperature, 1e-6)
	assert.Equal(t, 8, cfg.Analysis.ClauseLimit)
	assert.Equal(t, 420, cfg.Analysis.ExcerptLength)
	assert.Equal(t, 800, cfg.Analysis.NormalizedLength)
	assert.Equal(t, 4_000_000, cfg.Analysis.DiffMaxCells)
	assert.Equal(t, "info", cfg.Log.Level)

	assert.False(t, cfg.Redis.Enabled())
	assert.False(t, cfg.AI.Enabled())
	assert.False(t, cfg.Audit.Enabled())
}

func TestFromEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("CACHE_TTL", "10m")
	t.Setenv("STORAGE_TYPE", "s3")
	t.Setenv("AWS_S3_BUCKET", "contracts")
	t.Setenv("AWS_S3_ENDPOINT", "http://localhost:9000")
	t.Setenv("GEMINI_API_KEY", "key")
	t.Setenv("AI_TEMPERATURE", "0.7")
	t.Setenv("AI_TIMEOUT", "5s")
	t.Setenv("AUDIT_DB_PATH", "/tmp/audit.db")
	t.Setenv("CLAUSE_LIMIT", "120")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_DEVELOPMENT", "true")

	cfg, err := FromEnv()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, 10*time.Minute, cfg.Redis.TTL)
	assert.Equal(t, "contracts", cfg.Storage.Bucket)
	assert.Equal(t, "us-east-1", cfg.Storage.Region)
	assert.Equal(t, "http://localhost:9000", cfg.Storage.Endpoint)
	assert.InDelta(t, 0.7, cfg.AI.Temperature, 1e-6)
	assert.Equal(t, 5*time.Second, cfg.AI.Timeout)
	assert.Equal(t, 120, cfg.Analysis.ClauseLimit)
	assert.True(t, cfg.Log.Development)

	assert.True(t, cfg.Redis.Enabled())
	assert.True(t, cfg.AI.Enabled())
	assert.True(t, cfg.Audit.Enabled())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = "http" }},
		{"port out of range", func(c *Config) { c.Server.Port = "70000" }},
		{"no database", func(c *Config) { c.Database.URL = "" }},
		{"unknown storage", func(c *Config) { c.Storage.Type = "ftp" }},
		{"s3 without bucket", func(c *Config) { c.Storage.Type = "s3" }},
		{"no local path", func(c *Config) { c.Storage.LocalPath = "" }},
		{"cache without ttl", func(c *Config) { c.Redis.Addr = "localhost:6379"; c.Redis.TTL = 0 }},
		{"temperature", func(c *Config) { c.AI.Temperature = 3 }},
		{"timeout", func(c *Config) { c.AI.Timeout = 0 }},
		{"clause limit", func(c *Config) { c.Analysis.ClauseLimit = 0 }},
		{"excerpt", func(c *Config) { c.Analysis.ExcerptLength = -1 }},
		{"diff cells", func(c *Config) { c.Analysis.DiffMaxCells = 0 }},
		{"log level", func(c *Config) { c.Log.Level = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			cfg, err := FromEnv()
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(LogConfig{Level: "warn"})
	require.NoError(t, err)
	assert.NotNil(t, logger)

	logger, err = NewLogger(LogConfig{Level: "debug", Development: true})
	require.NoError(t, err)
	assert.NotNil(t, logger)

	_, err = NewLogger(LogConfig{Level: "verbose"})
	assert.Error(t, err)
}
