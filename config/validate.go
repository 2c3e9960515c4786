package config

import (
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap/zapcore"
)

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	port, err := strconv.Atoi(c.Server.Port)
	if err != nil || port < 1 || port > 65535 {
		return eris.Errorf("invalid port %q", c.Server.Port)
	}

	if c.Database.URL == "" {
		return eris.New("database url cannot be empty")
	}

	switch c.Storage.Type {
	case "local":
		if c.Storage.LocalPath == "" {
			return eris.New("storage local path cannot be empty when storage type is local")
		}
	case "s3":
		if c.Storage.Bucket == "" {
			return eris.New("AWS_S3_BUCKET cannot be empty when storage type is s3")
		}
		if c.Storage.Region == "" {
			return eris.New("AWS_REGION cannot be empty when storage type is s3")
		}
	default:
		return eris.Errorf("unsupported storage type %q", c.Storage.Type)
	}

	if c.Redis.Enabled() && c.Redis.TTL <= 0 {
		return eris.New("cache ttl must be positive")
	}

	if c.AI.Temperature < 0 || c.AI.Temperature > 2 {
		return eris.Errorf("ai temperature must be between 0 and 2, got %v", c.AI.Temperature)
	}
	if c.AI.Timeout <= 0 {
		return eris.New("ai timeout must be positive")
	}

	if c.Analysis.ClauseLimit <= 0 {
		return eris.New("clause limit must be positive")
	}
	if c.Analysis.ExcerptLength <= 0 || c.Analysis.NormalizedLength <= 0 {
		return eris.New("excerpt and normalized lengths must be positive")
	}
	if c.Analysis.DiffMaxCells <= 0 {
		return eris.New("diff max cells must be positive")
	}

	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return eris.Wrapf(err, "invalid log level %q", c.Log.Level)
	}
	return nil
}
