package handler

import (
	"time"

	"card-preview/internal/common/config"
)

type Config struct {
	LookupTimeout time.Duration
	CacheControl  string
	Brand         string
}

// ConfigFrom maps the preview section of the application config.
func ConfigFrom(cfg config.PreviewConfig) *Config {
	return &Config{
		LookupTimeout: config.GetDuration(cfg.LookupTimeout),
		CacheControl:  cfg.CacheControl,
		Brand:         cfg.Brand,
	}
}
