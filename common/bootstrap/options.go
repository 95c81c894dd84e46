package bootstrap

import (
	"github.com/forusastrid/info-booth-2025/common/config"
	"github.com/forusastrid/info-booth-2025/common/logger"
)

// Option configures the bootstrap process
type Option func(*options)

type options struct {
	skipCache    bool
	skipMetrics  bool
	customLogger *logger.Logger
	customConfig *config.Config
}

// WithoutCache skips cache initialization
func WithoutCache() Option {
	return func(o *options) {
		o.skipCache = true
	}
}

// WithoutMetrics skips metrics initialization
func WithoutMetrics() Option {
	return func(o *options) {
		o.skipMetrics = true
	}
}

// WithCustomLogger uses a custom logger instead of creating one
func WithCustomLogger(log *logger.Logger) Option {
	return func(o *options) {
		o.customLogger = log
	}
}

// WithCustomConfig uses a custom config instead of loading from env
func WithCustomConfig(cfg *config.Config) Option {
	return func(o *options) {
		o.customConfig = cfg
	}
}

func defaultOptions() *options {
	return &options{}
}
