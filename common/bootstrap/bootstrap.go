package bootstrap

import (
	"context"
	"fmt"

	"github.com/forusastrid/info-booth-2025/common/cache"
	"github.com/forusastrid/info-booth-2025/common/config"
	"github.com/forusastrid/info-booth-2025/common/logger"
	"github.com/forusastrid/info-booth-2025/common/metrics"
)

// Setup initializes configuration, logging, cache and metrics.
// This is the entry point for the kiosk service; storage and event
// publishing are wired by the container on top of these components.
func Setup(ctx context.Context, serviceName string, opts ...Option) (*Components, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	components := &Components{
		cleanupFuncs: make([]func() error, 0),
	}

	// 1. Load configuration
	var err error
	if options.customConfig != nil {
		components.Config = options.customConfig
	} else {
		components.Config, err = config.Load(serviceName)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	// 2. Initialize logger
	if options.customLogger != nil {
		components.Logger = options.customLogger
	} else {
		components.Logger = logger.New(
			components.Config.Service.LogLevel,
			components.Config.Service.LogFormat,
		)
	}

	components.Logger.Info("initializing service",
		"service", serviceName,
		"environment", components.Config.Service.Environment,
	)

	// 3. Initialize cache (if not skipped)
	if !options.skipCache && components.Config.Cache.Enabled {
		switch components.Config.Cache.Backend {
		case "redis":
			redisCache, err := cache.NewRedisCache(
				ctx,
				components.Config.RedisAddr(),
				components.Config.Redis.Password,
				components.Config.Redis.DB,
				components.Logger,
			)
			if err != nil {
				return nil, fmt.Errorf("failed to connect redis cache: %w", err)
			}
			components.Cache = redisCache
		default:
			components.Cache = cache.NewMemoryCache(components.Logger)
		}

		components.AddCleanup(func() error {
			components.Logger.Info("closing cache")
			return components.Cache.Close()
		})
	}

	// 4. Initialize metrics (if not skipped)
	if !options.skipMetrics && components.Config.Metrics.Enabled {
		components.Metrics = metrics.NewRegistry()
	}

	components.Logger.Info("service initialization complete",
		"service", serviceName,
		"cache", components.Cache != nil,
		"metrics", components.Metrics != nil,
	)

	return components, nil
}

// MustSetup is like Setup but panics on error
func MustSetup(ctx context.Context, serviceName string, opts ...Option) *Components {
	components, err := Setup(ctx, serviceName, opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to setup service %s: %v", serviceName, err))
	}
	return components
}
