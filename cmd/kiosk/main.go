package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/forusastrid/info-booth-2025/cmd/kiosk/container"
	"github.com/forusastrid/info-booth-2025/cmd/kiosk/routes"
	"github.com/forusastrid/info-booth-2025/common/bootstrap"
	"github.com/forusastrid/info-booth-2025/common/server"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func main() {
	ctx := context.Background()

	// Bootstrap common components (config, logger, cache, metrics)
	components, err := bootstrap.Setup(ctx, "kiosk")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap kiosk: %v\n", err)
		os.Exit(1)
	}
	defer components.Shutdown(ctx)

	// Initialize service container (storage engine, events, services)
	serviceContainer, err := container.NewContainer(ctx, components)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize service container: %v\n", err)
		os.Exit(1)
	}

	e := setupEcho()
	setupMiddleware(e)
	setupHealthCheck(e)
	setupMetrics(e, serviceContainer)
	setupStatic(e, serviceContainer)

	routes.RegisterLedgerRoutes(e, serviceContainer)

	startServer(e, components)
}

// setupEcho initializes the Echo server with basic configuration
func setupEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	return e
}

// setupMiddleware configures all middleware for the Echo server
func setupMiddleware(e *echo.Echo) {
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestID())
}

// setupHealthCheck registers the health check endpoint
func setupHealthCheck(e *echo.Echo) {
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "kiosk",
		})
	})
}

// setupMetrics exposes the Prometheus registry when metrics are enabled
func setupMetrics(e *echo.Echo, c *container.Container) {
	if c.Components.Metrics == nil {
		return
	}
	e.GET("/metrics", echo.WrapHandler(c.Components.Metrics.Handler()))
}

// setupStatic serves the kiosk frontend when a static directory is configured
func setupStatic(e *echo.Echo, c *container.Container) {
	if dir := c.Components.Config.Service.StaticDir; dir != "" {
		e.Static("/", dir)
	}
}

// startServer runs the HTTP server with graceful shutdown
func startServer(e *echo.Echo, components *bootstrap.Components) {
	srv := server.New("kiosk", components.Config.Service.Port, e, components.Logger)
	if err := srv.Start(); err != nil {
		components.Logger.Error("Server error", "error", err)
		os.Exit(1)
	}
}
