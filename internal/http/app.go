package http

import (
	"context"
	"net/http"

	"climas_backend/platform/config"
	"climas_backend/platform/logger"
)

// RouterConfig combines the config interfaces needed by the HTTP router.
type RouterConfig interface {
	config.HTTPConfig
	config.JWTConfig
}

// HealthChecker is pinged by the readiness endpoint.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App is everything the router needs, assembled by the composition root.
type App struct {
	Config RouterConfig
	Logger *logger.Logger
	Health HealthChecker
	// Metrics serves the Prometheus scrape endpoint; nil disables it.
	Metrics http.Handler
	Modules []Module
}
