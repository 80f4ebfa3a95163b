package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cubazzar-relay/internal/config"
	"cubazzar-relay/internal/metrics"
)

// RegisterRoutes wires all route handlers onto the Echo instance.
func RegisterRoutes(e *echo.Echo, cfg *config.Config, m *metrics.Metrics, proxy *ProxyHandler, health *HealthHandler) {
	e.GET("/healthz", health.Healthz)
	e.GET("/proxy/status", health.Status)

	if cfg.Metrics.Enabled {
		e.GET(cfg.Metrics.Path, echo.WrapHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))
	}

	// Echo prefers the static explicit route over the prefix wildcard.
	if cfg.Relay.ExplicitURLEnabled() {
		e.Any(cfg.Relay.ExplicitPath, proxy.HandleExplicit)
	}
	e.Any(cfg.Relay.PathPrefix+"/*", proxy.HandlePath)
}
