package rest

import (
	"net/http"

	"github.com/engmung/portfolio-Nat/infrastructure/di"
)

// DependenciesFrom maps a wired container onto the router's dependencies. ws may be
// nil where no WebSocket endpoint is served, as under Lambda.
func DependenciesFrom(c *di.Container, ws http.Handler) Dependencies {
	cfg := c.Config

	deps := Dependencies{
		CommandBus:    c.CommandBus,
		QueryBus:      c.QueryBus,
		FileValidator: c.FileValidator,
		Readiness:     c.Refresher,
		Health:        c.Health,
		Metrics:       c.Metrics,
		WebSocket:     ws,
		JWTValidator:  c.JWTValidator,
		AILimiter:     c.AIRateLimiter,
		AIRateLimit:   cfg.AIRateLimit,
		AIRateWindow:  cfg.AIRateWindow,
		EnableCORS:    cfg.EnableCORS,
		CORSOrigins:   cfg.CORSOrigins,
		Debug:         cfg.IsDevelopment(),
		Logger:        c.Logger,
		// mutations stay open without a signing secret outside production only
		AllowAnonymous: c.JWTValidator == nil && !cfg.IsProduction(),
	}
	if cfg.EnableMetrics && c.Collector != nil {
		deps.MetricsHandler = c.Collector.Handler()
		deps.Observer = c.Collector
	}
	return deps
}
