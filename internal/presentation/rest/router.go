package rest

import (
	"log/slog"
	"net/http"
)

// RouteRegistrar attaches a group of routes to a mux.
type RouteRegistrar interface {
	RegisterRoutes(mux *http.ServeMux)
}

// NewRouter builds the service's HTTP handler: every route group, the
// Prometheus scrape endpoint when metrics is non-nil, and the shared
// recover, tracing and logging middleware.
func NewRouter(logger *slog.Logger, metrics http.Handler, groups ...RouteRegistrar) http.Handler {
	mux := http.NewServeMux()
	for _, g := range groups {
		g.RegisterRoutes(mux)
	}
	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}

	return Chain(mux,
		LoggingMiddleware(logger),
		TracingMiddleware(),
		RecoverMiddleware(logger),
	)
}
