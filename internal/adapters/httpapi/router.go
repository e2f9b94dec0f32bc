// Package httpapi serves the query cache over HTTP.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"semcache/internal/application/querycache"
	"semcache/internal/ports"
)

// Router creates and configures the HTTP router
type Router struct {
	cache    *querycache.Cache
	data     ports.DataStore
	index    ports.PageIndex
	gatherer prometheus.Gatherer
	logger   *zap.Logger
}

// NewRouter creates a new router instance. A nil gatherer serves the
// default prometheus registry.
func NewRouter(cache *querycache.Cache, data ports.DataStore, index ports.PageIndex, gatherer prometheus.Gatherer, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &Router{
		cache:    cache,
		data:     data,
		index:    index,
		gatherer: gatherer,
		logger:   logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(requestLogger(rt.logger))

	router.Get("/health", rt.health)
	router.Handle("/metrics", promhttp.HandlerFor(rt.gatherer, promhttp.HandlerOpts{}))

	router.Route("/api", func(r chi.Router) {
		r.Get("/query", rt.queryFromURL)
		r.Post("/query", rt.query)
		r.Post("/invalidate", rt.invalidate)
		r.Get("/stats", rt.stats)
		r.Post("/sync", rt.sync)
	})

	return router
}
