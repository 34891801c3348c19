// Package httptransport assembles the router and middleware chain. It holds
// no business logic; handlers register themselves on the API subtree.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tierboard/internal/platform/middleware"
)

// Registrar is anything that mounts routes on the API subtree.
type Registrar interface {
	Register(r chi.Router)
}

// Options configures the router.
type Options struct {
	Logger         *slog.Logger
	AllowedActors  []string
	RequestTimeout time.Duration
}

// NewRouter builds the full HTTP surface: operational endpoints at the root,
// the API under /api/v1 behind the middleware chain.
func NewRouter(opts Options, handlers ...Registrar) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.RequestContext)
		api.Use(middleware.ClientMetadata)
		api.Use(middleware.Actor(opts.AllowedActors, opts.Logger))
		if opts.RequestTimeout > 0 {
			api.Use(chimw.Timeout(opts.RequestTimeout))
		}
		for _, h := range handlers {
			h.Register(api)
		}
	})

	return r
}
