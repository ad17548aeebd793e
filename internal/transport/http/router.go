// Package httptransport assembles the HTTP surface of the service: the
// platform middleware chain, the public health and metrics endpoints, and
// the feature handlers mounted behind authentication.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"memoria/internal/platform/metrics"
	"memoria/internal/platform/middleware"
	"memoria/pkg/platform/httputil"
)

// defaultTimeout bounds request handling when the config leaves the
// request timeout unset.
const defaultTimeout = 60 * time.Second

// Registrar mounts one feature's routes. Every handler package exposes a
// Register method with this shape.
type Registrar interface {
	Register(r chi.Router)
}

// Deps carries everything the router composes. Handlers are mounted in
// order behind RequireAuth; only the health and metrics endpoints stay
// public.
type Deps struct {
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	Validator      middleware.TokenValidator
	CORSOrigins    []string
	RequestTimeout time.Duration
	Handlers       []Registrar
}

// NewRouter builds the chi router with the full middleware chain.
func NewRouter(d Deps) http.Handler {
	timeout := d.RequestTimeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	})

	r := chi.NewRouter()
	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Logger(d.Logger))
	r.Use(chimiddleware.Timeout(timeout))
	r.Use(middleware.LatencyMiddleware(d.Metrics))
	r.Use(corsHandler.Handler)

	r.Get("/healthz", handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(pr chi.Router) {
		pr.Use(middleware.RequireAuth(d.Validator, d.Logger))
		for _, h := range d.Handlers {
			h.Register(pr)
		}
	})

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
