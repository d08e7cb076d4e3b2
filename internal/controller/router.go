package controller

import (
	"time"

	"github.com/cassiomorais/paygate/internal/infrastructure/config"
	"github.com/cassiomorais/paygate/internal/infrastructure/observability"
	customMW "github.com/cassiomorais/paygate/internal/middleware"
	"github.com/cassiomorais/paygate/internal/service"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterDeps struct {
	Gateway    *service.Gateway
	Metrics    *observability.Metrics
	CORSConfig config.CORSConfig
	Tracing    bool
}

func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	if deps.Tracing {
		r.Use(customMW.Tracing())
	}
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.CORSConfig.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: deps.CORSConfig.AllowCredentials,
		MaxAge:           300,
	}))
	if deps.Metrics != nil {
		r.Use(customMW.Metrics(deps.Metrics))
	}

	healthH := NewHealthController(deps.Gateway)
	chargeH := NewChargeController(deps.Gateway)
	processorH := NewProcessorController(deps.Gateway)

	r.Get("/health", healthH.Health)
	r.Get("/health/live", healthH.Liveness)
	r.Get("/health/ready", healthH.Readiness)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Charges
		r.Post("/charges", chargeH.Create)
		r.Post("/charges/auto", chargeH.CreateAuto)

		// Processor management
		r.Get("/processors", processorH.List)
		r.Get("/processors/health", processorH.Health)
		r.Post("/processors/probe", processorH.Probe)
		r.Get("/processors/{bankId}", processorH.Get)
		r.Post("/processors/{bankId}/enable", processorH.Enable)
		r.Post("/processors/{bankId}/disable", processorH.Disable)

		// Statistics
		r.Get("/statistics", processorH.Statistics)
	})

	return r
}
