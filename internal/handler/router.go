// Package handler wires the HTTP surface: routing, middleware, auth and the
// JSON encoding of service results.
package handler

import (
	"net/http"

	"github.com/moreirajr/funnelboard-go/internal/infra/observability"
	"github.com/moreirajr/funnelboard-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// NewRouter builds the chi router with all routes and middleware. A nil
// authSvc means no operator password is configured: auth routes answer 503
// and write endpoints stay open (single-tenant local deployments).
func NewRouter(
	dashboardSvc *service.DashboardService,
	investmentsSvc *service.InvestmentsService,
	settingsSvc *service.SettingsService,
	authSvc *service.AuthService,
	metrics *observability.Metrics,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	// Operational endpoints live outside the versioned API.
	r.Get("/healthz", healthzHandler())
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		// ============================================================
		// Dashboard (read-only)
		// ============================================================
		r.Route("/dashboard", func(r chi.Router) {
			r.Get("/summary", getSummaryHandler(dashboardSvc, logger))
			r.Get("/fields", getFieldStatsHandler(dashboardSvc, logger))
			r.Get("/evolution", getEvolutionHandler(dashboardSvc, logger))
		})

		// ============================================================
		// Investments
		// ============================================================
		r.Route("/investments", func(r chi.Router) {
			r.Get("/", listInvestmentsHandler(investmentsSvc, logger))

			r.Group(func(r chi.Router) {
				if authSvc != nil {
					r.Use(JWTAuthMiddleware(authSvc, logger))
				}
				r.Post("/", createInvestmentHandler(investmentsSvc, logger))
				r.Put("/{id}", updateInvestmentHandler(investmentsSvc, logger))
				r.Delete("/{id}", deleteInvestmentHandler(investmentsSvc, logger))
			})
		})

		// ============================================================
		// Financial settings
		// ============================================================
		r.Route("/settings", func(r chi.Router) {
			r.Get("/", getSettingsHandler(settingsSvc, logger))

			r.Group(func(r chi.Router) {
				if authSvc != nil {
					r.Use(JWTAuthMiddleware(authSvc, logger))
				}
				r.Put("/", saveSettingsHandler(settingsSvc, logger))
			})
		})

		// ============================================================
		// Fetch counters
		// ============================================================
		r.Get("/metrics/fetch", getFetchStatsHandler(metrics))

		// ============================================================
		// Auth
		// ============================================================
		r.Route("/auth", func(r chi.Router) {
			if authSvc == nil {
				r.Handle("/*", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
					writeError(w, http.StatusServiceUnavailable, "authentication is not configured")
				}))
				return
			}
			r.Post("/login", loginHandler(authSvc, logger))
			r.Post("/refresh", refreshHandler(authSvc, logger))
			r.Post("/logout", logoutHandler(authSvc, logger))
		})
	})

	return r
}

// ============================================================
// Operational endpoints
// ============================================================

func healthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// readyzHandler reports readiness. Upstream reachability is not probed here:
// the circuit breaker and last-good cache make the service useful even while
// Supabase is down.
func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func getFetchStatsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "GET /v1/metrics/fetch")
		defer span.End()

		writeJSON(w, http.StatusOK, metrics.GetFetchSnapshot())
	}
}
