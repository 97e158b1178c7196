package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/showrunner-backend/api/controllers"
	insightcontrollers "github.com/angelmondragon/showrunner-backend/api/controllers/insights"
	reconcontrollers "github.com/angelmondragon/showrunner-backend/api/controllers/reconciliation"
	"github.com/angelmondragon/showrunner-backend/api/middleware"
	"github.com/angelmondragon/showrunner-backend/internal/insights"
	"github.com/angelmondragon/showrunner-backend/internal/inventory"
	"github.com/angelmondragon/showrunner-backend/internal/reconciliation"
	"github.com/angelmondragon/showrunner-backend/internal/sessions"
	"github.com/angelmondragon/showrunner-backend/pkg/config"
	"github.com/angelmondragon/showrunner-backend/pkg/logger"
	"github.com/angelmondragon/showrunner-backend/pkg/metrics"
	pkgredis "github.com/angelmondragon/showrunner-backend/pkg/redis"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies are the services and infrastructure the router mounts.
// Redis, Idempotency and Gatherer are optional.
type Dependencies struct {
	DB             pinger
	Redis          pinger
	Idempotency    pkgredis.IdempotencyStore
	Gatherer       prometheus.Gatherer
	Calculators    *metrics.CalculatorMetrics
	Schedules      controllers.ScheduleSource
	Sessions       sessions.Service
	Inventory      inventory.Service
	Reconciliation reconciliation.Service
	Insights       insights.Service
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	settings := reconcontrollers.Settings{
		DefaultStart:   cfg.Reconciliation.DefaultStart,
		MaxUploadBytes: cfg.Reconciliation.MaxUploadBytes,
	}
	idempotent := middleware.Idempotency(deps.Idempotency, cfg.Reconciliation.IdempotencyTTL, logg)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.User(cfg.App.UserHeader, logg))

		r.Post("/fees/quote", controllers.FeeQuote(deps.Schedules, deps.Calculators, logg))
		r.Post("/breakeven", controllers.BreakevenQuote(deps.Calculators, logg))
		r.Get("/insights", insightcontrollers.Report(deps.Insights, logg))

		r.Route("/sessions/{sessionId}", func(r chi.Router) {
			r.With(idempotent).Post("/finalize", controllers.SessionFinalize(deps.Sessions, logg))
			r.With(idempotent).Post("/unfinalize", controllers.SessionUnfinalize(deps.Sessions, logg))
			r.Post("/items", controllers.SessionAddItem(deps.Sessions, logg))
			r.Delete("/items/{sessionItemId}", controllers.SessionRemoveItem(deps.Sessions, logg))
			r.Get("/breakeven", controllers.SessionBreakeven(deps.Sessions, logg))
			r.Get("/breaks/economics", controllers.SessionBreakEconomics(deps.Sessions, logg))

			r.Route("/reconciliation", func(r chi.Router) {
				r.Use(middleware.LimitBody(cfg.Reconciliation.MaxUploadBytes))
				r.Post("/preview", reconcontrollers.Preview(deps.Reconciliation, settings, logg))
				r.With(idempotent).Post("/apply", reconcontrollers.Apply(deps.Reconciliation, settings, logg))
			})
		})

		r.Route("/inventory/{itemId}", func(r chi.Router) {
			r.Post("/archive", controllers.InventoryArchive(deps.Inventory, logg))
			r.Post("/restore", controllers.InventoryRestore(deps.Inventory, logg))
			r.Delete("/", controllers.InventoryDelete(deps.Inventory, logg))
		})
	})

	return r
}
