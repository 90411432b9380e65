package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/smartwish/kiosk-backend/api/controllers"
	"github.com/smartwish/kiosk-backend/api/middleware"
	"github.com/smartwish/kiosk-backend/internal/ledger"
	"github.com/smartwish/kiosk-backend/internal/reports"
	"github.com/smartwish/kiosk-backend/internal/settlement"
	"github.com/smartwish/kiosk-backend/internal/trigger"
	"github.com/smartwish/kiosk-backend/pkg/config"
	"github.com/smartwish/kiosk-backend/pkg/db"
	"github.com/smartwish/kiosk-backend/pkg/logger"
	"github.com/smartwish/kiosk-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP redis.Pinger,
	registry *prometheus.Registry,
	triggerService trigger.Service,
	settlementService settlement.Service,
	reportsService reports.Service,
	ledgerRepo ledger.Repository,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/events", func(r chi.Router) {
			r.Post("/print", controllers.PrintJobEvent(triggerService, logg))
			r.Post("/redemption", controllers.RedemptionEvent(settlementService, logg))
			r.Post("/gift-card-sale", controllers.GiftCardSaleEvent(settlementService, logg))
			r.Post("/adjustment", controllers.AdjustmentEvent(settlementService, logg))
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/kiosks", controllers.ReportByKiosk(reportsService, logg))
			r.Get("/managers", controllers.ReportByManager(reportsService, logg))
			r.Get("/sales-reps", controllers.ReportBySalesRep(reportsService, logg))
			r.Get("/daily", controllers.ReportDaily(reportsService, logg))
		})

		r.Get("/ledger/{entryId}", controllers.LedgerEntryByID(ledgerRepo, logg))
	})

	return r
}
