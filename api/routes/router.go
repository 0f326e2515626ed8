package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stagepass-live/boxoffice-backend/api/controllers"
	webhookcontrollers "github.com/stagepass-live/boxoffice-backend/api/controllers/webhooks"
	"github.com/stagepass-live/boxoffice-backend/api/middleware"
	"github.com/stagepass-live/boxoffice-backend/internal/orders"
	"github.com/stagepass-live/boxoffice-backend/internal/tickets"
	"github.com/stagepass-live/boxoffice-backend/pkg/config"
	"github.com/stagepass-live/boxoffice-backend/pkg/db"
	"github.com/stagepass-live/boxoffice-backend/pkg/logger"
	"github.com/stagepass-live/boxoffice-backend/pkg/redis"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config     *config.Config
	Logger     *logger.Logger
	DB         db.Pinger
	Redis      *redis.Client
	Orders     *orders.Service
	Issuer     *tickets.Issuer
	Gate       *tickets.Gate
	Webhook  webhookcontrollers.CallbackHandler
	Gatherer prometheus.Gatherer
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/webhooks/paygate", webhookcontrollers.PaygateCallback(deps.Webhook, logg))
		r.Post("/checkout", controllers.Checkout(deps.Orders, logg))
		r.Get("/shows/{showID}/availability", controllers.ShowAvailability(deps.Orders, logg))
	})

	loginPolicy := middleware.NewLoginRateLimitPolicy(
		cfg.Admin.LoginWindow,
		cfg.Admin.LoginIPLimit,
		cfg.Admin.LoginAccountLimit,
	)

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.With(middleware.LoginRateLimit(loginPolicy, deps.Redis, logg)).
			Post("/auth/login", controllers.AdminLogin(cfg.Admin, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.AdminAuth(cfg.Admin, logg))

			r.Route("/tickets", func(r chi.Router) {
				r.Post("/comp", controllers.AdminCompTicket(deps.Orders, deps.Issuer, logg))
				r.Get("/{orderID}", controllers.AdminGetOrder(deps.Orders, logg))
				r.Post("/{orderID}/redeem", controllers.AdminRedeemTicket(deps.Gate, logg))
				r.Get("/{orderID}/pdf", controllers.AdminTicketPDF(deps.Orders, deps.Issuer, logg))
				r.Post("/{orderID}/resend", controllers.AdminResendTicket(deps.Orders, deps.Issuer, logg))
			})
		})
	})

	return r
}
