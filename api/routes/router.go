package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gaslinkhq/gaslink-backend/api/controllers"
	"github.com/gaslinkhq/gaslink-backend/api/middleware"
	"github.com/gaslinkhq/gaslink-backend/internal/agencies"
	checkoutsvc "github.com/gaslinkhq/gaslink-backend/internal/checkout"
	couponsvc "github.com/gaslinkhq/gaslink-backend/internal/coupons"
	deliverysvc "github.com/gaslinkhq/gaslink-backend/internal/delivery"
	ordersvc "github.com/gaslinkhq/gaslink-backend/internal/orders"
	"github.com/gaslinkhq/gaslink-backend/pkg/config"
	"github.com/gaslinkhq/gaslink-backend/pkg/db"
	"github.com/gaslinkhq/gaslink-backend/pkg/enums"
	"github.com/gaslinkhq/gaslink-backend/pkg/logger"
	"github.com/gaslinkhq/gaslink-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	registry *prometheus.Registry,
	checkoutService checkoutsvc.Service,
	ordersService ordersvc.Service,
	couponService couponsvc.Service,
	deliveryService deliverysvc.Service,
	agencyRepo agencies.Repository,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})
	r.Get("/healthz", controllers.HealthLive(cfg))

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Post("/checkout", controllers.Checkout(checkoutService, logg))

		r.Post("/delivery-charge/evaluate", controllers.EstimateDelivery(deliveryService, agencyRepo, logg))
		r.Post("/coupons/preview", controllers.PreviewCoupon(couponService, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.ListOrders(ordersService, logg))
			r.Get("/{orderID}", controllers.GetOrder(ordersService, logg))
			r.Post("/{orderID}/transition", controllers.TransitionOrder(ordersService, logg))
			r.With(middleware.RequireRoles(logg, enums.ActorRoleAdmin, enums.ActorRoleAgencyOwner)).
				Post("/{orderID}/delivery-code", controllers.IssueDeliveryCode(ordersService, logg))
			r.Post("/{orderID}/delivery-code/verify", controllers.VerifyDeliveryCode(ordersService, logg))
		})
	})

	return r
}
