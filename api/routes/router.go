package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/partsdealer-backend/api/controllers"
	cartcontrollers "github.com/angelmondragon/partsdealer-backend/api/controllers/cart"
	ordercontrollers "github.com/angelmondragon/partsdealer-backend/api/controllers/orders"
	paymentcontrollers "github.com/angelmondragon/partsdealer-backend/api/controllers/payments"
	reviewcontrollers "github.com/angelmondragon/partsdealer-backend/api/controllers/reviews"
	"github.com/angelmondragon/partsdealer-backend/api/middleware"
	"github.com/angelmondragon/partsdealer-backend/internal/cart"
	"github.com/angelmondragon/partsdealer-backend/internal/orders"
	"github.com/angelmondragon/partsdealer-backend/internal/payments"
	"github.com/angelmondragon/partsdealer-backend/internal/reputation"
	"github.com/angelmondragon/partsdealer-backend/pkg/config"
	"github.com/angelmondragon/partsdealer-backend/pkg/enums"
	"github.com/angelmondragon/partsdealer-backend/pkg/logger"
	"github.com/angelmondragon/partsdealer-backend/pkg/metrics"
	pkgredis "github.com/angelmondragon/partsdealer-backend/pkg/redis"
)

// RouterParams groups everything the HTTP surface depends on.
type RouterParams struct {
	Config      *config.Config
	Logger      *logger.Logger
	Idempotency pkgredis.IdempotencyStore
	Gatherer    prometheus.Gatherer
	// Readiness lists the dependencies /health/ready pings by name.
	Readiness map[string]controllers.Pinger

	Cart       cart.Service
	Orders     orders.Service
	Payments   payments.Service
	Reputation reputation.Service
}

func NewRouter(p RouterParams) http.Handler {
	cfg, logg := p.Config, p.Logger
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.Readiness))
	})
	if p.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(p.Gatherer))
	}

	idempotent := middleware.Idempotency(p.Idempotency, cfg.Redis.IdempotencyTTL, logg)
	buyerOnly := middleware.RequireRole(logg, enums.ActorRoleBuyer)
	buyerOrAdmin := middleware.RequireRole(logg, enums.ActorRoleBuyer, enums.ActorRoleAdmin)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Use(buyerOnly)
			r.Get("/", cartcontrollers.CartFetch(p.Cart, logg))
			r.Delete("/", cartcontrollers.CartClear(p.Cart, logg))
			r.Get("/validate", cartcontrollers.CartValidate(p.Cart, logg))
			r.With(idempotent).Post("/items", cartcontrollers.CartAddItem(p.Cart, logg))
			r.Patch("/items/{itemId}", cartcontrollers.CartUpdateItem(p.Cart, logg))
			r.Delete("/items/{itemId}", cartcontrollers.CartRemoveItem(p.Cart, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.With(buyerOnly, idempotent).Post("/", ordercontrollers.Create(p.Orders, logg))
			r.With(buyerOnly).Get("/", ordercontrollers.List(p.Orders, logg))
			r.Get("/{orderId}", ordercontrollers.Detail(p.Orders, logg))
			r.With(buyerOnly, idempotent).Post("/{orderId}/cancel", ordercontrollers.Cancel(p.Orders, logg))
			r.With(buyerOrAdmin).Get("/{orderId}/events", ordercontrollers.Events(p.Orders, logg))
			r.With(buyerOnly, idempotent).Post("/{orderId}/payments", paymentcontrollers.OrderPay(p.Payments, p.Orders, logg))
			r.With(buyerOnly).Get("/{orderId}/payments", paymentcontrollers.OrderPayments(p.Payments, logg))
		})

		r.Route("/dealer/orders", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.ActorRoleDealer))
			r.Get("/", ordercontrollers.DealerList(p.Orders, logg))
			r.Get("/{orderId}", ordercontrollers.DealerDetail(p.Orders, logg))
			r.Patch("/{orderId}/shipping", ordercontrollers.DealerUpdateShipping(p.Orders, logg))
		})

		r.Route("/payment-methods", func(r chi.Router) {
			r.Use(buyerOnly)
			r.With(idempotent).Post("/", paymentcontrollers.MethodCreate(p.Payments, logg))
			r.Get("/", paymentcontrollers.MethodList(p.Payments, logg))
		})

		r.Route("/dealers/{dealerId}", func(r chi.Router) {
			r.With(buyerOnly, idempotent).Post("/reviews", reviewcontrollers.Create(p.Reputation, logg))
			r.Get("/reviews", reviewcontrollers.List(p.Reputation, logg))
			r.Get("/reputation", reviewcontrollers.Summary(p.Reputation, logg))
		})
	})

	return r
}
