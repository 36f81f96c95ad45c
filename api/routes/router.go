package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/djassa/djassa-backend/api/controllers"
	"github.com/djassa/djassa-backend/api/middleware"
	"github.com/djassa/djassa-backend/internal/buybox"
	"github.com/djassa/djassa-backend/internal/checkout"
	"github.com/djassa/djassa-backend/internal/orders"
	"github.com/djassa/djassa-backend/internal/payments"
	"github.com/djassa/djassa-backend/pkg/config"
	"github.com/djassa/djassa-backend/pkg/db"
	"github.com/djassa/djassa-backend/pkg/logger"
	"github.com/djassa/djassa-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP redis.Pinger,
	buyboxService buybox.Service,
	checkoutService checkout.Service,
	ordersService orders.Service,
	paymentsService payments.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	r.Handle("/metrics", promhttp.Handler())

	// Providers authenticate with payload signatures, not gateway headers.
	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/payments/{provider}", controllers.PaymentWebhook(paymentsService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Actor(logg))

		r.Get("/products/{productId}/buybox", controllers.BuyBox(buyboxService, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.Checkout(checkoutService, logg))
			r.Get("/", controllers.ListOrders(ordersService, logg))
			r.Get("/{orderId}", controllers.OrderDetail(ordersService, logg))
			r.Patch("/{orderId}/status", controllers.UpdateOrderStatus(ordersService, logg))
		})

		r.Route("/payments", func(r chi.Router) {
			r.Post("/", controllers.InitiatePayment(paymentsService, logg))
			r.Get("/", controllers.PaymentHistory(paymentsService, logg))
			r.Get("/{paymentId}", controllers.PaymentStatus(paymentsService, logg))
			r.Post("/{paymentId}/cancel", controllers.CancelPayment(paymentsService, logg))
			if cfg.Payment.Mode == config.PaymentModeSimulation {
				r.Post("/{paymentId}/simulate", controllers.SimulatePayment(paymentsService, logg))
			}
		})
	})

	return r
}
