package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/voyago-travel/voyago-backend/api/controllers"
	webhookcontrollers "github.com/voyago-travel/voyago-backend/api/controllers/webhooks"
	"github.com/voyago-travel/voyago-backend/api/middleware"
	bookingsvc "github.com/voyago-travel/voyago-backend/internal/booking"
	cartsvc "github.com/voyago-travel/voyago-backend/internal/cart"
	checkoutsvc "github.com/voyago-travel/voyago-backend/internal/checkout"
	paymentsvc "github.com/voyago-travel/voyago-backend/internal/payments"
	stripewebhook "github.com/voyago-travel/voyago-backend/internal/webhooks/stripe"
	"github.com/voyago-travel/voyago-backend/pkg/config"
	"github.com/voyago-travel/voyago-backend/pkg/db"
	"github.com/voyago-travel/voyago-backend/pkg/logger"
	"github.com/voyago-travel/voyago-backend/pkg/metrics"
	"github.com/voyago-travel/voyago-backend/pkg/redis"
	"github.com/voyago-travel/voyago-backend/pkg/stripe"
)

// RouterParams carries everything the HTTP surface needs.
type RouterParams struct {
	Config      *config.Config
	Logger      *logger.Logger
	DBPinger    db.Pinger
	RedisClient *redis.Client

	CartService     cartsvc.Service
	CheckoutService checkoutsvc.Service
	BookingService  bookingsvc.Service
	PaymentService  paymentsvc.Service

	StripeClient         *stripe.Client
	StripeWebhookService *stripewebhook.Service

	HTTPMetrics *metrics.HTTPMetrics
	Registry    *prometheus.Registry
}

func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(p.HTTPMetrics),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DBPinger, p.RedisClient))
	})

	if p.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(p.StripeWebhookService, p.StripeClient, logg))
	})

	extendPolicy := middleware.NewRateLimitPolicy(
		"cart_extend",
		cfg.RateLimit.CartExtendWindow,
		cfg.RateLimit.CartExtendLimit,
	)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(p.RedisClient, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(p.CartService, cfg.Cart, logg))
			r.Delete("/", controllers.CartClear(p.CartService, cfg.Cart, logg))
			r.Post("/items", controllers.CartAddItem(p.CartService, cfg.Cart, logg))
			r.Patch("/items/{itemId}", controllers.CartUpdateItemQuantity(p.CartService, cfg.Cart, logg))
			r.Delete("/items/{itemId}", controllers.CartRemoveItem(p.CartService, cfg.Cart, logg))
			r.With(middleware.RateLimit(extendPolicy, p.RedisClient, logg)).
				Post("/extend", controllers.CartExtend(p.CartService, cfg.Cart, logg))
		})

		r.Post("/checkout", controllers.Checkout(p.CheckoutService, logg))

		r.Route("/bookings", func(r chi.Router) {
			r.Get("/", controllers.BookingList(p.BookingService, logg))
			r.Get("/{bookingId}", controllers.BookingDetail(p.BookingService, logg))
			r.Post("/{bookingId}/cancel", controllers.BookingCancel(p.BookingService, logg))
			r.Post("/{bookingId}/payment", controllers.BookingConfirmPayment(p.PaymentService, logg))
		})
	})

	return r
}
