package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/voyago-travel/voyago-backend/api/routes"
	"github.com/voyago-travel/voyago-backend/internal/booking"
	"github.com/voyago-travel/voyago-backend/internal/cart"
	"github.com/voyago-travel/voyago-backend/internal/checkout"
	"github.com/voyago-travel/voyago-backend/internal/payments"
	stripewebhook "github.com/voyago-travel/voyago-backend/internal/webhooks/stripe"
	"github.com/voyago-travel/voyago-backend/pkg/config"
	"github.com/voyago-travel/voyago-backend/pkg/db"
	"github.com/voyago-travel/voyago-backend/pkg/instance"
	"github.com/voyago-travel/voyago-backend/pkg/logger"
	"github.com/voyago-travel/voyago-backend/pkg/metrics"
	"github.com/voyago-travel/voyago-backend/pkg/migrate"
	"github.com/voyago-travel/voyago-backend/pkg/outbox"
	"github.com/voyago-travel/voyago-backend/pkg/redis"
	"github.com/voyago-travel/voyago-backend/pkg/stripe"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "error closing redis", err)
		}
	}()

	stripeClient, err := stripe.NewClient(ctx, cfg.Stripe, logg)
	requireResource(ctx, logg, "stripe", err)

	registry := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(registry)
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)

	cartRecords := cart.NewCartRecordRepository(dbClient.DB())
	cartItems := cart.NewCartItemRepository(dbClient.DB())
	bookingRepo := booking.NewRepository(dbClient.DB())
	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	cartService, err := cart.NewService(cartRecords, cartItems, dbClient, cfg.Cart)
	requireResource(ctx, logg, "cart service", err)

	bookingService, err := booking.NewService(bookingRepo, dbClient, outboxService)
	requireResource(ctx, logg, "booking service", err)

	paymentService, err := payments.NewService(
		bookingRepo,
		cartRecords,
		cartItems,
		bookingService,
		dbClient,
		outboxService,
		logg,
	)
	requireResource(ctx, logg, "payment service", err)

	checkoutService, err := checkout.NewService(
		cartRecords,
		bookingRepo,
		dbClient,
		payments.NewStripeIntentClient(stripeClient),
		outboxService,
		checkoutMetrics,
		stripeClient.PublishableKey(),
	)
	requireResource(ctx, logg, "checkout service", err)

	webhookGuard, err := stripewebhook.NewIdempotencyGuard(redisClient, cfg.Eventing.WebhookDedupTTL, "stripe")
	requireResource(ctx, logg, "webhook guard", err)

	webhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		Resolver: paymentService,
		Guard:    webhookGuard,
		Logger:   logg,
	})
	requireResource(ctx, logg, "webhook service", err)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	runCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})
	logg.Info(runCtx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:               cfg,
			Logger:               logg,
			DBPinger:             dbClient,
			RedisClient:          redisClient,
			CartService:          cartService,
			CheckoutService:      checkoutService,
			BookingService:       bookingService,
			PaymentService:       paymentService,
			StripeClient:         stripeClient,
			StripeWebhookService: webhookService,
			HTTPMetrics:          httpMetrics,
			Registry:             registry,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(runCtx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
