package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"

	"github.com/voyago-travel/voyago-backend/internal/booking"
	"github.com/voyago-travel/voyago-backend/internal/consumers/bookings"
	"github.com/voyago-travel/voyago-backend/pkg/config"
	"github.com/voyago-travel/voyago-backend/pkg/db"
	"github.com/voyago-travel/voyago-backend/pkg/logger"
	"github.com/voyago-travel/voyago-backend/pkg/outbox"
	"github.com/voyago-travel/voyago-backend/pkg/outbox/idempotency"
	"github.com/voyago-travel/voyago-backend/pkg/pubsub"
	"github.com/voyago-travel/voyago-backend/pkg/redis"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "bookings-worker"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	cfg.Service.Kind = "bookings-worker"

	logg = logger.New(logger.Options{
		ServiceName: "bookings-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	requireResource(ctx, logg, "pubsub", err)

	defer func() {
		closeErr := multierr.Combine(
			pubsubClient.Close(),
			redisClient.Close(),
			dbClient.Close(),
		)
		if closeErr != nil {
			logg.Error(ctx, "error closing worker resources", closeErr)
		}
	}()

	subscription := pubsubClient.BookingsSubscription()
	if subscription == nil {
		requireResource(ctx, logg, "bookings subscription", errors.New("subscription not configured"))
	}

	manager, err := idempotency.NewManager(redisClient, cfg.Eventing.OutboxIdempotencyTTL)
	requireResource(ctx, logg, "idempotency manager", err)

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)
	bookingService, err := booking.NewService(booking.NewRepository(dbClient.DB()), dbClient, outboxService)
	requireResource(ctx, logg, "booking service", err)

	consumer, err := bookings.NewConsumer(bookingService, manager, logg)
	requireResource(ctx, logg, "bookings consumer", err)

	runner, err := bookings.NewRunner(subscription, consumer, logg)
	requireResource(ctx, logg, "bookings runner", err)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(runCtx, "bookings worker ready")

	if err := runner.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(runCtx, "bookings worker failed", err)
		os.Exit(1)
	}

	logg.Info(runCtx, "bookings worker shutting down gracefully")
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
