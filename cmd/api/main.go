package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alxtravel/travel-api/internal/app"
	"github.com/alxtravel/travel-api/internal/clock"
	"github.com/alxtravel/travel-api/internal/config"
	"github.com/alxtravel/travel-api/internal/gateway"
	"github.com/alxtravel/travel-api/internal/grpcserver"
	"github.com/alxtravel/travel-api/internal/notify"
	"github.com/alxtravel/travel-api/internal/storage/postgres"
	transporthttp "github.com/alxtravel/travel-api/internal/transport/http"
	"github.com/alxtravel/travel-api/migrations"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout     = 10 * time.Second
	healthCheckInterval = 15 * time.Second
	memoryQueueBuffer   = 256
)

func main() {
	logger := log.Default()
	cfg, err := config.Load(logger)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	startupCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(startupCtx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("connect to db: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(startupCtx); err != nil {
		log.Fatalf("db ping: %v", err)
	}
	if err := migrations.Apply(startupCtx, pool); err != nil {
		log.Fatalf("apply migrations: %v", err)
	}

	clk := clock.NewSystem()
	bookingRepo := postgres.NewBookingRepository(pool)
	paymentRepo := postgres.NewPaymentRepository(pool)
	listingRepo := postgres.NewListingRepository(pool)

	// The in-process queue outlives the HTTP server so reconciles that finish
	// during shutdown can still enqueue; stopping it drains the buffer for up
	// to shutdownTimeout.
	queueCtx, stopQueue := context.WithCancel(context.Background())
	defer stopQueue()
	queue, queueDone, err := openQueue(queueCtx, cfg, bookingRepo, logger)
	if err != nil {
		log.Fatalf("open notification queue: %v", err)
	}

	gw := gateway.NewClient(gateway.Config{
		BaseURL:   cfg.Chapa.BaseURL,
		SecretKey: cfg.Chapa.SecretKey,
		Timeout:   cfg.Chapa.Timeout,
	}, gateway.WithLogger(logger))

	paymentSvc := app.NewPaymentService(paymentRepo, gw, queue, clk,
		app.WithCurrency(cfg.Payment.Currency),
		app.WithRedirectURLs(cfg.Payment.ReturnURL, cfg.Payment.CallbackURL),
		app.WithPaymentLogger(logger),
	)
	bookingSvc := app.NewBookingService(bookingRepo, clk)
	listingSvc := app.NewListingService(listingRepo, clk)

	if cfg.Chapa.WebhookSecret == "" {
		logger.Printf("WARN: CHAPA_WEBHOOK_SECRET not set, webhooks will be rejected")
	}

	handler := transporthttp.NewRouter(transporthttp.RouterDeps{
		Payments:      paymentSvc,
		Bookings:      bookingSvc,
		Listings:      listingSvc,
		Auth:          transporthttp.NewAuthenticator(cfg.JWTSecret),
		WebhookSecret: cfg.Chapa.WebhookSecret,
		DB:            pool,
		CORSOrigins:   cfg.CORSOrigins,
		Logger:        logger,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Printf("api listening on :%s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Printf("shutdown signal received, stopping server")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return grpcserver.New(pool, logger).Serve(gctx, cfg.GRPCAddr, healthCheckInterval)
	})

	if err := g.Wait(); err != nil {
		logger.Printf("server error: %v", err)
	}

	stopQueue()
	if err := queueDone(); err != nil {
		logger.Printf("notification queue shutdown error: %v", err)
	}
	logger.Printf("server stopped")
}

// openQueue builds the queue the payment service enqueues confirmations on.
// The returned func stops it and reports any close error.
func openQueue(ctx context.Context, cfg config.Config, store notify.ConfirmationStore, logger *log.Logger) (notify.Queue, func() error, error) {
	switch cfg.Notify.Queue {
	case config.QueueKafka:
		q := notify.NewKafkaQueue(cfg.Notify.KafkaBrokers, cfg.Notify.KafkaTopic)
		logger.Printf("notifications published to kafka topic=%s", cfg.Notify.KafkaTopic)
		return q, q.Close, nil
	case config.QueueAMQP:
		q, err := notify.DialAMQPQueue(cfg.Notify.AMQPURL, cfg.Notify.AMQPQueue)
		if err != nil {
			return nil, nil, err
		}
		logger.Printf("notifications published to amqp queue=%s", cfg.Notify.AMQPQueue)
		return q, q.Close, nil
	default:
		dispatcher := notify.NewDispatcher(store, notify.NewSender(notify.SMTPConfig(cfg.SMTP), logger),
			notify.WithMaxAttempts(cfg.Notify.MaxAttempts),
			notify.WithBackoff(cfg.Notify.Backoff, time.Minute),
			notify.WithDispatcherLogger(logger),
		)
		q := notify.NewMemoryQueue(dispatcher, cfg.Notify.Workers, memoryQueueBuffer, logger,
			notify.WithDrainTimeout(shutdownTimeout),
		)
		done := make(chan error, 1)
		go func() { done <- q.Run(ctx) }()
		logger.Printf("notifications handled in-process workers=%d", cfg.Notify.Workers)
		return q, func() error { return <-done }, nil
	}
}
