package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alxtravel/travel-api/internal/config"
	"github.com/alxtravel/travel-api/internal/notify"
	"github.com/alxtravel/travel-api/internal/storage/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
)

// notifier consumes booking confirmation jobs published by the api when
// NOTIFY_QUEUE is kafka or amqp.
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

	dispatcher := notify.NewDispatcher(
		postgres.NewBookingRepository(pool),
		notify.NewSender(notify.SMTPConfig(cfg.SMTP), logger),
		notify.WithMaxAttempts(cfg.Notify.MaxAttempts),
		notify.WithBackoff(cfg.Notify.Backoff, time.Minute),
		notify.WithDispatcherLogger(logger),
	)

	var consumer interface{ Run(context.Context) error }
	switch cfg.Notify.Queue {
	case config.QueueKafka:
		consumer = notify.NewKafkaConsumer(cfg.Notify.KafkaBrokers, cfg.Notify.KafkaTopic, cfg.Notify.KafkaGroupID, dispatcher, logger)
	case config.QueueAMQP:
		consumer = notify.NewAMQPConsumer(cfg.Notify.AMQPURL, cfg.Notify.AMQPQueue, dispatcher, logger)
	default:
		log.Fatalf("NOTIFY_QUEUE=%s is handled inside the api; set kafka or amqp to run the notifier", cfg.Notify.Queue)
	}

	if err := consumer.Run(ctx); err != nil {
		log.Fatalf("notifier: %v", err)
	}
	logger.Printf("notifier stopped")
}
