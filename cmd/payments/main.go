package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/ariefcatur/go-collection-lists/internal/clock"
	"github.com/ariefcatur/go-collection-lists/internal/config"
	kafkax "github.com/ariefcatur/go-collection-lists/internal/kafka"
	"github.com/ariefcatur/go-collection-lists/internal/logging"
	"github.com/ariefcatur/go-collection-lists/internal/payments"
	"github.com/ariefcatur/go-collection-lists/internal/redisx"
	"github.com/ariefcatur/go-collection-lists/internal/storage"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(cfg.IsProduction(), cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	logger = logger.With(zap.String("component", "payments"))

	if !cfg.QueueConfigured() {
		logger.Fatal("KAFKA_BROKERS is required for the payment processor")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// DB (catalog)
	clk := clock.RealClock{}
	store, closeStore, err := storage.Open(ctx, cfg, clk, logger)
	if err != nil {
		logger.Fatal("store open failed", zap.Error(err))
	}
	defer closeStore()

	svc := &payments.Service{Catalog: store, Clock: clk, Logger: logger}

	// Redis dedup, optional
	if cfg.RedisAddr != "" {
		rdb := redisx.New(cfg.RedisAddr)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, dedup will fail open", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		svc.Dedup = redisx.NewDeduper(rdb, "payments", redisx.TTLDedup)
	}

	// Transaction records
	out := kafkax.NewProducer(cfg.KafkaBrokers, cfg.TransactionsTopic, cfg.PublishTimeout)
	defer out.Close()
	svc.Out = out

	// Consumer
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.PaymentsGroup, cfg.PaymentsTopic, cfg.PaymentsWorkers, logger)
	logger.Info("payment consumer started",
		zap.String("group", cfg.PaymentsGroup),
		zap.String("topic", cfg.PaymentsTopic),
		zap.Int("workers", cfg.PaymentsWorkers),
	)
	if err := cons.Start(ctx, svc.HandlePaymentRequest); err != nil {
		logger.Error("consumer exit", zap.Error(err))
	}
	logger.Info("shutting down consumer...")
}
