package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/ariefcatur/go-collection-lists/internal/auth"
	"github.com/ariefcatur/go-collection-lists/internal/clock"
	"github.com/ariefcatur/go-collection-lists/internal/config"
	"github.com/ariefcatur/go-collection-lists/internal/events"
	"github.com/ariefcatur/go-collection-lists/internal/httpx"
	kafkax "github.com/ariefcatur/go-collection-lists/internal/kafka"
	"github.com/ariefcatur/go-collection-lists/internal/lists"
	"github.com/ariefcatur/go-collection-lists/internal/logging"
	"github.com/ariefcatur/go-collection-lists/internal/storage"
	"github.com/ariefcatur/go-collection-lists/internal/telemetry"
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Tracing
	shutdownTracer, err := telemetry.InitTracer(ctx, cfg.OTLPEndpoint, cfg.ServiceName)
	if err != nil {
		logger.Fatal("tracer init failed", zap.Error(err))
	}

	// DB
	clk := clock.RealClock{}
	store, closeStore, err := storage.Open(ctx, cfg, clk, logger)
	if err != nil {
		logger.Fatal("store open failed", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}
	defer closeStore()

	// Kafka producers, only when a broker is configured
	var updates, payments events.Sender
	if cfg.QueueConfigured() {
		up := kafkax.NewProducer(cfg.KafkaBrokers, cfg.ListEventsTopic, cfg.PublishTimeout)
		defer up.Close()
		pay := kafkax.NewProducer(cfg.KafkaBrokers, cfg.PaymentsTopic, cfg.PublishTimeout)
		defer pay.Close()
		updates, payments = up, pay
		logger.Info("queue publisher enabled",
			zap.Strings("brokers", cfg.KafkaBrokers),
			zap.String("updates_topic", cfg.ListEventsTopic),
			zap.String("payments_topic", cfg.PaymentsTopic),
		)
	} else {
		logger.Info("KAFKA_BROKERS not set, events will not be published")
	}
	pub := events.NewQueuePublisher(updates, payments, cfg.ServiceName, clk, logger)

	// Services & handlers
	listSvc := lists.NewService(store, pub, logger)
	authSvc := auth.NewService(store, clk, logger)

	router := httpx.NewRouter(logger, cfg.RequestTimeout, listSvc.HealthCheck)
	(&httpx.ListsHandler{Service: listSvc, Logger: logger}).Register(router)
	(&httpx.AuthHandler{Service: authSvc, Logger: logger}).Register(router)

	// HTTP server
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}
	go func() {
		logger.Info("HTTP listening", zap.String("addr", cfg.HTTPAddr), zap.String("store", cfg.StoreDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("listen failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	if err := shutdownTracer(sctx); err != nil {
		logger.Warn("tracer shutdown", zap.Error(err))
	}
}
