package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"eduscan-api/app"
	"eduscan-api/config"
	"eduscan-api/events"
	"eduscan-api/handlers"
	"eduscan-api/pkg/logging"
	"eduscan-api/pkg/metrics"
	"eduscan-api/services"
	"eduscan-api/session"
	"eduscan-api/settings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const sessionTTL = 12 * time.Hour

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := logging.NewStructuredLogger(cfg.Logging.Service, cfg.Logging.Version, logging.ParseLevel(cfg.Logging.Level))
	ctx := context.Background()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metricsCollector := metrics.NewCollector("eduscan", registry)

	core, err := app.Open(ctx, cfg, 3, logger, metricsCollector)
	if err != nil {
		logger.Fatal(ctx, "[STARTUP] failed to open storage", logging.Fields{}, err)
	}
	defer core.Close()

	cache := core.Cache

	var live interface {
		events.Publisher
		events.Subscriber
	}
	if cache.Available() {
		live = events.NewRedisPublisher(cache)
	} else {
		live = events.NewHub()
	}
	publisher := events.Multi{live}
	if cfg.MQTT.Broker != "" {
		mq, err := events.NewMQTTPublisher(cfg.MQTT, logger)
		if err != nil {
			logger.Warn(ctx, "[MQTT] broker unavailable", logging.Fields{"broker": cfg.MQTT.Broker, "error": err.Error()})
		} else {
			publisher = append(publisher, mq)
		}
	}
	defer publisher.Close()

	if cfg.Purge.Enabled {
		scheduler := services.NewPurgeScheduler(core.Records, cfg.Purge, logger, func(ctx context.Context, r services.PurgeReport) {
			events.Async(publisher, events.New(events.TypePurgeCompleted, r), logger)
		})
		if err := scheduler.Start(); err != nil {
			logger.Error(ctx, "[PURGE] scheduler not started", logging.Fields{}, err)
		} else {
			defer scheduler.Stop()
		}
	}

	gin.SetMode(gin.ReleaseMode)
	router := handlers.NewRouter(handlers.Deps{
		Config:     cfg,
		DB:         core.DB,
		Cache:      cache,
		Auth:       core.Auth,
		Users:      core.Users,
		Records:    core.Records,
		Batch:      services.NewBatchService(core.Pipeline, metricsCollector, logger),
		Resources:  services.NewResourceService(time.Now().UnixNano()),
		Pipeline:   core.Pipeline,
		Settings:   settings.NewStore(cfg.Data.Path(app.SettingsFile), logger),
		Sessions:   session.NewStore(cache, sessionTTL),
		Publisher:  publisher,
		Subscriber: live,
		Metrics:    metricsCollector,
		Gatherer:   registry,
		Logger:     logger,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info(ctx, "[SERVER_START] HTTP server listening", logging.Fields{
			"address":         server.Addr,
			"default_variant": cfg.Scoring.DefaultVariant,
			"database":        cfg.Database.Driver,
			"redis":           cache.Available(),
		})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(ctx, "[SERVER_ERROR] server failed", logging.Fields{}, err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info(ctx, "[SHUTDOWN] shutting down server", logging.Fields{})
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "[SHUTDOWN_ERROR] server forced to shutdown", logging.Fields{}, err)
	}
	logger.Info(ctx, "[SHUTDOWN_COMPLETE] server stopped", logging.Fields{})
}
