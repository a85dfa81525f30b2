package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpapi "github.com/tinoq/sense-backend/internal/api/http"
	"github.com/tinoq/sense-backend/internal/archive"
	"github.com/tinoq/sense-backend/internal/config"
	"github.com/tinoq/sense-backend/internal/hub"
	"github.com/tinoq/sense-backend/internal/ingest"
	"github.com/tinoq/sense-backend/internal/scheduler"
	"github.com/tinoq/sense-backend/internal/store"
	"github.com/tinoq/sense-backend/internal/telemetry"
)

// mqttReconnectDelay paces reconnection attempts after the bus connection is
// lost.
const mqttReconnectDelay = 5 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Durable reading store; the single writer-of-record for the pipeline.
	var readingStore telemetry.Store
	switch cfg.StoreBackend {
	case config.StoreMemory:
		readingStore = store.NewMemoryStore()
		log.Println("INFO: Using in-memory store")
	default:
		sqliteStore, err := store.NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			log.Fatalf("failed to open store: %v", err)
		}
		defer sqliteStore.Close()
		readingStore = sqliteStore
		log.Printf("INFO: Using SQLite store: %s", cfg.SQLitePath)
	}

	// Report archive directory.
	reportArchive, err := archive.NewDir(cfg.ReportsDir)
	if err != nil {
		log.Fatalf("failed to prepare reports directory: %v", err)
	}

	// Live fan-out hub, owned here and passed to everything that broadcasts
	// or subscribes.
	liveHub := hub.New()

	// Core read-side service.
	service := telemetry.NewService(readingStore, reportArchive)

	// Ingestion: one logical consumer against the bus subscription, restarted
	// with a fixed delay when the broker connection drops.
	gateway := ingest.NewGateway(readingStore, liveHub)
	consumer := ingest.NewConsumer(ingest.ConsumerConfig{
		BrokerAddr: cfg.MQTTBrokerAddr,
		ClientID:   cfg.MQTTClientID,
		Username:   cfg.MQTTUsername,
		Password:   cfg.MQTTPassword,
		Topic:      cfg.MQTTTopic,
	}, gateway)

	go func() {
		for {
			if err := consumer.Run(ctx); err != nil {
				log.Printf("mqtt consumer stopped: %v; reconnecting in %s", err, mqttReconnectDelay)
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(mqttReconnectDelay):
			}
		}
	}()

	// Nightly report archival.
	if cfg.DailyReportJob {
		sched := scheduler.New(service)
		if err := sched.Start(); err != nil {
			log.Fatalf("failed to start scheduler: %v", err)
		}
		defer sched.Stop()
	}

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "sense-backend",
		DisableStartupMessage: true,
		// No WriteTimeout: the /api/v1/events stream stays open indefinitely.
		ReadTimeout: 10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "sense-backend",
		})
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// API routes.
	httpapi.RegisterRoutes(app, service, liveHub)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
