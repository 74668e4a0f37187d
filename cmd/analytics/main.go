package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Al0olo/Fleet-Mangement-System-sub000/internal/config"
	"github.com/Al0olo/Fleet-Mangement-System-sub000/internal/ingest"
	"github.com/Al0olo/Fleet-Mangement-System-sub000/internal/model"
	"github.com/Al0olo/Fleet-Mangement-System-sub000/internal/server"
	"github.com/Al0olo/Fleet-Mangement-System-sub000/internal/service"
	"github.com/Al0olo/Fleet-Mangement-System-sub000/internal/store"

	_ "github.com/Al0olo/Fleet-Mangement-System-sub000/docs"
)

// @title Fleet Analytics API
// @version 1.0
// @description Telemetry aggregation and analytics service for commercial fleets

// @host localhost:3000
// @BasePath /api/v1

func main() {
	log.Println("[Analytics] Starting fleet analytics service...")

	// Load .env if present, then configuration
	_ = godotenv.Load()
	cfg := config.Load()

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		log.Fatalf("[Analytics] Failed to connect to database: %v", err)
	}
	log.Println("[Analytics] Connected to database")

	// Auto migrate
	if err := autoMigrate(db); err != nil {
		log.Fatalf("[Analytics] Failed to migrate database: %v", err)
	}
	log.Println("[Analytics] Database migrated")

	// Connect to Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisURL,
		DB:   0,
	})

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelPing()
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		log.Fatalf("[Analytics] Failed to connect to Redis: %v", err)
	}
	log.Println("[Analytics] Connected to Redis")
	defer redisClient.Close()

	// Connect to NATS
	natsConn, err := nats.Connect(cfg.NATSURL)
	if err != nil {
		log.Fatalf("[Analytics] Failed to connect to NATS: %v", err)
	}
	log.Println("[Analytics] Connected to NATS")
	defer natsConn.Close()

	// Stores
	bucketStore := store.NewBucketStore(db)
	observationStore := store.NewObservationStore(db)
	reportStore := store.NewReportStore(db)
	sequenceStore := store.NewSequenceStore(redisClient)
	stateStore := store.NewStateStore(redisClient, time.Duration(cfg.StateTTLSeconds)*time.Second)

	// Services
	usageService := service.NewUsageStatsService(bucketStore, sequenceStore)
	metricService := service.NewMetricService(observationStore, natsConn)
	analyticsService := service.NewAnalyticsService(observationStore)
	registryClient := service.NewRegistryClient(cfg.RegistryBaseURL)
	reportService := service.NewReportService(usageService, analyticsService, reportStore, registryClient, natsConn)
	telemetryService := service.NewTelemetryService(usageService, metricService, stateStore)

	// Kafka consumers; cancelling consumerCtx starts the graceful drain
	consumerCtx, stopConsumers := context.WithCancel(context.Background())
	consumer, err := ingest.Start(consumerCtx, ingest.Config{
		Brokers: cfg.KafkaBrokers,
		GroupID: cfg.KafkaGroupID,
	}, telemetryService)
	if err != nil {
		log.Fatalf("[Analytics] Failed to start Kafka consumers: %v", err)
	}
	log.Println("[Analytics] Kafka consumers started")

	// HTTP server
	srv := server.NewServer(cfg, db, redisClient, natsConn, analyticsService, usageService, reportService)
	srv.Setup()

	addr := fmt.Sprintf(":%d", cfg.APIPort)
	go func() {
		if err := srv.Run(addr); err != nil {
			log.Fatalf("[Analytics] Failed to start server: %v", err)
		}
	}()
	log.Printf("[Analytics] Server ready on %s", addr)

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	log.Println("[Analytics] Shutting down...")

	// Drain consumers first so in-flight accumulation is committed before
	// the transport connection goes away.
	stopConsumers()
	consumer.Wait()
	log.Println("[Analytics] Kafka consumers drained")

	srv.Shutdown()
	log.Println("[Analytics] Server stopped")
}

func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.UsageStatsBucket{},
		&model.MetricObservation{},
		&model.AnalyticsReport{},
	)
}
