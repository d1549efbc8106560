package main

import (
	"context"
	"time"

	"syndicate/stevedore/internal/handlers"
	"syndicate/stevedore/pkg/auth"
	"syndicate/stevedore/pkg/config"
	"syndicate/stevedore/pkg/database"
	"syndicate/stevedore/pkg/kafka"
	"syndicate/stevedore/pkg/logging"
	"syndicate/stevedore/pkg/monitoring"
	"syndicate/stevedore/pkg/server"
	"syndicate/stevedore/pkg/version"
)

func main() {
	// Setup logger
	logger := logging.NewLoggerWithService("stevedore")

	// Load environment variables
	config.LoadEnv(logger)

	logger.Info("Starting Stevedore (Distribution Reconciliation API)")

	// Connect to database
	dbConfig := database.DefaultConfig()
	dbConfig.URL = config.GetEnv("DATABASE_URL", "")
	db := database.MustConnect(dbConfig, logger)
	defer db.Close()

	// Apply schema and seed data
	if err := database.ApplySchema(context.Background(), db, logger); err != nil {
		logger.WithError(err).Fatal("Failed to apply database schema")
	}

	// Setup monitoring
	healthChecker := monitoring.NewHealthChecker("stevedore", version.Version)
	metricsCollector := monitoring.NewMetricsCollector("stevedore", version.Version, version.GitCommit)

	healthChecker.AddCheck("database", monitoring.DatabaseHealthCheck(db))
	healthChecker.AddCheck("config", monitoring.ConfigurationHealthCheck(map[string]string{
		"DATABASE_URL": config.GetEnv("DATABASE_URL", ""),
		"API_KEYS":     config.GetEnv("API_KEYS", ""),
	}))

	eventsIngested, alertsRaised, capacitySlots := metricsCollector.CreateIngestMetrics()
	dbQueries, dbDuration, dbConnections := metricsCollector.CreateDatabaseMetrics()
	ingestMetrics := &handlers.IngestMetrics{
		EventsIngested: eventsIngested,
		AlertsRaised:   alertsRaised,
		CapacitySlots:  capacitySlots,
		DBQueries:      dbQueries,
		DBDuration:     dbDuration,
	}
	go monitoring.TrackDBConnections(db, dbConnections, "stevedore", 15*time.Second, nil)

	// Bus producer is optional: without brokers the service runs standalone
	// and skips the fan-out.
	var publisher handlers.EventPublisher
	if brokers := config.GetEnvList("KAFKA_BROKERS", nil); len(brokers) > 0 {
		producer, err := kafka.NewProducer(brokers, logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to create kafka producer")
		}
		defer producer.Close()
		kafkaMessages, kafkaDuration := metricsCollector.CreateKafkaMetrics()
		producer.WithMetrics(kafkaMessages, kafkaDuration)
		healthChecker.AddCheck("kafka", monitoring.KafkaProducerHealthCheck(producer.GetClient()))
		publisher = producer
	} else {
		logger.Warn("KAFKA_BROKERS not set, pipeline event fan-out disabled")
	}

	// Initialize handlers
	handlers.Init(db, logger, ingestMetrics, publisher)

	// Setup router with unified monitoring
	router := server.SetupServiceRouter(logger, "stevedore", healthChecker, metricsCollector)

	apiKeys := config.GetEnvList("API_KEYS", []string{"default-api-key"})

	// Event ingestion (requires API key)
	events := router.Group("/api/events")
	events.Use(auth.APIKeyAuthMiddleware(apiKeys))
	{
		events.POST("/post-succeeded", handlers.PostSucceeded)
		events.POST("/post-failed", handlers.PostFailed)
	}

	// Read-side endpoints (require API key)
	protected := router.Group("/api")
	protected.Use(auth.APIKeyAuthMiddleware(apiKeys))
	{
		protected.GET("/stats", handlers.GetPipelineStats)
		protected.GET("/capacity", handlers.GetCapacityPools)
		protected.GET("/platforms", handlers.GetPlatformHealth)
		protected.GET("/content", handlers.GetContentItems)
		protected.GET("/content/:id", handlers.GetContentItem)
		protected.GET("/alerts", handlers.GetAlerts)
		protected.PUT("/alerts/:id/read", handlers.MarkAlertRead)
	}

	// Start server with graceful shutdown
	serverConfig := server.DefaultConfig("stevedore", "18010")
	if err := server.Start(serverConfig, router, logger); err != nil {
		logger.WithError(err).Fatal("Server startup failed")
	}
}
