package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rentables/lease-notification-service/internal/consumer"
	"github.com/rentables/lease-notification-service/internal/dispatch"
	"github.com/rentables/lease-notification-service/internal/domain"
	"github.com/rentables/lease-notification-service/internal/engine"
	"github.com/rentables/lease-notification-service/internal/gateway"
	"github.com/rentables/lease-notification-service/internal/handler"
	"github.com/rentables/lease-notification-service/internal/middleware"
	"github.com/rentables/lease-notification-service/internal/queue"
	"github.com/rentables/lease-notification-service/internal/redelivery"
	"github.com/rentables/lease-notification-service/internal/repository"
	"github.com/rentables/lease-notification-service/internal/schedule"
	"github.com/rentables/lease-notification-service/internal/scheduler"
	"github.com/rentables/lease-notification-service/internal/service"
	"github.com/rentables/lease-notification-service/internal/shared/config"
	"github.com/rentables/lease-notification-service/internal/shared/logger"
	"github.com/rentables/lease-notification-service/internal/shared/mongodb"
	"github.com/rentables/lease-notification-service/internal/shared/rabbitmq"
	"github.com/rentables/lease-notification-service/internal/webhook"
)

func main() {
	log := logger.NewLogger()
	defer log.Sync()

	log.Info("starting lease notification service")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load configuration", "error", err)
	}

	mongoClient, err := mongodb.NewMongoClient(cfg.MongoDB.URI, cfg.MongoDB.Database)
	if err != nil {
		log.Fatal("failed to connect to MongoDB", "error", err)
	}
	defer mongoClient.Disconnect(context.Background())

	rabbitClient, err := rabbitmq.NewRabbitMQClient(cfg.RabbitMQ.URL)
	if err != nil {
		log.Fatal("failed to connect to RabbitMQ", "error", err)
	}
	defer rabbitClient.Close()

	// Repositories
	notificationRepo := repository.NewNotificationRepository(mongoClient)
	channelLogRepo := repository.NewChannelLogRepository(mongoClient)
	contractRepo := repository.NewContractRepository(mongoClient)
	ruleRepo := repository.NewRuleRepository(mongoClient)
	maintenanceRepo := repository.NewMaintenanceRepository(mongoClient)
	personRepo := repository.NewPersonRepository(mongoClient)

	indexCtx, cancelIndexes := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelIndexes()
	for name, ensure := range map[string]func(context.Context) error{
		"notifications": notificationRepo.EnsureIndexes,
		"channel_logs":  channelLogRepo.EnsureIndexes,
		"contracts":     contractRepo.EnsureIndexes,
		"rules":         ruleRepo.EnsureIndexes,
		"maintenance":   maintenanceRepo.EnsureIndexes,
		"people":        personRepo.EnsureIndexes,
	} {
		if err := ensure(indexCtx); err != nil {
			log.Fatal("failed to ensure indexes", "collection", name, "error", err)
		}
	}

	// Channel gateways and dispatcher
	gateways := dispatch.Registry{
		domain.ChannelEmail:    gateway.NewEmailGateway(cfg.SMTP, log),
		domain.ChannelSMS:      gateway.NewSMSGateway(cfg.SMS, log),
		domain.ChannelWhatsApp: gateway.NewWhatsAppGateway(cfg.WhatsApp, log),
	}
	dispatcher := dispatch.NewDispatcher(gateways, channelLogRepo, notificationRepo, cfg.GatewayTimeout, log)

	// Delivery queue for large ad-hoc sends
	deliveryQueue := queue.NewPriorityQueue()
	workerPool := queue.NewWorkerPool(deliveryQueue, dispatcher, 0, log)
	workerPool.Start()
	defer workerPool.Stop()

	// Rule engine
	resolver := engine.NewResolver(personRepo, log)
	evaluator := engine.NewEvaluator(ruleRepo, contractRepo, contractRepo, maintenanceRepo, notificationRepo, resolver, dispatcher, log)

	// Services
	generator := schedule.NewGenerator(nil)
	contractService := service.NewContractService(contractRepo, generator, log)
	notificationService := service.NewNotificationService(notificationRepo, channelLogRepo, dispatcher, deliveryQueue, evaluator, log)
	redeliveryService := redelivery.NewService(channelLogRepo, notificationRepo, dispatcher, log)
	statusProcessor := webhook.NewStatusProcessor(channelLogRepo, log)

	// Scheduler
	evaluationScheduler, err := scheduler.New(evaluator, cfg.Scheduler.Cadences, cfg.Scheduler.PollInterval, nil, log)
	if err != nil {
		log.Fatal("failed to build scheduler", "error", err)
	}
	evaluationScheduler.Start()
	defer evaluationScheduler.Stop()

	// Contract event consumer
	contractConsumer := consumer.NewContractConsumer(rabbitClient, contractService, log)
	go func() {
		if err := contractConsumer.Start(); err != nil {
			log.Error("contract event consumer stopped", "error", err)
		}
	}()

	// HTTP handlers
	notificationHandler := handler.NewNotificationHandler(notificationService, log)
	contractHandler := handler.NewContractHandler(contractService, log)
	ruleHandler := handler.NewRuleHandler(ruleRepo, log)
	redeliveryHandler := handler.NewRedeliveryHandler(redeliveryService, log)
	webhookHandler := handler.NewWebhookHandler(statusProcessor, log)

	rateLimiter := middleware.NewCompanyRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	router.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	v1.Use(middleware.RequireCompany())
	v1.Use(middleware.RateLimitMiddleware(rateLimiter))
	{
		notifications := v1.Group("/notifications")
		{
			notifications.POST("", notificationHandler.Send)
			notifications.GET("", notificationHandler.List)
			notifications.GET("/stats", notificationHandler.Stats)
			notifications.GET("/:id", notificationHandler.Get)
			notifications.PUT("/:id/read", notificationHandler.MarkRead)
			notifications.PUT("/read-all", notificationHandler.MarkAllRead)
			notifications.POST("/evaluate", notificationHandler.Evaluate)
		}

		contracts := v1.Group("/contracts")
		{
			contracts.POST("", contractHandler.Create)
			contracts.GET("/:id", contractHandler.Get)
		}

		rules := v1.Group("/rules")
		{
			rules.GET("", ruleHandler.ListRules)
			rules.POST("", ruleHandler.CreateRule)
			rules.PUT("/:id/active", ruleHandler.SetRuleActive)
		}

		templates := v1.Group("/templates")
		{
			templates.GET("", ruleHandler.ListTemplates)
			templates.POST("", ruleHandler.CreateTemplate)
		}

		failed := v1.Group("/deliveries/failed")
		{
			failed.GET("", redeliveryHandler.ListFailed)
			failed.POST("/:id/redeliver", redeliveryHandler.Redeliver)
		}
	}

	// Provider callbacks are unauthenticated by company and not rate
	// limited.
	router.POST("/webhooks/delivery-status", webhookHandler.DeliveryStatus)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.Info("lease notification service started", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("failed to start server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down lease notification service")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}

	log.Info("lease notification service stopped")
}
