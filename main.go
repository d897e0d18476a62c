package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"barberly/config"
	"barberly/cron"
	"barberly/database"
	bookingRepo "barberly/database/repository/booking"
	directoryRepo "barberly/database/repository/directory"
	"barberly/handlers"
	"barberly/middleware"
	"barberly/routes"
	"barberly/services/booking"
	"barberly/services/notification"
	"barberly/services/payment"
	"barberly/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/mongo"
)

func main() {
	config.LoadConfig()
	utils.InitializeLogger()
	logger := utils.GetLogger()
	defer logger.Sync()

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	// Stores.
	var (
		repo        bookingRepo.BookingRepository
		dir         directoryRepo.DirectoryRepository
		mongoClient *mongo.Client
	)
	switch config.AppConfig.StoreDriver {
	case "memory":
		logger.Sugar().Warn("main: using in-memory stores; data is lost on restart")
		repo = bookingRepo.NewMemoryBookingRepo()
		dir = directoryRepo.NewMemoryDirectoryRepo()
	default:
		if err := database.InitDB(); err != nil {
			logger.Sugar().Fatalf("main: %v", err)
		}
		mongoClient = database.MongoClient
		mongoBookings := bookingRepo.NewMongoBookingRepo(database.Database())
		mongoDirectory := directoryRepo.NewMongoDirectoryRepo(database.Database())

		idxCtx, cancel := context.WithTimeout(rootCtx, 30*time.Second)
		if err := mongoBookings.EnsureIndexes(idxCtx); err != nil {
			logger.Sugar().Fatalf("main: booking indexes: %v", err)
		}
		if err := mongoDirectory.EnsureIndexes(idxCtx); err != nil {
			logger.Sugar().Fatalf("main: directory indexes: %v", err)
		}
		cancel()
		repo, dir = mongoBookings, mongoDirectory
	}

	// Notifications.
	var (
		sink        notification.Sink
		worker      *asynq.Server
		queueClient *asynq.Client
		redisClient *redis.Client
	)
	switch config.AppConfig.NotificationSink {
	case "log":
		sink = &notification.LogSink{Logger: logger}
	default:
		if err := utils.InitQueueRedis(); err != nil {
			logger.Sugar().Fatalf("main: %v", err)
		}
		redisClient = utils.QueueRedisClient

		fcm, err := utils.FirebaseInit(rootCtx)
		if err != nil {
			logger.Sugar().Fatalf("main: %v", err)
		}
		notifSvc, err := notification.NewDefaultNotificationService(dir, fcm, logger)
		if err != nil {
			logger.Sugar().Fatalf("main: %v", err)
		}
		worker, err = cron.InitNotificationWorker(notifSvc, logger)
		if err != nil {
			logger.Sugar().Fatalf("main: notification worker: %v", err)
		}

		queueClient = asynq.NewClient(asynq.RedisClientOpt{
			Addr:     config.AppConfig.RedisAddr,
			Password: config.AppConfig.RedisPassword,
			DB:       config.AppConfig.RedisNotificationQueueDB,
		})
		sink = notification.NewQueueSink(queueClient, logger)
	}

	gateway := payment.NewStripeGateway(config.AppConfig.StripeKey, config.AppConfig.PaymentCurrency, logger)

	bookingService, err := booking.NewDefaultBookingService(repo, dir, gateway, sink, logger)
	if err != nil {
		logger.Sugar().Fatalf("main: %v", err)
	}
	bookingService.Location = config.Location()
	if g := config.AppConfig.SlotGranularityMinutes; g > 0 {
		bookingService.Granularity = g
	}
	bookingService.Metrics = booking.NewMetrics("barberly", prometheus.DefaultRegisterer)

	utils.StartHealthMonitor(rootCtx, redisClient, mongoClient, 30*time.Second)

	// Create the Gin router.
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())

	handlerBundle := handlers.NewHandlerBundle(handlers.NewBookingHandler(bookingService))
	routes.RegisterRoutes(router, handlerBundle)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Errorf("main: server forced to shutdown: %v", err)
	}

	if worker != nil {
		worker.Shutdown()
	}
	if queueClient != nil {
		if err := queueClient.Close(); err != nil {
			logger.Sugar().Warnf("main: closing queue client: %v", err)
		}
	}
	stop()
	if err := database.Close(ctx); err != nil {
		logger.Sugar().Warnf("main: closing mongo: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
