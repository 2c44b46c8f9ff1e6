package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Kilat-Travel/service-booking/internal/application"
	"github.com/Kilat-Travel/service-booking/internal/config"
	"github.com/Kilat-Travel/service-booking/internal/database"
	bookingEvents "github.com/Kilat-Travel/service-booking/internal/events"
	"github.com/Kilat-Travel/service-booking/internal/handler"
	"github.com/Kilat-Travel/service-booking/internal/health"
	"github.com/Kilat-Travel/service-booking/internal/jobs"
	"github.com/Kilat-Travel/service-booking/internal/kafka"
	"github.com/Kilat-Travel/service-booking/internal/logger"
	"github.com/Kilat-Travel/service-booking/internal/middleware"
	"github.com/Kilat-Travel/service-booking/internal/repository"
	"github.com/Kilat-Travel/service-booking/internal/response"
	"github.com/Kilat-Travel/service-booking/migrations"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const serviceName = "service-booking"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, cfg.LogLevel, serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting service-booking",
		zap.String("port", cfg.Port),
		zap.String("environment", cfg.AppEnv),
	)

	// Connect to database
	db, err := database.Connect(cfg.DBConfig, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run database migrations
	if cfg.IsDevelopment() {
		if err := db.AutoMigrate(&repository.BookingModel{}, &repository.PromoCodeModel{}, &repository.ClientModel{}); err != nil {
			log.Fatal("failed to run auto-migration", zap.Error(err))
		}
		log.Info("database migration completed (dev auto-migrate)")
	} else {
		if err := database.RunMigrations(cfg.DBConfig.DSN(), migrations.FS, log); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	// Connect to Redis for draft recovery snapshots
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisConfig.Addr,
		Password: cfg.RedisConfig.Password,
		DB:       cfg.RedisConfig.DB,
	})
	defer func() { _ = redisClient.Close() }()

	snapshotStore := repository.NewRedisSnapshotStore(redisClient, cfg.Wizard.SnapshotTTL)
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 3*time.Second)
	if err := snapshotStore.Ping(pingCtx); err != nil {
		log.Warn("redis unavailable, drafts will not survive a restart until it recovers", zap.Error(err))
	}
	pingCancel()

	// Initialize Kafka producer
	kafkaProducer := kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
	defer func() { _ = kafkaProducer.Close() }()

	// Initialize repositories
	bookingRepo := repository.NewGormBookingRepository(db)
	promoRepo := repository.NewGormPromoRepository(db)
	clientRepo := repository.NewGormClientRepository(db)

	// Initialize application services
	bookingService := application.NewBookingService(bookingRepo, kafkaProducer, log)
	promoService := application.NewPromoService(promoRepo, log)
	clientService := application.NewClientService(clientRepo, log)
	pricingService := application.NewPricingService(log)

	autosaver := application.NewAutosaver(snapshotStore, cfg.Wizard.AutosaveDebounce, log)
	wizardService := application.NewWizardService(
		snapshotStore,
		autosaver,
		promoService,
		bookingService,
		clientService,
		pricingService,
		log,
	)

	// Initialize and start payment event consumer in a goroutine
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	groupID := cfg.KafkaConfig.GroupPrefix + "booking-service"
	paymentConsumer := bookingEvents.NewPaymentEventConsumer(
		cfg.KafkaConfig.Brokers,
		groupID,
		bookingService,
		log,
	)
	defer func() { _ = paymentConsumer.Close() }()

	go func() {
		log.Info("starting payment event consumer")
		if err := paymentConsumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("payment event consumer error", zap.Error(err))
		}
	}()

	// Schedule background jobs
	scheduler := jobs.NewScheduler(log)
	reminderJob := jobs.NewBalanceReminderJob(bookingService, log, 5*time.Minute)
	if err := scheduler.AddJob(jobs.BalanceReminderJobName, cfg.Jobs.BalanceReminderCron, reminderJob.Run); err != nil {
		log.Fatal("failed to schedule balance reminders", zap.Error(err))
	}
	scheduler.Start()

	// Setup Gin router
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.CORSMiddleware(cfg.CORSOrigins))
	router.Use(middleware.SecurityHeadersMiddleware(cfg.AppEnv == "production"))

	// Register health check routes
	healthHandler := health.NewHandler(serviceName,
		health.DatabaseCheck(db),
		health.RedisCheck(redisClient),
	)
	healthHandler.RegisterRoutes(router)

	// Register routes
	handler.NewWizardHandler(wizardService).RegisterRoutes(&router.RouterGroup)
	handler.NewBookingHandler(bookingService).RegisterRoutes(&router.RouterGroup)
	handler.NewPromoHandler(promoService).RegisterRoutes(&router.RouterGroup)
	handler.NewClientHandler(clientService).RegisterRoutes(&router.RouterGroup)
	handler.NewPricingHandler(pricingService).RegisterRoutes(&router.RouterGroup)

	// Register admin handler routes
	handler.NewAdminBookingHandler(bookingService).RegisterRoutes(&router.RouterGroup)

	router.NoRoute(func(c *gin.Context) {
		response.NotFound(c, "route not found")
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down service-booking...")

	// Cancel the consumer context
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	// Persist drafts with unsaved edits, then stop the debounce timers
	wizardService.FlushAll(shutdownCtx)
	autosaver.Stop()

	select {
	case <-scheduler.Stop().Done():
	case <-shutdownCtx.Done():
		log.Warn("scheduler did not stop before the shutdown deadline")
	}

	log.Info("service-booking stopped")
}
