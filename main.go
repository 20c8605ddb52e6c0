package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/stripe/stripe-go/v76"

	"groomly/config"
	"groomly/cron"
	"groomly/database"
	attemptRepoPkg "groomly/database/repository/attempt"
	bookingRepoPkg "groomly/database/repository/booking"
	customerRepoPkg "groomly/database/repository/customer"
	earningsRepoPkg "groomly/database/repository/earnings"
	groomerRepoPkg "groomly/database/repository/groomer"
	serviceRepoPkg "groomly/database/repository/service"
	settingsRepoPkg "groomly/database/repository/settings"
	strikeRepoPkg "groomly/database/repository/strike"
	"groomly/handlers"
	"groomly/middleware"
	"groomly/routes"
	"groomly/services/dispatch"
	"groomly/services/earnings"
	"groomly/services/inbound"
	"groomly/services/lifecycle"
	"groomly/services/messaging"
	"groomly/services/notification"
	"groomly/services/payment"
	"groomly/services/pricing"
	"groomly/services/settings"
	"groomly/services/strike"
	"groomly/utils"
)

func main() {
	config.LoadConfig()
	utils.InitializeLogger()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitCache()
	utils.FirebaseInit()
	stripe.Key = config.AppConfig.StripeKey

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())

	// Repositories.
	bookings := bookingRepoPkg.NewMongoBookingRepo()
	groomers := groomerRepoPkg.NewMongoGroomerRepo()
	customers := customerRepoPkg.NewMongoCustomerRepo()
	attempts := attemptRepoPkg.NewMongoAttemptRepo()
	strikes := strikeRepoPkg.NewMongoStrikeRepo()
	services := serviceRepoPkg.NewMongoServiceRepo()
	earningsStore := earningsRepoPkg.NewMongoEarningsRepo()
	settingsStore := settingsRepoPkg.NewMongoSettingsRepo()

	// Collaborators.
	settingsCache := settings.NewCache(settingsStore, settings.DefaultTTL, nil)
	pricingEngine := pricing.NewEngine(settingsCache, nil)
	messenger := messaging.NewLogMessenger(logger)
	notifier := notification.NewFCMService(customers, logger)
	gateway := payment.NewStripeGateway(
		config.AppConfig.Currency,
		config.AppConfig.PaymentCallbackURL,
		logger,
	)
	queue := cron.NewQueueClient()

	strikeService := &strike.DefaultService{
		Groomers:  groomers,
		Strikes:   strikes,
		Messenger: messenger,
		Logger:    logger,
	}
	earningsService := &earnings.DefaultService{
		Repo:   earningsStore,
		Logger: logger,
	}

	dispatchEngine := &dispatch.Engine{
		Bookings:   bookings,
		Groomers:   groomers,
		Attempts:   attempts,
		Customers:  customers,
		Messenger:  messenger,
		Deadlines:  queue,
		Strikes:    strikeService,
		Notifier:   notifier,
		Gateway:    gateway,
		Reconciler: queue,
		Settings:   settingsCache,
		Logger:     logger,
	}

	lifecycleService := &lifecycle.Service{
		Bookings:   bookings,
		Groomers:   groomers,
		Attempts:   attempts,
		Earnings:   earningsStore,
		Pricing:    pricingEngine,
		Dispatch:   dispatchEngine,
		Gateway:    gateway,
		Reconciler: queue,
		Strikes:    strikeService,
		Notifier:   notifier,
		Messenger:  messenger,
		Settings:   settingsCache,
		Logger:     logger,
	}

	inboundRouter := &inbound.Router{
		Groomers:  groomers,
		Dispatch:  dispatchEngine,
		Lifecycle: lifecycleService,
		Earnings:  earningsService,
		Messenger: messenger,
		Logger:    logger,
	}

	// Background workers: offer deadlines + refund reconciliation, and
	// the periodic lifecycle sweeps.
	cron.InitDispatchWorker(dispatchEngine, gateway)
	sweeps := cron.InitSweeps(lifecycleService)
	defer sweeps.Stop()

	utils.StartHealthMonitor([]*redis.Client{utils.GetCacheClient()}, database.MongoClient)

	handlerBundle := &handlers.HandlerBundle{
		Bookings:      bookings,
		Groomers:      groomers,
		Customers:     customers,
		Services:      services,
		Lifecycle:     lifecycleService,
		Inbound:       inboundRouter,
		Gateway:       gateway,
		SettingsStore: settingsStore,
		SettingsCache: settingsCache,
		Logger:        logger,
	}

	// Register routes with the assembled handler bundle.
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
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
