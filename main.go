// File: slotify/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"slotify/config"
	"slotify/cron"
	"slotify/database"
	"slotify/database/repository"
	"slotify/handlers"
	"slotify/routes"
	availabilitySvc "slotify/services/availability"
	bookingSvc "slotify/services/booking"
	catalogSvc "slotify/services/catalog"
	"slotify/services/events"
	"slotify/services/notifier"
	"slotify/services/payments"
	pricingSvc "slotify/services/pricing"
	settingsSvc "slotify/services/settings"
	"slotify/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/stripe/stripe-go/v76"
)

func main() {
	config.LoadConfig()
	utils.InitializeLogger()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitRedis()
	utils.StartHealthMonitor([]*redis.Client{utils.GetLockClient()}, database.MongoClient)

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	stripe.Key = config.AppConfig.StripeKey

	// repositories.
	catalogRepo := repository.NewMongoCatalogRepo()
	bookingRepo := repository.NewMongoBookingRepo()
	settingsRepo := repository.NewMongoSettingsRepo()
	sequenceRepo := repository.NewMongoSequenceRepo()

	// services, wired bottom-up.
	settingsService := &settingsSvc.DefaultSettingsService{
		Repo:     settingsRepo,
		Defaults: config.DefaultPolicy(),
		CacheTTL: time.Duration(config.AppConfig.SettingsCacheTTLSeconds) * time.Second,
	}
	catalogService := &catalogSvc.DefaultCatalogService{
		Repo:     catalogRepo,
		CacheTTL: time.Duration(config.AppConfig.CatalogCacheTTLSeconds) * time.Second,
	}
	availabilityEngine := &availabilitySvc.DefaultAvailabilityEngine{
		Catalog:  catalogService,
		Bookings: bookingRepo,
		Settings: settingsService,
	}
	pricingEngine := &pricingSvc.DefaultPricingEngine{
		Catalog:  catalogService,
		Settings: settingsService,
	}
	paymentHandler := payments.NewStripePaymentHandler(logger)

	bus := events.NewBus()
	machine := &bookingSvc.DefaultBookingMachine{
		Repo:     bookingRepo,
		Seq:      sequenceRepo,
		Catalog:  catalogService,
		Engine:   availabilityEngine,
		Pricing:  pricingEngine,
		Settings: settingsService,
		Payments: paymentHandler,
		Locks:    &bookingSvc.SlotLocker{Client: utils.GetLockClient()},
		Bus:      bus,
	}

	// Bus subscribers: notification fan-out, catalog invalidation, audit log.
	queueNotifier := notifier.NewQueueNotifier(utils.QueueRedisOpt(), logger)
	subCtx, stopSubscribers := context.WithCancel(context.Background())
	defer stopSubscribers()
	go (&events.NotificationSubscriber{Bus: bus, Notifier: queueNotifier, Buffer: 128}).Run(subCtx)
	go (&events.CatalogSubscriber{Bus: bus, Catalog: catalogService, Settings: settingsService, Buffer: 16}).Run(subCtx)
	go (&events.AuditSubscriber{Bus: bus, Buffer: 128}).Run(subCtx)

	// Lifecycle workers: hold expiry, reminders, payment reconciliation.
	cron.InitLifecycleWorkers(machine)

	// Assemble the handler bundle.
	handlerBundle := &handlers.HandlerBundle{
		Catalog:      handlers.NewCatalogHandler(catalogService, logger),
		Availability: handlers.NewAvailabilityHandler(availabilityEngine, pricingEngine, logger),
		Booking:      handlers.NewBookingHandler(machine, logger),
		Admin:        handlers.NewAdminHandler(catalogService, settingsService, machine, bus, logger),
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

	stopSubscribers()
	bus.Close()
	if err := queueNotifier.Close(); err != nil {
		logger.Warn("main: failed to close notifier queue")
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
