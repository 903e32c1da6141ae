package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"daresni/config"
	"daresni/database"
	"daresni/handlers"
	"daresni/middleware"
	"daresni/routes"
	"daresni/services/availability"
	"daresni/services/booking"
	"daresni/services/identity"
	"daresni/services/metrics"
	"daresni/services/sessions"
	"daresni/services/tutors"
	"daresni/utils"

	firebase "firebase.google.com/go/v4"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("main: failed to load config: %v", err)
	}
	logger, err := utils.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("main: failed to build logger: %v", err)
	}
	defer logger.Sync()

	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal("main: invalid timezone", zap.Error(err))
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	var app *firebase.App
	if cfg.NeedsFirebase() || cfg.FirebaseProjectID != "" {
		app, err = database.NewFirebaseApp(rootCtx, cfg.FirebaseProjectID, cfg.FirebaseCredentialsFile)
		if err != nil {
			logger.Fatal("main: failed to initialize firebase", zap.Error(err))
		}
	}

	store, err := database.Open(rootCtx, cfg, app, logger)
	if err != nil {
		logger.Fatal("main: failed to open store", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}

	// Redis is optional; without it the window and identity caches are skipped.
	var cacheClient, authCache *redis.Client
	if cfg.RedisAddr != "" {
		if cacheClient, err = utils.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisCacheDB); err != nil {
			logger.Warn("main: redis cache unavailable", zap.Error(err))
		}
		if authCache, err = utils.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisAuthDB); err != nil {
			logger.Warn("main: redis auth cache unavailable", zap.Error(err))
		}
	}

	var verifier identity.Verifier
	if app != nil {
		tokenClient, err := app.Auth(rootCtx)
		if err != nil {
			logger.Fatal("main: failed to initialize firebase auth", zap.Error(err))
		}
		verifier = identity.NewFirebaseVerifier(tokenClient, store.Users, authCache, logger)
	}
	if cfg.DevAuthBypass {
		logger.Warn("main: development auth bypass is enabled")
	}

	// services.
	metricsService := metrics.NewService()
	availabilityService := availability.NewAvailabilityService(store.Availability, cacheClient, metricsService, logger, availability.Options{
		Location: loc,
		CacheTTL: cfg.WindowCacheTTL,
	})
	bookingService := booking.NewBookingService(store.Bookings, store.Users, availabilityService, metricsService, logger, booking.Options{
		Location:          loc,
		RejectPolicy:      booking.RejectPolicy(cfg.RejectPolicy),
		HoldSlotOnRequest: cfg.HoldSlotOnRequest,
	})
	sessionService := sessions.NewSessionService(store.Bookings, logger, loc, nil)
	tutorService := tutors.NewTutorService(store.Users, availabilityService, logger, loc, cfg.DirectoryWindowDays)

	health := utils.NewHealthMonitor(logger)
	health.Register("store", store.Ping)
	if cacheClient != nil {
		health.Register("redis", func(ctx context.Context) error { return cacheClient.Ping(ctx).Err() })
	}
	health.Start(rootCtx, 30*time.Second)

	if err := handlers.RegisterValidators(); err != nil {
		logger.Fatal("main: failed to register validators", zap.Error(err))
	}
	handlerBundle := &handlers.HandlerBundle{
		Tutors:        handlers.NewTutorHandler(tutorService, logger),
		Availability:  handlers.NewAvailabilityHandler(availabilityService, loc, cfg.PickerWindowDays, cfg.DirectoryWindowDays, logger),
		Bookings:      handlers.NewBookingHandler(bookingService, logger),
		Sessions:      handlers.NewSessionHandler(sessionService, metricsService, logger),
		Verifier:      verifier,
		DevAuthBypass: cfg.DevAuthBypass,
		RateLimit:     cfg.MaxRequestsPerMin,
		Health:        health,
		Metrics:       metricsService,
		Logger:        logger,
	}

	router := gin.New()
	router.Use(utils.ErrorHandler(logger))
	router.Use(middleware.RequestLogger(logger))
	routes.RegisterRoutes(router, handlerBundle)

	srv := &http.Server{
		Addr:    "0.0.0.0:" + cfg.AppPort,
		Handler: router,
	}

	logger.Info("Starting server", zap.String("addr", srv.Addr), zap.String("store", store.Driver))
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("main: server failed to start", zap.Error(err))
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("main: server is shutting down...")
	stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("main: server forced to shutdown", zap.Error(err))
	}
	if err := store.Close(ctx); err != nil {
		logger.Warn("main: failed to close store", zap.Error(err))
	}
	for _, c := range []*redis.Client{cacheClient, authCache} {
		if c != nil {
			_ = c.Close()
		}
	}
	logger.Info("main: server stopped gracefully")
}
