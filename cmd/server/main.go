package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	raffleapp "github.com/rafflehub/backend/internal/application/raffle"
	"github.com/rafflehub/backend/internal/domain/raffle"
	"github.com/rafflehub/backend/internal/infrastructure/cache"
	"github.com/rafflehub/backend/internal/infrastructure/config"
	"github.com/rafflehub/backend/internal/infrastructure/event"
	"github.com/rafflehub/backend/internal/infrastructure/logger"
	"github.com/rafflehub/backend/internal/infrastructure/persistence"
	"github.com/rafflehub/backend/internal/infrastructure/randomness"
	"github.com/rafflehub/backend/internal/interfaces/http/handler"
	"github.com/rafflehub/backend/internal/interfaces/http/middleware"
	"github.com/rafflehub/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

// localCallbackDelay approximates the oracle's round trip in development
const localCallbackDelay = 2 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting raffle backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Database
	gormLogger := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLogger)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database", zap.Error(err))
		}
	}()

	// Idempotency store: Redis when reachable, in-memory otherwise
	storeFactory := cache.NewIdempotencyStoreFactory(cfg.Redis, cache.WithLogger(log))
	idempotencyStore, err := storeFactory.CreateStore()
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("Failed to close idempotency store", zap.Error(err))
		}
	}()

	// Event bus
	bus := event.NewInMemoryEventBus(log)

	// Repositories
	raffleRepo := persistence.NewGormRaffleRepository(db.DB)
	ticketRepo := persistence.NewGormTicketRepository(db.DB)
	drawRepo := persistence.NewGormDrawRepository(db.DB)

	// Services
	raffleService := raffleapp.NewRaffleService(raffleRepo, ticketRepo, drawRepo, bus, log)
	purchaseService := raffleapp.NewPurchaseService(raffleRepo, ticketRepo, bus, log)

	// Randomness source. The draw service consumes the source and also
	// receives its callbacks, so the local source closes over the service
	// variable filled in right below.
	var drawService *raffleapp.DrawService
	var randomnessSource raffle.RandomnessSource
	if cfg.Oracle.BaseURL != "" {
		randomnessSource = randomness.NewHTTPOracleSource(cfg.Oracle, log)
	} else {
		log.Warn("No oracle configured, using in-process randomness (development only)")
		randomnessSource = randomness.NewLocalSource(func(ctx context.Context, cb raffle.RandomnessCallback) error {
			return drawService.HandleRandomnessCallback(ctx, cb)
		}, localCallbackDelay, log)
	}
	drawService = raffleapp.NewDrawService(raffleRepo, ticketRepo, drawRepo, randomnessSource, bus, log)

	// Event subscribers
	bus.Subscribe(raffleapp.NewPaymentCapturedHandler(raffleRepo, ticketRepo, bus, idempotencyStore, log))
	bus.Subscribe(event.NewLoggingNotifier(log))

	// HTTP handlers
	raffleHandler := handler.NewRaffleHandler(raffleService)
	purchaseHandler := handler.NewPurchaseHandler(purchaseService)
	drawHandler := handler.NewDrawHandler(drawService)
	webhookHandler := handler.NewWebhookHandler(drawService, bus)
	systemHandler := handler.NewSystemHandler()

	engine := gin.New()
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	engine.Use(middleware.CORSWithConfig(corsConfig))

	if cfg.HTTP.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(limiter))
	}

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.GET("/health", healthHandler(db))

	raffleRoutes := router.NewDomainGroup("raffle", "/raffles").
		POST("", raffleHandler.Create).
		GET("", raffleHandler.List).
		GET("/:id", raffleHandler.GetByID).
		PATCH("/:id", raffleHandler.Update).
		POST("/:id/publish", raffleHandler.Publish).
		POST("/:id/cancel", raffleHandler.Cancel).
		POST("/:id/resume", raffleHandler.Resume).
		GET("/:id/tickets", raffleHandler.ListTickets).
		POST("/:id/purchases", purchaseHandler.Purchase).
		POST("/:id/draws", drawHandler.StartDraw).
		GET("/:id/draws", drawHandler.ListDraws)

	ticketRoutes := router.NewDomainGroup("ticket", "/tickets").
		GET("/:id", raffleHandler.GetTicket)

	drawRoutes := router.NewDomainGroup("draw", "/draws").
		GET("/:id", drawHandler.GetDraw)

	webhookRoutes := router.NewDomainGroup("webhook", "/webhooks").
		POST("/randomness", webhookHandler.HandleRandomnessCallback).
		POST("/payment-captured", webhookHandler.HandlePaymentCaptured)

	systemRoutes := router.NewDomainGroup("system", "/system").
		GET("/info", systemHandler.GetSystemInfo).
		GET("/ping", systemHandler.Ping)

	router.NewRouter(engine).
		Register(raffleRoutes).
		Register(ticketRoutes).
		Register(drawRoutes).
		Register(webhookRoutes).
		Register(systemRoutes).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}

// healthHandler reports liveness, including database reachability
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			logger.GetGinLogger(c).Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "database unreachable",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	}
}
