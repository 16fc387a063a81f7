package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/trackfolio/ledger-api/internal/auth"
	"github.com/trackfolio/ledger-api/internal/database"
	"github.com/trackfolio/ledger-api/internal/engine"
	"github.com/trackfolio/ledger-api/internal/pricing"
	"github.com/trackfolio/ledger-api/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// init configures the application logging based on environment settings
// In development mode, it enables pretty printing with timestamps
// Debug logging can be enabled via DEBUG environment variable
func init() {
	if os.Getenv("ENV") != "production" {
		output := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
		zlog.Logger = zerolog.New(output).With().Timestamp().Logger()
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if os.Getenv("DEBUG") == "true" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

// main initializes and runs the ledger API server with graceful shutdown
// support.
func main() {
	dbPath := os.Getenv("LEDGER_DB")
	if dbPath == "" {
		dbPath = "ledger.db"
	}
	db, err := database.NewDatabase(dbPath)
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to initialize database")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = "ledger-secret-key"
	}

	router := gin.Default()

	authService := auth.NewService(jwtSecret)
	authHandlers := auth.NewGinHandlers(authService)
	if os.Getenv("ENV") != "production" {
		authService.RegisterCredentials(auth.DefaultAPIKey, auth.DefaultAPISecret)
	}

	repo := database.NewRepository(db)
	prices := pricing.NewDatabase(db)

	// The simulated feed backfills prices for days the history has no
	// point for; leave PRICE_FEED unset to run with strict lookups only.
	var feed pricing.Feed
	if os.Getenv("PRICE_FEED") == "sim" {
		feed = pricing.NewSimulatedFeed()
	}

	engineService := engine.NewService(repo, prices, feed)
	engineService.Subscribe(engine.LogObserver())
	engineHandlers := engine.NewGinHandlers(engineService)

	// Start the background replay auditor
	auditor := engine.NewAuditor(repo, prices)
	auditorCtx, auditorCancel := context.WithCancel(context.Background())
	defer auditorCancel()

	go auditor.Start(auditorCtx)

	router.Use(middleware.RateLimit())

	setupRoutes(router, []byte(jwtSecret), authHandlers, engineHandlers)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal().Err(err).Msg("listen")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info().Msg("Shutting down server...")

	// Give outstanding operations 5 seconds to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	zlog.Info().Msg("Server exiting")
}

// setupRoutes configures all API endpoints and their handlers.
// Account and order routes require a JWT; instrument registration and
// price upserts are internal endpoints.
func setupRoutes(
	router *gin.Engine,
	jwtSecret []byte,
	authHandlers *auth.GinHandlers,
	engineHandlers *engine.GinHandlers,
) {
	v1 := router.Group("/api/v1")
	{
		// Auth routes
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/token", authHandlers.GenerateTokenHandler())
		}

		// Account and order routes
		accounts := v1.Group("/accounts")
		accounts.Use(middleware.JWTAuth(jwtSecret))
		{
			accounts.POST("", engineHandlers.CreateAccountHandler())
			accounts.GET("/:account_id/balance", engineHandlers.GetBalanceHandler())
			accounts.GET("/:account_id/holdings/:ticker", engineHandlers.GetHoldingsHandler())
			accounts.GET("/:account_id/transactions", engineHandlers.GetTransactionsHandler())
			accounts.GET("/:account_id/audit", engineHandlers.AuditHandler())
			accounts.POST("/:account_id/orders", engineHandlers.PlaceOrderHandler())
			accounts.POST("/:account_id/transfers", engineHandlers.TransferFundsHandler())
		}

		// Internal routes (should be protected by internal network)
		internal := v1.Group("/internal")
		internal.Use(middleware.InternalAuth(jwtSecret))
		{
			internal.POST("/instruments", engineHandlers.CreateInstrumentHandler())
			internal.PUT("/prices", engineHandlers.SetPriceHandler())
		}
	}
}
