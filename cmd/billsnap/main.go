package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"billsnap/internal/api"
	"billsnap/internal/api/handlers"
	"billsnap/internal/repository"
	"billsnap/internal/service"
	"billsnap/pkg/auth"
	"billsnap/pkg/config"
	"billsnap/pkg/logger"
	"billsnap/pkg/postgres"

	"go.uber.org/zap"
)

// @title Billsnap API
// @version 1.0
// @description Receipt scanning backend: image normalization, model extraction, confidence scoring and spending analytics

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	if err := logger.Init(cfg.Logger.Level); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	appLogger := logger.Get()
	appLogger.Info("Starting Billsnap service")

	// Initialize database
	ctx := context.Background()
	db, err := postgres.NewPool(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Initialize repositories
	userRepo := repository.NewUserRepository(db, appLogger)
	receiptRepo := repository.NewReceiptRepository(db, appLogger)
	tokenRepo := repository.NewPushTokenRepository(db, appLogger)
	notifRepo := repository.NewNotificationRepository(db, appLogger)

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.Expiration, cfg.JWT.RefreshExp)

	// Initialize services
	authService := service.NewAuthService(userRepo, jwtManager, appLogger)

	extractionService, err := service.NewExtractionService(&cfg.Gemini, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize extraction service", zap.Error(err))
	}
	defer extractionService.Close()

	ocrService := service.NewOCRService(&cfg.OCR, appLogger)
	pushService := service.NewPushService(tokenRepo, notifRepo, &cfg.Push, appLogger)

	receiptService := service.NewReceiptService(
		receiptRepo, extractionService, ocrService, pushService,
		cfg.Pipeline.ScoreOnUpload, appLogger,
	)
	analyticsService := service.NewAnalyticsService(receiptRepo, appLogger)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, appLogger)
	receiptHandler := handlers.NewReceiptHandler(receiptService, appLogger)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService, appLogger)
	notificationHandler := handlers.NewNotificationHandler(pushService, appLogger)

	// Setup router
	app := api.SetupRouter(authHandler, receiptHandler, analyticsHandler, notificationHandler, jwtManager, appLogger)

	// Start server
	go func() {
		addr := ":" + cfg.Server.Port
		appLogger.Info("Server starting", zap.String("address", addr))
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	if err := app.Shutdown(); err != nil {
		appLogger.Error("Server shutdown error", zap.Error(err))
	}
}
