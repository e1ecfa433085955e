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

	"github.com/gin-gonic/gin"

	"ledgersync/internal/app"
	"ledgersync/internal/config"
	"ledgersync/internal/database"
	"ledgersync/internal/handlers"
	"ledgersync/internal/logger"
	"ledgersync/internal/validator"

	_ "ledgersync/internal/docs" // Import swagger docs
)

// @title           Ledgersync API
// @version         1.0
// @description     Ledgersync keeps a canonical transaction ledger in sync with a banking provider: it ingests provider webhooks, classifies transactions and schedules invoice payments.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and an operator JWT.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if appConfig.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	dbManager, err := database.NewManager(appConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer func() { _ = dbManager.Close() }()

	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := app.NewServices(ctx, appConfig, dbManager.DB())
	if err != nil {
		return err
	}
	defer svc.Close()

	validator.Register()

	if appConfig.WebhookSigningSecret == "" {
		log.Warn("WEBHOOK_SIGNING_SECRET not set; webhook deliveries will be refused")
	}

	router := handlers.NewRouter(handlers.RouterConfig{
		JWTSecret:        appConfig.JWTSecret,
		WebhookSecret:    appConfig.WebhookSigningSecret,
		WebhookTolerance: appConfig.WebhookTolerance,
		BankCode:         appConfig.ProviderBankCode,
		Swagger:          appConfig.Env != "production",
		Ledger:           svc.Ledger,
		Webhooks:         svc.Webhooks,
		Categories:       svc.Categories,
		BeneficiarySync:  svc.BeneficiarySync,
		PaymentDrafts:    svc.PaymentDrafts,
	})

	server := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting ledgersync server on port %s", appConfig.Port)
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
