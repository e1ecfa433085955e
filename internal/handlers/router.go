package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"ledgersync/internal/middleware"
	"ledgersync/internal/services"
)

// RouterConfig carries everything NewRouter wires into routes.
type RouterConfig struct {
	JWTSecret        string
	WebhookSecret    string
	WebhookTolerance time.Duration
	BankCode         string
	Swagger          bool

	Ledger          services.LedgerServicer
	Webhooks        services.WebhookServicer
	Categories      services.CategoryServicer
	BeneficiarySync services.BeneficiarySyncServicer
	PaymentDrafts   services.PaymentDraftServicer
}

// NewRouter builds the HTTP API. Webhook routes are authenticated by
// signature; everything else under /api/v1 requires an operator token.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	if cfg.Swagger {
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	webhookHandler := NewWebhookHandler(cfg.Webhooks)
	categoryHandler := NewCategoryHandler(cfg.Categories)
	transactionHandler := NewTransactionHandler(cfg.Ledger, cfg.Categories)
	paymentHandler := NewPaymentHandler(cfg.Ledger, cfg.PaymentDrafts, cfg.BankCode)
	beneficiaryHandler := NewBeneficiaryHandler(cfg.BeneficiarySync)

	v1 := router.Group("/api/v1")

	// Provider callbacks
	webhooks := v1.Group("/webhooks")
	webhooks.Use(middleware.WebhookSignature(cfg.WebhookSecret, cfg.WebhookTolerance))
	webhooks.POST("/:bankCode", webhookHandler.Receive)

	// Operator routes
	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(cfg.JWTSecret))

	protected.GET("/iban/:iban", ValidateIBAN)

	categories := protected.Group("/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("/:id", categoryHandler.GetCategory)

	transactions := protected.Group("/transactions")
	transactions.GET("/:id", transactionHandler.GetTransaction)
	transactions.GET("/:id/classification", transactionHandler.PreviewClassification)
	transactions.POST("/:id/classification", transactionHandler.ApplyClassification)

	payments := protected.Group("/payments/drafts")
	payments.POST("", paymentHandler.CreateDraft)
	payments.POST("/process", paymentHandler.ProcessDue)
	payments.POST("/:id/submit", paymentHandler.SubmitDraft)

	protected.POST("/beneficiaries/:id/bank-accounts/:accountId/sync", beneficiaryHandler.SyncBankAccount)

	return router
}
