package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "ledgersync/internal/errors"
	"ledgersync/internal/services"
)

// WebhookHandler receives provider webhook deliveries.
type WebhookHandler struct {
	webhookService services.WebhookServicer
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(webhookService services.WebhookServicer) *WebhookHandler {
	return &WebhookHandler{webhookService: webhookService}
}

// Receive handles one webhook delivery. Deliveries that cannot be applied
// are acknowledged with outcome "dropped" so the provider does not retry
// them; only provider and internal failures return an error status.
// @Summary     Receive a provider webhook
// @Description Apply a transaction created or state changed event to the ledger
// @Tags        webhooks
// @Accept      json
// @Produce     json
// @Param       bankCode path string true "Bank code the webhook is registered for"
// @Param       Revolut-Signature header string true "HMAC signature"
// @Param       Revolut-Request-Timestamp header string true "Signing timestamp in milliseconds"
// @Success     200 {object} services.IngestResult "Delivery handled"
// @Failure     401 {object} ErrorResponse "Invalid signature"
// @Failure     413 {object} ErrorResponse "Body too large"
// @Failure     502 {object} ErrorResponse "Provider error"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /webhooks/{bankCode} [post]
func (h *WebhookHandler) Receive(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInvalidInput, err))
		return
	}

	result, err := h.webhookService.Ingest(c.Request.Context(), c.Param("bankCode"), body)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
