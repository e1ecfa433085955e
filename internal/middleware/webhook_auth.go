package middleware

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "ledgersync/internal/errors"
	"ledgersync/internal/logger"
	"ledgersync/internal/provider"
)

const maxWebhookBody = 1 << 20

// WebhookSignature verifies the provider signature of a webhook delivery
// against secret. The body is restored for the handler.
func WebhookSignature(secret string, tolerance time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable,
				gin.H{"error": gin.H{"code": "WEBHOOK_NOT_CONFIGURED", "message": "Webhook endpoints are not configured"}})
			return
		}

		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody+1))
		if err != nil {
			abortWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Could not read request body"))
			return
		}
		if len(body) > maxWebhookBody {
			logger.Get().Warnw("rejected oversized webhook delivery",
				"request_id", RequestIDFrom(c),
				"path", c.Request.URL.Path,
				"limit_bytes", maxWebhookBody,
			)
			abortWithError(c, apperrors.ErrPayloadTooLarge)
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		err = provider.VerifySignature(secret,
			c.GetHeader(provider.SignatureHeader),
			c.GetHeader(provider.TimestampHeader),
			body, time.Now(), tolerance)
		if err != nil {
			logger.Get().Warnw("rejected webhook delivery",
				"request_id", RequestIDFrom(c),
				"path", c.Request.URL.Path,
				"reason", err.Error(),
			)
			abortWithError(c, apperrors.ErrInvalidSignature)
			return
		}
		c.Next()
	}
}
