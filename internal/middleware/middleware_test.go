package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "ledgersync/internal/errors"
	"ledgersync/internal/logger"
	"ledgersync/internal/provider"
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
}

func parseBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse response body: %v", err)
	}
	return result
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	errObj, ok := parseBody(t, rec)["error"].(map[string]interface{})
	if !ok {
		t.Fatal("expected error object in response")
	}
	code, _ := errObj["code"].(string)
	return code
}

func setupWebhookRouter(secret string) *gin.Engine {
	r := gin.New()
	r.Use(WebhookSignature(secret, 5*time.Minute))
	r.POST("/hook", func(c *gin.Context) {
		body, _ := io.ReadAll(c.Request.Body)
		c.JSON(http.StatusOK, gin.H{"status": "ok", "body": string(body)})
	})
	return r
}

func TestWebhookSignature(t *testing.T) {
	const secret = "whsec_test"
	body := `{"event":"TransactionCreated","data":{}}`
	now := strconv.FormatInt(time.Now().UnixMilli(), 10)
	stale := strconv.FormatInt(time.Now().Add(-time.Hour).UnixMilli(), 10)

	tests := []struct {
		name          string
		configured    string
		signature     string
		timestamp     string
		wantStatus    int
		wantErrorCode string
	}{
		{
			name:       "valid_signature",
			configured: secret,
			signature:  provider.Sign(secret, now, []byte(body)),
			timestamp:  now,
			wantStatus: http.StatusOK,
		},
		{
			name:       "rotated_secret_list",
			configured: secret,
			signature:  provider.Sign("old", now, []byte(body)) + "," + provider.Sign(secret, now, []byte(body)),
			timestamp:  now,
			wantStatus: http.StatusOK,
		},
		{
			name:          "wrong_secret",
			configured:    secret,
			signature:     provider.Sign("other", now, []byte(body)),
			timestamp:     now,
			wantStatus:    http.StatusUnauthorized,
			wantErrorCode: "INVALID_SIGNATURE",
		},
		{
			name:          "stale_timestamp",
			configured:    secret,
			signature:     provider.Sign(secret, stale, []byte(body)),
			timestamp:     stale,
			wantStatus:    http.StatusUnauthorized,
			wantErrorCode: "INVALID_SIGNATURE",
		},
		{
			name:          "missing_headers",
			configured:    secret,
			wantStatus:    http.StatusUnauthorized,
			wantErrorCode: "INVALID_SIGNATURE",
		},
		{
			name:          "not_configured",
			configured:    "",
			signature:     provider.Sign(secret, now, []byte(body)),
			timestamp:     now,
			wantStatus:    http.StatusServiceUnavailable,
			wantErrorCode: "WEBHOOK_NOT_CONFIGURED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupWebhookRouter(tt.configured)
			req := httptest.NewRequest(http.MethodPost, "/hook", strings.NewReader(body))
			if tt.signature != "" {
				req.Header.Set(provider.SignatureHeader, tt.signature)
			}
			if tt.timestamp != "" {
				req.Header.Set(provider.TimestampHeader, tt.timestamp)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantErrorCode != "" {
				if code := errorCode(t, rec); code != tt.wantErrorCode {
					t.Errorf("error code = %q, want %q", code, tt.wantErrorCode)
				}
			}
			if tt.wantStatus == http.StatusOK {
				if got, _ := parseBody(t, rec)["body"].(string); got != body {
					t.Errorf("expected handler to see the original body, got %q", got)
				}
			}
		})
	}
}

func TestWebhookSignature_BodyLimit(t *testing.T) {
	const secret = "whsec_test"
	now := strconv.FormatInt(time.Now().UnixMilli(), 10)

	tests := []struct {
		name       string
		size       int
		wantStatus int
	}{
		{"at_limit", maxWebhookBody, http.StatusOK},
		{"over_limit", maxWebhookBody + 1, http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := []byte(strings.Repeat("a", tt.size))
			req := httptest.NewRequest(http.MethodPost, "/hook", strings.NewReader(string(body)))
			req.Header.Set(provider.SignatureHeader, provider.Sign(secret, now, body))
			req.Header.Set(provider.TimestampHeader, now)
			rec := httptest.NewRecorder()
			setupWebhookRouter(secret).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				if code := errorCode(t, rec); code != "PAYLOAD_TOO_LARGE" {
					t.Errorf("error code = %q, want PAYLOAD_TOO_LARGE", code)
				}
			}
		})
	}
}

func setupAuthRouter(secret string) *gin.Engine {
	r := gin.New()
	r.Use(AuthMiddleware(secret))
	r.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"operator": OperatorFrom(c)})
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	const secret = "jwt-secret"
	valid, err := GenerateOperatorToken(secret, "ops@ledgersync", time.Hour)
	if err != nil {
		t.Fatalf("generating token: %v", err)
	}
	expired, err := GenerateOperatorToken(secret, "ops@ledgersync", -time.Minute)
	if err != nil {
		t.Fatalf("generating token: %v", err)
	}
	foreign, err := GenerateOperatorToken("other-secret", "ops@ledgersync", time.Hour)
	if err != nil {
		t.Fatalf("generating token: %v", err)
	}

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"valid", "Bearer " + valid, http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"wrong_scheme", "Token " + valid, http.StatusUnauthorized},
		{"expired", "Bearer " + expired, http.StatusUnauthorized},
		{"wrong_secret", "Bearer " + foreign, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", http.NoBody)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			setupAuthRouter(secret).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK {
				if op, _ := parseBody(t, rec)["operator"].(string); op != "ops@ledgersync" {
					t.Errorf("operator = %q", op)
				}
			} else if code := errorCode(t, rec); code != "UNAUTHORIZED" {
				t.Errorf("error code = %q, want UNAUTHORIZED", code)
			}
		})
	}
}

func TestErrorHandler(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogging(), ErrorHandler())
	r.GET("/app", func(c *gin.Context) {
		_ = c.Error(apperrors.Wrap(apperrors.ErrProviderServer, errors.New("upstream 503")))
	})
	r.GET("/plain", func(c *gin.Context) {
		_ = c.Error(errors.New("boom"))
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/app", http.NoBody))
	if rec.Code != http.StatusBadGateway || errorCode(t, rec) != "PROVIDER_SERVER_ERROR" {
		t.Errorf("unexpected provider error response %d %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected a request id header")
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/plain", http.NoBody))
	if rec.Code != http.StatusInternalServerError || errorCode(t, rec) != "INTERNAL_ERROR" {
		t.Errorf("unexpected internal error response %d %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "boom") {
		t.Error("internal error details must not leak")
	}

	req := httptest.NewRequest(http.MethodGet, "/plain", http.NoBody)
	req.Header.Set("X-Request-ID", "req-123")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "req-123" {
		t.Errorf("expected incoming request id to be kept, got %q", got)
	}
}
