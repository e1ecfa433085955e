package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"ledgersync/internal/logger"
	"ledgersync/internal/models"
	"ledgersync/internal/services"
	"ledgersync/internal/validator"
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

const (
	testTransactionID = "0190b7a2-1111-7000-8000-000000000001"
	testCompanyID     = "0190b7a2-2222-7000-8000-000000000002"
	testBeneficiaryID = "0190b7a2-3333-7000-8000-000000000003"
	testAccountID     = "0190b7a2-4444-7000-8000-000000000004"
	testCategoryID    = "0190b7a2-5555-7000-8000-000000000005"
)

// --- mock services ---

type mockLedgerService struct {
	recordDraftFn    func(input services.DraftInput) (*models.Transaction, error)
	getTransactionFn func(id string) (*models.Transaction, error)
}

func (m *mockLedgerService) RecordDraft(_ context.Context, input services.DraftInput) (*models.Transaction, error) {
	if m.recordDraftFn != nil {
		return m.recordDraftFn(input)
	}
	return &models.Transaction{}, nil
}

func (m *mockLedgerService) OnCreatedEvent(context.Context, services.CreatedEvent) (*services.LedgerResult, error) {
	return &services.LedgerResult{Outcome: services.OutcomeCreated}, nil
}

func (m *mockLedgerService) OnStateChangedEvent(context.Context, services.StateChangedEvent) (*services.LedgerResult, error) {
	return &services.LedgerResult{Outcome: services.OutcomeIgnored}, nil
}

func (m *mockLedgerService) GetTransactionByID(_ context.Context, id string) (*models.Transaction, error) {
	if m.getTransactionFn != nil {
		return m.getTransactionFn(id)
	}
	return &models.Transaction{Base: models.Base{ID: id}}, nil
}

type mockWebhookService struct {
	ingestFn func(bankCode string, body []byte) (*services.IngestResult, error)
}

func (m *mockWebhookService) Ingest(_ context.Context, bankCode string, body []byte) (*services.IngestResult, error) {
	if m.ingestFn != nil {
		return m.ingestFn(bankCode, body)
	}
	return &services.IngestResult{Outcome: services.OutcomeIgnored}, nil
}

type mockCategoryService struct {
	createCategoryFn func(input services.CategoryInput) (*models.Category, error)
	getCategoryFn    func(id string) (*models.Category, error)
	previewFn        func(transactionID string) (*services.Classification, error)
	applyFn          func(transactionID string) (*services.Classification, error)
}

func (m *mockCategoryService) CreateCategory(_ context.Context, input services.CategoryInput) (*models.Category, error) {
	if m.createCategoryFn != nil {
		return m.createCategoryFn(input)
	}
	return &models.Category{Name: input.Name}, nil
}

func (m *mockCategoryService) GetCategoryByID(_ context.Context, id string) (*models.Category, error) {
	if m.getCategoryFn != nil {
		return m.getCategoryFn(id)
	}
	return &models.Category{Base: models.Base{ID: id}}, nil
}

func (m *mockCategoryService) PreviewClassification(_ context.Context, transactionID string) (*services.Classification, error) {
	if m.previewFn != nil {
		return m.previewFn(transactionID)
	}
	return &services.Classification{TransactionID: transactionID, Propagate: true}, nil
}

func (m *mockCategoryService) ApplyClassification(_ context.Context, transactionID string) (*services.Classification, error) {
	if m.applyFn != nil {
		return m.applyFn(transactionID)
	}
	return &services.Classification{TransactionID: transactionID, Propagate: true}, nil
}

type mockSyncService struct {
	syncFn func(beneficiaryID, bankAccountID string) (*services.SyncResult, error)
}

func (m *mockSyncService) SyncBeneficiary(_ context.Context, beneficiaryID, bankAccountID string) (*services.SyncResult, error) {
	if m.syncFn != nil {
		return m.syncFn(beneficiaryID, bankAccountID)
	}
	return &services.SyncResult{Outcome: services.OutcomeSynced, BankAccountID: bankAccountID}, nil
}

type mockDraftService struct {
	processDraftFn func(transactionID string, now time.Time) (*services.DraftResult, error)
	processDueFn   func(now time.Time, batchSize int) (*services.BatchReport, error)
}

func (m *mockDraftService) ScheduleByDueDate(now, dueDate time.Time, leadDays int) *time.Time {
	return services.ScheduleByDueDate(now, dueDate, leadDays)
}

func (m *mockDraftService) ProcessDraft(_ context.Context, transactionID string, now time.Time) (*services.DraftResult, error) {
	if m.processDraftFn != nil {
		return m.processDraftFn(transactionID, now)
	}
	return &services.DraftResult{TransactionID: transactionID, Outcome: services.OutcomeSubmitted}, nil
}

func (m *mockDraftService) ProcessDue(_ context.Context, now time.Time, batchSize int) (*services.BatchReport, error) {
	if m.processDueFn != nil {
		return m.processDueFn(now, batchSize)
	}
	return &services.BatchReport{}, nil
}

// --- helpers ---

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	return doRequestWithHeaders(r, method, path, body, nil)
}

func doRequestWithHeaders(r *gin.Engine, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func assertErrorCode(t *testing.T, result map[string]interface{}, code string) {
	t.Helper()
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response, got: %v", result)
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %q, got %q", code, errObj["code"])
	}
}
