package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"ledgersync/internal/models"
	"ledgersync/internal/provider"
)

// Outcome describes what applying an event or a sync task did.
type Outcome string

const (
	OutcomeCreated   Outcome = "created"
	OutcomeMerged    Outcome = "merged"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
	OutcomeIgnored   Outcome = "ignored"
	OutcomeNotFound  Outcome = "not_found"
	OutcomeDropped   Outcome = "dropped"
)

// CreatedEvent is a decoded "transaction created" provider event.
type CreatedEvent struct {
	EventID  string
	BankCode string
	Data     *provider.TransactionData
}

// StateChangedEvent is a decoded "transaction state changed" provider event.
type StateChangedEvent struct {
	EventID     string
	ExternalID  string
	BankCode    string
	Status      string
	CompletedAt *time.Time
}

// LedgerResult reports the effect of one event on the ledger.
type LedgerResult struct {
	Outcome     Outcome             `json:"outcome"`
	Transaction *models.Transaction `json:"transaction,omitempty"`
}

// DraftInput is a locally originated payment intent for an invoice.
type DraftInput struct {
	BankCode                 string
	CompanyID                string
	BeneficiaryID            string
	BeneficiaryBankAccountID *string
	InvoiceKey               string
	OrderRef                 string
	Amount                   decimal.Decimal
	Currency                 string
	DueDate                  *time.Time
}

// LedgerServicer defines the contract for the canonical transaction ledger.
type LedgerServicer interface {
	RecordDraft(ctx context.Context, input DraftInput) (*models.Transaction, error)
	OnCreatedEvent(ctx context.Context, event CreatedEvent) (*LedgerResult, error)
	OnStateChangedEvent(ctx context.Context, event StateChangedEvent) (*LedgerResult, error)
	GetTransactionByID(ctx context.Context, id string) (*models.Transaction, error)
}

// IngestResult reports how a webhook delivery was handled.
type IngestResult struct {
	Event         string   `json:"event"`
	EventID       string   `json:"event_id,omitempty"`
	Outcome       Outcome  `json:"outcome"`
	TransactionID string   `json:"transaction_id,omitempty"`
	Categories    []string `json:"categories,omitempty"`
	Propagate     bool     `json:"propagate"`
	Reason        string   `json:"reason,omitempty"`
}

// WebhookServicer defines the contract for inbound provider webhook handling.
type WebhookServicer interface {
	Ingest(ctx context.Context, bankCode string, body []byte) (*IngestResult, error)
}

// FilterInput is a category filter as submitted by an operator.
type FilterInput struct {
	PropertyName  models.FilterProperty  `json:"property_name" binding:"required,filter_property"`
	Operation     models.FilterOperation `json:"operation" binding:"required,filter_operation"`
	PropertyValue string                 `json:"property_value" binding:"required"`
}

// CategoryInput describes a new category.
type CategoryInput struct {
	Name        string
	Description string
	Propagate   bool
	Filters     []FilterInput
}

// Classification is the set of categories a transaction belongs to.
type Classification struct {
	TransactionID string            `json:"transaction_id"`
	Categories    []models.Category `json:"categories"`
	Propagate     bool              `json:"propagate"`
}

// CategoryServicer defines the contract for categories and classification.
type CategoryServicer interface {
	CreateCategory(ctx context.Context, input CategoryInput) (*models.Category, error)
	GetCategoryByID(ctx context.Context, id string) (*models.Category, error)
	PreviewClassification(ctx context.Context, transactionID string) (*Classification, error)
	ApplyClassification(ctx context.Context, transactionID string) (*Classification, error)
}

// BankAccountServicer defines the contract for local bank account lookups.
type BankAccountServicer interface {
	GetBankAccountByID(ctx context.Context, id string) (*models.BankAccount, error)
	FindByExternalID(ctx context.Context, bankCode, externalID string) (*models.BankAccount, error)
	FindCompanyAccountByIBAN(ctx context.Context, iban string) (*models.BankAccount, error)
	SetExternalID(tx *gorm.DB, bankAccountID, bankCode, externalID string) (bool, error)
}

// SyncResult reports the effect of a beneficiary sync.
type SyncResult struct {
	Outcome       Outcome  `json:"outcome"`
	BankAccountID string   `json:"bank_account_id"`
	ExternalID    string   `json:"external_id,omitempty"`
	Missing       []string `json:"missing,omitempty"`
	Reason        string   `json:"reason,omitempty"`
}

// Sync outcomes besides the shared ones.
const (
	OutcomeSynced        Outcome = "synced"
	OutcomeAlreadySynced Outcome = "already_synced"
	OutcomeSkipped       Outcome = "skipped"
	OutcomeSubmitted     Outcome = "submitted"
	OutcomeAlreadyDone   Outcome = "already_submitted"
	OutcomeNotScheduled  Outcome = "not_scheduled"
)

// BeneficiarySyncServicer registers beneficiaries with the provider.
type BeneficiarySyncServicer interface {
	SyncBeneficiary(ctx context.Context, beneficiaryID, bankAccountID string) (*SyncResult, error)
}

// DraftResult reports the effect of processing one payment draft.
type DraftResult struct {
	TransactionID     string     `json:"transaction_id"`
	Outcome           Outcome    `json:"outcome"`
	ProviderDraftID   string     `json:"provider_draft_id,omitempty"`
	ProviderPaymentID string     `json:"provider_payment_id,omitempty"`
	ScheduleFor       *time.Time `json:"schedule_for,omitempty"`
	Error             string     `json:"error,omitempty"`
}

// BatchReport summarises a ProcessDue run.
type BatchReport struct {
	Processed int           `json:"processed"`
	Submitted int           `json:"submitted"`
	Skipped   int           `json:"skipped"`
	Failed    int           `json:"failed"`
	Results   []DraftResult `json:"results"`
}

// PaymentDraftServicer schedules local payment drafts with the provider.
type PaymentDraftServicer interface {
	ScheduleByDueDate(now, dueDate time.Time, leadDays int) *time.Time
	ProcessDraft(ctx context.Context, transactionID string, now time.Time) (*DraftResult, error)
	ProcessDue(ctx context.Context, now time.Time, batchSize int) (*BatchReport, error)
}

// AuditServicer records outbound provider side effects.
type AuditServicer interface {
	Log(tx *gorm.DB, action, bankCode, resourceType, resourceID, externalID string, changes map[string]any)
}
