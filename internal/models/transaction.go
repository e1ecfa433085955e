package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionState is the lifecycle state of a ledger entry
type TransactionState string

const (
	TransactionStateDraft     TransactionState = "DRAFT"
	TransactionStateCreated   TransactionState = "CREATED"
	TransactionStateCompleted TransactionState = "COMPLETED"
	TransactionStateFailed    TransactionState = "FAILED"
)

// IsTerminal reports whether no further state transition is allowed.
func (s TransactionState) IsTerminal() bool {
	return s == TransactionStateCompleted || s == TransactionStateFailed
}

// PaymentForm classifies how money moved, derived from the provider leg structure
type PaymentForm string

const (
	PaymentFormCardPayment      PaymentForm = "card_payment"
	PaymentFormRefund           PaymentForm = "refund"
	PaymentFormTransfer         PaymentForm = "transfer"
	PaymentFormInternalTransfer PaymentForm = "internal_transfer"
	PaymentFormOther            PaymentForm = "other"
)

// TransactionKind tags which subtype payload a transaction carries
type TransactionKind string

const (
	TransactionKindPlain   TransactionKind = "plain"
	TransactionKindReceipt TransactionKind = "receipt"
	TransactionKindInvoice TransactionKind = "invoice"
	TransactionKindBill    TransactionKind = "bill"
)

// Counterparty is the other side of a movement as reported by the provider
type Counterparty struct {
	IBAN string `json:"iban,omitempty"`
	BIC  string `json:"bic,omitempty"`
	Name string `json:"name,omitempty"`
}

// Transaction is the canonical ledger entry. At most one row exists per
// (ExternalID, BankCode); rows are mutated in place and never deleted.
type Transaction struct {
	Base
	ExternalID string           `gorm:"not null;uniqueIndex:idx_transactions_natural_key" json:"external_id"`
	BankCode   string           `gorm:"not null;uniqueIndex:idx_transactions_natural_key" json:"bank_code"`
	RequestID  *string          `gorm:"index" json:"request_id,omitempty"`
	Kind       TransactionKind  `gorm:"not null" json:"kind"`
	State      TransactionState `gorm:"not null;index" json:"state"`

	PaymentForm  PaymentForm `json:"payment_form,omitempty"`
	ProviderType string      `json:"provider_type,omitempty"`

	Amount       decimal.NullDecimal `gorm:"type:numeric(20,4)" json:"amount"`
	Currency     string              `gorm:"size:3" json:"currency,omitempty"`
	BillAmount   decimal.NullDecimal `gorm:"type:numeric(20,4)" json:"bill_amount"`
	BillCurrency string              `gorm:"size:3" json:"bill_currency,omitempty"`

	Credit      bool       `gorm:"not null" json:"credit"`
	Failure     bool       `gorm:"not null" json:"failure"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	AccountID    *string      `gorm:"type:uuid;index" json:"account_id,omitempty"`
	Counterparty Counterparty `gorm:"embedded;embeddedPrefix:counterparty_" json:"counterparty"`
	Reference    string       `json:"reference,omitempty"`
	Description  string       `json:"description,omitempty"`

	ProviderDraftID   *string `json:"provider_draft_id,omitempty"`
	ProviderPaymentID *string `gorm:"index" json:"provider_payment_id,omitempty"`

	// Relationships
	Origins    []TransactionOrigin   `gorm:"foreignKey:TransactionID" json:"origins,omitempty"`
	Categories []TransactionCategory `gorm:"foreignKey:TransactionID" json:"categories,omitempty"`
	Account    *BankAccount          `gorm:"foreignKey:AccountID" json:"account,omitempty"`
	Receipt    *ReceiptDetails       `gorm:"foreignKey:TransactionID" json:"receipt,omitempty"`
	Invoice    *InvoiceDetails       `gorm:"foreignKey:TransactionID" json:"invoice,omitempty"`
	Bill       *BillDetails          `gorm:"foreignKey:TransactionID" json:"bill,omitempty"`
}

// TransactionOrigin is one provider event that contributed to a transaction.
// The unique index makes the origin set grow-only and duplicate-free.
type TransactionOrigin struct {
	Base
	TransactionID string `gorm:"type:uuid;not null;uniqueIndex:idx_transaction_origins_event" json:"transaction_id"`
	EventID       string `gorm:"not null;uniqueIndex:idx_transaction_origins_event" json:"event_id"`
}

// IsAmount holds when either the primary or the bill amount is fully present.
func (t *Transaction) IsAmount() bool {
	return (t.Amount.Valid && t.Currency != "") || (t.BillAmount.Valid && t.BillCurrency != "")
}

// HasOrigin reports whether eventID has already been applied.
func (t *Transaction) HasOrigin(eventID string) bool {
	for _, o := range t.Origins {
		if o.EventID == eventID {
			return true
		}
	}
	return false
}

// OriginIDs returns the applied event ids in insertion order.
func (t *Transaction) OriginIDs() []string {
	ids := make([]string, 0, len(t.Origins))
	for _, o := range t.Origins {
		ids = append(ids, o.EventID)
	}
	return ids
}

// Propagate is the conjunction of the attached categories' propagate flags.
// Categories must be preloaded; with none attached it is true.
func (t *Transaction) Propagate() bool {
	for _, tc := range t.Categories {
		if !tc.Category.Propagate {
			return false
		}
	}
	return true
}

// IsPendingDraft reports whether the row is a local payment intent not yet
// submitted to the provider.
func (t *Transaction) IsPendingDraft() bool {
	return t.State == TransactionStateDraft && t.ProviderDraftID == nil && t.Kind == TransactionKindInvoice
}
