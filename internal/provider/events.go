package provider

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	apperrors "ledgersync/internal/errors"
)

// Webhook event names.
const (
	EventTransactionCreated      = "TransactionCreated"
	EventTransactionStateChanged = "TransactionStateChanged"
)

// Transaction states reported by the provider.
const (
	StatePending   = "pending"
	StateCompleted = "completed"
	StateDeclined  = "declined"
	StateFailed    = "failed"
	StateReverted  = "reverted"
)

// Envelope is the outer webhook body.
type Envelope struct {
	ID        string          `json:"id,omitempty"`
	Event     string          `json:"event"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// TransactionData is the payload of a TransactionCreated event.
type TransactionData struct {
	ID          string     `json:"id"`
	Type        string     `json:"type"`
	State       string     `json:"state"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Reference   string     `json:"reference,omitempty"`
	RequestID   string     `json:"request_id,omitempty"`
	Merchant    *Merchant  `json:"merchant,omitempty"`
	Legs        []Leg      `json:"legs"`
}

// Merchant is present on card payments.
type Merchant struct {
	Name         string `json:"name"`
	City         string `json:"city,omitempty"`
	CategoryCode string `json:"category_code,omitempty"`
}

// Leg is one side of a provider transaction. Amount is signed: positive
// legs credit the account.
type Leg struct {
	LegID        string           `json:"leg_id"`
	AccountID    string           `json:"account_id"`
	Amount       *decimal.Decimal `json:"amount"`
	Currency     string           `json:"currency"`
	BillAmount   *decimal.Decimal `json:"bill_amount,omitempty"`
	BillCurrency string           `json:"bill_currency,omitempty"`
	Description  string           `json:"description,omitempty"`
	Counterparty *LegCounterparty `json:"counterparty,omitempty"`
}

// LegCounterparty identifies the other side of a leg.
type LegCounterparty struct {
	ID          string `json:"id,omitempty"`
	AccountID   string `json:"account_id,omitempty"`
	AccountType string `json:"account_type,omitempty"`
	IBAN        string `json:"iban,omitempty"`
	BIC         string `json:"bic,omitempty"`
	Name        string `json:"name,omitempty"`
}

// StateChangedData is the payload of a TransactionStateChanged event.
type StateChangedData struct {
	ID          string     `json:"id"`
	RequestID   string     `json:"request_id,omitempty"`
	State       string     `json:"state,omitempty"`
	OldState    string     `json:"old_state,omitempty"`
	NewState    string     `json:"new_state,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Status returns the new state, lower-cased.
func (d *StateChangedData) Status() string {
	if d.State != "" {
		return strings.ToLower(d.State)
	}
	return strings.ToLower(d.NewState)
}

// ParseEnvelope decodes the outer webhook body.
func ParseEnvelope(body []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, malformed(fmt.Errorf("decoding envelope: %w", err))
	}
	if env.Event == "" {
		return nil, malformed(errors.New("envelope has no event"))
	}
	return &env, nil
}

// DecodeCreated decodes and validates a TransactionCreated payload.
func (e *Envelope) DecodeCreated() (*TransactionData, error) {
	var data TransactionData
	if err := json.Unmarshal(e.Data, &data); err != nil {
		return nil, malformed(fmt.Errorf("decoding transaction: %w", err))
	}
	if data.ID == "" {
		return nil, malformed(errors.New("transaction has no id"))
	}
	if len(data.Legs) == 0 {
		return nil, malformed(fmt.Errorf("transaction %s has no legs", data.ID))
	}
	for i, leg := range data.Legs {
		if leg.Amount == nil || leg.Currency == "" {
			return nil, malformed(fmt.Errorf("transaction %s leg %d has no amount or currency", data.ID, i))
		}
		if leg.BillAmount != nil && leg.BillCurrency == "" {
			return nil, malformed(fmt.Errorf("transaction %s leg %d has a bill amount without currency", data.ID, i))
		}
	}
	return &data, nil
}

// DecodeStateChanged decodes and validates a TransactionStateChanged payload.
func (e *Envelope) DecodeStateChanged() (*StateChangedData, error) {
	var data StateChangedData
	if err := json.Unmarshal(e.Data, &data); err != nil {
		return nil, malformed(fmt.Errorf("decoding state change: %w", err))
	}
	if data.ID == "" {
		return nil, malformed(errors.New("state change has no transaction id"))
	}
	if data.Status() == "" {
		return nil, malformed(fmt.Errorf("state change for %s has no state", data.ID))
	}
	return &data, nil
}

// CreatedEventID is the idempotency key of a creation event: the envelope
// id when the provider sends one, otherwise derived from the transaction.
func (e *Envelope) CreatedEventID(transactionID string) string {
	if e.ID != "" {
		return e.ID
	}
	return "created:" + transactionID
}

// StateChangedEventID is the idempotency key of a state change event.
func (e *Envelope) StateChangedEventID(transactionID, state string) string {
	if e.ID != "" {
		return e.ID
	}
	return "state:" + transactionID + ":" + state
}

func malformed(err error) error {
	return apperrors.Wrap(apperrors.ErrMalformedPayload, err)
}
