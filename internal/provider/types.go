package provider

import (
	"github.com/shopspring/decimal"
)

// CounterpartyRequest registers a beneficiary with the provider.
type CounterpartyRequest struct {
	ProfileType string `json:"profile_type"`
	CompanyName string `json:"company_name"`
	BankCountry string `json:"bank_country"`
	Currency    string `json:"currency"`
	IBAN        string `json:"iban"`
	BIC         string `json:"bic"`
	Email       string `json:"email,omitempty"`
}

// Counterparty is the provider's answer to CreateCounterparty.
type Counterparty struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	State    string `json:"state,omitempty"`
	Accounts []struct {
		ID string `json:"id"`
	} `json:"accounts,omitempty"`
}

// PaymentDraftRequest schedules one or more payments from a provider account.
type PaymentDraftRequest struct {
	ScheduleFor string         `json:"schedule_for,omitempty"` // YYYY-MM-DD
	Title       string         `json:"title"`
	Payments    []DraftPayment `json:"payments"`
}

// DraftPayment is a single payment inside a draft. RequestID is echoed on
// the transaction the payment books.
type DraftPayment struct {
	AccountID string          `json:"account_id"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Reference string          `json:"reference"`
	Receiver  Receiver        `json:"receiver"`
	RequestID string          `json:"request_id,omitempty"`
}

// Receiver points a payment at a registered counterparty.
type Receiver struct {
	CounterpartyID string `json:"counterparty_id"`
	AccountID      string `json:"account_id,omitempty"`
}

// PaymentDraft is the provider's answer to CreatePaymentDraft. Payments are
// listed in request order.
type PaymentDraft struct {
	ID       string       `json:"id"`
	Payments []PaymentRef `json:"payments,omitempty"`
}

// PaymentRef identifies one scheduled payment. Once executed, the provider
// reports it as a transaction carrying the same id.
type PaymentRef struct {
	ID string `json:"id"`
}

// AccountBankDetails are the routing details of a provider account.
type AccountBankDetails struct {
	IBAN          string `json:"iban"`
	BIC           string `json:"bic"`
	AccountNo     string `json:"account_no,omitempty"`
	SortCode      string `json:"sort_code,omitempty"`
	Beneficiary   string `json:"beneficiary,omitempty"`
	EstimatedTime struct {
		Unit string `json:"unit"`
		Max  int    `json:"max"`
	} `json:"estimated_time,omitempty"`
}
