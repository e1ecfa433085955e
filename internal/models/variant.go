package models

import "time"

// Variant is the subtype payload of a transaction. It is sealed: the only
// implementations are Plain, *ReceiptDetails, *InvoiceDetails and
// *BillDetails, so callers can switch over it exhaustively.
type Variant interface {
	kind() TransactionKind
}

// Plain is the variant of a transaction with no subtype payload.
type Plain struct{}

func (Plain) kind() TransactionKind { return TransactionKindPlain }

// ReceiptDetails carries merchant data for card-style receipts.
type ReceiptDetails struct {
	Base
	TransactionID    string `gorm:"type:uuid;not null;uniqueIndex" json:"-"`
	MerchantName     string `json:"merchant_name"`
	MerchantCategory string `json:"merchant_category,omitempty"`
	City             string `json:"city,omitempty"`
}

func (*ReceiptDetails) kind() TransactionKind { return TransactionKindReceipt }

// InvoiceDetails links an outbound payment to the invoice it settles.
type InvoiceDetails struct {
	Base
	TransactionID            string     `gorm:"type:uuid;not null;uniqueIndex" json:"-"`
	InvoiceKey               string     `gorm:"not null" json:"invoice_key"`
	OrderRef                 string     `json:"order_ref,omitempty"`
	DueDate                  *time.Time `json:"due_date,omitempty"`
	CompanyID                string     `gorm:"type:uuid;not null" json:"company_id"`
	BeneficiaryID            string     `gorm:"type:uuid;not null" json:"beneficiary_id"`
	BeneficiaryBankAccountID *string    `gorm:"type:uuid" json:"beneficiary_bank_account_id,omitempty"`
}

func (*InvoiceDetails) kind() TransactionKind { return TransactionKindInvoice }

// BillDetails carries supplier bill linkage.
type BillDetails struct {
	Base
	TransactionID string `gorm:"type:uuid;not null;uniqueIndex" json:"-"`
	BillNumber    string `json:"bill_number"`
	SupplierName  string `json:"supplier_name,omitempty"`
	OrderRef      string `json:"order_ref,omitempty"`
}

func (*BillDetails) kind() TransactionKind { return TransactionKindBill }

// Variant returns the subtype payload selected by Kind. A kind whose
// payload was not loaded yields an empty payload of that kind.
func (t *Transaction) Variant() Variant {
	switch t.Kind {
	case TransactionKindReceipt:
		if t.Receipt != nil {
			return t.Receipt
		}
		return &ReceiptDetails{}
	case TransactionKindInvoice:
		if t.Invoice != nil {
			return t.Invoice
		}
		return &InvoiceDetails{}
	case TransactionKindBill:
		if t.Bill != nil {
			return t.Bill
		}
		return &BillDetails{}
	default:
		return Plain{}
	}
}

// SetVariant attaches a payload and keeps Kind consistent with it.
func (t *Transaction) SetVariant(v Variant) {
	t.Receipt, t.Invoice, t.Bill = nil, nil, nil
	switch p := v.(type) {
	case *ReceiptDetails:
		t.Receipt = p
	case *InvoiceDetails:
		t.Invoice = p
	case *BillDetails:
		t.Bill = p
	}
	if v == nil {
		t.Kind = TransactionKindPlain
		return
	}
	t.Kind = v.kind()
}
