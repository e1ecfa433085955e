package models

import (
	"ledgersync/internal/iban"

	"gorm.io/gorm"
)

// OwnerType tells which side of an invoice owns a bank account
type OwnerType string

const (
	OwnerTypeCompany     OwnerType = "company"
	OwnerTypeBeneficiary OwnerType = "beneficiary"
)

// BankAccount is a local bank account of a company (debtor) or a
// beneficiary (creditor). IBAN components are derived on save.
type BankAccount struct {
	Base
	OwnerType     OwnerType `gorm:"not null" json:"owner_type"`
	CompanyID     *string   `gorm:"type:uuid;index" json:"company_id,omitempty"`
	BeneficiaryID *string   `gorm:"type:uuid;index" json:"beneficiary_id,omitempty"`

	IBAN             string `gorm:"not null;index" json:"iban"`
	CountryCode      string `gorm:"size:2" json:"country_code"`
	CheckDigits      string `gorm:"size:2" json:"check_digits"`
	NationalBankCode string `json:"national_bank_code"`
	BranchCode       string `json:"branch_code,omitempty"`

	BIC       string `json:"bic,omitempty"`
	Currency  string `gorm:"size:3" json:"currency,omitempty"`
	IsPrimary bool   `gorm:"not null" json:"is_primary"`

	ExternalIDs []BankAccountExternalID `gorm:"foreignKey:BankAccountID" json:"external_ids,omitempty"`
}

// BankAccountExternalID maps a provider bank code to the id the provider
// assigned to this account there (one per provider instance).
type BankAccountExternalID struct {
	Base
	BankAccountID string `gorm:"type:uuid;not null;uniqueIndex:idx_bank_account_external_ids_code" json:"bank_account_id"`
	BankCode      string `gorm:"not null;uniqueIndex:idx_bank_account_external_ids_code;index:idx_bank_account_external_ids_lookup" json:"bank_code"`
	ExternalID    string `gorm:"not null;index:idx_bank_account_external_ids_lookup" json:"external_id"`
}

// BeforeSave normalises the IBAN and fills its components
func (a *BankAccount) BeforeSave(tx *gorm.DB) error {
	parsed, err := iban.Parse(a.IBAN)
	if err != nil {
		return err
	}
	a.IBAN = parsed.String()
	a.CountryCode = parsed.CountryCode
	a.CheckDigits = parsed.CheckDigits
	a.NationalBankCode = parsed.BankCode
	a.BranchCode = parsed.BranchCode
	return nil
}

// ExternalID returns the provider id registered for bankCode, if any.
// ExternalIDs must be preloaded.
func (a *BankAccount) ExternalID(bankCode string) (string, bool) {
	for _, e := range a.ExternalIDs {
		if e.BankCode == bankCode && e.ExternalID != "" {
			return e.ExternalID, true
		}
	}
	return "", false
}
