package models

// Company is the debtor side of an invoice: the party whose accounts pay out
type Company struct {
	Base
	Name         string        `gorm:"not null" json:"name"`
	Email        string        `json:"email,omitempty"`
	BankAccounts []BankAccount `gorm:"foreignKey:CompanyID" json:"bank_accounts,omitempty"`
}

// PrimaryAccount returns the primary bank account, falling back to the
// first one. BankAccounts must be preloaded.
func (c *Company) PrimaryAccount() *BankAccount {
	for i := range c.BankAccounts {
		if c.BankAccounts[i].IsPrimary {
			return &c.BankAccounts[i]
		}
	}
	if len(c.BankAccounts) > 0 {
		return &c.BankAccounts[0]
	}
	return nil
}

// Beneficiary is the creditor side of an invoice, registered with the
// provider as a counterparty before it can be paid
type Beneficiary struct {
	Base
	CompanyID    string        `gorm:"type:uuid;not null;index" json:"company_id"`
	BusinessName string        `json:"business_name"`
	Email        string        `json:"email,omitempty"`
	Company      *Company      `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
	BankAccounts []BankAccount `gorm:"foreignKey:BeneficiaryID" json:"bank_accounts,omitempty"`
}
