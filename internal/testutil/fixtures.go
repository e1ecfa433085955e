package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"ledgersync/internal/models"
)

// Sample IBANs with valid checksums.
const (
	CompanyIBAN     = "DE89370400440532013000"
	BeneficiaryIBAN = "GB29NWBK60161331926819"
	OtherIBAN       = "FR1420041010050500013M02606"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestCompany creates a company with a primary EUR account.
func CreateTestCompany(t *testing.T, db *gorm.DB) *models.Company {
	t.Helper()

	company := &models.Company{Name: fmt.Sprintf("Company %d", nextID())}
	if err := db.Create(company).Error; err != nil {
		t.Fatalf("failed to create test company: %v", err)
	}

	account := CreateTestBankAccount(t, db, &models.BankAccount{
		OwnerType: models.OwnerTypeCompany,
		CompanyID: &company.ID,
		IBAN:      CompanyIBAN,
		BIC:       "COBADEFFXXX",
		Currency:  "EUR",
		IsPrimary: true,
	})
	company.BankAccounts = []models.BankAccount{*account}
	return company
}

// CreateTestBeneficiary creates a beneficiary of companyID with one bank
// account. The account has no currency so callers can exercise the
// debtor-currency fallback; set it explicitly when needed.
func CreateTestBeneficiary(t *testing.T, db *gorm.DB, companyID string) *models.Beneficiary {
	t.Helper()

	beneficiary := &models.Beneficiary{
		CompanyID:    companyID,
		BusinessName: fmt.Sprintf("Supplier %d Ltd", nextID()),
		Email:        "billing@supplier.test",
	}
	if err := db.Create(beneficiary).Error; err != nil {
		t.Fatalf("failed to create test beneficiary: %v", err)
	}

	account := CreateTestBankAccount(t, db, &models.BankAccount{
		OwnerType:     models.OwnerTypeBeneficiary,
		BeneficiaryID: &beneficiary.ID,
		IBAN:          BeneficiaryIBAN,
		BIC:           "NWBKGB2L",
	})
	beneficiary.BankAccounts = []models.BankAccount{*account}
	return beneficiary
}

// CreateTestBankAccount persists account as given.
func CreateTestBankAccount(t *testing.T, db *gorm.DB, account *models.BankAccount) *models.BankAccount {
	t.Helper()
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("failed to create test bank account: %v", err)
	}
	return account
}

// AddTestExternalID records a provider id for a bank account.
func AddTestExternalID(t *testing.T, db *gorm.DB, bankAccountID, bankCode, externalID string) {
	t.Helper()
	if err := db.Create(&models.BankAccountExternalID{
		BankAccountID: bankAccountID,
		BankCode:      bankCode,
		ExternalID:    externalID,
	}).Error; err != nil {
		t.Fatalf("failed to create test external id: %v", err)
	}
}

// CreateTestCategory creates a category with the given filters.
func CreateTestCategory(t *testing.T, db *gorm.DB, name string, propagate bool, filters ...models.CategoryFilter) *models.Category {
	t.Helper()

	category := &models.Category{Name: name, Propagate: propagate, Filters: filters}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestTransaction creates a CREATED debit ledger entry.
func CreateTestTransaction(t *testing.T, db *gorm.DB, externalID, bankCode string, amount int64, currency string) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		ExternalID: externalID,
		BankCode:   bankCode,
		Kind:       models.TransactionKindPlain,
		State:      models.TransactionStateCreated,
		Amount:     decimal.NewNullDecimal(decimal.NewFromInt(amount)),
		Currency:   currency,
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}

// CountRows returns the number of rows of model matching the optional query.
func CountRows(t *testing.T, db *gorm.DB, model interface{}, query ...interface{}) int64 {
	t.Helper()

	var n int64
	q := db.Model(model)
	if len(query) > 0 {
		q = q.Where(query[0], query[1:]...)
	}
	if err := q.Count(&n).Error; err != nil {
		t.Fatalf("failed to count rows: %v", err)
	}
	return n
}
