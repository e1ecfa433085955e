package testutil_test

import (
	"testing"

	"ledgersync/internal/errors"
	"ledgersync/internal/models"
	"ledgersync/internal/testutil"
)

func TestSetupTestDB(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	// Verify all tables exist by doing a simple count query on each model.
	var count int64
	for _, table := range []string{"companies", "beneficiaries", "bank_accounts", "bank_account_external_ids", "categories", "category_filters", "transactions", "transaction_origins", "transaction_categories", "provider_audit_logs"} {
		if err := db.Table(table).Count(&count).Error; err != nil {
			t.Errorf("table %q should exist after migration: %v", table, err)
		}
	}
}

func TestSetupTestDB_Isolated(t *testing.T) {
	first := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, first)
	second := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, second)

	testutil.CreateTestCompany(t, first)
	if n := testutil.CountRows(t, second, &models.Company{}); n != 0 {
		t.Errorf("expected databases to be isolated, found %d companies", n)
	}
}

func TestFixtures(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	company := testutil.CreateTestCompany(t, db)
	if company.ID == "" {
		t.Fatal("company should have an ID")
	}
	primary := company.PrimaryAccount()
	if primary == nil || primary.NationalBankCode != "37040044" || primary.CountryCode != "DE" {
		t.Fatalf("expected IBAN components to be derived on save, got %+v", primary)
	}

	beneficiary := testutil.CreateTestBeneficiary(t, db, company.ID)
	if len(beneficiary.BankAccounts) != 1 || beneficiary.BankAccounts[0].BranchCode != "601613" {
		t.Errorf("unexpected beneficiary account: %+v", beneficiary.BankAccounts)
	}

	testutil.AddTestExternalID(t, db, primary.ID, "REVOLUT", "acc-1")
	if n := testutil.CountRows(t, db, &models.BankAccountExternalID{}, "bank_account_id = ?", primary.ID); n != 1 {
		t.Errorf("expected 1 external id, got %d", n)
	}

	category := testutil.CreateTestCategory(t, db, "coffee", false, models.CategoryFilter{
		PropertyName: models.FilterPropertyName, Operation: models.FilterOperationEQ, PropertyValue: "Coffee",
	})
	if n := testutil.CountRows(t, db, &models.CategoryFilter{}, "category_id = ?", category.ID); n != 1 {
		t.Errorf("expected 1 filter, got %d", n)
	}
}

func TestInvalidIbanRejectedOnSave(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	err := db.Create(&models.BankAccount{OwnerType: models.OwnerTypeCompany, IBAN: "LU000019400644750000"}).Error
	testutil.AssertAppError(t, err, errors.ErrInvalidIban.Code)
}
