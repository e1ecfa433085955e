package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "ledgersync/internal/errors"
	"ledgersync/internal/lock"
	"ledgersync/internal/models"
	"ledgersync/internal/provider"
	"ledgersync/internal/testutil"
)

func newTestLedger(db *gorm.DB, api provider.API) LedgerServicer {
	return NewLedgerService(db, lock.NewLocalLocker(), NewBankAccountService(db), api)
}

func createdPayload(id string, amount int64, currency, accountID string) *provider.TransactionData {
	amt := decimal.NewFromInt(amount)
	return &provider.TransactionData{
		ID:        id,
		Type:      "transfer",
		State:     provider.StatePending,
		CreatedAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		Reference: "Invoice 42",
		Legs: []provider.Leg{{
			LegID:     "leg-1",
			AccountID: accountID,
			Amount:    &amt,
			Currency:  currency,
			Counterparty: &provider.LegCounterparty{
				Name: "Supplier Ltd",
				IBAN: testutil.BeneficiaryIBAN,
			},
		}},
	}
}

func TestOnCreatedEvent(t *testing.T) {
	t.Run("creates_transaction", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		company := testutil.CreateTestCompany(t, db)
		testutil.AddTestExternalID(t, db, company.PrimaryAccount().ID, "REVOLUT", "acc-1")
		api := &fakeProvider{}
		svc := newTestLedger(db, api)

		res, err := svc.OnCreatedEvent(context.Background(), CreatedEvent{
			EventID:  "evt-1",
			BankCode: "revolut",
			Data:     createdPayload("tx-1", -120, "eur", "acc-1"),
		})
		testutil.AssertNoError(t, err)

		if res.Outcome != OutcomeCreated {
			t.Fatalf("expected outcome created, got %s", res.Outcome)
		}
		got := res.Transaction
		if got.State != models.TransactionStateCreated {
			t.Errorf("expected state CREATED, got %s", got.State)
		}
		if got.BankCode != "REVOLUT" || got.ExternalID != "tx-1" {
			t.Errorf("unexpected natural key (%s, %s)", got.ExternalID, got.BankCode)
		}
		if !got.Amount.Decimal.Equal(decimal.NewFromInt(120)) || got.Currency != "EUR" {
			t.Errorf("expected 120 EUR, got %s %s", got.Amount.Decimal, got.Currency)
		}
		if got.Credit {
			t.Error("expected a debit for a negative leg")
		}
		if got.PaymentForm != models.PaymentFormTransfer {
			t.Errorf("expected transfer, got %s", got.PaymentForm)
		}
		if got.AccountID == nil || *got.AccountID != company.PrimaryAccount().ID {
			t.Errorf("expected account %s, got %v", company.PrimaryAccount().ID, got.AccountID)
		}
		if got.Counterparty.IBAN != testutil.BeneficiaryIBAN {
			t.Errorf("expected counterparty iban, got %q", got.Counterparty.IBAN)
		}
		if _, _, details := api.calls(); details != 0 {
			t.Errorf("expected no provider lookups for a known account, got %d", details)
		}

		stored, err := svc.GetTransactionByID(context.Background(), got.ID)
		testutil.AssertNoError(t, err)
		if ids := stored.OriginIDs(); len(ids) != 1 || ids[0] != "evt-1" {
			t.Errorf("expected origins [evt-1], got %v", ids)
		}
	})

	t.Run("receipt_variant", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestLedger(db, nil)

		data := createdPayload("tx-card", -4, "EUR", "")
		data.Type = "card_payment"
		data.Merchant = &provider.Merchant{Name: "Coffee Corner", City: "Berlin", CategoryCode: "5814"}

		res, err := svc.OnCreatedEvent(context.Background(), CreatedEvent{EventID: "evt-card", BankCode: "REVOLUT", Data: data})
		testutil.AssertNoError(t, err)

		stored, err := svc.GetTransactionByID(context.Background(), res.Transaction.ID)
		testutil.AssertNoError(t, err)
		receipt, ok := stored.Variant().(*models.ReceiptDetails)
		if !ok {
			t.Fatalf("expected receipt variant, got %T", stored.Variant())
		}
		if receipt.MerchantName != "Coffee Corner" {
			t.Errorf("expected merchant name, got %q", receipt.MerchantName)
		}
		if stored.PaymentForm != models.PaymentFormCardPayment {
			t.Errorf("expected card_payment, got %s", stored.PaymentForm)
		}
	})

	t.Run("redelivery_is_idempotent", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestLedger(db, nil)
		event := CreatedEvent{EventID: "evt-1", BankCode: "REVOLUT", Data: createdPayload("tx-1", 50, "EUR", "")}

		for i := 0; i < 5; i++ {
			res, err := svc.OnCreatedEvent(context.Background(), event)
			testutil.AssertNoError(t, err)
			want := OutcomeDuplicate
			if i == 0 {
				want = OutcomeCreated
			}
			if res.Outcome != want {
				t.Errorf("delivery %d: expected %s, got %s", i, want, res.Outcome)
			}
		}

		if n := testutil.CountRows(t, db, &models.Transaction{}); n != 1 {
			t.Errorf("expected 1 transaction, got %d", n)
		}
		if n := testutil.CountRows(t, db, &models.TransactionOrigin{}); n != 1 {
			t.Errorf("expected 1 origin, got %d", n)
		}
	})

	t.Run("concurrent_delivery", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestLedger(db, nil)
		event := CreatedEvent{EventID: "evt-1", BankCode: "REVOLUT", Data: createdPayload("tx-1", 50, "EUR", "")}

		const workers = 8
		outcomes := make(chan Outcome, workers)
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				res, err := svc.OnCreatedEvent(context.Background(), event)
				if err != nil {
					t.Errorf("unexpected error: %v", err)
					return
				}
				outcomes <- res.Outcome
			}()
		}
		wg.Wait()
		close(outcomes)

		created := 0
		for o := range outcomes {
			if o == OutcomeCreated {
				created++
			} else if o != OutcomeDuplicate {
				t.Errorf("unexpected outcome %s", o)
			}
		}
		if created != 1 {
			t.Errorf("expected exactly one creation, got %d", created)
		}
		if n := testutil.CountRows(t, db, &models.Transaction{}); n != 1 {
			t.Errorf("expected 1 transaction, got %d", n)
		}
		if n := testutil.CountRows(t, db, &models.TransactionOrigin{}); n != 1 {
			t.Errorf("expected 1 origin, got %d", n)
		}
	})

	t.Run("new_event_id_merges", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestLedger(db, nil)
		data := createdPayload("tx-1", 50, "EUR", "")

		_, err := svc.OnCreatedEvent(context.Background(), CreatedEvent{EventID: "evt-1", BankCode: "REVOLUT", Data: data})
		testutil.AssertNoError(t, err)

		changed := createdPayload("tx-1", 999, "USD", "")
		res, err := svc.OnCreatedEvent(context.Background(), CreatedEvent{EventID: "evt-2", BankCode: "REVOLUT", Data: changed})
		testutil.AssertNoError(t, err)
		if res.Outcome != OutcomeMerged {
			t.Fatalf("expected merged, got %s", res.Outcome)
		}
		if !res.Transaction.Amount.Decimal.Equal(decimal.NewFromInt(50)) {
			t.Errorf("merge must not overwrite business fields, amount is %s", res.Transaction.Amount.Decimal)
		}
		if n := testutil.CountRows(t, db, &models.TransactionOrigin{}); n != 2 {
			t.Errorf("expected 2 origins, got %d", n)
		}
	})

	t.Run("same_id_other_bank_code", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestLedger(db, nil)

		for _, code := range []string{"REVOLUT", "REVOLUT_EU"} {
			res, err := svc.OnCreatedEvent(context.Background(), CreatedEvent{
				EventID: "evt-1", BankCode: code, Data: createdPayload("tx-1", 10, "EUR", ""),
			})
			testutil.AssertNoError(t, err)
			if res.Outcome != OutcomeCreated {
				t.Errorf("%s: expected created, got %s", code, res.Outcome)
			}
		}
		if n := testutil.CountRows(t, db, &models.Transaction{}); n != 2 {
			t.Errorf("expected 2 transactions, got %d", n)
		}
	})

	t.Run("resolves_account_by_iban", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		company := testutil.CreateTestCompany(t, db)
		api := &fakeProvider{details: map[string][]provider.AccountBankDetails{
			"acc-new": {{IBAN: "DE89 3704 0044 0532 0130 00", BIC: "COBADEFFXXX"}},
		}}
		svc := newTestLedger(db, api)

		res, err := svc.OnCreatedEvent(context.Background(), CreatedEvent{
			EventID: "evt-1", BankCode: "REVOLUT", Data: createdPayload("tx-1", -10, "EUR", "acc-new"),
		})
		testutil.AssertNoError(t, err)
		if res.Transaction.AccountID == nil || *res.Transaction.AccountID != company.PrimaryAccount().ID {
			t.Errorf("expected account resolved by IBAN, got %v", res.Transaction.AccountID)
		}
		if _, _, details := api.calls(); details != 1 {
			t.Errorf("expected 1 provider lookup, got %d", details)
		}
	})

	t.Run("provider_error_persists_nothing", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		api := &fakeProvider{detailsErr: apperrors.ErrProviderServer}
		svc := newTestLedger(db, api)

		_, err := svc.OnCreatedEvent(context.Background(), CreatedEvent{
			EventID: "evt-1", BankCode: "REVOLUT", Data: createdPayload("tx-1", -10, "EUR", "acc-unknown"),
		})
		testutil.AssertAppError(t, err, "PROVIDER_SERVER_ERROR")

		if n := testutil.CountRows(t, db, &models.Transaction{}); n != 0 {
			t.Errorf("expected no transactions, got %d", n)
		}
		if n := testutil.CountRows(t, db, &models.TransactionOrigin{}); n != 0 {
			t.Errorf("expected no origins, got %d", n)
		}
	})

	t.Run("malformed", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestLedger(db, nil)

		_, err := svc.OnCreatedEvent(context.Background(), CreatedEvent{EventID: "evt-1", BankCode: "REVOLUT"})
		testutil.AssertAppError(t, err, "MALFORMED_PAYLOAD")
	})
}

func TestRecordDraft(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	company := testutil.CreateTestCompany(t, db)
	beneficiary := testutil.CreateTestBeneficiary(t, db, company.ID)
	svc := newTestLedger(db, nil)

	due := time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC)
	draft, err := svc.RecordDraft(context.Background(), DraftInput{
		BankCode:      "REVOLUT",
		CompanyID:     company.ID,
		BeneficiaryID: beneficiary.ID,
		InvoiceKey:    "2024/INV-0042",
		Amount:        decimal.RequireFromString("199.90"),
		Currency:      "eur",
		DueDate:       &due,
	})
	testutil.AssertNoError(t, err)

	if draft.State != models.TransactionStateDraft {
		t.Fatalf("expected DRAFT, got %s", draft.State)
	}
	if draft.RequestID == nil || draft.ExternalID != *draft.RequestID {
		t.Fatalf("expected draft keyed by its request id, got %q", draft.ExternalID)
	}
	if draft.Reference != "INV 2024/INV-0042" {
		t.Errorf("unexpected reference %q", draft.Reference)
	}
	if !draft.IsPendingDraft() {
		t.Error("expected a pending draft")
	}

	if n := testutil.CountRows(t, db, &models.Transaction{}); n != 1 {
		t.Errorf("expected 1 transaction, got %d", n)
	}
}

func TestCreatedEventWithUnknownRequestID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	company := testutil.CreateTestCompany(t, db)
	beneficiary := testutil.CreateTestBeneficiary(t, db, company.ID)
	svc := newTestLedger(db, nil)

	_, err := svc.RecordDraft(context.Background(), DraftInput{
		BankCode:      "REVOLUT",
		CompanyID:     company.ID,
		BeneficiaryID: beneficiary.ID,
		InvoiceKey:    "INV-1",
		Amount:        decimal.NewFromInt(10),
		Currency:      "EUR",
	})
	testutil.AssertNoError(t, err)

	data := createdPayload("prov-tx-9", -10, "EUR", "")
	data.RequestID = "someone-elses-request"
	res, err := svc.OnCreatedEvent(context.Background(), CreatedEvent{EventID: "evt-9", BankCode: "REVOLUT", Data: data})
	testutil.AssertNoError(t, err)
	if res.Outcome != OutcomeCreated {
		t.Errorf("expected an unrelated transaction to be created, got %s", res.Outcome)
	}
	if n := testutil.CountRows(t, db, &models.Transaction{}, "state = ?", models.TransactionStateDraft); n != 1 {
		t.Errorf("expected the draft to stay untouched, got %d drafts", n)
	}
}

func TestRecordDraft_Validation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	company := testutil.CreateTestCompany(t, db)
	beneficiary := testutil.CreateTestBeneficiary(t, db, company.ID)
	other := testutil.CreateTestCompany(t, db)
	svc := newTestLedger(db, nil)

	base := DraftInput{
		BankCode:      "REVOLUT",
		CompanyID:     company.ID,
		BeneficiaryID: beneficiary.ID,
		InvoiceKey:    "INV-1",
		Amount:        decimal.NewFromInt(10),
		Currency:      "EUR",
	}

	zero := base
	zero.Amount = decimal.Zero
	_, err := svc.RecordDraft(context.Background(), zero)
	testutil.AssertAppError(t, err, "INVALID_INPUT")

	noKey := base
	noKey.InvoiceKey = ""
	_, err = svc.RecordDraft(context.Background(), noKey)
	testutil.AssertAppError(t, err, "INVALID_INPUT")

	foreign := base
	foreign.CompanyID = other.ID
	_, err = svc.RecordDraft(context.Background(), foreign)
	testutil.AssertAppError(t, err, "BENEFICIARY_NOT_FOUND")

	missing := base
	missing.CompanyID = "0190b7a2-0000-7000-8000-000000000000"
	_, err = svc.RecordDraft(context.Background(), missing)
	testutil.AssertAppError(t, err, "COMPANY_NOT_FOUND")
}

func TestOnStateChangedEvent(t *testing.T) {
	setup := func(t *testing.T) (*gorm.DB, LedgerServicer) {
		db := testutil.SetupTestDB(t)
		svc := newTestLedger(db, nil)
		_, err := svc.OnCreatedEvent(context.Background(), CreatedEvent{
			EventID: "evt-created", BankCode: "REVOLUT", Data: createdPayload("tx-1", -10, "EUR", ""),
		})
		testutil.AssertNoError(t, err)
		return db, svc
	}
	stateEvent := func(status string) StateChangedEvent {
		return StateChangedEvent{
			EventID:    fmt.Sprintf("state:tx-1:%s", status),
			ExternalID: "tx-1",
			BankCode:   "REVOLUT",
			Status:     status,
		}
	}

	t.Run("completed_once", func(t *testing.T) {
		db, svc := setup(t)
		defer testutil.TeardownTestDB(t, db)
		at := time.Date(2024, 3, 2, 8, 30, 0, 0, time.UTC)
		event := stateEvent(provider.StateCompleted)
		event.CompletedAt = &at

		res, err := svc.OnStateChangedEvent(context.Background(), event)
		testutil.AssertNoError(t, err)
		if res.Outcome != OutcomeCompleted {
			t.Fatalf("expected completed, got %s", res.Outcome)
		}

		res, err = svc.OnStateChangedEvent(context.Background(), event)
		testutil.AssertNoError(t, err)
		if res.Outcome != OutcomeIgnored {
			t.Errorf("expected redelivery to be ignored, got %s", res.Outcome)
		}

		res, err = svc.OnStateChangedEvent(context.Background(), stateEvent(provider.StateFailed))
		testutil.AssertNoError(t, err)
		if res.Outcome != OutcomeIgnored {
			t.Errorf("expected failure after completion to be ignored, got %s", res.Outcome)
		}

		stored, err := svc.GetTransactionByID(context.Background(), res.Transaction.ID)
		testutil.AssertNoError(t, err)
		if stored.State != models.TransactionStateCompleted || stored.Failure {
			t.Errorf("expected COMPLETED without failure, got %s failure=%v", stored.State, stored.Failure)
		}
		if stored.CompletedAt == nil || !stored.CompletedAt.Equal(at) {
			t.Errorf("expected completed_at %s, got %v", at, stored.CompletedAt)
		}
		if ids := stored.OriginIDs(); len(ids) != 2 {
			t.Errorf("expected 2 origins, got %v", ids)
		}
	})

	t.Run("declined_fails", func(t *testing.T) {
		db, svc := setup(t)
		defer testutil.TeardownTestDB(t, db)

		res, err := svc.OnStateChangedEvent(context.Background(), stateEvent(provider.StateDeclined))
		testutil.AssertNoError(t, err)
		if res.Outcome != OutcomeFailed {
			t.Fatalf("expected failed, got %s", res.Outcome)
		}
		if res.Transaction.State != models.TransactionStateFailed || !res.Transaction.Failure {
			t.Errorf("expected FAILED with failure flag")
		}

		res, err = svc.OnStateChangedEvent(context.Background(), stateEvent(provider.StateCompleted))
		testutil.AssertNoError(t, err)
		if res.Outcome != OutcomeIgnored {
			t.Errorf("expected completion after failure to be ignored, got %s", res.Outcome)
		}
	})

	t.Run("pending_ignored", func(t *testing.T) {
		db, svc := setup(t)
		defer testutil.TeardownTestDB(t, db)

		res, err := svc.OnStateChangedEvent(context.Background(), stateEvent(provider.StatePending))
		testutil.AssertNoError(t, err)
		if res.Outcome != OutcomeIgnored {
			t.Errorf("expected ignored, got %s", res.Outcome)
		}
		if res.Transaction.State != models.TransactionStateCreated {
			t.Errorf("expected state unchanged, got %s", res.Transaction.State)
		}
	})

	t.Run("unknown_transaction", func(t *testing.T) {
		db, svc := setup(t)
		defer testutil.TeardownTestDB(t, db)

		event := stateEvent(provider.StateCompleted)
		event.ExternalID = "tx-missing"
		res, err := svc.OnStateChangedEvent(context.Background(), event)
		testutil.AssertNoError(t, err)
		if res.Outcome != OutcomeNotFound {
			t.Errorf("expected not_found, got %s", res.Outcome)
		}
	})
}
