package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "ledgersync/internal/errors"
	"ledgersync/internal/lock"
	"ledgersync/internal/logger"
	"ledgersync/internal/models"
	"ledgersync/internal/provider"
	"ledgersync/internal/uuid"
)

// ledgerService owns every mutation of ledger transactions. Work on one
// natural key is serialised by the locker and a locking read inside a
// database transaction; different keys proceed independently.
type ledgerService struct {
	db       *gorm.DB
	locker   lock.Locker
	accounts BankAccountServicer
	api      provider.API
	now      func() time.Time
	log      *zap.SugaredLogger
}

// NewLedgerService creates a new LedgerServicer. api may be nil, in which
// case accounts are only resolved through locally known provider ids.
func NewLedgerService(db *gorm.DB, locker lock.Locker, accounts BankAccountServicer, api provider.API) LedgerServicer {
	return &ledgerService{
		db:       db,
		locker:   locker,
		accounts: accounts,
		api:      api,
		now:      time.Now,
		log:      logger.Named("ledger"),
	}
}

// RecordDraft stores a local payment intent before the provider knows
// about it. Until the provider acknowledges it the draft is keyed by its
// own request id.
func (s *ledgerService) RecordDraft(ctx context.Context, input DraftInput) (*models.Transaction, error) {
	if input.BankCode == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "bank code is required")
	}
	if strings.TrimSpace(input.InvoiceKey) == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invoice key is required")
	}
	if !input.Amount.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if len(input.Currency) != 3 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "currency must be an ISO 4217 code")
	}

	var company models.Company
	if err := s.db.WithContext(ctx).Preload("BankAccounts").First(&company, "id = ?", input.CompanyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCompanyNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	debtorAccount := company.PrimaryAccount()
	if debtorAccount == nil {
		return nil, apperrors.WithMessage(apperrors.ErrBankAccountNotFound, "company has no bank account")
	}

	var beneficiary models.Beneficiary
	if err := s.db.WithContext(ctx).Preload("BankAccounts").
		First(&beneficiary, "id = ? AND company_id = ?", input.BeneficiaryID, company.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBeneficiaryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	creditorAccount, err := pickBeneficiaryAccount(&beneficiary, input.BeneficiaryBankAccountID)
	if err != nil {
		return nil, err
	}

	requestID := uuid.NewRequestID()
	transaction := &models.Transaction{
		ExternalID: requestID,
		BankCode:   strings.ToUpper(input.BankCode),
		RequestID:  &requestID,
		State:      models.TransactionStateDraft,
		Amount:     decimal.NewNullDecimal(input.Amount),
		Currency:   strings.ToUpper(input.Currency),
		AccountID:  &debtorAccount.ID,
		Counterparty: models.Counterparty{
			IBAN: creditorAccount.IBAN,
			BIC:  creditorAccount.BIC,
			Name: beneficiary.BusinessName,
		},
		Reference:   InvoiceReference(input.InvoiceKey),
		PaymentForm: models.PaymentFormTransfer,
	}
	transaction.SetVariant(&models.InvoiceDetails{
		InvoiceKey:               input.InvoiceKey,
		OrderRef:                 input.OrderRef,
		DueDate:                  input.DueDate,
		CompanyID:                company.ID,
		BeneficiaryID:            beneficiary.ID,
		BeneficiaryBankAccountID: &creditorAccount.ID,
	})

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(transaction).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		transaction.Invoice.TransactionID = transaction.ID
		if err := tx.Create(transaction.Invoice).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Infow("payment draft recorded",
		"transaction_id", transaction.ID,
		"request_id", requestID,
		"invoice_key", input.InvoiceKey,
	)
	return transaction, nil
}

func pickBeneficiaryAccount(b *models.Beneficiary, accountID *string) (*models.BankAccount, error) {
	for i := range b.BankAccounts {
		if accountID == nil || b.BankAccounts[i].ID == *accountID {
			return &b.BankAccounts[i], nil
		}
	}
	return nil, apperrors.WithMessage(apperrors.ErrBankAccountNotFound, "beneficiary bank account not found")
}

// OnCreatedEvent merges a "transaction created" event into the ledger.
func (s *ledgerService) OnCreatedEvent(ctx context.Context, event CreatedEvent) (*LedgerResult, error) {
	data := event.Data
	if data == nil || data.ID == "" || len(data.Legs) == 0 {
		return nil, apperrors.WithMessage(apperrors.ErrMalformedPayload, "created event has no transaction")
	}
	bankCode := strings.ToUpper(event.BankCode)

	// Account resolution may call the provider, so it runs before any lock
	// or database transaction and only when the record is new.
	var (
		accountID *string
		legIndex  int
	)
	known, err := s.exists(ctx, data.ID, data.RequestID, bankCode)
	if err != nil {
		return nil, err
	}
	if !known {
		accountID, legIndex, err = s.resolveAccount(ctx, bankCode, data.Legs)
		if err != nil {
			s.log.Warnw("account resolution failed, event not applied",
				"event_id", event.EventID, "external_id", data.ID, "error", err)
			return nil, err
		}
	}

	var result *LedgerResult
	err = s.locker.WithLock(ctx, lock.Key("tx", bankCode, data.ID), func(ctx context.Context) error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			existing, err := s.lockByNaturalKey(tx, data.ID, bankCode)
			if err != nil {
				return err
			}
			if existing == nil {
				existing, err = s.lockDraft(tx, data.ID, data.RequestID, bankCode)
				if err != nil {
					return err
				}
			}
			if existing != nil {
				result, err = s.merge(tx, existing, data.ID, event.EventID)
				return err
			}

			record := buildTransaction(bankCode, data, legIndex, accountID)
			inserted := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "external_id"}, {Name: "bank_code"}},
				DoNothing: true,
			}).Omit(clause.Associations).Create(record)
			if inserted.Error != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, inserted.Error)
			}
			if inserted.RowsAffected == 0 {
				// Lost the insert race to another writer: merge into theirs.
				existing, err = s.lockByNaturalKey(tx, data.ID, bankCode)
				if err != nil {
					return err
				}
				if existing == nil {
					return apperrors.Wrap(apperrors.ErrInternalServer, fmt.Errorf("transaction %s vanished after conflict", data.ID))
				}
				result, err = s.merge(tx, existing, data.ID, event.EventID)
				return err
			}

			if record.Receipt != nil {
				record.Receipt.TransactionID = record.ID
				if err := tx.Create(record.Receipt).Error; err != nil {
					return apperrors.Wrap(apperrors.ErrInternalServer, err)
				}
			}
			if _, err := appendOrigin(tx, record, event.EventID); err != nil {
				return err
			}
			result = &LedgerResult{Outcome: OutcomeCreated, Transaction: record}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Infow("created event applied",
		"event_id", event.EventID,
		"external_id", data.ID,
		"bank_code", bankCode,
		"outcome", result.Outcome,
		"transaction_id", result.Transaction.ID,
	)
	return result, nil
}

// merge records eventID on an existing transaction without touching its
// business fields. A DRAFT acknowledged by the provider becomes CREATED and
// is re-keyed to the provider's id.
func (s *ledgerService) merge(tx *gorm.DB, existing *models.Transaction, externalID, eventID string) (*LedgerResult, error) {
	if existing.HasOrigin(eventID) {
		return &LedgerResult{Outcome: OutcomeDuplicate, Transaction: existing}, nil
	}

	if existing.State == models.TransactionStateDraft {
		updates := map[string]any{
			"state":       models.TransactionStateCreated,
			"external_id": externalID,
		}
		if err := tx.Model(existing).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		existing.State = models.TransactionStateCreated
		existing.ExternalID = externalID
	}

	added, err := appendOrigin(tx, existing, eventID)
	if err != nil {
		return nil, err
	}
	if !added {
		return &LedgerResult{Outcome: OutcomeDuplicate, Transaction: existing}, nil
	}
	return &LedgerResult{Outcome: OutcomeMerged, Transaction: existing}, nil
}

// OnStateChangedEvent applies a provider state transition. Completion and
// failure are terminal and each applies at most once.
func (s *ledgerService) OnStateChangedEvent(ctx context.Context, event StateChangedEvent) (*LedgerResult, error) {
	if event.ExternalID == "" {
		return nil, apperrors.WithMessage(apperrors.ErrMalformedPayload, "state change has no transaction id")
	}
	bankCode := strings.ToUpper(event.BankCode)
	status := strings.ToLower(event.Status)
	log := s.log.With("event_id", event.EventID, "external_id", event.ExternalID, "bank_code", bankCode, "status", status)

	var result *LedgerResult
	err := s.locker.WithLock(ctx, lock.Key("tx", bankCode, event.ExternalID), func(ctx context.Context) error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			existing, err := s.lockByNaturalKey(tx, event.ExternalID, bankCode)
			if err != nil {
				return err
			}
			switch {
			case existing == nil:
				result = &LedgerResult{Outcome: OutcomeNotFound}
				return nil
			case existing.Failure, existing.CompletedAt != nil:
				result = &LedgerResult{Outcome: OutcomeIgnored, Transaction: existing}
				return nil
			case existing.HasOrigin(event.EventID):
				result = &LedgerResult{Outcome: OutcomeDuplicate, Transaction: existing}
				return nil
			}

			var (
				updates map[string]any
				outcome Outcome
			)
			switch status {
			case provider.StateCompleted:
				completedAt := s.now().UTC()
				if event.CompletedAt != nil {
					completedAt = event.CompletedAt.UTC()
				}
				updates = map[string]any{
					"state":        models.TransactionStateCompleted,
					"completed_at": completedAt,
				}
				existing.State = models.TransactionStateCompleted
				existing.CompletedAt = &completedAt
				outcome = OutcomeCompleted
			case provider.StateFailed, provider.StateDeclined:
				updates = map[string]any{
					"state":   models.TransactionStateFailed,
					"failure": true,
				}
				existing.State = models.TransactionStateFailed
				existing.Failure = true
				outcome = OutcomeFailed
			default:
				result = &LedgerResult{Outcome: OutcomeIgnored, Transaction: existing}
				return nil
			}

			if err := tx.Model(&models.Transaction{}).Where("id = ?", existing.ID).Updates(updates).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			if _, err := appendOrigin(tx, existing, event.EventID); err != nil {
				return err
			}
			result = &LedgerResult{Outcome: outcome, Transaction: existing}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	if result.Outcome == OutcomeNotFound {
		log.Warnw("state change for unknown transaction")
	} else {
		log.Infow("state change applied", "outcome", result.Outcome, "transaction_id", result.Transaction.ID)
	}
	return result, nil
}

// GetTransactionByID retrieves a transaction with origins, categories and
// subtype payload.
func (s *ledgerService) GetTransactionByID(ctx context.Context, id string) (*models.Transaction, error) {
	return loadTransaction(s.db.WithContext(ctx), id)
}

func loadTransaction(db *gorm.DB, id string) (*models.Transaction, error) {
	var transaction models.Transaction
	err := db.
		Preload("Origins", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Categories", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Categories.Category").
		Preload("Receipt").
		Preload("Invoice").
		Preload("Bill").
		First(&transaction, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transaction, nil
}

func (s *ledgerService) exists(ctx context.Context, externalID, requestID, bankCode string) (bool, error) {
	draft, args := draftMatch(externalID, requestID)
	q := s.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("bank_code = ?", bankCode).
		Where("(external_id = ? OR "+draft+")", append([]any{externalID}, args...)...)
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return n > 0, nil
}

// lockByNaturalKey reads a transaction FOR UPDATE with its origins. It
// returns nil when there is no such row.
func (s *ledgerService) lockByNaturalKey(tx *gorm.DB, externalID, bankCode string) (*models.Transaction, error) {
	return lockWhere(tx, "external_id = ? AND bank_code = ?", externalID, bankCode)
}

// lockDraft finds the DRAFT a provider transaction acknowledges: the one
// whose submitted payment carries externalID, or failing that the one whose
// request id the provider echoed.
func (s *ledgerService) lockDraft(tx *gorm.DB, externalID, requestID, bankCode string) (*models.Transaction, error) {
	draft, args := draftMatch(externalID, requestID)
	return lockWhere(tx, "bank_code = ? AND "+draft, append([]any{bankCode}, args...)...)
}

func draftMatch(externalID, requestID string) (string, []any) {
	if requestID == "" {
		return "(state = ? AND provider_payment_id = ?)", []any{models.TransactionStateDraft, externalID}
	}
	return "(state = ? AND (provider_payment_id = ? OR request_id = ?))",
		[]any{models.TransactionStateDraft, externalID, requestID}
}

func lockWhere(tx *gorm.DB, query string, args ...any) (*models.Transaction, error) {
	var transaction models.Transaction
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where(query, args...).First(&transaction).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := tx.Where("transaction_id = ?", transaction.ID).Order("id ASC").Find(&transaction.Origins).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transaction, nil
}

// appendOrigin adds eventID to the origin set. The unique index turns a
// concurrent duplicate into a no-op; the result reports whether it was new.
func appendOrigin(tx *gorm.DB, transaction *models.Transaction, eventID string) (bool, error) {
	origin := models.TransactionOrigin{TransactionID: transaction.ID, EventID: eventID}
	result := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "transaction_id"}, {Name: "event_id"}},
		DoNothing: true,
	}).Create(&origin)
	if result.Error != nil {
		return false, apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return false, nil
	}
	transaction.Origins = append(transaction.Origins, origin)
	return true, nil
}

// resolveAccount finds the local bank account a payload books against and
// the index of the matching leg. Locally known provider ids are tried
// first, then the provider's account details are matched by IBAN.
func (s *ledgerService) resolveAccount(ctx context.Context, bankCode string, legs []provider.Leg) (*string, int, error) {
	for i, leg := range legs {
		account, err := s.accounts.FindByExternalID(ctx, bankCode, leg.AccountID)
		if err == nil {
			return &account.ID, i, nil
		}
		if !apperrors.IsNotFound(err) {
			return nil, 0, err
		}
	}

	if s.api == nil {
		return nil, 0, nil
	}
	for i, leg := range legs {
		if leg.AccountID == "" {
			continue
		}
		details, err := s.api.GetAccountBankDetails(ctx, leg.AccountID)
		if err != nil {
			return nil, 0, err
		}
		for _, d := range details {
			account, err := s.accounts.FindCompanyAccountByIBAN(ctx, d.IBAN)
			if err == nil {
				return &account.ID, i, nil
			}
			if !apperrors.IsNotFound(err) {
				return nil, 0, err
			}
		}
	}
	return nil, 0, nil
}

// buildTransaction maps a provider payload onto a new CREATED ledger row.
func buildTransaction(bankCode string, data *provider.TransactionData, legIndex int, accountID *string) *models.Transaction {
	leg := data.Legs[legIndex]

	transaction := &models.Transaction{
		ExternalID:   data.ID,
		BankCode:     bankCode,
		State:        models.TransactionStateCreated,
		PaymentForm:  classifyPaymentForm(data),
		ProviderType: data.Type,
		Amount:       decimal.NewNullDecimal(leg.Amount.Abs()),
		Currency:     strings.ToUpper(leg.Currency),
		Credit:       leg.Amount.IsPositive(),
		AccountID:    accountID,
		Reference:    data.Reference,
		Description:  leg.Description,
	}
	if data.RequestID != "" {
		requestID := data.RequestID
		transaction.RequestID = &requestID
	}
	if leg.BillAmount != nil {
		transaction.BillAmount = decimal.NewNullDecimal(leg.BillAmount.Abs())
		transaction.BillCurrency = strings.ToUpper(leg.BillCurrency)
	}
	if cp := leg.Counterparty; cp != nil {
		transaction.Counterparty = models.Counterparty{IBAN: cp.IBAN, BIC: cp.BIC, Name: cp.Name}
	}
	if data.Merchant != nil {
		transaction.SetVariant(&models.ReceiptDetails{
			MerchantName:     data.Merchant.Name,
			MerchantCategory: data.Merchant.CategoryCode,
			City:             data.Merchant.City,
		})
		if transaction.Counterparty.Name == "" {
			transaction.Counterparty.Name = data.Merchant.Name
		}
	} else {
		transaction.SetVariant(nil)
	}
	return transaction
}

// classifyPaymentForm derives the form of payment from the leg structure:
// several legs mean money moved between own accounts.
func classifyPaymentForm(data *provider.TransactionData) models.PaymentForm {
	if len(data.Legs) > 1 {
		return models.PaymentFormInternalTransfer
	}
	switch strings.ToLower(data.Type) {
	case "card_payment", "atm":
		return models.PaymentFormCardPayment
	case "refund", "card_refund":
		return models.PaymentFormRefund
	case "transfer":
		return models.PaymentFormTransfer
	default:
		return models.PaymentFormOther
	}
}
