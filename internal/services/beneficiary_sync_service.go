package services

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	apperrors "ledgersync/internal/errors"
	"ledgersync/internal/iban"
	"ledgersync/internal/lock"
	"ledgersync/internal/logger"
	"ledgersync/internal/models"
	"ledgersync/internal/provider"
)

const counterpartyProfileBusiness = "business"

// beneficiarySyncService registers beneficiary bank accounts with the
// provider as counterparties.
type beneficiarySyncService struct {
	db       *gorm.DB
	api      provider.API
	locker   lock.Locker
	accounts BankAccountServicer
	audit    AuditServicer
	bankCode string
	log      *zap.SugaredLogger
}

// NewBeneficiarySyncService creates a new BeneficiarySyncServicer for the
// provider instance identified by bankCode.
func NewBeneficiarySyncService(db *gorm.DB, api provider.API, locker lock.Locker, accounts BankAccountServicer, audit AuditServicer, bankCode string) BeneficiarySyncServicer {
	return &beneficiarySyncService{
		db:       db,
		api:      api,
		locker:   locker,
		accounts: accounts,
		audit:    audit,
		bankCode: strings.ToUpper(bankCode),
		log:      logger.Named("beneficiary-sync"),
	}
}

// SyncBeneficiary creates the provider counterparty for one beneficiary bank
// account and stores the returned id. An account already carrying an id for
// this provider, or one missing required fields, is left untouched and the
// provider is not called.
func (s *beneficiarySyncService) SyncBeneficiary(ctx context.Context, beneficiaryID, bankAccountID string) (*SyncResult, error) {
	var beneficiary models.Beneficiary
	if err := s.db.WithContext(ctx).Preload("Company.BankAccounts").First(&beneficiary, "id = ?", beneficiaryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBeneficiaryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	log := s.log.With("beneficiary_id", beneficiaryID, "bank_account_id", bankAccountID, "bank_code", s.bankCode)

	var result *SyncResult
	err := s.locker.WithLock(ctx, lock.Key("beneficiary-sync", bankAccountID, s.bankCode), func(ctx context.Context) error {
		account, err := s.accounts.GetBankAccountByID(ctx, bankAccountID)
		if err != nil {
			return err
		}
		if account.BeneficiaryID == nil || *account.BeneficiaryID != beneficiary.ID {
			return apperrors.WithMessage(apperrors.ErrBankAccountNotFound, "bank account does not belong to beneficiary")
		}

		if externalID, ok := account.ExternalID(s.bankCode); ok {
			result = &SyncResult{Outcome: OutcomeAlreadySynced, BankAccountID: account.ID, ExternalID: externalID}
			return nil
		}

		currency := account.Currency
		if currency == "" && beneficiary.Company != nil {
			if primary := beneficiary.Company.PrimaryAccount(); primary != nil {
				currency = primary.Currency
			}
		}
		if missing := missingCounterpartyFields(&beneficiary, account, currency); len(missing) > 0 {
			log.Warnw("beneficiary is missing required fields, not synced", "missing", missing)
			result = &SyncResult{
				Outcome:       OutcomeSkipped,
				BankAccountID: account.ID,
				Missing:       missing,
				Reason:        apperrors.ErrMissingField.Message,
			}
			return nil
		}

		parsed, err := iban.Parse(account.IBAN)
		if err != nil {
			log.Warnw("beneficiary IBAN is invalid, not synced", "error", err)
			result = &SyncResult{Outcome: OutcomeSkipped, BankAccountID: account.ID, Reason: err.Error()}
			return nil
		}

		counterparty, err := s.api.CreateCounterparty(ctx, provider.CounterpartyRequest{
			ProfileType: counterpartyProfileBusiness,
			CompanyName: beneficiary.BusinessName,
			BankCountry: parsed.CountryCode,
			Currency:    strings.ToUpper(currency),
			IBAN:        parsed.String(),
			BIC:         account.BIC,
			Email:       beneficiary.Email,
		})
		if err != nil {
			return err
		}

		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			written, err := s.accounts.SetExternalID(tx, account.ID, s.bankCode, counterparty.ID)
			if err != nil {
				return err
			}
			if !written {
				result = &SyncResult{Outcome: OutcomeAlreadySynced, BankAccountID: account.ID}
				return nil
			}
			s.audit.Log(tx, AuditActionCreateCounterparty, s.bankCode, "bank_account", account.ID, counterparty.ID, map[string]any{
				"beneficiary_id": beneficiary.ID,
				"iban":           parsed.String(),
				"currency":       strings.ToUpper(currency),
			})
			result = &SyncResult{Outcome: OutcomeSynced, BankAccountID: account.ID, ExternalID: counterparty.ID}
			return nil
		})
	})
	if err != nil {
		log.Errorw("beneficiary sync failed", "error", err)
		return nil, err
	}

	log.Infow("beneficiary sync finished", "outcome", result.Outcome, "external_id", result.ExternalID)
	return result, nil
}

func missingCounterpartyFields(b *models.Beneficiary, account *models.BankAccount, currency string) []string {
	var missing []string
	if strings.TrimSpace(b.BusinessName) == "" {
		missing = append(missing, "business_name")
	}
	if account.IBAN == "" {
		missing = append(missing, "iban")
	}
	if strings.TrimSpace(account.BIC) == "" {
		missing = append(missing, "bic")
	}
	if currency == "" {
		missing = append(missing, "currency")
	}
	return missing
}
