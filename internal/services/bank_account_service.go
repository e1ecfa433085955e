package services

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "ledgersync/internal/errors"
	"ledgersync/internal/iban"
	"ledgersync/internal/models"
)

// bankAccountService handles bank-account lookups and provider id mapping.
type bankAccountService struct {
	db *gorm.DB
}

// NewBankAccountService creates a new BankAccountServicer.
func NewBankAccountService(db *gorm.DB) BankAccountServicer {
	return &bankAccountService{db: db}
}

// GetBankAccountByID retrieves a bank account with its provider ids
func (s *bankAccountService) GetBankAccountByID(ctx context.Context, id string) (*models.BankAccount, error) {
	var account models.BankAccount
	if err := s.db.WithContext(ctx).Preload("ExternalIDs").First(&account, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBankAccountNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &account, nil
}

// FindByExternalID finds the local account the provider knows as externalID
func (s *bankAccountService) FindByExternalID(ctx context.Context, bankCode, externalID string) (*models.BankAccount, error) {
	if externalID == "" {
		return nil, apperrors.ErrBankAccountNotFound
	}

	var mapping models.BankAccountExternalID
	err := s.db.WithContext(ctx).
		Where("bank_code = ? AND external_id = ?", bankCode, externalID).
		First(&mapping).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBankAccountNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return s.GetBankAccountByID(ctx, mapping.BankAccountID)
}

// FindCompanyAccountByIBAN finds a debtor-side account by IBAN in any
// notation
func (s *bankAccountService) FindCompanyAccountByIBAN(ctx context.Context, code string) (*models.BankAccount, error) {
	normalized := iban.Normalize(code)
	if normalized == "" {
		return nil, apperrors.ErrBankAccountNotFound
	}

	var account models.BankAccount
	err := s.db.WithContext(ctx).
		Preload("ExternalIDs").
		Where("iban = ? AND owner_type = ?", normalized, models.OwnerTypeCompany).
		Order("is_primary DESC, created_at ASC").
		First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBankAccountNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &account, nil
}

// SetExternalID records the provider id of an account inside tx. It never
// overwrites an existing mapping; the result reports whether a row was
// written.
func (s *bankAccountService) SetExternalID(tx *gorm.DB, bankAccountID, bankCode, externalID string) (bool, error) {
	if externalID == "" {
		return false, apperrors.WithMessage(apperrors.ErrInvalidInput, "external id is required")
	}

	mapping := &models.BankAccountExternalID{
		BankAccountID: bankAccountID,
		BankCode:      bankCode,
		ExternalID:    externalID,
	}
	result := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "bank_account_id"}, {Name: "bank_code"}},
		DoNothing: true,
	}).Create(mapping)
	if result.Error != nil {
		return false, apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	return result.RowsAffected == 1, nil
}
