package services

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	apperrors "ledgersync/internal/errors"
	"ledgersync/internal/lock"
	"ledgersync/internal/logger"
	"ledgersync/internal/models"
	"ledgersync/internal/pagination"
	"ledgersync/internal/provider"
)

const (
	maxReferenceLength = 35
	scheduleDateLayout = "2006-01-02"
)

// paymentDraftService submits local invoice drafts to the provider as
// scheduled payment drafts.
type paymentDraftService struct {
	db       *gorm.DB
	api      provider.API
	locker   lock.Locker
	accounts BankAccountServicer
	audit    AuditServicer
	bankCode string
	leadDays int
	log      *zap.SugaredLogger
}

// NewPaymentDraftService creates a new PaymentDraftServicer. Drafts are
// scheduled leadDays before their due date.
func NewPaymentDraftService(db *gorm.DB, api provider.API, locker lock.Locker, accounts BankAccountServicer, audit AuditServicer, bankCode string, leadDays int) PaymentDraftServicer {
	return &paymentDraftService{
		db:       db,
		api:      api,
		locker:   locker,
		accounts: accounts,
		audit:    audit,
		bankCode: strings.ToUpper(bankCode),
		leadDays: leadDays,
		log:      logger.Named("payment-draft"),
	}
}

// ScheduleByDueDate returns the calendar day leadDays before dueDate, or
// nil when that day is already behind now. Drafts are never scheduled late.
func ScheduleByDueDate(now, dueDate time.Time, leadDays int) *time.Time {
	scheduled := calendarDay(dueDate).AddDate(0, 0, -leadDays)
	if scheduled.Before(calendarDay(now)) {
		return nil
	}
	return &scheduled
}

func (s *paymentDraftService) ScheduleByDueDate(now, dueDate time.Time, leadDays int) *time.Time {
	return ScheduleByDueDate(now, dueDate, leadDays)
}

func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// InvoiceReference derives the payment reference shown to the beneficiary
// from an invoice key.
func InvoiceReference(invoiceKey string) string {
	var b strings.Builder
	b.WriteString("INV ")
	for _, r := range invoiceKey {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9',
			r == ' ', r == '-', r == '/':
			b.WriteRune(r)
		}
	}
	ref := strings.TrimSpace(b.String())
	if len(ref) > maxReferenceLength {
		ref = strings.TrimSpace(ref[:maxReferenceLength])
	}
	return ref
}

// ProcessDraft submits one pending draft. A draft that already carries a
// provider draft id is reported as done without calling the provider.
func (s *paymentDraftService) ProcessDraft(ctx context.Context, transactionID string, now time.Time) (*DraftResult, error) {
	log := s.log.With("transaction_id", transactionID, "bank_code", s.bankCode)

	var result *DraftResult
	err := s.locker.WithLock(ctx, lock.Key("payment-draft", transactionID), func(ctx context.Context) error {
		transaction, err := loadTransaction(s.db.WithContext(ctx), transactionID)
		if err != nil {
			return err
		}
		if transaction.ProviderDraftID != nil {
			result = &DraftResult{
				TransactionID:     transaction.ID,
				Outcome:           OutcomeAlreadyDone,
				ProviderDraftID:   *transaction.ProviderDraftID,
				ProviderPaymentID: stringValue(transaction.ProviderPaymentID),
			}
			return nil
		}
		if !transaction.IsPendingDraft() || transaction.Invoice == nil {
			return apperrors.ErrDraftNotPending
		}
		invoice := transaction.Invoice

		debtorID, err := s.providerAccountID(ctx, transaction.AccountID, "debtor")
		if err != nil {
			return err
		}
		receiverID, err := s.providerAccountID(ctx, invoice.BeneficiaryBankAccountID, "beneficiary")
		if err != nil {
			return err
		}

		schedule := calendarDay(now)
		if invoice.DueDate != nil {
			due := ScheduleByDueDate(now, *invoice.DueDate, s.leadDays)
			if due == nil {
				log.Infow("due date too close, draft not scheduled", "due_date", invoice.DueDate.Format(scheduleDateLayout))
				result = &DraftResult{TransactionID: transaction.ID, Outcome: OutcomeNotScheduled}
				return nil
			}
			schedule = *due
		}

		draft, err := s.api.CreatePaymentDraft(ctx, provider.PaymentDraftRequest{
			ScheduleFor: schedule.Format(scheduleDateLayout),
			Title:       "Invoice " + invoice.InvoiceKey,
			Payments: []provider.DraftPayment{{
				AccountID: debtorID,
				Amount:    transaction.Amount.Decimal,
				Currency:  transaction.Currency,
				Reference: transaction.Reference,
				Receiver:  provider.Receiver{CounterpartyID: receiverID},
				RequestID: stringValue(transaction.RequestID),
			}},
		})
		if err != nil {
			return err
		}

		var paymentID string
		if len(draft.Payments) > 0 {
			paymentID = draft.Payments[0].ID
		} else {
			log.Warnw("provider returned no payment ids, acknowledgement will match on request id only", "provider_draft_id", draft.ID)
		}

		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			updates := map[string]any{
				"credit":            false,
				"failure":           false,
				"provider_draft_id": draft.ID,
			}
			if paymentID != "" {
				updates["provider_payment_id"] = paymentID
			}
			if err := tx.Model(&models.Transaction{}).Where("id = ?", transaction.ID).Updates(updates).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			s.audit.Log(tx, AuditActionCreatePaymentDraft, s.bankCode, "transaction", transaction.ID, draft.ID, map[string]any{
				"schedule_for": schedule.Format(scheduleDateLayout),
				"payment_id":   paymentID,
				"amount":       transaction.Amount.Decimal.String(),
				"currency":     transaction.Currency,
				"reference":    transaction.Reference,
			})
			return nil
		})
		if err != nil {
			return err
		}

		result = &DraftResult{
			TransactionID:     transaction.ID,
			Outcome:           OutcomeSubmitted,
			ProviderDraftID:   draft.ID,
			ProviderPaymentID: paymentID,
			ScheduleFor:       &schedule,
		}
		return nil
	})
	if err != nil {
		log.Warnw("payment draft not submitted", "error", err)
		return nil, err
	}

	log.Infow("payment draft processed", "outcome", result.Outcome, "provider_draft_id", result.ProviderDraftID)
	return result, nil
}

// providerAccountID returns the provider id of a local account, failing
// with ErrBankAccountNotSynced when the account was never synchronised.
func (s *paymentDraftService) providerAccountID(ctx context.Context, accountID *string, side string) (string, error) {
	if accountID == nil {
		return "", apperrors.WithMessage(apperrors.ErrBankAccountNotFound, side+" bank account is not set")
	}
	account, err := s.accounts.GetBankAccountByID(ctx, *accountID)
	if err != nil {
		return "", err
	}
	externalID, ok := account.ExternalID(s.bankCode)
	if !ok {
		return "", apperrors.WithMessage(apperrors.ErrBankAccountNotSynced, side+" bank account has no provider id for "+s.bankCode)
	}
	return externalID, nil
}

// ProcessDue walks every pending draft of this provider and processes it.
// Failures are recorded per draft and do not stop the run.
func (s *paymentDraftService) ProcessDue(ctx context.Context, now time.Time, batchSize int) (*BatchReport, error) {
	report := &BatchReport{Results: []DraftResult{}}

	query := s.db.WithContext(ctx).Model(&models.Transaction{}).
		Select("id").
		Where("bank_code = ? AND state = ? AND kind = ? AND provider_draft_id IS NULL",
			s.bankCode, models.TransactionStateDraft, models.TransactionKindInvoice)

	err := pagination.Each(query, batchSize, func(t models.Transaction) string { return t.ID }, func(page []models.Transaction) error {
		for _, t := range page {
			if err := ctx.Err(); err != nil {
				return err
			}
			report.Processed++
			result, err := s.ProcessDraft(ctx, t.ID, now)
			if err != nil {
				report.Failed++
				report.Results = append(report.Results, DraftResult{
					TransactionID: t.ID,
					Outcome:       OutcomeFailed,
					Error:         err.Error(),
				})
				continue
			}
			switch result.Outcome {
			case OutcomeSubmitted:
				report.Submitted++
			default:
				report.Skipped++
			}
			report.Results = append(report.Results, *result)
		}
		return nil
	})
	if err != nil {
		return report, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.log.Infow("payment draft run finished",
		"processed", report.Processed,
		"submitted", report.Submitted,
		"skipped", report.Skipped,
		"failed", report.Failed,
	)
	return report, nil
}
