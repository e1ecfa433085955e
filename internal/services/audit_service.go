package services

import (
	"encoding/json"

	"gorm.io/gorm"

	"ledgersync/internal/logger"
	"ledgersync/internal/models"
)

// Audit actions.
const (
	AuditActionCreateCounterparty = "CREATE_COUNTERPARTY"
	AuditActionCreatePaymentDraft = "CREATE_PAYMENT_DRAFT"
)

// auditService handles provider audit log recording.
type auditService struct {
	db *gorm.DB
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db}
}

// Log records a provider side effect. Pass the surrounding transaction as
// tx so the entry commits with the state it describes; nil uses the
// service connection. Errors are logged but never propagate to avoid
// disrupting the main operation.
func (s *auditService) Log(tx *gorm.DB, action, bankCode, resourceType, resourceID, externalID string, changes map[string]any) {
	var changesJSON string
	if changes != nil {
		data, err := json.Marshal(changes)
		if err != nil {
			logger.Get().Errorw("failed to marshal audit log changes", "error", err, "action", action)
			changesJSON = "{}"
		} else {
			changesJSON = string(data)
		}
	}

	entry := &models.ProviderAuditLog{
		Action:       action,
		BankCode:     bankCode,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		ExternalID:   externalID,
		Changes:      changesJSON,
	}

	db := tx
	if db == nil {
		db = s.db
	}
	if err := db.Create(entry).Error; err != nil {
		logger.Get().Errorw("failed to create audit log entry",
			"error", err,
			"action", action,
			"resource_type", resourceType,
			"resource_id", resourceID,
		)
	}
}
