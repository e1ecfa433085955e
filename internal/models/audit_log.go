package models

// ProviderAuditLog records every outbound side effect performed against the
// banking provider, so exactly-once behaviour can be checked after the fact.
type ProviderAuditLog struct {
	Base
	Action       string `gorm:"not null;index" json:"action"`
	BankCode     string `gorm:"not null" json:"bank_code"`
	ResourceType string `gorm:"not null" json:"resource_type"`
	ResourceID   string `gorm:"type:uuid;index" json:"resource_id"`
	ExternalID   string `json:"external_id"`
	Changes      string `json:"changes,omitempty"`
}
