package models

// FilterProperty names the transaction attribute a filter inspects
type FilterProperty string

const (
	FilterPropertyAmount           FilterProperty = "AMOUNT"
	FilterPropertyCredit           FilterProperty = "CREDIT"
	FilterPropertyCurrency         FilterProperty = "CURRENCY"
	FilterPropertyCounterpartyIBAN FilterProperty = "COUNTERPARTY_IBAN"
	FilterPropertyName             FilterProperty = "NAME"
	FilterPropertyReference        FilterProperty = "REFERENCE"
)

// FilterProperties lists every known property.
var FilterProperties = []FilterProperty{
	FilterPropertyAmount,
	FilterPropertyCredit,
	FilterPropertyCurrency,
	FilterPropertyCounterpartyIBAN,
	FilterPropertyName,
	FilterPropertyReference,
}

// FilterOperation is the comparison a filter applies
type FilterOperation string

const (
	FilterOperationLT     FilterOperation = "LT"
	FilterOperationLTE    FilterOperation = "LTE"
	FilterOperationGT     FilterOperation = "GT"
	FilterOperationGTE    FilterOperation = "GTE"
	FilterOperationEQ     FilterOperation = "EQ"
	FilterOperationRegexp FilterOperation = "REGEXP"
)

// Category is a named, conjunctive rule set used to classify transactions
type Category struct {
	Base
	Name        string           `gorm:"not null;uniqueIndex" json:"name"`
	Description string           `json:"description,omitempty"`
	Propagate   bool             `gorm:"not null" json:"propagate"`
	Filters     []CategoryFilter `gorm:"foreignKey:CategoryID" json:"filters"`
}

// CategoryFilter is one persisted predicate of a category
type CategoryFilter struct {
	Base
	CategoryID    string          `gorm:"type:uuid;not null;index" json:"category_id"`
	PropertyName  FilterProperty  `gorm:"not null" json:"property_name"`
	Operation     FilterOperation `gorm:"not null" json:"operation"`
	PropertyValue string          `gorm:"not null" json:"property_value"`
}

// TransactionCategory attaches a category to a transaction at a position
type TransactionCategory struct {
	Base
	TransactionID string   `gorm:"type:uuid;not null;uniqueIndex:idx_transaction_categories_pair" json:"transaction_id"`
	CategoryID    string   `gorm:"type:uuid;not null;uniqueIndex:idx_transaction_categories_pair" json:"category_id"`
	Position      int      `gorm:"not null" json:"position"`
	Category      Category `gorm:"foreignKey:CategoryID" json:"category"`
}
