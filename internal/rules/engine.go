// Package rules classifies ledger transactions into categories by
// evaluating their persisted filters. Each filter property is owned by
// exactly one predicate, looked up through an explicit dispatch table.
package rules

import (
	"fmt"

	apperrors "ledgersync/internal/errors"
	"ledgersync/internal/models"
)

// Predicate evaluates filters for a single property.
type Predicate interface {
	// Property is the filter property this predicate owns.
	Property() models.FilterProperty
	// Applies reports whether the predicate can evaluate f against tx,
	// including any subtype restriction.
	Applies(f models.CategoryFilter, tx *models.Transaction) bool
	// Resolve evaluates f against tx. Unsupported operations yield false.
	Resolve(f models.CategoryFilter, tx *models.Transaction) bool
}

// Engine dispatches filters to their owning predicate.
type Engine struct {
	predicates map[models.FilterProperty]Predicate
}

// NewEngine builds an engine from preds. Two predicates claiming the same
// property is a configuration error.
func NewEngine(preds ...Predicate) (*Engine, error) {
	e := &Engine{predicates: make(map[models.FilterProperty]Predicate, len(preds))}
	for _, p := range preds {
		if existing, ok := e.predicates[p.Property()]; ok {
			return nil, apperrors.Wrap(apperrors.ErrAmbiguousPredicate,
				fmt.Errorf("property %s claimed by %T and %T", p.Property(), existing, p))
		}
		e.predicates[p.Property()] = p
	}
	return e, nil
}

// Default returns an engine with the built-in predicates for every
// filter property.
func Default() *Engine {
	e, err := NewEngine(DefaultPredicates()...)
	if err != nil {
		panic(err)
	}
	return e
}

// DefaultPredicates returns one predicate per known filter property.
func DefaultPredicates() []Predicate {
	return []Predicate{
		amountPredicate{},
		creditPredicate{},
		currencyPredicate{},
		counterpartyIBANPredicate{},
		namePredicate{},
		referencePredicate{},
	}
}

// Owner returns the predicate registered for property.
func (e *Engine) Owner(property models.FilterProperty) (Predicate, bool) {
	p, ok := e.predicates[property]
	return p, ok
}

// Evaluate resolves a single filter. A filter no predicate owns, or one
// whose predicate does not apply to tx, evaluates false.
func (e *Engine) Evaluate(f models.CategoryFilter, tx *models.Transaction) bool {
	p, ok := e.predicates[f.PropertyName]
	if !ok || !p.Applies(f, tx) {
		return false
	}
	return p.Resolve(f, tx)
}

// Matches reports whether every filter of c resolves true. A category
// without filters matches nothing.
func (e *Engine) Matches(c *models.Category, tx *models.Transaction) bool {
	if len(c.Filters) == 0 {
		return false
	}
	for _, f := range c.Filters {
		if !e.Evaluate(f, tx) {
			return false
		}
	}
	return true
}

// Classify returns the categories matching tx, preserving input order.
func (e *Engine) Classify(categories []models.Category, tx *models.Transaction) []models.Category {
	var matched []models.Category
	for i := range categories {
		if e.Matches(&categories[i], tx) {
			matched = append(matched, categories[i])
		}
	}
	return matched
}

// Supports reports whether op is a valid operation for property.
func Supports(property models.FilterProperty, op models.FilterOperation) bool {
	for _, candidate := range operations[property] {
		if candidate == op {
			return true
		}
	}
	return false
}

// Operations lists the valid operations for property.
func Operations(property models.FilterProperty) []models.FilterOperation {
	return operations[property]
}

var operations = map[models.FilterProperty][]models.FilterOperation{
	models.FilterPropertyAmount: {
		models.FilterOperationLT, models.FilterOperationLTE,
		models.FilterOperationGT, models.FilterOperationGTE,
		models.FilterOperationEQ,
	},
	models.FilterPropertyCredit:           {models.FilterOperationEQ},
	models.FilterPropertyCurrency:         {models.FilterOperationEQ},
	models.FilterPropertyCounterpartyIBAN: {models.FilterOperationEQ, models.FilterOperationRegexp},
	models.FilterPropertyName:             {models.FilterOperationEQ, models.FilterOperationRegexp},
	models.FilterPropertyReference:        {models.FilterOperationEQ, models.FilterOperationRegexp},
}
