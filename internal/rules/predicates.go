package rules

import (
	"regexp"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/shopspring/decimal"

	"ledgersync/internal/iban"
	"ledgersync/internal/models"
)

type amountPredicate struct{}

func (amountPredicate) Property() models.FilterProperty { return models.FilterPropertyAmount }

func (amountPredicate) Applies(f models.CategoryFilter, tx *models.Transaction) bool {
	return f.PropertyName == models.FilterPropertyAmount
}

func (amountPredicate) Resolve(f models.CategoryFilter, tx *models.Transaction) bool {
	if !tx.Amount.Valid {
		return false
	}
	want, err := decimal.NewFromString(strings.TrimSpace(f.PropertyValue))
	if err != nil {
		return false
	}
	cmp := tx.Amount.Decimal.Cmp(want)
	switch f.Operation {
	case models.FilterOperationLT:
		return cmp < 0
	case models.FilterOperationLTE:
		return cmp <= 0
	case models.FilterOperationGT:
		return cmp > 0
	case models.FilterOperationGTE:
		return cmp >= 0
	case models.FilterOperationEQ:
		return cmp == 0
	}
	return false
}

type creditPredicate struct{}

func (creditPredicate) Property() models.FilterProperty { return models.FilterPropertyCredit }

func (creditPredicate) Applies(f models.CategoryFilter, tx *models.Transaction) bool {
	return f.PropertyName == models.FilterPropertyCredit
}

func (creditPredicate) Resolve(f models.CategoryFilter, tx *models.Transaction) bool {
	if f.Operation != models.FilterOperationEQ {
		return false
	}
	want, err := strconv.ParseBool(strings.TrimSpace(f.PropertyValue))
	if err != nil {
		return false
	}
	return tx.Credit == want
}

type currencyPredicate struct{}

func (currencyPredicate) Property() models.FilterProperty { return models.FilterPropertyCurrency }

func (currencyPredicate) Applies(f models.CategoryFilter, tx *models.Transaction) bool {
	return f.PropertyName == models.FilterPropertyCurrency
}

func (currencyPredicate) Resolve(f models.CategoryFilter, tx *models.Transaction) bool {
	if f.Operation != models.FilterOperationEQ || tx.Currency == "" {
		return false
	}
	return strings.EqualFold(tx.Currency, strings.TrimSpace(f.PropertyValue))
}

type counterpartyIBANPredicate struct{}

func (counterpartyIBANPredicate) Property() models.FilterProperty {
	return models.FilterPropertyCounterpartyIBAN
}

func (counterpartyIBANPredicate) Applies(f models.CategoryFilter, tx *models.Transaction) bool {
	return f.PropertyName == models.FilterPropertyCounterpartyIBAN
}

func (counterpartyIBANPredicate) Resolve(f models.CategoryFilter, tx *models.Transaction) bool {
	value := iban.Normalize(tx.Counterparty.IBAN)
	if f.Operation == models.FilterOperationEQ {
		return value != "" && value == iban.Normalize(f.PropertyValue)
	}
	return matchString(f, value)
}

// namePredicate matches the merchant name, which only receipts carry.
type namePredicate struct{}

func (namePredicate) Property() models.FilterProperty { return models.FilterPropertyName }

func (namePredicate) Applies(f models.CategoryFilter, tx *models.Transaction) bool {
	if f.PropertyName != models.FilterPropertyName {
		return false
	}
	_, ok := tx.Variant().(*models.ReceiptDetails)
	return ok
}

func (namePredicate) Resolve(f models.CategoryFilter, tx *models.Transaction) bool {
	receipt, ok := tx.Variant().(*models.ReceiptDetails)
	if !ok {
		return false
	}
	return matchString(f, receipt.MerchantName)
}

type referencePredicate struct{}

func (referencePredicate) Property() models.FilterProperty { return models.FilterPropertyReference }

func (referencePredicate) Applies(f models.CategoryFilter, tx *models.Transaction) bool {
	if f.PropertyName != models.FilterPropertyReference {
		return false
	}
	_, ok := tx.Variant().(*models.ReceiptDetails)
	return ok
}

func (referencePredicate) Resolve(f models.CategoryFilter, tx *models.Transaction) bool {
	return matchString(f, tx.Reference)
}

// matchString evaluates EQ and REGEXP for string-valued properties.
func matchString(f models.CategoryFilter, value string) bool {
	switch f.Operation {
	case models.FilterOperationEQ:
		return value == f.PropertyValue
	case models.FilterOperationRegexp:
		re := compile(f.PropertyValue)
		return re != nil && re.MatchString(value)
	}
	return false
}

// maxPatterns bounds the compiled pattern cache; the least recently used
// patterns are evicted first.
const maxPatterns = 1024

var patterns = mustPatternCache(maxPatterns)

func mustPatternCache(size int) *lru.Cache[string, *regexp.Regexp] {
	c, err := lru.New[string, *regexp.Regexp](size)
	if err != nil {
		panic(err)
	}
	return c
}

// compile anchors the pattern so it must match the whole value. Invalid
// patterns are cached as nil.
func compile(pattern string) *regexp.Regexp {
	if re, ok := patterns.Get(pattern); ok {
		return re
	}

	re, err := regexp.Compile(`^(?:` + pattern + `)$`)
	if err != nil {
		re = nil
	}
	patterns.Add(pattern, re)
	return re
}

// ValidPattern reports whether pattern compiles as a filter regexp.
func ValidPattern(pattern string) bool {
	return compile(pattern) != nil
}
