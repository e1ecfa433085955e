package validator

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

func TestCustomValidators(t *testing.T) {
	v := validator.New()
	RegisterOn(v)

	cases := []struct {
		tag   string
		value string
		ok    bool
	}{
		{"iso4217", "EUR", true},
		{"iso4217", "gbp", true},
		{"iso4217", "EURO", false},
		{"iban", "DE89 3704 0044 0532 0130 00", true},
		{"iban", "LU000019400644750000", false},
		{"bic", "COBADEFFXXX", true},
		{"bic", "NWBKGB2L", true},
		{"bic", "NWBK", false},
		{"filter_property", "AMOUNT", true},
		{"filter_property", "COUNTERPARTY_IBAN", true},
		{"filter_property", "COLOR", false},
		{"filter_operation", "REGEXP", true},
		{"filter_operation", "LIKE", false},
	}
	for _, c := range cases {
		err := v.Var(c.value, c.tag)
		if c.ok {
			assert.NoError(t, err, "%s %q", c.tag, c.value)
		} else {
			assert.Error(t, err, "%s %q", c.tag, c.value)
		}
	}
}
