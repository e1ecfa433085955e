// Package iban parses, validates and formats International Bank Account
// Numbers. Validation is ISO 7064 MOD-97-10 plus a per-country layout table
// that also locates the national bank and branch codes inside the BBAN.
package iban

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	apperrors "ledgersync/internal/errors"
)

// Reasons wrapped inside apperrors.ErrInvalidIban.
var (
	ErrChecksum           = errors.New("checksum mismatch")
	ErrUnsupportedCountry = errors.New("unsupported country")
	ErrLength             = errors.New("length does not match country")
	ErrStructure          = errors.New("malformed account structure")
)

// IBAN is a parsed account identifier. The zero value is not valid; obtain
// one through Parse.
type IBAN struct {
	CountryCode string
	CheckDigits string
	BankCode    string
	BranchCode  string
	BBAN        string
}

// String returns the electronic form (no spaces).
func (i IBAN) String() string {
	return i.CountryCode + i.CheckDigits + i.BBAN
}

// Format returns the display form: blocks of four characters separated by
// single spaces.
func (i IBAN) Format() string {
	return group(i.String())
}

// Parse normalises s, validates it and returns its components.
func Parse(s string) (IBAN, error) {
	code := Normalize(s)
	if len(code) < 5 {
		return IBAN{}, invalid(ErrLength, code)
	}

	country := code[:2]
	l, ok := layouts[country]
	if !ok {
		return IBAN{}, invalid(ErrUnsupportedCountry, code)
	}
	if len(code) != l.length {
		return IBAN{}, invalid(ErrLength, code)
	}
	if !isClass(code[2:4], numeric) {
		return IBAN{}, invalid(ErrStructure, code)
	}

	bban := code[4:]
	if !isClass(bban, alnum) || !l.bank.matches(bban) || (l.branch.length > 0 && !l.branch.matches(bban)) {
		return IBAN{}, invalid(ErrStructure, code)
	}

	if mod97(code) != 1 {
		return IBAN{}, invalid(ErrChecksum, code)
	}

	return IBAN{
		CountryCode: country,
		CheckDigits: code[2:4],
		BankCode:    l.bank.extract(bban),
		BranchCode:  l.branch.extract(bban),
		BBAN:        bban,
	}, nil
}

// Validate reports whether s is a valid IBAN for a supported country.
func Validate(s string) error {
	_, err := Parse(s)
	return err
}

// Format validates s and returns its display form.
func Format(s string) (string, error) {
	i, err := Parse(s)
	if err != nil {
		return "", err
	}
	return i.Format(), nil
}

// Normalize strips whitespace and upper-cases s. It does not validate.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r', '-':
			continue
		}
		if r >= 'a' && r <= 'z' {
			r -= 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Supported reports whether the country has a layout entry.
func Supported(country string) bool {
	_, ok := layouts[strings.ToUpper(country)]
	return ok
}

// ExpectedLength returns the full IBAN length for country.
func ExpectedLength(country string) (int, bool) {
	l, ok := layouts[strings.ToUpper(country)]
	return l.length, ok
}

// mod97 moves the first four characters to the end, expands letters to
// A=10 … Z=35 and returns the remainder modulo 97.
func mod97(code string) int64 {
	rearranged := code[4:] + code[:4]

	var digits strings.Builder
	digits.Grow(len(rearranged) * 2)
	for _, r := range rearranged {
		switch {
		case r >= '0' && r <= '9':
			digits.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			fmt.Fprintf(&digits, "%d", r-'A'+10)
		default:
			return -1
		}
	}

	n, ok := new(big.Int).SetString(digits.String(), 10)
	if !ok {
		return -1
	}
	return new(big.Int).Mod(n, big.NewInt(97)).Int64()
}

func group(code string) string {
	var b strings.Builder
	for i, r := range code {
		if i > 0 && i%4 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func invalid(reason error, code string) error {
	return apperrors.Wrap(apperrors.ErrInvalidIban, fmt.Errorf("%w: %q", reason, code))
}
