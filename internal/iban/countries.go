package iban

type charClass uint8

const (
	numeric charClass = iota
	alpha
	alnum
)

// field is a fixed-width slice of the BBAN.
type field struct {
	offset int
	length int
	class  charClass
}

func (f field) extract(bban string) string {
	if f.length == 0 {
		return ""
	}
	return bban[f.offset : f.offset+f.length]
}

func (f field) matches(bban string) bool {
	if f.offset+f.length > len(bban) {
		return false
	}
	return isClass(f.extract(bban), f.class)
}

type layout struct {
	length int
	bank   field
	branch field
}

// layouts maps ISO 3166 country codes to total IBAN length and the position
// of the national bank and branch identifiers within the BBAN.
var layouts = map[string]layout{
	"AT": {length: 20, bank: field{0, 5, numeric}},
	"BE": {length: 16, bank: field{0, 3, numeric}},
	"CH": {length: 21, bank: field{0, 5, numeric}},
	"CZ": {length: 24, bank: field{0, 4, numeric}},
	"DE": {length: 22, bank: field{0, 8, numeric}},
	"DK": {length: 18, bank: field{0, 4, numeric}},
	"ES": {length: 24, bank: field{0, 4, numeric}, branch: field{4, 4, numeric}},
	"FI": {length: 18, bank: field{0, 3, numeric}},
	"FR": {length: 27, bank: field{0, 5, numeric}, branch: field{5, 5, numeric}},
	"GB": {length: 22, bank: field{0, 4, alpha}, branch: field{4, 6, numeric}},
	"IE": {length: 22, bank: field{0, 4, alpha}, branch: field{4, 6, numeric}},
	"IT": {length: 27, bank: field{1, 5, numeric}, branch: field{6, 5, numeric}},
	"LT": {length: 20, bank: field{0, 5, numeric}},
	"LU": {length: 20, bank: field{0, 3, numeric}},
	"NL": {length: 18, bank: field{0, 4, alpha}},
	"NO": {length: 15, bank: field{0, 4, numeric}},
	"PL": {length: 28, bank: field{0, 3, numeric}, branch: field{3, 4, numeric}},
	"PT": {length: 25, bank: field{0, 4, numeric}, branch: field{4, 4, numeric}},
	"SE": {length: 24, bank: field{0, 3, numeric}},
}

func isClass(s string, class charClass) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		isDigit := c >= '0' && c <= '9'
		isUpper := c >= 'A' && c <= 'Z'
		switch class {
		case numeric:
			if !isDigit {
				return false
			}
		case alpha:
			if !isUpper {
				return false
			}
		case alnum:
			if !isDigit && !isUpper {
				return false
			}
		}
	}
	return true
}
