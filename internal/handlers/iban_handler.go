package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ledgersync/internal/iban"
)

// IBANResponse is a parsed IBAN.
type IBANResponse struct {
	IBAN        string `json:"iban"`
	Formatted   string `json:"formatted"`
	CountryCode string `json:"country_code"`
	CheckDigits string `json:"check_digits"`
	BankCode    string `json:"bank_code,omitempty"`
	BranchCode  string `json:"branch_code,omitempty"`
	BBAN        string `json:"bban"`
}

// ValidateIBAN parses an IBAN and returns its components
// @Summary     Validate an IBAN
// @Tags        iban
// @Produce     json
// @Security    BearerAuth
// @Param       iban path string true "IBAN in electronic or display form"
// @Success     200 {object} IBANResponse "Parsed IBAN"
// @Failure     400 {object} ErrorResponse "Invalid IBAN"
// @Router      /iban/{iban} [get]
func ValidateIBAN(c *gin.Context) {
	parsed, err := iban.Parse(c.Param("iban"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, IBANResponse{
		IBAN:        parsed.String(),
		Formatted:   parsed.Format(),
		CountryCode: parsed.CountryCode,
		CheckDigits: parsed.CheckDigits,
		BankCode:    parsed.BankCode,
		BranchCode:  parsed.BranchCode,
		BBAN:        parsed.BBAN,
	})
}
