package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ledgersync/internal/services"
)

// BeneficiaryHandler handles beneficiary registration with the provider.
type BeneficiaryHandler struct {
	syncService services.BeneficiarySyncServicer
}

// NewBeneficiaryHandler creates a new BeneficiaryHandler.
func NewBeneficiaryHandler(syncService services.BeneficiarySyncServicer) *BeneficiaryHandler {
	return &BeneficiaryHandler{syncService: syncService}
}

// SyncBankAccount registers a beneficiary bank account as a provider counterparty
// @Summary     Sync a beneficiary bank account
// @Description Register the account as a provider counterparty unless it already has an external id
// @Tags        beneficiaries
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Beneficiary ID"
// @Param       accountId path string true "Bank account ID"
// @Success     200 {object} services.SyncResult "Sync result"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     404 {object} ErrorResponse "Beneficiary or bank account not found"
// @Failure     502 {object} ErrorResponse "Provider error"
// @Router      /beneficiaries/{id}/bank-accounts/{accountId}/sync [post]
func (h *BeneficiaryHandler) SyncBankAccount(c *gin.Context) {
	beneficiaryID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}
	accountID, err := parsePathID(c, "accountId")
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.syncService.SyncBeneficiary(c.Request.Context(), beneficiaryID, accountID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
