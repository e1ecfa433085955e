package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ledgersync/internal/services"
)

// TransactionHandler handles ledger transaction requests.
type TransactionHandler struct {
	ledgerService   services.LedgerServicer
	categoryService services.CategoryServicer
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(ledgerService services.LedgerServicer, categoryService services.CategoryServicer) *TransactionHandler {
	return &TransactionHandler{ledgerService: ledgerService, categoryService: categoryService}
}

// GetTransaction handles retrieving a ledger transaction
// @Summary     Get a transaction
// @Description Get a canonical ledger transaction with its origins and categories
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} map[string]interface{} "Transaction"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [get]
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.ledgerService.GetTransactionByID(c.Request.Context(), id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}

// PreviewClassification evaluates every category against a transaction
// without attaching anything.
// @Summary     Preview classification
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} services.Classification "Matching categories"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id}/classification [get]
func (h *TransactionHandler) PreviewClassification(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.categoryService.PreviewClassification(c.Request.Context(), id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ApplyClassification attaches matching categories to a transaction that
// has none yet.
// @Summary     Apply classification
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} services.Classification "Attached categories"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id}/classification [post]
func (h *TransactionHandler) ApplyClassification(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.categoryService.ApplyClassification(c.Request.Context(), id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
