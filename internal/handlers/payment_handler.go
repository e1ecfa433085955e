package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "ledgersync/internal/errors"
	"ledgersync/internal/services"
)

const dueDateLayout = "2006-01-02"

// PaymentHandler handles locally originated payment drafts.
type PaymentHandler struct {
	ledgerService services.LedgerServicer
	draftService  services.PaymentDraftServicer
	bankCode      string
	now           func() time.Time
}

// NewPaymentHandler creates a new PaymentHandler for drafts paid through bankCode.
func NewPaymentHandler(ledgerService services.LedgerServicer, draftService services.PaymentDraftServicer, bankCode string) *PaymentHandler {
	return &PaymentHandler{
		ledgerService: ledgerService,
		draftService:  draftService,
		bankCode:      bankCode,
		now:           time.Now,
	}
}

// CreateDraftRequest represents the request payload for recording a payment draft
type CreateDraftRequest struct {
	CompanyID                string          `json:"company_id" binding:"required,uuid"`
	BeneficiaryID            string          `json:"beneficiary_id" binding:"required,uuid"`
	BeneficiaryBankAccountID *string         `json:"beneficiary_bank_account_id" binding:"omitempty,uuid"`
	InvoiceKey               string          `json:"invoice_key" binding:"required,max=64"`
	OrderRef                 string          `json:"order_ref" binding:"max=64"`
	Amount                   decimal.Decimal `json:"amount" swaggertype:"string"`
	Currency                 string          `json:"currency" binding:"required,iso4217"`
	DueDate                  *string         `json:"due_date"`
}

// CreateDraft records a payment intent for an invoice
// @Summary     Record a payment draft
// @Description Store a local payment intent; it is submitted to the provider later
// @Tags        payments
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateDraftRequest true "Draft details"
// @Success     201 {object} map[string]interface{} "Draft recorded"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Company or beneficiary not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /payments/drafts [post]
func (h *PaymentHandler) CreateDraft(c *gin.Context) {
	var req CreateDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	var dueDate *time.Time
	if req.DueDate != nil && *req.DueDate != "" {
		parsed, err := time.Parse(dueDateLayout, *req.DueDate)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "due_date must be YYYY-MM-DD"))
			return
		}
		dueDate = &parsed
	}

	draft, err := h.ledgerService.RecordDraft(c.Request.Context(), services.DraftInput{
		BankCode:                 h.bankCode,
		CompanyID:                req.CompanyID,
		BeneficiaryID:            req.BeneficiaryID,
		BeneficiaryBankAccountID: req.BeneficiaryBankAccountID,
		InvoiceKey:               req.InvoiceKey,
		OrderRef:                 req.OrderRef,
		Amount:                   req.Amount,
		Currency:                 req.Currency,
		DueDate:                  dueDate,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"transaction": draft})
}

// SubmitDraft schedules a recorded draft with the provider
// @Summary     Submit a payment draft
// @Description Create the provider payment draft for a recorded invoice payment
// @Tags        payments
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} services.DraftResult "Draft processed"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     409 {object} ErrorResponse "Not a pending draft or accounts not synced"
// @Failure     502 {object} ErrorResponse "Provider error"
// @Router      /payments/drafts/{id}/submit [post]
func (h *PaymentHandler) SubmitDraft(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.draftService.ProcessDraft(c.Request.Context(), id, h.now())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ProcessDue submits every pending draft whose schedule date has come
// @Summary     Process due drafts
// @Tags        payments
// @Produce     json
// @Security    BearerAuth
// @Param       batch_size query int false "Drafts loaded per page" default(50)
// @Success     200 {object} services.BatchReport "Batch report"
// @Failure     400 {object} ErrorResponse "Invalid batch size"
// @Router      /payments/drafts/process [post]
func (h *PaymentHandler) ProcessDue(c *gin.Context) {
	batchSize := 50
	if raw := c.Query("batch_size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "batch_size must be between 1 and 500"))
			return
		}
		batchSize = n
	}

	report, err := h.draftService.ProcessDue(c.Request.Context(), h.now(), batchSize)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}
