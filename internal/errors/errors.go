// Package errors provides the application error taxonomy for ledgersync.
// Service-layer errors are AppErrors so that handlers, the webhook pipeline
// and the sync CLI can decide uniformly whether a failure is permanent
// (validation, not found) or should be left to upstream redelivery
// (provider, internal).
package errors

import (
	"errors"
	"net/http"
)

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
	kind       Kind
}

// Kind groups error codes into the handling classes used by callers.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindProvider
	KindConfiguration
	KindAuth
)

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Internal != nil {
		return e.Message + ": " + e.Internal.Error()
	}
	return e.Message
}

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Is matches AppErrors by code, so a wrapped or re-messaged sentinel still
// satisfies errors.Is against the original.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Kind returns the handling class of the error.
func (e *AppError) Kind() Kind { return e.kind }

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
		kind:       sentinel.kind,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
		kind:       sentinel.kind,
	}
}

func newError(kind Kind, code, message string, status int) *AppError {
	return &AppError{Code: code, Message: message, StatusCode: status, kind: kind}
}

// KindOf extracts the Kind of err; non-AppErrors are internal.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.kind
	}
	return KindInternal
}

// IsValidation reports whether err is a permanent input/data problem.
func IsValidation(err error) bool { return err != nil && KindOf(err) == KindValidation }

// IsNotFound reports whether err means a required record is absent.
func IsNotFound(err error) bool { return err != nil && KindOf(err) == KindNotFound }

// IsProvider reports whether err came from the banking provider.
func IsProvider(err error) bool { return err != nil && KindOf(err) == KindProvider }

// Authentication errors.
var (
	ErrUnauthorized     = newError(KindAuth, "UNAUTHORIZED", "Authentication required", http.StatusUnauthorized)
	ErrInvalidSignature = newError(KindAuth, "INVALID_SIGNATURE", "Webhook signature is invalid", http.StatusUnauthorized)
)

// Validation errors.
var (
	ErrInvalidInput     = newError(KindValidation, "INVALID_INPUT", "Invalid input", http.StatusBadRequest)
	ErrInvalidIban      = newError(KindValidation, "INVALID_IBAN", "Invalid IBAN", http.StatusBadRequest)
	ErrMissingField     = newError(KindValidation, "MISSING_FIELD", "A required field is missing", http.StatusUnprocessableEntity)
	ErrMalformedPayload = newError(KindValidation, "MALFORMED_PAYLOAD", "Provider payload is malformed", http.StatusBadRequest)
	ErrPayloadTooLarge  = newError(KindValidation, "PAYLOAD_TOO_LARGE", "Request body is too large", http.StatusRequestEntityTooLarge)
)

// Not found errors.
var (
	ErrNotFound            = newError(KindNotFound, "NOT_FOUND", "Resource not found", http.StatusNotFound)
	ErrTransactionNotFound = newError(KindNotFound, "TRANSACTION_NOT_FOUND", "Transaction not found", http.StatusNotFound)
	ErrBankAccountNotFound = newError(KindNotFound, "BANK_ACCOUNT_NOT_FOUND", "Bank account not found", http.StatusNotFound)
	ErrBeneficiaryNotFound = newError(KindNotFound, "BENEFICIARY_NOT_FOUND", "Beneficiary not found", http.StatusNotFound)
	ErrCompanyNotFound     = newError(KindNotFound, "COMPANY_NOT_FOUND", "Company not found", http.StatusNotFound)
	ErrCategoryNotFound    = newError(KindNotFound, "CATEGORY_NOT_FOUND", "Category not found", http.StatusNotFound)
)

// Sync state errors.
var (
	ErrBankAccountNotSynced = newError(KindConflict, "BANK_ACCOUNT_NOT_SYNCED", "Bank account has no provider external id", http.StatusConflict)
	ErrDraftNotPending      = newError(KindConflict, "DRAFT_NOT_PENDING", "Transaction is not a pending payment draft", http.StatusConflict)
	ErrDuplicateCategory    = newError(KindConflict, "DUPLICATE_CATEGORY", "A category with this name already exists", http.StatusConflict)
)

// Provider errors. None of these are retried in-process; the outer delivery
// mechanism redelivers and idempotency absorbs the repeat.
var (
	ErrProviderClient = newError(KindProvider, "PROVIDER_CLIENT_ERROR", "Banking provider rejected the request", http.StatusBadGateway)
	ErrProviderAuth   = newError(KindProvider, "PROVIDER_AUTH_ERROR", "Banking provider authentication failed", http.StatusBadGateway)
	ErrProviderServer = newError(KindProvider, "PROVIDER_SERVER_ERROR", "Banking provider is unavailable", http.StatusBadGateway)
)

// Configuration errors.
var (
	ErrAmbiguousPredicate = newError(KindConfiguration, "AMBIGUOUS_PREDICATE", "More than one predicate claims a filter property", http.StatusInternalServerError)
)

// General errors.
var (
	ErrInternalServer = newError(KindInternal, "INTERNAL_ERROR", "An internal error occurred", http.StatusInternalServerError)
)
