package testutil

import (
	"errors"
	"testing"

	apperrors "ledgersync/internal/errors"
)

// AssertAppError fails unless err carries the ledger error code want. The
// message and any wrapped cause are printed on mismatch.
func AssertAppError(t *testing.T, err error, want string) {
	t.Helper()

	appErr := requireAppError(t, err, want)
	if appErr.Code != want {
		t.Errorf("error code = %q, want %q (%v)", appErr.Code, want, appErr)
	}
}

// AssertErrorKind fails unless err belongs to the handling class want, such
// as a provider failure that must be redelivered.
func AssertErrorKind(t *testing.T, err error, want apperrors.Kind) {
	t.Helper()

	appErr := requireAppError(t, err, "")
	if appErr.Kind() != want {
		t.Errorf("error kind = %d, want %d (%s: %v)", appErr.Kind(), want, appErr.Code, appErr)
	}
}

func requireAppError(t *testing.T, err error, code string) *apperrors.AppError {
	t.Helper()

	if err == nil {
		t.Fatalf("expected AppError %s, got nil", code)
	}
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *AppError, got %T: %v", err, err)
	}
	return appErr
}

// AssertNoError stops the test on any service error.
func AssertNoError(t *testing.T, err error) {
	t.Helper()

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
