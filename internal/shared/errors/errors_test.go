package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		wantCode string
	}{
		{"validation", NewValidationError("field required", nil), CodeValidation},
		{"configuration", NewConfigurationError("bad cadence", nil), CodeConfiguration},
		{"delivery", NewDeliveryError("smtp refused", nil), CodeDelivery},
		{"not found", NewNotFoundError("no such notification", nil), CodeNotFound},
		{"internal", NewInternalError("database down", nil), CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.wantCode {
				t.Errorf("Code = %v, want %v", tt.err.Code, tt.wantCode)
			}
			if tt.err.Message == "" {
				t.Error("Message is empty")
			}
		})
	}
}

func TestAppErrorError(t *testing.T) {
	plain := NewValidationError("bad input", nil)
	if got, want := plain.Error(), "VALIDATION_ERROR: bad input"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	wrapped := NewInternalError("insert failed", fmt.Errorf("connection reset"))
	if got, want := wrapped.Error(), "INTERNAL_ERROR: insert failed - connection reset"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestUnwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := NewInternalError("wrapper", cause)

	if !stderrors.Is(err, cause) {
		t.Error("errors.Is does not reach the wrapped cause")
	}
}

func TestHasCode(t *testing.T) {
	err := NewNotFoundError("missing", nil)

	if !HasCode(err, CodeNotFound) {
		t.Error("HasCode() = false for matching code")
	}
	if HasCode(err, CodeValidation) {
		t.Error("HasCode() = true for a different code")
	}
	if HasCode(fmt.Errorf("plain error"), CodeNotFound) {
		t.Error("HasCode() = true for a non-AppError")
	}
	if HasCode(nil, CodeNotFound) {
		t.Error("HasCode() = true for nil")
	}

	wrapped := fmt.Errorf("context: %w", err)
	if !HasCode(wrapped, CodeNotFound) {
		t.Error("HasCode() = false for a wrapped AppError")
	}
}
