package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestSentinelHelpers(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"not found", ErrNotFound, IsNotFound},
		{"validation", ErrValidation, IsValidation},
		{"skipped", ErrSkippedInput, IsSkippedInput},
		{"fetch failed", ErrFetchFailed, IsFetchFailed},
		{"malformed lock", ErrMalformedLock, IsMalformedLock},
		{"empty pool", ErrEmptyPool, IsEmptyPool},
		{"unavailable", ErrUnavailable, IsUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.check(tt.err) {
				t.Errorf("expected helper to match the bare sentinel")
			}
			wrapped := fmt.Errorf("context: %w", tt.err)
			if !tt.check(wrapped) {
				t.Errorf("expected helper to match the wrapped sentinel")
			}
			if tt.check(errors.New(tt.err.Error())) {
				t.Errorf("expected helper not to match an unrelated error with the same text")
			}
			if tt.check(nil) {
				t.Errorf("expected helper to be false for nil")
			}
		})
	}
}
