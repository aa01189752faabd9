package errors

import (
	"fmt"
	"net/http"
	"testing"
)

func TestWrapKeepsSentinelIdentity(t *testing.T) {
	cause := fmt.Errorf("connection reset")
	err := Wrap(ErrInternalServer, cause)

	if !Is(err, ErrInternalServer) {
		t.Error("wrapped error should match its sentinel")
	}
	if !Is(err, cause) {
		t.Error("wrapped error should expose its internal cause")
	}
	if err.StatusCode != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", err.StatusCode)
	}
}

func TestNewfKeepsKind(t *testing.T) {
	err := Newf(ErrPeriodHasSubmissions, "Cannot delete period: %d submission(s) exist for this period", 3)

	if err.Message != "Cannot delete period: 3 submission(s) exist for this period" {
		t.Errorf("unexpected message %q", err.Message)
	}
	if err.Kind != KindConflict {
		t.Errorf("expected conflict kind, got %s", err.Kind)
	}
	if !Is(err, ErrPeriodHasSubmissions) {
		t.Error("expected error to match sentinel by code")
	}
	if Is(err, ErrDuplicatePeriod) {
		t.Error("error must not match a different sentinel")
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"validation", ErrInvalidStatus, KindValidation},
		{"conflict", ErrOverlappingPeriod, KindConflict},
		{"permission", ErrPermissionDenied, KindPermissionDenied},
		{"wrapped_in_fmt", fmt.Errorf("ctx: %w", ErrPeriodNotFound), KindNotFound},
		{"plain_error", fmt.Errorf("boom"), KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %s, want %s", got, tt.want)
			}
		})
	}
}
