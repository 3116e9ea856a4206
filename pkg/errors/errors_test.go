package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeNotFound, "workload not found")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if err.Code != ErrCodeNotFound {
		t.Errorf("expected code %s, got %s", ErrCodeNotFound, err.Code)
	}
	if err.Message != "workload not found" {
		t.Errorf("expected message 'workload not found', got %s", err.Message)
	}
	if err.Cause != nil {
		t.Errorf("expected nil cause, got %v", err.Cause)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeApplyFailed, "job creation rejected", cause)

	if err.Code != ErrCodeApplyFailed {
		t.Errorf("expected code %s, got %s", ErrCodeApplyFailed, err.Code)
	}
	if !errors.Is(err, cause) {
		t.Errorf("expected cause to be wrapped")
	}
}

func TestWrapWithContext(t *testing.T) {
	cause := errors.New("deadline exceeded")
	ctx := map[string]any{
		"job":       "my-job",
		"namespace": "default",
	}

	err := WrapWithContext(ErrCodeTimeout, "workload timed out", cause, ctx)

	if err.Code != ErrCodeTimeout {
		t.Errorf("expected code %s, got %s", ErrCodeTimeout, err.Code)
	}
	if err.Context == nil {
		t.Fatal("expected context to be set")
	}
	if err.Context["job"] != "my-job" {
		t.Errorf("expected job to be my-job")
	}
}

func TestError(t *testing.T) {
	tests := []struct {
		name     string
		err      *StructuredError
		expected string
	}{
		{
			name:     "without cause",
			err:      New(ErrCodeNameConflict, "job 'x' already exists"),
			expected: "[NAME_CONFLICT] job 'x' already exists",
		},
		{
			name:     "with cause",
			err:      Wrap(ErrCodeInvalidQuantity, "bad memory spec", errors.New("unparseable")),
			expected: "[INVALID_QUANTITY] bad memory spec: unparseable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestIsCode(t *testing.T) {
	err := New(ErrCodeNameConflict, "conflict")
	wrapped := fmt.Errorf("outer: %w", err)

	if !IsCode(wrapped, ErrCodeNameConflict) {
		t.Error("expected IsCode to match through wrapping")
	}
	if IsCode(wrapped, ErrCodeTimeout) {
		t.Error("expected IsCode to reject a different code")
	}
	if IsCode(errors.New("plain"), ErrCodeInternal) {
		t.Error("expected IsCode to reject a plain error")
	}
}
