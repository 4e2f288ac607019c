package app

import (
	"errors"
	"testing"

	"github.com/dshills/previewsync/internal/checkbox"
)

func TestOperationError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *OperationError
		expected string
	}{
		{"nil error", nil, ""},
		{"op only", &OperationError{Op: "submit"}, "submit"},
		{"op and target", &OperationError{Op: "edit", Target: "Hello"}, `edit "Hello"`},
		{
			name:     "full error chain",
			err:      &OperationError{Op: "edit", Target: "Hello", Context: "form 0", Err: ErrElementNotFound},
			expected: `edit "Hello" (form 0): element not found`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, expected %q", got, tt.expected)
			}
		})
	}
}

func TestOperationError_WithContext_Nil(t *testing.T) {
	var err *OperationError
	if err.WithContext("context") != nil {
		t.Error("expected nil result for nil receiver")
	}
}

func TestOperationError_Is(t *testing.T) {
	toggle := &checkbox.ToggleError{Ordinal: 4, Count: 2}
	err := NewOperationError("toggle", "", toggle)

	if !errors.Is(err, checkbox.ErrOrdinalOutOfRange) {
		t.Error("expected errors.Is to reach the wrapped sentinel")
	}
	var te *checkbox.ToggleError
	if !errors.As(err, &te) || te.Ordinal != 4 {
		t.Errorf("errors.As = %v, want ordinal 4", te)
	}
	if errors.Is(err, ErrClosed) {
		t.Error("expected errors.Is to not match a different error")
	}
}
