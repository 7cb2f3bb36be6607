package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorKindsAreDistinct(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		invalid    bool
		numerical  bool
		capability bool
	}{
		{"dim mismatch", NewDimMismatchError("next values", 3, 4), true, false, false},
		{"too few samples", NewTooFewSamplesError(3, 3), true, false, false},
		{"no observations", ErrNoObservations, true, false, false},
		{"not positive definite", NewNumericalError("joint", ErrNotPositiveDef), false, true, false},
		{"ill-conditioned", ErrIllConditioned, false, true, false},
		{"no analytic null", ErrNoAnalyticNull, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("calculator: %w", tt.err)
			if got := IsInvalidInputError(wrapped); got != tt.invalid {
				t.Errorf("IsInvalidInputError = %v, want %v", got, tt.invalid)
			}
			if got := IsNumericalError(wrapped); got != tt.numerical {
				t.Errorf("IsNumericalError = %v, want %v", got, tt.numerical)
			}
			if got := IsCapabilityError(wrapped); got != tt.capability {
				t.Errorf("IsCapabilityError = %v, want %v", got, tt.capability)
			}
		})
	}
}

func TestNumericalErrorKeepsSentinel(t *testing.T) {
	err := NewNumericalError("history block", ErrIllConditioned)
	if !errors.Is(err, ErrIllConditioned) {
		t.Errorf("expected %v to match ErrIllConditioned", err)
	}
}
