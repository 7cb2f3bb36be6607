package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound = errors.New("resource not found")

	// Usage errors detected when observations are supplied
	ErrInvalidInput     = errors.New("invalid input")
	ErrDimMismatch      = fmt.Errorf("%w: dimension mismatch", ErrInvalidInput)
	ErrTooFewSamples    = fmt.Errorf("%w: insufficient samples", ErrInvalidInput)
	ErrEmptyInput       = fmt.Errorf("%w: empty input", ErrInvalidInput)
	ErrNonFinite        = fmt.Errorf("%w: non-finite value", ErrInvalidInput)
	ErrNoObservations   = fmt.Errorf("%w: no observations set", ErrInvalidInput)
	ErrInvalidOption    = fmt.Errorf("%w: invalid estimator option", ErrInvalidInput)
	ErrInvalidEmbedding = fmt.Errorf("%w: invalid embedding", ErrInvalidInput)

	// Numerical errors raised while estimating
	ErrNumerical         = errors.New("numerical error")
	ErrNotPositiveDef    = fmt.Errorf("%w: covariance not positive definite", ErrNumerical)
	ErrIllConditioned    = fmt.Errorf("%w: covariance ill-conditioned", ErrNumerical)
	ErrNonPositiveVar    = fmt.Errorf("%w: non-positive variance", ErrNumerical)
	ErrNonFiniteEstimate = fmt.Errorf("%w: non-finite estimate", ErrNumerical)

	// Capability errors
	ErrCapabilityUnavailable = errors.New("capability unavailable")
	ErrNoAnalyticNull        = fmt.Errorf("%w: analytic null distribution", ErrCapabilityUnavailable)
	ErrNoLocalValues         = fmt.Errorf("%w: local values", ErrCapabilityUnavailable)
)

// Error constructors with context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s %s", ErrNotFound, resource, id)
}

func NewInvalidInputError(reason string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(reason, args...))
}

func NewDimMismatchError(what string, got, want int) error {
	return fmt.Errorf("%w: %s has %d, want %d", ErrDimMismatch, what, got, want)
}

func NewTooFewSamplesError(n, min int) error {
	return fmt.Errorf("%w: got %d samples, need more than %d", ErrTooFewSamples, n, min)
}

func NewNumericalError(block string, err error) error {
	return fmt.Errorf("%w (%s)", err, block)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsInvalidInputError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

func IsNumericalError(err error) bool {
	return errors.Is(err, ErrNumerical)
}

func IsCapabilityError(err error) bool {
	return errors.Is(err, ErrCapabilityUnavailable)
}
