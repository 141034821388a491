package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Data-consistency errors (fatal: upstream artifacts disagree)
	ErrModelMismatch     = errors.New("model identifiers mismatch between aligned inputs")
	ErrMultipleFixpoints = errors.New("model does not have exactly one stable state")
	ErrNoDefinedNodes    = errors.New("steady state defines no nodes shared with the model")
	ErrNaNInput          = errors.New("input vector contains NaN values")

	// Degenerate-statistic and precondition errors
	ErrEmptyInput     = errors.New("empty input vector")
	ErrTooManyClasses = errors.New("requested class count exceeds distinct values")
	ErrTooFewGroups   = errors.New("fewer than 2 usable groups for test")

	// Sampling errors
	ErrSampleExceedsPopulation = errors.New("sample size exceeds unique candidates")

	// Not found errors
	ErrNotFound         = errors.New("resource not found")
	ErrArtifactNotFound = fmt.Errorf("%w: artifact", ErrNotFound)
	ErrAnalysisNotFound = fmt.Errorf("%w: analysis", ErrNotFound)
)

// Error constructors with context

// NewModelMismatchError reports a key present in one aligned input but not another.
func NewModelMismatchError(key ModelID, present, missing string) error {
	return fmt.Errorf("%w: model %s present in %s but missing from %s",
		ErrModelMismatch, key, present, missing)
}

// NewTooManyClassesError reports a clustering request with k above the distinct count.
func NewTooManyClassesError(k, distinct int) error {
	return fmt.Errorf("%w: k=%d but only %d distinct values", ErrTooManyClasses, k, distinct)
}

// NewSampleSizeError reports a sample request larger than the candidate pool.
func NewSampleSizeError(requested, available int) error {
	return fmt.Errorf("%w: requested %d, available %d",
		ErrSampleExceedsPopulation, requested, available)
}

func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

// Error checking helpers

func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConsistencyError reports whether err stems from misaligned upstream artifacts.
func IsConsistencyError(err error) bool {
	return errors.Is(err, ErrModelMismatch) ||
		errors.Is(err, ErrMultipleFixpoints) ||
		errors.Is(err, ErrNaNInput)
}

// IsPreconditionError reports whether err stems from a violated test precondition.
func IsPreconditionError(err error) bool {
	return errors.Is(err, ErrEmptyInput) ||
		errors.Is(err, ErrTooManyClasses) ||
		errors.Is(err, ErrTooFewGroups) ||
		errors.Is(err, ErrSampleExceedsPopulation)
}
