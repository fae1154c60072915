package analysis

import (
	"errors"
	"fmt"

	"insight-stack/internal/models"
)

// ErrNotFound is returned by warehouse readers when the requested row does
// not exist. Absence of an optional input is not a failure by itself.
var ErrNotFound = errors.New("not found")

// ErrJobCancelled is the cancellation cause attached to a batch job context
// when the caller cancels the job. Work aborted at an admission boundary is
// recorded as retryable so a later resubmission can pick it up.
var ErrJobCancelled = errors.New("cancelled")

// MissingInputError means a mandatory input for one analysis kind is absent
// from the warehouse. It is scoped to that kind; sibling kinds proceed.
type MissingInputError struct {
	VideoID string
	Kind    models.AnalysisKind
	Input   Input
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("missing required input %q for %s analysis of video %s", e.Input, e.Kind, e.VideoID)
}

// ValidationError means the AI service returned structured output that does
// not satisfy the kind's schema (out-of-range score, wrong shape). It is not
// retryable: malformed output will not self-correct without prompt changes.
type ValidationError struct {
	Kind   models.AnalysisKind
	Field  string
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s response field %q: %s", e.Kind, e.Field, e.Detail)
}

// ProviderError wraps a failure from the AI service. Fatal errors (auth,
// quota exhaustion) halt further admission for a batch job; transient errors
// (timeouts, provider-side throttling, 5xx) are retryable by the caller.
type ProviderError struct {
	Op    string
	Fatal bool
	Err   error
}

func (e *ProviderError) Error() string {
	kind := "transient"
	if e.Fatal {
		kind = "fatal"
	}
	return fmt.Sprintf("%s provider error during %s: %v", kind, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// IsFatal reports whether err is a provider failure that should stop a job
// from admitting new work.
func IsFatal(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Fatal
}

// IsRetryable classifies an outcome error. Missing inputs and validation
// failures need new data or new prompts, not a retry; everything else
// (transient provider errors, interrupted admissions, write failures) may
// succeed on resubmission.
func IsRetryable(err error) bool {
	var mi *MissingInputError
	if errors.As(err, &mi) {
		return false
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return false
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return !pe.Fatal
	}
	if errors.Is(err, ErrNotFound) {
		return false
	}
	return true
}
