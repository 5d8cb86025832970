package reconcile

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors adapters translate provider failures into. The engine
// decides retry and reporting behavior from these alone.
var (
	// ErrNotFound means the security group, prefix list or mapping record
	// no longer exists.
	ErrNotFound = errors.New("resource not found")

	// ErrCapacityExceeded means the projected entry count does not fit the
	// prefix list. It is terminal: the list is never resized automatically.
	ErrCapacityExceeded = errors.New("prefix list capacity exceeded")

	// ErrVersionConflict means the prefix list changed underneath the run.
	// The orchestrator reacts with a bounded re-read/re-diff/re-apply cycle.
	ErrVersionConflict = errors.New("prefix list version conflict")

	// ErrRateLimited means the provider rejected the request for rate
	// reasons; retried with exponential backoff and jitter.
	ErrRateLimited = errors.New("request rate limited")

	// ErrUpstreamUnavailable means a transient provider or transport fault.
	ErrUpstreamUnavailable = errors.New("upstream service unavailable")
)

// PartialApplyError reports a mutation failure after one or more sub-batches
// already committed. Committed work is never resubmitted; the next
// read-diff cycle recomputes only the remainder.
type PartialApplyError struct {
	// AddedBefore and RemovedBefore count entries committed before the failure.
	AddedBefore   int
	RemovedBefore int

	// BatchesBefore counts the mutation calls that committed.
	BatchesBefore int

	// Err is the failure that stopped the apply.
	Err error
}

func (e *PartialApplyError) Error() string {
	return fmt.Sprintf("partial apply: %d adds and %d removes committed over %d batches before failure: %v",
		e.AddedBefore, e.RemovedBefore, e.BatchesBefore, e.Err)
}

func (e *PartialApplyError) Unwrap() error {
	return e.Err
}

// FailureClass buckets run failures for reporting.
type FailureClass string

const (
	ClassNone      FailureClass = ""
	ClassTransient FailureClass = "transient"
	ClassConflict  FailureClass = "conflict"
	ClassCapacity  FailureClass = "capacity"
	ClassNotFound  FailureClass = "not_found"
	ClassUnknown   FailureClass = "unknown"
)

// Classify maps any error to its failure class. A PartialApplyError is
// classified by its cause, since errors.Is walks through Unwrap.
func Classify(err error) FailureClass {
	switch {
	case err == nil:
		return ClassNone
	case errors.Is(err, ErrVersionConflict):
		return ClassConflict
	case errors.Is(err, ErrCapacityExceeded):
		return ClassCapacity
	case errors.Is(err, ErrNotFound):
		return ClassNotFound
	case errors.Is(err, ErrRateLimited),
		errors.Is(err, ErrUpstreamUnavailable),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return ClassTransient
	default:
		return ClassUnknown
	}
}

// IsRetryable reports whether an operation may be retried in place.
// Version conflicts are deliberately excluded: they need a fresh read and
// diff, not a blind resend.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrUpstreamUnavailable)
}
