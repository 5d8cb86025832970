package reconcile

import (
	"context"
)

// MembershipResolver resolves the desired membership of a mapping: the set of
// private IPv4 addresses of every network interface attached to the security
// group. Implementations must drain all result pages and return ErrNotFound
// when the group no longer exists, so a vanished group fails its run instead
// of silently draining the prefix list.
type MembershipResolver interface {
	Resolve(ctx context.Context, securityGroupID, region string) (IPSet, error)
}

// PrefixListAPI is the engine's view of a managed prefix list provider.
// Read returns a fresh snapshot; Mutate applies one batched change
// conditioned on a version and returns the version it produced.
// Implementations translate provider errors into the package sentinels
// (ErrNotFound, ErrVersionConflict, ErrCapacityExceeded, ErrRateLimited,
// ErrUpstreamUnavailable); the engine never inspects provider error types.
type PrefixListAPI interface {
	Read(ctx context.Context, prefixListID, region string) (*PrefixListState, error)
	Mutate(ctx context.Context, req MutateRequest) (int64, error)
}

// Registry enumerates the mappings a batch should sync. A Registry failure
// aborts the batch before any workers start.
type Registry interface {
	ListMappings(ctx context.Context) ([]Mapping, error)
}

// ReportSink receives the outcome of every finished run. Sink errors are
// logged by the caller and never influence run status.
type ReportSink interface {
	Report(ctx context.Context, outcome RunOutcome) error
}

// SummarySink is an optional upgrade for sinks that also want the batch
// aggregate. The scheduler feeds it after all runs complete.
type SummarySink interface {
	ReportSummary(ctx context.Context, report *Report) error
}
