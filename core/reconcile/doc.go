// Package reconcile drives security group membership into managed prefix
// lists: it resolves the private IPv4 addresses behind a security group,
// compares them with the /32 entries the system owns inside the target
// prefix list, and applies the difference in provider-sized batches.
//
// # Architecture
//
// The engine is split into four pieces that compose top-down:
//
// 1. Orchestrator: the per-mapping state machine. One Run moves through
//    resolving, reading, diffing and applying, restarts the cycle on a
//    version conflict, and always terminates with a RunOutcome.
//
// 2. Mutator: batched writes. It pre-checks capacity so an oversized plan
//    never half-lands, chunks adds and removals to the per-call entry limit,
//    threads the list version through consecutive calls, and reports partial
//    progress through *PartialApplyError.
//
// 3. ComputeDiff: a pure function from desired members and currently
//    managed entries to the sorted add/remove plan. Entries not owned by
//    this system never enter the diff and are never removed.
//
// 4. Scheduler: the fan-out layer. It lists every registered mapping, runs
//    them on a bounded worker pool with per-mapping failure isolation, fans
//    outcomes to report sinks and aggregates everything into a Report.
//
// The provider-facing work hides behind the MembershipResolver, PrefixListAPI
// and Registry interfaces; the feature packages supply the real
// implementations and tests supply fakes.
//
// # Usage Example
//
//	orch := reconcile.NewOrchestrator(resolver, prefixLists, log, opts)
//	sched := reconcile.NewScheduler(registry, orch, sinks, log, opts)
//
//	// Sync everything once.
//	report, err := sched.RunAll(ctx, false)
//
//	// Sync a single mapping.
//	outcome := orch.Run(ctx, mapping, false)
//
// # Error Handling
//
// Failures collapse into a small taxonomy (Classify): transient faults are
// retried with jittered exponential backoff, version conflicts restart the
// cycle against fresh state, capacity and not-found errors terminate the run
// immediately. Work committed before a mid-run failure is reported in the
// outcome and never resubmitted.
package reconcile
