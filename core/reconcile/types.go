package reconcile

import (
	"fmt"
	"strings"
	"time"
)

// Mapping binds a security group to the managed prefix list that mirrors it.
// The two sides may live in different regions.
type Mapping struct {
	// SecurityGroupID is the source security group whose attached network
	// interfaces define the desired membership.
	SecurityGroupID string `json:"security_group_id"`

	// SourceRegion is the region of the security group.
	SourceRegion string `json:"source_region"`

	// PrefixListID is the managed prefix list kept in sync.
	PrefixListID string `json:"prefix_list_id"`

	// PrefixListRegion is the region of the prefix list.
	PrefixListRegion string `json:"prefix_list_region"`
}

// Key returns a stable identity for the mapping, used for log correlation
// and for coalescing concurrent runs of the same mapping.
func (m Mapping) Key() string {
	return m.SecurityGroupID + "@" + m.SourceRegion + "->" + m.PrefixListID + "@" + m.PrefixListRegion
}

// Validate checks that the mapping is well-formed. A malformed mapping fails
// its own run only; it never aborts a batch.
func (m Mapping) Validate() error {
	if !strings.HasPrefix(m.SecurityGroupID, "sg-") {
		return fmt.Errorf("invalid security group id %q", m.SecurityGroupID)
	}
	if !strings.HasPrefix(m.PrefixListID, "pl-") {
		return fmt.Errorf("invalid prefix list id %q", m.PrefixListID)
	}
	if m.SourceRegion == "" {
		return fmt.Errorf("mapping %s is missing a source region", m.SecurityGroupID)
	}
	if m.PrefixListRegion == "" {
		return fmt.Errorf("mapping %s is missing a prefix list region", m.SecurityGroupID)
	}
	return nil
}

// Entry is a single prefix list entry on the wire.
type Entry struct {
	// CIDR is the entry in canonical a.b.c.d/32 form.
	CIDR string `json:"cidr"`

	// Description carries the managed tag plus the source group id.
	Description string `json:"description"`
}

// PrefixListState is a point-in-time snapshot of a managed prefix list.
// Every sync attempt reads a fresh snapshot; state is never carried between
// runs or between conflict retries.
type PrefixListState struct {
	// ID is the prefix list id the snapshot was read from.
	ID string `json:"id"`

	// Version is the optimistic concurrency token required by mutations.
	Version int64 `json:"version"`

	// MaxEntries is the capacity of the prefix list.
	MaxEntries int `json:"max_entries"`

	// Managed holds the entries owned by this system: /32 IPv4 entries
	// carrying the managed description tag, in canonical sorted order.
	Managed []Entry `json:"managed"`

	// Total counts all entries including foreign ones. Capacity projections
	// use this, because the provider counts every entry against MaxEntries.
	Total int `json:"total"`

	// ForeignCount counts entries that are not owned by this system
	// (wrong mask length or unrecognized description). They are reported
	// but never touched.
	ForeignCount int `json:"foreign_count"`
}

// Diff is the pure output of comparing desired membership against the
// managed portion of a prefix list snapshot.
type Diff struct {
	// Add lists CIDRs present in the desired set but missing from the list,
	// sorted lexicographically.
	Add []string `json:"add"`

	// Remove lists managed CIDRs no longer desired, sorted lexicographically.
	// Foreign entries never appear here.
	Remove []string `json:"remove"`
}

// Empty reports whether the diff requires no mutations.
func (d Diff) Empty() bool {
	return len(d.Add) == 0 && len(d.Remove) == 0
}

// MutateRequest is one batched mutation against a prefix list.
type MutateRequest struct {
	// PrefixListID is the target prefix list.
	PrefixListID string

	// Region is the prefix list's region.
	Region string

	// CurrentVersion is the version the mutation is conditioned on.
	CurrentVersion int64

	// Add holds entries to insert, already carrying managed descriptions.
	Add []Entry

	// Remove holds CIDRs to delete.
	Remove []string
}

// ApplyResult summarizes the mutations committed by one apply pass.
type ApplyResult struct {
	// Added is the number of entries inserted.
	Added int `json:"added"`

	// Removed is the number of entries deleted.
	Removed int `json:"removed"`

	// Batches is the number of mutation calls that committed.
	Batches int `json:"batches"`

	// Version is the prefix list version after the last committed call.
	Version int64 `json:"version"`
}

// RunStatus is the terminal status of a sync run.
type RunStatus string

const (
	// StatusSucceeded means the prefix list matches the desired membership.
	StatusSucceeded RunStatus = "succeeded"

	// StatusPartialFailure means some mutations committed before a terminal
	// error; the prefix list is closer to desired but not converged.
	StatusPartialFailure RunStatus = "partial_failure"

	// StatusFailed means the run ended with no (or no further) progress.
	StatusFailed RunStatus = "failed"
)

// Phase names the orchestrator state a run last occupied. A failed outcome
// carries the phase the failure happened in.
type Phase string

const (
	PhaseInit      Phase = "init"
	PhaseResolving Phase = "resolving"
	PhaseReading   Phase = "reading"
	PhaseDiffing   Phase = "diffing"
	PhaseApplying  Phase = "applying"
)

// RunOutcome is the result of syncing a single mapping.
type RunOutcome struct {
	Mapping

	// RunID uniquely identifies this run across logs, reports and archives.
	RunID string `json:"run_id"`

	// Status is the terminal status of the run.
	Status RunStatus `json:"status"`

	// Class categorizes the failure for failed and partial outcomes.
	Class FailureClass `json:"class,omitempty"`

	// Phase is the last state-machine phase the run reached.
	Phase Phase `json:"phase"`

	// Desired is the size of the resolved membership set.
	Desired int `json:"desired"`

	// Current is the number of managed entries found on the last read.
	Current int `json:"current"`

	// Foreign is the number of entries left alone on the last read.
	Foreign int `json:"foreign"`

	// PlannedAdds and PlannedRemoves reflect the last computed diff.
	PlannedAdds    int `json:"planned_adds"`
	PlannedRemoves int `json:"planned_removes"`

	// Added and Removed count mutations actually committed, accumulated
	// across conflict retries.
	Added   int `json:"added"`
	Removed int `json:"removed"`

	// Attempts counts read-diff-apply cycles used (1 when no conflict).
	Attempts int `json:"attempts"`

	// DryRun marks runs that planned but did not mutate.
	DryRun bool `json:"dry_run,omitempty"`

	// Warnings carries non-fatal conditions such as capacity pressure.
	Warnings []string `json:"warnings,omitempty"`

	// Error is the terminal error message for failed and partial outcomes.
	Error string `json:"error,omitempty"`

	// StartedAt and Duration time the run.
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

// Report aggregates one fan-out batch over all registered mappings.
type Report struct {
	// BatchID uniquely identifies the batch.
	BatchID string `json:"batch_id"`

	// StartedAt and Duration time the whole batch.
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`

	// Total is the number of mappings attempted.
	Total int `json:"total"`

	// Succeeded, PartialFailures and Failed count outcomes by status.
	Succeeded       int `json:"succeeded"`
	PartialFailures int `json:"partial_failures"`
	Failed          int `json:"failed"`

	// Outcomes holds the per-mapping results, ordered by mapping key.
	Outcomes []RunOutcome `json:"outcomes"`
}

// Ok reports whether every mapping in the batch converged.
func (r *Report) Ok() bool {
	return r.PartialFailures == 0 && r.Failed == 0
}
