package reconcile

import (
	"context"
	"fmt"

	"github.com/avast/retry-go/v4"
	"go.uber.org/zap"
)

// Mutator applies a computed diff to a prefix list in provider-sized
// batches, threading the list version through consecutive calls.
type Mutator struct {
	api  PrefixListAPI
	log  *zap.Logger
	opts Options
}

func NewMutator(api PrefixListAPI, log *zap.Logger, opts Options) *Mutator {
	return &Mutator{api: api, log: log, opts: opts.Normalize()}
}

// Apply pushes the diff to the prefix list. The projected size is checked
// against the list capacity before the first call, so an oversized plan
// fails without touching the list at all. When a later batch fails after
// earlier ones committed, the error is a *PartialApplyError carrying the
// progress made, and none of the committed entries are ever resubmitted.
func (m *Mutator) Apply(ctx context.Context, mapping Mapping, state *PrefixListState, diff Diff) (ApplyResult, error) {
	res := ApplyResult{Version: state.Version}
	if diff.Empty() {
		return res, nil
	}

	projected := state.Total + len(diff.Add) - len(diff.Remove)
	if projected > state.MaxEntries {
		return res, fmt.Errorf("%s needs %d entries but holds at most %d: %w",
			mapping.PrefixListID, projected, state.MaxEntries, ErrCapacityExceeded)
	}

	adds := make([]Entry, 0, len(diff.Add))
	for _, cidr := range diff.Add {
		adds = append(adds, Entry{
			CIDR:        cidr,
			Description: m.opts.ManagedTag + mapping.SecurityGroupID,
		})
	}

	if len(adds) <= m.opts.BatchSize && len(diff.Remove) <= m.opts.BatchSize {
		version, err := m.mutate(ctx, mapping, res.Version, adds, diff.Remove)
		if err != nil {
			return res, err
		}
		res.Added = len(adds)
		res.Removed = len(diff.Remove)
		res.Batches = 1
		res.Version = version
		return res, nil
	}

	// Removals go first so freed slots are available before the adds land.
	for start := 0; start < len(diff.Remove); start += m.opts.BatchSize {
		chunk := diff.Remove[start:min(start+m.opts.BatchSize, len(diff.Remove))]
		version, err := m.mutate(ctx, mapping, res.Version, nil, chunk)
		if err != nil {
			return partial(res, err)
		}
		res.Removed += len(chunk)
		res.Batches++
		res.Version = version
	}
	for start := 0; start < len(adds); start += m.opts.BatchSize {
		chunk := adds[start:min(start+m.opts.BatchSize, len(adds))]
		version, err := m.mutate(ctx, mapping, res.Version, chunk, nil)
		if err != nil {
			return partial(res, err)
		}
		res.Added += len(chunk)
		res.Batches++
		res.Version = version
	}
	return res, nil
}

func (m *Mutator) mutate(ctx context.Context, mapping Mapping, version int64, add []Entry, remove []string) (int64, error) {
	m.log.Debug("modifying prefix list",
		zap.String("prefix_list_id", mapping.PrefixListID),
		zap.Int64("version", version),
		zap.Int("add", len(add)),
		zap.Int("remove", len(remove)),
	)
	return retry.DoWithData(func() (int64, error) {
		return m.api.Mutate(ctx, MutateRequest{
			PrefixListID:   mapping.PrefixListID,
			Region:         mapping.PrefixListRegion,
			CurrentVersion: version,
			Add:            add,
			Remove:         remove,
		})
	}, retryOptions(ctx, m.log, "prefix list modification", m.opts)...)
}

// partial wraps err with the progress made so far. An error on the very
// first batch passes through untouched.
func partial(res ApplyResult, err error) (ApplyResult, error) {
	if res.Batches == 0 {
		return res, err
	}
	return res, &PartialApplyError{
		AddedBefore:   res.Added,
		RemovedBefore: res.Removed,
		BatchesBefore: res.Batches,
		Err:           err,
	}
}
