package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"sg2pl/core/logger"
)

// Orchestrator drives a single mapping through the resolve, read, diff and
// apply phases. Every run is stateless: it starts from a fresh membership
// resolution and prefix list read, so a crashed or failed run leaves nothing
// behind that the next run has to repair.
type Orchestrator struct {
	resolver MembershipResolver
	api      PrefixListAPI
	mutator  *Mutator
	log      *zap.Logger
	opts     Options
}

func NewOrchestrator(resolver MembershipResolver, api PrefixListAPI, log *zap.Logger, opts Options) *Orchestrator {
	opts = opts.Normalize()
	return &Orchestrator{
		resolver: resolver,
		api:      api,
		mutator:  NewMutator(api, log, opts),
		log:      log,
		opts:     opts,
	}
}

// Run syncs one mapping and always returns an outcome, never panics or
// blocks past the run timeout. A version conflict during apply restarts the
// read-diff-apply cycle against fresh state, up to ConflictRetries extra
// passes; mutations committed before the conflict are counted, not redone.
func (o *Orchestrator) Run(ctx context.Context, mapping Mapping, dryRun bool) RunOutcome {
	started := time.Now().UTC()
	out := RunOutcome{
		Mapping:   mapping,
		RunID:     uuid.NewString(),
		Phase:     PhaseInit,
		DryRun:    dryRun,
		StartedAt: started,
	}
	log := logger.WithRun(o.log, out.RunID).With(
		zap.String("security_group_id", mapping.SecurityGroupID),
		zap.String("prefix_list_id", mapping.PrefixListID),
	)

	ctx, cancel := context.WithTimeout(ctx, o.opts.RunTimeout)
	defer cancel()

	err := o.run(ctx, log, mapping, dryRun, &out)
	out.Duration = time.Since(started)

	if err == nil {
		out.Status = StatusSucceeded
		out.Class = ClassNone
		log.Info("sync succeeded",
			zap.Int("added", out.Added),
			zap.Int("removed", out.Removed),
			zap.Int("attempts", out.Attempts),
			zap.Bool("dry_run", out.DryRun),
			zap.Duration("duration", out.Duration),
		)
		return out
	}

	out.Error = err.Error()
	out.Class = Classify(err)
	if out.Added+out.Removed > 0 {
		out.Status = StatusPartialFailure
	} else {
		out.Status = StatusFailed
	}
	log.Error("sync failed",
		zap.String("status", string(out.Status)),
		zap.String("class", string(out.Class)),
		zap.String("phase", string(out.Phase)),
		zap.Int("added", out.Added),
		zap.Int("removed", out.Removed),
		zap.Duration("duration", out.Duration),
		zap.Error(err),
	)
	return out
}

func (o *Orchestrator) run(ctx context.Context, log *zap.Logger, mapping Mapping, dryRun bool, out *RunOutcome) error {
	if err := mapping.Validate(); err != nil {
		return err
	}

	out.Phase = PhaseResolving
	desired, err := o.resolve(ctx, log, mapping)
	if err != nil {
		return err
	}
	out.Desired = len(desired)

	for attempt := 0; attempt <= o.opts.ConflictRetries; attempt++ {
		out.Attempts = attempt + 1

		out.Phase = PhaseReading
		state, err := o.read(ctx, log, mapping)
		if err != nil {
			return err
		}
		out.Current = len(state.Managed)
		out.Foreign = state.ForeignCount

		out.Phase = PhaseDiffing
		diff := ComputeDiff(desired, state.Managed)
		if attempt == 0 {
			out.PlannedAdds = len(diff.Add)
			out.PlannedRemoves = len(diff.Remove)
			o.checkCapacity(log, state, diff, out)
		}

		if diff.Empty() {
			log.Info("prefix list already in sync",
				zap.Int("desired", out.Desired),
				zap.Int("foreign", out.Foreign),
			)
			return nil
		}
		if dryRun {
			log.Info("dry run, mutation skipped",
				zap.Int("planned_adds", len(diff.Add)),
				zap.Int("planned_removes", len(diff.Remove)),
			)
			return nil
		}

		out.Phase = PhaseApplying
		res, err := o.mutator.Apply(ctx, mapping, state, diff)
		out.Added += res.Added
		out.Removed += res.Removed
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrVersionConflict) {
			log.Warn("prefix list changed underneath us, re-reading",
				zap.Int64("stale_version", state.Version),
			)
			continue
		}
		return err
	}
	return fmt.Errorf("version conflict persisted across %d attempts: %w",
		o.opts.ConflictRetries+1, ErrVersionConflict)
}

func (o *Orchestrator) resolve(ctx context.Context, log *zap.Logger, mapping Mapping) ([]string, error) {
	set, err := retry.DoWithData(func() (IPSet, error) {
		return o.resolver.Resolve(ctx, mapping.SecurityGroupID, mapping.SourceRegion)
	}, retryOptions(ctx, log, "membership resolution", o.opts)...)
	if err != nil {
		return nil, err
	}
	return set.CIDRs(), nil
}

func (o *Orchestrator) read(ctx context.Context, log *zap.Logger, mapping Mapping) (*PrefixListState, error) {
	return retry.DoWithData(func() (*PrefixListState, error) {
		return o.api.Read(ctx, mapping.PrefixListID, mapping.PrefixListRegion)
	}, retryOptions(ctx, log, "prefix list read", o.opts)...)
}

func (o *Orchestrator) checkCapacity(log *zap.Logger, state *PrefixListState, diff Diff, out *RunOutcome) {
	if state.MaxEntries <= 0 {
		return
	}
	projected := state.Total + len(diff.Add) - len(diff.Remove)
	if projected*100 >= state.MaxEntries*o.opts.CapacityWarnPercent {
		w := fmt.Sprintf("prefix list will hold %d of %d entries after sync", projected, state.MaxEntries)
		out.Warnings = append(out.Warnings, w)
		log.Warn("prefix list nearing capacity",
			zap.Int("projected", projected),
			zap.Int("max_entries", state.MaxEntries),
		)
	}
}
