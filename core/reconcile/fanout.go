package reconcile

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Runner executes a single mapping run. *Orchestrator is the production
// implementation.
type Runner interface {
	Run(ctx context.Context, mapping Mapping, dryRun bool) RunOutcome
}

// Scheduler fans a batch out over every registered mapping with a bounded
// worker pool. Mappings fail independently: one bad mapping never stops the
// others, and the aggregate report carries every outcome.
type Scheduler struct {
	registry Registry
	runner   Runner
	sinks    []ReportSink
	log      *zap.Logger
	opts     Options
	group    singleflight.Group
}

func NewScheduler(registry Registry, runner Runner, sinks []ReportSink, log *zap.Logger, opts Options) *Scheduler {
	return &Scheduler{
		registry: registry,
		runner:   runner,
		sinks:    sinks,
		log:      log,
		opts:     opts.Normalize(),
	}
}

// RunAll syncs every registered mapping and returns the aggregate report.
// It fails outright only when the registry itself cannot be listed.
// Overlapping batches (a daemon tick racing a manual trigger) coalesce on a
// per-mapping basis instead of double-mutating the same prefix list.
func (s *Scheduler) RunAll(ctx context.Context, dryRun bool) (*Report, error) {
	mappings, err := s.registry.ListMappings(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing mappings: %w", err)
	}

	report := &Report{
		BatchID:   uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Total:     len(mappings),
	}
	log := s.log.With(zap.String("batch_id", report.BatchID))
	log.Info("sync batch starting",
		zap.Int("mappings", len(mappings)),
		zap.Bool("dry_run", dryRun),
	)

	jobs := make(chan Mapping, len(mappings))
	results := make(chan RunOutcome, len(mappings))

	var wg sync.WaitGroup
	for i := 0; i < min(s.opts.Concurrency, len(mappings)); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for m := range jobs {
				results <- s.runOne(ctx, m, dryRun)
			}
		}()
	}
	for _, m := range mappings {
		jobs <- m
	}
	close(jobs)
	wg.Wait()
	close(results)

	for out := range results {
		report.Outcomes = append(report.Outcomes, out)
		switch out.Status {
		case StatusSucceeded:
			report.Succeeded++
		case StatusPartialFailure:
			report.PartialFailures++
		default:
			report.Failed++
		}
	}
	sort.Slice(report.Outcomes, func(i, j int) bool {
		return report.Outcomes[i].Key() < report.Outcomes[j].Key()
	})
	report.Duration = time.Since(report.StartedAt)

	s.summarize(ctx, report)
	log.Info("sync batch finished",
		zap.Int("succeeded", report.Succeeded),
		zap.Int("partial_failures", report.PartialFailures),
		zap.Int("failed", report.Failed),
		zap.Duration("duration", report.Duration),
	)
	return report, nil
}

// runOne executes a mapping behind a singleflight key so concurrent batches
// share one run instead of racing each other on the same prefix list. Sink
// delivery happens inside the shared call, once per run.
func (s *Scheduler) runOne(ctx context.Context, m Mapping, dryRun bool) RunOutcome {
	key := m.Key()
	if dryRun {
		key += "#dry"
	}
	v, _, shared := s.group.Do(key, func() (interface{}, error) {
		out := s.runner.Run(ctx, m, dryRun)
		s.deliver(ctx, out)
		return out, nil
	})
	if shared {
		s.log.Debug("coalesced overlapping run", zap.String("mapping", m.Key()))
	}
	return v.(RunOutcome)
}

// deliver fans the outcome to every sink. Sink errors are logged and
// swallowed so reporting can never affect a sync result.
func (s *Scheduler) deliver(ctx context.Context, out RunOutcome) {
	for _, sink := range s.sinks {
		if err := sink.Report(ctx, out); err != nil {
			s.log.Warn("report sink failed",
				zap.String("mapping", out.Key()),
				zap.String("run_id", out.RunID),
				zap.Error(err),
			)
		}
	}
}

// summarize offers the aggregate report to every sink that can take one.
func (s *Scheduler) summarize(ctx context.Context, report *Report) {
	for _, sink := range s.sinks {
		ss, ok := sink.(SummarySink)
		if !ok {
			continue
		}
		if err := ss.ReportSummary(ctx, report); err != nil {
			s.log.Warn("summary sink failed",
				zap.String("batch_id", report.BatchID),
				zap.Error(err),
			)
		}
	}
}
