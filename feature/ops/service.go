package ops

import (
	"context"
	"errors"
	"sync"
	"time"

	"sg2pl/core/reconcile"

	"go.uber.org/zap"
)

// ErrBatchRunning means a sync batch is already in flight. Runs never
// overlap; callers decide whether to retry or report.
var ErrBatchRunning = errors.New("a sync batch is already running")

// ErrArchivingDisabled means no report archive is configured, so there is
// nothing to list.
var ErrArchivingDisabled = errors.New("report archiving is not enabled")

// BatchRunner executes one fan-out batch. *reconcile.Scheduler implements it.
type BatchRunner interface {
	RunAll(ctx context.Context, dryRun bool) (*reconcile.Report, error)
}

// ReportLister serves the recent-reports endpoint. *report.ArchiveSink
// implements it; a nil lister means archiving is disabled.
type ReportLister interface {
	Recent(ctx context.Context, limit int) ([]string, error)
}

// Status is a point-in-time snapshot of the sync loop.
type Status struct {
	// Running reports whether a batch is in flight right now.
	Running bool `json:"running"`

	// StartedAt is set while a batch is running.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// LastBatch is the report of the most recently finished batch.
	LastBatch *reconcile.Report `json:"last_batch,omitempty"`

	// LastError is set when the last batch aborted before producing a
	// report, for example because the registry was unreachable.
	LastError string `json:"last_error,omitempty"`
}

// Service serializes batch execution and remembers the last result.
// Both the daemon ticker and the HTTP trigger go through it, so a slow
// batch makes later ticks and triggers bounce instead of piling up.
type Service struct {
	runner BatchRunner
	lister ReportLister
	logger *zap.Logger

	mu        sync.Mutex
	running   bool
	startedAt time.Time
	last      *reconcile.Report
	lastErr   string
}

// NewService wires the ops service. lister may be nil when report
// archiving is disabled.
func NewService(runner BatchRunner, lister ReportLister, logger *zap.Logger) *Service {
	return &Service{
		runner: runner,
		lister: lister,
		logger: logger.Named("ops"),
	}
}

// Run executes one batch synchronously. When a batch is already in flight
// it returns ErrBatchRunning without touching anything, which is how the
// daemon skips a tick that fires while the previous batch still runs.
func (s *Service) Run(ctx context.Context, dryRun bool) (*reconcile.Report, error) {
	if !s.begin() {
		return nil, ErrBatchRunning
	}
	rep, err := s.runner.RunAll(ctx, dryRun)
	s.finish(rep, err)
	return rep, err
}

// Trigger starts a batch in the background and returns immediately. The
// running slot is reserved before returning so concurrent triggers get a
// truthful ErrBatchRunning instead of a duplicate batch.
func (s *Service) Trigger(dryRun bool) error {
	if !s.begin() {
		return ErrBatchRunning
	}
	go func() {
		rep, err := s.runner.RunAll(context.Background(), dryRun)
		if err != nil {
			s.logger.Error("triggered batch failed", zap.Error(err))
		}
		s.finish(rep, err)
	}()
	return nil
}

// Status returns a snapshot of the loop state for the status endpoint.
func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{
		Running:   s.running,
		LastBatch: s.last,
		LastError: s.lastErr,
	}
	if s.running {
		at := s.startedAt
		st.StartedAt = &at
	}
	return st
}

// RecentReports lists the newest archived report objects. It returns
// ErrArchivingDisabled when no archive sink is configured.
func (s *Service) RecentReports(ctx context.Context, limit int) ([]string, error) {
	if s.lister == nil {
		return nil, ErrArchivingDisabled
	}
	return s.lister.Recent(ctx, limit)
}

func (s *Service) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}
	s.running = true
	s.startedAt = time.Now().UTC()
	return true
}

func (s *Service) finish(rep *reconcile.Report, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	if rep != nil {
		s.last = rep
	}
	if err != nil {
		s.lastErr = err.Error()
	} else {
		s.lastErr = ""
	}
}
