package ops

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"sg2pl/core/reconcile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRunner struct {
	mu      sync.Mutex
	calls   int
	dryRuns []bool
	block   chan struct{}
	rep     *reconcile.Report
	err     error
}

func (r *fakeRunner) RunAll(ctx context.Context, dryRun bool) (*reconcile.Report, error) {
	r.mu.Lock()
	r.calls++
	r.dryRuns = append(r.dryRuns, dryRun)
	rep, err := r.rep, r.err
	r.mu.Unlock()
	if r.block != nil {
		<-r.block
	}
	return rep, err
}

func (r *fakeRunner) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func (r *fakeRunner) lastDryRun() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.dryRuns) > 0 && r.dryRuns[len(r.dryRuns)-1]
}

type fakeLister struct {
	keys []string
	err  error
}

func (l *fakeLister) Recent(ctx context.Context, limit int) ([]string, error) {
	if l.err != nil {
		return nil, l.err
	}
	if limit < len(l.keys) {
		return l.keys[:limit], nil
	}
	return l.keys, nil
}

func batchReport() *reconcile.Report {
	return &reconcile.Report{
		BatchID:   "5b1c0f77-4a83-4f6e-9d7b-13a2f0a6c9d1",
		StartedAt: time.Date(2025, 11, 3, 14, 0, 0, 0, time.UTC),
		Total:     2,
		Succeeded: 2,
	}
}

func TestService_Run_RecordsLastBatch(t *testing.T) {
	runner := &fakeRunner{rep: batchReport()}
	svc := NewService(runner, nil, zap.NewNop())

	rep, err := svc.Run(context.Background(), false)

	require.NoError(t, err)
	require.NotNil(t, rep)

	st := svc.Status()
	assert.False(t, st.Running)
	assert.Nil(t, st.StartedAt)
	require.NotNil(t, st.LastBatch)
	assert.Equal(t, rep.BatchID, st.LastBatch.BatchID)
	assert.Empty(t, st.LastError)
}

func TestService_Run_RefusesOverlap(t *testing.T) {
	block := make(chan struct{})
	runner := &fakeRunner{rep: batchReport(), block: block}
	svc := NewService(runner, nil, zap.NewNop())

	go svc.Run(context.Background(), false)
	assert.Eventually(t, func() bool { return svc.Status().Running }, 2*time.Second, 5*time.Millisecond)
	assert.NotNil(t, svc.Status().StartedAt)

	_, err := svc.Run(context.Background(), false)
	assert.ErrorIs(t, err, ErrBatchRunning)
	assert.Equal(t, 1, runner.callCount())

	close(block)
	assert.Eventually(t, func() bool { return !svc.Status().Running }, 2*time.Second, 5*time.Millisecond)
}

func TestService_Run_KeepsAbortError(t *testing.T) {
	runner := &fakeRunner{err: errors.New("registry down")}
	svc := NewService(runner, nil, zap.NewNop())

	_, err := svc.Run(context.Background(), false)
	require.Error(t, err)

	st := svc.Status()
	assert.False(t, st.Running)
	assert.Nil(t, st.LastBatch)
	assert.Contains(t, st.LastError, "registry down")

	// a later clean batch clears the error
	runner.mu.Lock()
	runner.err = nil
	runner.rep = batchReport()
	runner.mu.Unlock()

	_, err = svc.Run(context.Background(), false)
	require.NoError(t, err)
	assert.Empty(t, svc.Status().LastError)
	assert.NotNil(t, svc.Status().LastBatch)
}

func TestService_Trigger_RunsInBackground(t *testing.T) {
	runner := &fakeRunner{rep: batchReport()}
	svc := NewService(runner, nil, zap.NewNop())

	require.NoError(t, svc.Trigger(true))

	assert.Eventually(t, func() bool { return runner.callCount() == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.True(t, runner.lastDryRun())
	assert.Eventually(t, func() bool { return svc.Status().LastBatch != nil }, 2*time.Second, 5*time.Millisecond)
}

func TestService_RecentReports(t *testing.T) {
	lister := &fakeLister{keys: []string{"reports/2025-11-03/b.json", "reports/2025-11-03/a.json"}}
	svc := NewService(&fakeRunner{}, lister, zap.NewNop())

	keys, err := svc.RecentReports(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"reports/2025-11-03/b.json"}, keys)
}

func TestService_RecentReports_Disabled(t *testing.T) {
	svc := NewService(&fakeRunner{}, nil, zap.NewNop())

	_, err := svc.RecentReports(context.Background(), 10)
	assert.ErrorIs(t, err, ErrArchivingDisabled)
}
