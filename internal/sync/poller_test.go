package sync

import (
	"context"
	"errors"
	gosync "sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/volunteer-board/internal/lifecycle"
	"github.com/nhle/volunteer-board/internal/source"
)

type fakeRunner struct {
	mu         gosync.Mutex
	reconciles []time.Time
	refreshes  int
	refreshErr error
}

func (f *fakeRunner) RunReconciliation(_ context.Context, now time.Time) (lifecycle.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reconciles = append(f.reconciles, now)
	return lifecycle.Report{Now: now, Evaluated: 1}, nil
}

func (f *fakeRunner) RefreshCatalog(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
	return f.refreshErr
}

func (f *fakeRunner) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reconciles), f.refreshes
}

func nextResult(t *testing.T, p *Poller, first func() any) SyncResultMsg {
	t.Helper()
	done := make(chan any, 1)
	go func() { done <- first() }()
	select {
	case msg := <-done:
		res, ok := msg.(SyncResultMsg)
		require.True(t, ok, "unexpected message %T", msg)
		return res
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for poller result")
		return SyncResultMsg{}
	}
}

func TestPoller_InitialRunOrder(t *testing.T) {
	fixed := time.Date(2025, 12, 12, 9, 0, 0, 0, time.UTC)
	r := &fakeRunner{}
	p := New(r, Options{
		ReconcileInterval: time.Hour,
		CatalogInterval:   time.Hour,
		Now:               func() time.Time { return fixed },
	})
	t.Cleanup(p.Stop)

	cmd := p.Start()
	require.NotNil(t, cmd)
	assert.Nil(t, p.Start(), "second start is a no-op")

	first := nextResult(t, p, func() any { return cmd() })
	assert.Equal(t, JobCatalog, first.Job)
	second := nextResult(t, p, func() any { return p.WaitForNextResult()() })
	assert.Equal(t, JobReconcile, second.Job)
	assert.True(t, second.Report.Now.Equal(fixed))

	reconciles, refreshes := r.counts()
	assert.Equal(t, 1, reconciles)
	assert.Equal(t, 1, refreshes)

	for _, st := range p.GetStatuses() {
		assert.Equal(t, SyncIdle, st.State, "job %s", st.Job)
		assert.True(t, st.LastRun.Equal(fixed))
	}
}

func TestPoller_TriggerRunsImmediately(t *testing.T) {
	r := &fakeRunner{}
	p := New(r, Options{ReconcileInterval: time.Hour})
	t.Cleanup(p.Stop)

	cmd := p.Start()
	nextResult(t, p, func() any { return cmd() })

	p.Trigger(JobReconcile)
	res := nextResult(t, p, func() any { return p.WaitForNextResult()() })
	assert.Equal(t, JobReconcile, res.Job)

	reconciles, refreshes := r.counts()
	assert.Equal(t, 2, reconciles)
	assert.Zero(t, refreshes, "catalog job disabled")
	assert.Len(t, p.GetStatuses(), 1)
}

func TestPoller_CatalogAuthError(t *testing.T) {
	r := &fakeRunner{refreshErr: &source.AuthError{Kind: source.KindFeed, Message: "token expired"}}
	p := New(r, Options{ReconcileInterval: time.Hour, CatalogInterval: time.Hour})
	t.Cleanup(p.Stop)

	cmd := p.Start()
	res := nextResult(t, p, func() any { return cmd() })
	assert.Equal(t, JobCatalog, res.Job)
	require.Error(t, res.Error)
	require.NotNil(t, res.AuthError)
	assert.Contains(t, res.AuthError.Message, "feed-token set")

	statuses := p.GetStatuses()
	assert.Equal(t, SyncError, statuses[0].State)

	// The reconcile pass still runs after a failed refresh.
	res = nextResult(t, p, func() any { return p.WaitForNextResult()() })
	assert.Equal(t, JobReconcile, res.Job)
	assert.NoError(t, res.Error)
}

func TestPoller_PlainRefreshError(t *testing.T) {
	r := &fakeRunner{refreshErr: errors.New("disk on fire")}
	p := New(r, Options{ReconcileInterval: time.Hour, CatalogInterval: time.Hour})
	t.Cleanup(p.Stop)

	res := nextResult(t, p, func() any { return p.Start()() })
	assert.Error(t, res.Error)
	assert.Nil(t, res.AuthError)
}

func TestPoller_StopUnblocksWaiters(t *testing.T) {
	p := New(&fakeRunner{}, Options{ReconcileInterval: time.Hour})
	cmd := p.Start()
	nextResult(t, p, func() any { return cmd() })

	p.Stop()
	p.Stop()
	assert.Nil(t, p.WaitForNextResult()())
}
