package sync

import (
	"context"
	"fmt"
	"log/slog"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/volunteer-board/internal/lifecycle"
	"github.com/nhle/volunteer-board/internal/logging"
	"github.com/nhle/volunteer-board/internal/source"
)

// Job identifies one background loop.
type Job string

const (
	JobReconcile Job = "reconcile"
	JobCatalog   Job = "catalog"
)

// SyncState represents the current state of a background job.
type SyncState int

const (
	SyncIdle SyncState = iota
	SyncRunning
	SyncError
)

// SyncStatus holds the state of a single job.
type SyncStatus struct {
	Job     Job
	State   SyncState
	LastRun time.Time
	Error   error
}

// SyncResultMsg is a tea.Msg sent when a job run completes.
type SyncResultMsg struct {
	Job       Job
	Report    lifecycle.Report
	Error     error
	AuthError *AuthErrorMsg
}

// AuthErrorMsg is a tea.Msg sent when the catalog feed rejects its token.
type AuthErrorMsg struct {
	Message string
}

// Runner is the engine surface the poller drives.
type Runner interface {
	RunReconciliation(ctx context.Context, now time.Time) (lifecycle.Report, error)
	RefreshCatalog(ctx context.Context) error
}

// Options configures a Poller.
type Options struct {
	// ReconcileInterval defaults to 60 seconds.
	ReconcileInterval time.Duration

	// CatalogInterval disables catalog refreshes when zero.
	CatalogInterval time.Duration

	Logger *slog.Logger

	// Now defaults to time.Now.
	Now func() time.Time
}

// runTimeout is the maximum time allowed for a single job run.
const runTimeout = 30 * time.Second

// Poller runs reconciliation passes and catalog refreshes in the background
// and reports each run to the Bubble Tea runtime.
type Poller struct {
	runner    Runner
	opts      Options
	statuses  map[Job]*SyncStatus
	resultCh  chan SyncResultMsg
	triggerCh chan Job
	stopCh    chan struct{}
	wg        gosync.WaitGroup
	mu        gosync.Mutex
	running   bool
}

// New creates a Poller for runner.
func New(runner Runner, opts Options) *Poller {
	if opts.ReconcileInterval <= 0 {
		opts.ReconcileInterval = 60 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	opts.Logger = opts.Logger.With("component", "poller")

	p := &Poller{
		runner:    runner,
		opts:      opts,
		statuses:  make(map[Job]*SyncStatus),
		resultCh:  make(chan SyncResultMsg, 16),
		triggerCh: make(chan Job, 16),
		stopCh:    make(chan struct{}),
	}
	for _, job := range p.jobs() {
		p.statuses[job] = &SyncStatus{Job: job, State: SyncIdle}
	}
	return p
}

func (p *Poller) jobs() []Job {
	if p.opts.CatalogInterval > 0 {
		return []Job{JobCatalog, JobReconcile}
	}
	return []Job{JobReconcile}
}

// Start launches the polling goroutine and returns a command that
// delivers the first SyncResultMsg.
func (p *Poller) Start() tea.Cmd {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.mu.Unlock()

	p.wg.Add(1)
	go p.loop()

	return p.waitForResult()
}

// Stop halts the polling goroutine and waits for an in-flight run.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	close(p.stopCh)
	p.running = false
	p.mu.Unlock()

	p.wg.Wait()
}

// RefreshAll triggers an immediate run of every job.
func (p *Poller) RefreshAll() tea.Cmd {
	for _, job := range p.jobs() {
		p.Trigger(job)
	}
	return nil
}

// Trigger asks for an immediate run of job. It never blocks.
func (p *Poller) Trigger(job Job) {
	select {
	case p.triggerCh <- job:
	default:
	}
}

// GetStatuses returns the state of every job.
func (p *Poller) GetStatuses() []SyncStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]SyncStatus, 0, len(p.statuses))
	for _, job := range p.jobs() {
		out = append(out, *p.statuses[job])
	}
	return out
}

// loop runs the catalog refresh before reconciling so the first pass sees
// fresh events. Both jobs share one goroutine, so passes never overlap.
func (p *Poller) loop() {
	defer p.wg.Done()

	reconcile := time.NewTicker(p.opts.ReconcileInterval)
	defer reconcile.Stop()

	var catalogC <-chan time.Time
	if p.opts.CatalogInterval > 0 {
		t := time.NewTicker(p.opts.CatalogInterval)
		defer t.Stop()
		catalogC = t.C
		p.run(JobCatalog)
	}
	p.run(JobReconcile)

	for {
		select {
		case <-p.stopCh:
			return
		case <-catalogC:
			p.run(JobCatalog)
		case <-reconcile.C:
			p.run(JobReconcile)
		case job := <-p.triggerCh:
			p.run(job)
		}
	}
}

func (p *Poller) run(job Job) {
	p.setStatus(job, SyncRunning, nil)

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	switch job {
	case JobCatalog:
		err := p.runner.RefreshCatalog(ctx)
		p.finish(job, err)
		if err != nil {
			p.opts.Logger.Warn("catalog refresh failed", "error", err)
			msg := SyncResultMsg{Job: job, Error: err}
			if source.IsAuthError(err) {
				msg.AuthError = &AuthErrorMsg{
					Message: fmt.Sprintf("catalog feed: %v. Run `volunteer feed-token set` to update it.", err),
				}
			}
			p.sendResult(msg)
			return
		}
		p.sendResult(SyncResultMsg{Job: job})

	case JobReconcile:
		report, err := p.runner.RunReconciliation(ctx, p.opts.Now())
		p.finish(job, err)
		if err != nil {
			p.opts.Logger.Error("reconciliation failed", "error", err)
		} else if len(report.Fired) > 0 || len(report.Transitions) > 0 || report.Credited > 0 {
			p.opts.Logger.Info("reconciliation pass",
				"fired", len(report.Fired), "transitions", len(report.Transitions),
				"credited", report.Credited, "failures", report.Failures)
		}
		p.sendResult(SyncResultMsg{Job: job, Report: report, Error: err})
	}
}

func (p *Poller) finish(job Job, err error) {
	if err != nil {
		p.setStatus(job, SyncError, err)
		return
	}
	p.setStatus(job, SyncIdle, nil)
}

func (p *Poller) setStatus(job Job, state SyncState, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	status, ok := p.statuses[job]
	if !ok {
		return
	}
	status.State = state
	status.Error = err
	if state == SyncIdle {
		status.LastRun = p.opts.Now()
	}
}

// sendResult sends on the result channel without blocking.
func (p *Poller) sendResult(msg SyncResultMsg) {
	select {
	case p.resultCh <- msg:
	default:
	}
}

func (p *Poller) waitForResult() tea.Cmd {
	return func() tea.Msg {
		select {
		case result := <-p.resultCh:
			return result
		case <-p.stopCh:
			return nil
		}
	}
}

// WaitForNextResult returns a tea.Cmd that waits for the next run result.
// Call it after handling each SyncResultMsg to keep listening.
func (p *Poller) WaitForNextResult() tea.Cmd {
	return p.waitForResult()
}
