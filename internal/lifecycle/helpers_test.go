package lifecycle_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nhle/volunteer-board/internal/catalog"
	"github.com/nhle/volunteer-board/internal/guard"
	"github.com/nhle/volunteer-board/internal/lifecycle"
	"github.com/nhle/volunteer-board/internal/model"
	"github.com/nhle/volunteer-board/internal/notify"
	"github.com/nhle/volunteer-board/internal/source"
	"github.com/nhle/volunteer-board/internal/store"
	"github.com/nhle/volunteer-board/tests/testutil"
)

const user = "u1"

// recordingDispatcher counts credits and can be told to fail. When entered
// is set, Credit signals it and then waits for release before deciding.
type recordingDispatcher struct {
	mu      sync.Mutex
	credits []int
	sources []string
	fail    bool

	entered chan struct{}
	release chan struct{}
}

func (d *recordingDispatcher) Credit(_ context.Context, credit model.RewardCredit) error {
	if d.entered != nil {
		d.entered <- struct{}{}
		<-d.release
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fail {
		return errors.New("ledger offline")
	}
	d.credits = append(d.credits, credit.Points)
	d.sources = append(d.sources, credit.SourceID)
	return nil
}

func (d *recordingDispatcher) setFail(fail bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fail = fail
}

func (d *recordingDispatcher) calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.credits)
}

type env struct {
	store      *store.SQLiteStore
	catalog    *catalog.Catalog
	inbox      *notify.Service
	dispatcher *recordingDispatcher
	ledger     *lifecycle.Ledger
	recon      *lifecycle.Reconciler
	verifier   *lifecycle.Verifier
}

func newEnv(t *testing.T, opts lifecycle.Options, events ...model.VolunteerEvent) *env {
	t.Helper()
	ctx := context.Background()
	if len(events) == 0 {
		events = []model.VolunteerEvent{testutil.RiverCleanup(), testutil.SortingWorkshop()}
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}

	s := testutil.NewTestStore(t)
	cat := catalog.New(source.Static(events), opts.Location, nil)
	require.NoError(t, cat.Refresh(ctx))

	inbox, err := notify.NewService(ctx, s, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = inbox.Close() })

	g := guard.New(s)
	d := &recordingDispatcher{}
	return &env{
		store:      s,
		catalog:    cat,
		inbox:      inbox,
		dispatcher: d,
		ledger:     lifecycle.NewLedger(s, cat, g, inbox, opts),
		recon:      lifecycle.NewReconciler(s, cat, g, inbox, opts),
		verifier:   lifecycle.NewVerifier(s, cat, d, nil, g, inbox, opts),
	}
}

func (e *env) notifications(t *testing.T, kind model.NotificationKind) []model.Notification {
	t.Helper()
	list, err := e.inbox.List(context.Background(), notify.Filter{Kinds: []model.NotificationKind{kind}})
	require.NoError(t, err)
	return list
}

func (e *env) enrollment(t *testing.T, eventID string) model.Enrollment {
	t.Helper()
	en, err := e.store.GetEnrollment(context.Background(), user, eventID)
	require.NoError(t, err)
	return *en
}

func dec(day, hour int) time.Time {
	return testutil.Date(time.December, day, hour)
}
