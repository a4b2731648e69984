package app

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/volunteer-board/internal/catalog"
	"github.com/nhle/volunteer-board/internal/errdef"
	"github.com/nhle/volunteer-board/internal/lifecycle"
	"github.com/nhle/volunteer-board/internal/model"
	"github.com/nhle/volunteer-board/internal/notify"
	"github.com/nhle/volunteer-board/internal/reward"
	"github.com/nhle/volunteer-board/internal/source"
	appsync "github.com/nhle/volunteer-board/internal/sync"
	"github.com/nhle/volunteer-board/internal/ui/activitylist"
	"github.com/nhle/volunteer-board/internal/ui/detail"
	"github.com/nhle/volunteer-board/internal/ui/inbox"
	"github.com/nhle/volunteer-board/internal/ui/verifyform"
	"github.com/nhle/volunteer-board/tests/testutil"
)

func newTestModel(t *testing.T, now time.Time) (Model, *lifecycle.Service) {
	t.Helper()
	ctx := context.Background()

	s := testutil.NewTestStore(t)
	cat := catalog.New(source.Static{testutil.RiverCleanup(), testutil.SortingWorkshop()}, time.UTC, nil)
	require.NoError(t, cat.Refresh(ctx))
	in, err := notify.NewService(ctx, s, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = in.Close() })

	svc := lifecycle.NewService(lifecycle.Deps{
		UserID:  "u1",
		Store:   s,
		Catalog: cat,
		Inbox:   in,
		Points:  reward.NewPointLedger(s, nil),
	}, lifecycle.Options{Location: time.UTC})

	clock := func() time.Time { return now }
	poller := appsync.New(svc, appsync.Options{ReconcileInterval: time.Hour, Now: clock})
	m := New(svc, poller, Options{Now: clock})
	t.Cleanup(m.shutdown)

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return updated.(Model), svc
}

// run executes cmd and feeds its message back into the model.
func run(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	require.NotNil(t, cmd)
	updated, _ := m.Update(cmd())
	return updated.(Model)
}

func TestApp_ApplyFromDetail(t *testing.T) {
	m, svc := newTestModel(t, testutil.Date(time.December, 1, 9))

	updated, cmd := m.Update(activitylist.SelectedActivityMsg{EventID: "E1"})
	m = updated.(Model)
	assert.Equal(t, ViewDetail, m.currentView)
	m = run(t, m, cmd)
	assert.Equal(t, "E1", m.detail.EventID())
	assert.Contains(t, m.detail.Hints(), "a apply")

	_, cmd = m.Update(detail.ActionMsg{Action: detail.ActionApply, EventID: "E1"})
	m = run(t, m, cmd)
	assert.Equal(t, "Application received.", m.flash)

	en, err := svc.MyEnrollment(context.Background(), "E1")
	require.NoError(t, err)
	assert.Equal(t, model.EnrollmentApplied, en.Status)
}

func TestApp_VerifyFlow(t *testing.T) {
	m, svc := newTestModel(t, testutil.Date(time.December, 15, 12))
	_, err := svc.ApplyToActivity(context.Background(), "E1", testutil.Date(time.December, 1, 9))
	require.NoError(t, err)

	updated, _ := m.Update(detail.ActionMsg{Action: detail.ActionVerify, EventID: "E1"})
	m = updated.(Model)
	assert.Equal(t, ViewVerify, m.currentView)

	_, cmd := m.Update(verifyform.VerifySubmittedMsg{EventID: "E1", Mode: verifyform.ModeCode, Value: "nope"})
	m = run(t, m, cmd)
	assert.Contains(t, m.flash, "Verification failed")

	_, cmd = m.Update(verifyform.VerifySubmittedMsg{EventID: "E1", Mode: verifyform.ModeScan, Value: "VOLUNTEER:E1:GREEN42"})
	m = run(t, m, cmd)
	assert.Equal(t, "Attendance verified, 50 points credited.", m.flash)
	assert.Equal(t, ViewDetail, m.currentView)
}

func TestApp_InboxNavigation(t *testing.T) {
	m, _ := newTestModel(t, testutil.Date(time.December, 1, 9))

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("i")})
	m = updated.(Model)
	assert.Equal(t, ViewInbox, m.currentView)

	updated, cmd := m.Update(inbox.OpenTargetMsg{NavTarget: "event/E2"})
	m = updated.(Model)
	assert.Equal(t, ViewDetail, m.currentView)
	m = run(t, m, cmd)
	assert.Equal(t, "E2", m.detail.EventID())
}

func TestDescribeError(t *testing.T) {
	assert.Equal(t, "Could not cancel: cancellation deadline passed",
		describeError("Could not cancel", errdef.NewInvalidState(errdef.ReasonCancellationClosed, "cancellation deadline passed")))
	assert.Equal(t, "Could not apply: not found",
		describeError("Could not apply", errdef.NewNotFound("event %s not found", "E9")))
}

func TestApp_SettingsUnavailableWithoutConfig(t *testing.T) {
	m, _ := newTestModel(t, testutil.Date(time.December, 1, 9))

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(",")})
	m = updated.(Model)
	assert.Equal(t, ViewList, m.currentView)
	assert.Equal(t, "settings unavailable", m.flash)
}

func TestApp_SearchSwallowsGlobalKeys(t *testing.T) {
	m, _ := newTestModel(t, testutil.Date(time.December, 1, 9))

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("/")})
	m = updated.(Model)
	require.True(t, m.activityList.Searching())

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("i")})
	m = updated.(Model)
	assert.Equal(t, ViewList, m.currentView)
}
