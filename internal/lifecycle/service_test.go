package lifecycle_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/volunteer-board/internal/catalog"
	"github.com/nhle/volunteer-board/internal/lifecycle"
	"github.com/nhle/volunteer-board/internal/model"
	"github.com/nhle/volunteer-board/internal/notify"
	"github.com/nhle/volunteer-board/internal/reward"
	"github.com/nhle/volunteer-board/internal/source"
	"github.com/nhle/volunteer-board/internal/store"
	"github.com/nhle/volunteer-board/tests/testutil"
)

func newTestService(t *testing.T) *lifecycle.Service {
	t.Helper()
	svc, _ := newTestServiceWithStore(t)
	return svc
}

func newTestServiceWithStore(t *testing.T) (*lifecycle.Service, *store.SQLiteStore) {
	t.Helper()
	ctx := context.Background()

	s := testutil.NewTestStore(t)
	cat := catalog.New(source.Static{testutil.RiverCleanup(), testutil.SortingWorkshop()}, time.UTC, nil)
	require.NoError(t, cat.Refresh(ctx))
	inbox, err := notify.NewService(ctx, s, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = inbox.Close() })

	svc := lifecycle.NewService(lifecycle.Deps{
		UserID:  user,
		Store:   s,
		Catalog: cat,
		Inbox:   inbox,
		Points:  reward.NewPointLedger(s, nil),
	}, lifecycle.Options{Location: time.UTC})
	return svc, s
}

func TestService_EndToEnd(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	assert.Equal(t, user, svc.UserID())
	assert.Len(t, svc.ListActivities(catalog.Filter{Region: "Mapo"}), 1)

	_, err := svc.ApplyToActivity(ctx, "E1", dec(1, 9))
	require.NoError(t, err)
	_, err = svc.ApplyToActivity(ctx, "E2", dec(1, 9))
	require.NoError(t, err)
	require.NoError(t, svc.CancelEnrollment(ctx, "E2", dec(2, 9)))

	mine, err := svc.MyEnrollments(ctx, nil)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "E1", mine[0].EventID)

	_, err = svc.RunReconciliation(ctx, dec(16, 9))
	require.NoError(t, err)

	res, err := svc.VerifyByScanPayload(ctx, "E1", "volunteer://verify?event=E1&code=GREEN42", dec(17, 9))
	require.NoError(t, err)
	assert.Equal(t, 50, res.PointsCredited)

	balance, err := svc.PointBalance(ctx)
	require.NoError(t, err)
	assert.Equal(t, 50, balance)

	history, err := svc.PointHistory(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "Volunteer: River cleanup", history[0].Reason)

	// Two applications, ended_verify and verified.
	list, err := svc.ListNotifications(ctx, notify.Filter{})
	require.NoError(t, err)
	assert.Len(t, list, 4)
	assert.Equal(t, model.KindVerified, list[0].Kind, "newest first")
	assert.Equal(t, 4, svc.UnreadCount())

	require.NoError(t, svc.MarkRead(ctx, list[0].ID))
	assert.Equal(t, 3, svc.UnreadCount())
	require.NoError(t, svc.DeleteNotification(ctx, list[1].ID))
	require.NoError(t, svc.MarkAllRead(ctx))
	assert.Zero(t, svc.UnreadCount())

	require.NoError(t, svc.ClearAll(ctx))
	list, err = svc.ListNotifications(ctx, notify.Filter{})
	require.NoError(t, err)
	assert.Empty(t, list)

	en, err := svc.MyEnrollment(ctx, "E1")
	require.NoError(t, err)
	assert.Equal(t, model.EnrollmentCompleted, en.Status)
}

// A completion whose delivery never ran leaves an unclaimed credit behind.
func TestService_ReconciliationSettlesPendingCredits(t *testing.T) {
	svc, s := newTestServiceWithStore(t)
	ctx := context.Background()

	en, err := svc.ApplyToActivity(ctx, "E1", dec(1, 9))
	require.NoError(t, err)
	ok, err := s.CompleteEnrollment(ctx, en.ID, dec(15, 12), model.RewardCredit{
		SourceID:     model.RewardSourceID(en.ID),
		EnrollmentID: en.ID,
		UserID:       user,
		Points:       50,
		Reason:       "Volunteer: River cleanup",
	})
	require.NoError(t, err)
	require.True(t, ok)

	report, err := svc.RunReconciliation(ctx, dec(15, 13))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Credited)
	assert.Zero(t, report.Failures)

	report, err = svc.RunReconciliation(ctx, dec(15, 14))
	require.NoError(t, err)
	assert.Zero(t, report.Credited)

	balance, err := svc.PointBalance(ctx)
	require.NoError(t, err)
	assert.Equal(t, 50, balance)
}

func TestService_SentReminders(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.SentReminders(ctx, "E1")
	assert.Error(t, err, "no enrollment yet")

	_, err = svc.ApplyToActivity(ctx, "E1", dec(1, 9))
	require.NoError(t, err)
	sent, err := svc.SentReminders(ctx, "E1")
	require.NoError(t, err)
	assert.Equal(t, []model.NotificationKind{model.KindApplied}, sent)

	_, err = svc.RunReconciliation(ctx, dec(16, 9))
	require.NoError(t, err)
	sent, err = svc.SentReminders(ctx, "E1")
	require.NoError(t, err)
	assert.Equal(t, []model.NotificationKind{model.KindApplied, model.KindEndedVerify}, sent)
}
