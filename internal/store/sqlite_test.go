package store_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/volunteer-board/internal/errdef"
	"github.com/nhle/volunteer-board/internal/model"
	"github.com/nhle/volunteer-board/internal/store"
	"github.com/nhle/volunteer-board/tests/testutil"
)

func newEnrollment(id, eventID string) model.Enrollment {
	applied := testutil.Date(time.December, 1, 9)
	return model.Enrollment{
		ID:                   id,
		UserID:               "u1",
		EventID:              eventID,
		Status:               model.EnrollmentApplied,
		CancellationDeadline: testutil.Date(time.December, 13, 18),
		VerificationSecret:   "GREEN42",
		AppliedAt:            applied,
		UpdatedAt:            applied,
	}
}

func TestNewSQLiteStore_MigratesFileDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.db")

	s, err := store.NewSQLiteStore(path)
	require.NoError(t, err)
	version, err := s.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, 3, version)
	require.NoError(t, s.Close())

	// Reopening must not re-apply migrations.
	s, err = store.NewSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()
	version, err = s.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, 3, version)
}

func TestStore_StateSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first := testutil.OpenTestStore(t, dir, "board.db")
	require.NoError(t, first.CreateEnrollment(ctx, newEnrollment("en-1", "E1")))
	inserted, err := first.InsertTriggerIfAbsent(ctx, "en-1:applied", testutil.Date(time.December, 1, 9))
	require.NoError(t, err)
	require.True(t, inserted)

	second := testutil.OpenTestStore(t, dir, "board.db")
	got, err := second.GetEnrollment(ctx, "u1", "E1")
	require.NoError(t, err)
	assert.Equal(t, "en-1", got.ID)

	inserted, err = second.InsertTriggerIfAbsent(ctx, "en-1:applied", testutil.Date(time.December, 1, 9))
	require.NoError(t, err)
	assert.False(t, inserted, "a fired key stays fired after a restart")
}

func TestEnrollment_CreateAndGet(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateEnrollment(ctx, newEnrollment("en-1", "E1")))

	got, err := s.GetEnrollment(ctx, "u1", "E1")
	require.NoError(t, err)
	assert.Equal(t, "en-1", got.ID)
	assert.Equal(t, model.EnrollmentApplied, got.Status)
	assert.False(t, got.IsVerified)
	assert.Nil(t, got.VerifiedAt)
	assert.True(t, got.CancellationDeadline.Equal(testutil.Date(time.December, 13, 18)))

	byID, err := s.GetEnrollmentByID(ctx, "en-1")
	require.NoError(t, err)
	assert.Equal(t, "E1", byID.EventID)

	_, err = s.GetEnrollment(ctx, "u1", "E404")
	assert.True(t, errdef.IsNotFound(err))
}

func TestEnrollment_UniquePerUserAndEvent(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateEnrollment(ctx, newEnrollment("en-1", "E1")))
	err := s.CreateEnrollment(ctx, newEnrollment("en-2", "E1"))
	assert.True(t, errors.Is(err, store.ErrDuplicateEnrollment))

	all, err := s.GetEnrollments(ctx, store.EnrollmentFilter{UserID: "u1"})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestEnrollment_ConditionalTransitions(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	now := testutil.Date(time.December, 16, 8)

	require.NoError(t, s.CreateEnrollment(ctx, newEnrollment("en-1", "E1")))

	ok, err := s.MarkEnrollmentNoShow(ctx, "en-1", now)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.MarkEnrollmentNoShow(ctx, "en-1", now)
	require.NoError(t, err)
	assert.False(t, ok, "no_show must not be re-applied")

	ok, err = s.CompleteEnrollment(ctx, "en-1", now, rewardCredit("en-1", 50))
	require.NoError(t, err)
	assert.True(t, ok, "no_show is recoverable")

	ok, err = s.CompleteEnrollment(ctx, "en-1", now, rewardCredit("en-1", 50))
	require.NoError(t, err)
	assert.False(t, ok, "completion happens once")

	ok, err = s.MarkEnrollmentNoShow(ctx, "en-1", now)
	require.NoError(t, err)
	assert.False(t, ok, "completed is never downgraded")

	got, err := s.GetEnrollmentByID(ctx, "en-1")
	require.NoError(t, err)
	assert.Equal(t, model.EnrollmentCompleted, got.Status)
	assert.True(t, got.IsVerified)
	require.NotNil(t, got.VerifiedAt)

	pending, err := s.GetPendingRewardCredits(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, pending, 1, "the credit is recorded once with the completion")
	assert.Equal(t, "en-1", pending[0].EnrollmentID)
}

func TestEnrollment_DeleteOnlyWhenApplied(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateEnrollment(ctx, newEnrollment("en-1", "E1")))
	require.NoError(t, s.CreateEnrollment(ctx, newEnrollment("en-2", "E2")))
	_, err := s.CompleteEnrollment(ctx, "en-2", testutil.Date(time.December, 20, 15), rewardCredit("en-2", 30))
	require.NoError(t, err)

	ok, err := s.DeleteAppliedEnrollment(ctx, "en-2")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.DeleteAppliedEnrollment(ctx, "en-1")
	require.NoError(t, err)
	assert.True(t, ok)

	completed := model.EnrollmentCompleted
	rest, err := s.GetEnrollments(ctx, store.EnrollmentFilter{UserID: "u1", Status: &completed})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "en-2", rest[0].ID)
}

func TestNotifications_FilterAndMutations(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	base := testutil.Date(time.December, 12, 9)

	require.NoError(t, s.CreateNotification(ctx, model.Notification{ID: "n1", Kind: model.KindApplied, Title: "Applied", CreatedAt: base}))
	require.NoError(t, s.CreateNotification(ctx, model.Notification{ID: "n2", Kind: model.KindCancelDeadline, Title: "Deadline", CreatedAt: base.Add(time.Minute)}))
	require.NoError(t, s.CreateNotification(ctx, model.Notification{ID: "n3", Kind: model.KindCancelDeadline, Title: "Same tick", CreatedAt: base.Add(time.Minute)}))

	all, err := s.GetNotifications(ctx, store.NotificationFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "n3", all[0].ID, "newest first, insertion order breaks ties")
	assert.Equal(t, "n1", all[2].ID)

	deadlines, err := s.GetNotifications(ctx, store.NotificationFilter{Kinds: []model.NotificationKind{model.KindCancelDeadline}, Limit: 1})
	require.NoError(t, err)
	assert.Len(t, deadlines, 1)

	require.NoError(t, s.MarkNotificationRead(ctx, "n1"))
	assert.True(t, errdef.IsNotFound(s.MarkNotificationRead(ctx, "missing")))

	unread, err := s.CountUnreadNotifications(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, unread)

	read := true
	readOnly, err := s.GetNotifications(ctx, store.NotificationFilter{Read: &read})
	require.NoError(t, err)
	require.Len(t, readOnly, 1)
	assert.Equal(t, "n1", readOnly[0].ID)

	changed, err := s.MarkAllNotificationsRead(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, changed)

	require.NoError(t, s.DeleteNotification(ctx, "n2"))
	assert.True(t, errdef.IsNotFound(s.DeleteNotification(ctx, "n2")))

	cleared, err := s.ClearNotifications(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, cleared)
}

func TestTriggers_InsertIfAbsentIsAtomic(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	now := testutil.Date(time.December, 12, 9)

	const workers = 16
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		fired int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.InsertTriggerIfAbsent(ctx, "en-1:cancel_deadline", now)
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				fired++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, fired)
	exists, err := s.TriggerExists(ctx, "en-1:cancel_deadline")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestPoints_BalanceAndHistory(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	balance, err := s.GetPointBalance(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, balance)

	require.NoError(t, s.CreatePointEntry(ctx, model.PointEntry{UserID: "u1", Points: 50, Reason: "River cleanup", CreatedAt: testutil.Date(time.December, 17, 9)}))
	require.NoError(t, s.CreatePointEntry(ctx, model.PointEntry{UserID: "u1", Points: 30, Reason: "Workshop", CreatedAt: testutil.Date(time.December, 21, 9)}))
	require.NoError(t, s.CreatePointEntry(ctx, model.PointEntry{UserID: "u2", Points: 5, Reason: "Other user"}))

	balance, err = s.GetPointBalance(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 80, balance)

	history, err := s.GetPointEntries(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "Workshop", history[0].Reason)
}

func TestPoints_RepeatedSourceIsIgnored(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	entry := model.PointEntry{UserID: "u1", SourceID: "reward:en-1", Points: 50, Reason: "River cleanup"}
	require.NoError(t, s.CreatePointEntry(ctx, entry))
	require.NoError(t, s.CreatePointEntry(ctx, entry))
	require.NoError(t, s.CreatePointEntry(ctx, model.PointEntry{UserID: "u1", Points: 5, Reason: "Manual"}))
	require.NoError(t, s.CreatePointEntry(ctx, model.PointEntry{UserID: "u1", Points: 5, Reason: "Manual"}))

	balance, err := s.GetPointBalance(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 60, balance)

	history, err := s.GetPointEntries(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, history, 3)
}

func TestRewardCredits_ClaimReleaseDeliver(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	now := testutil.Date(time.December, 15, 12)

	require.NoError(t, s.CreateEnrollment(ctx, newEnrollment("en-1", "E1")))
	credit := rewardCredit("en-1", 50)
	credit.ClaimedAt = &now
	ok, err := s.CompleteEnrollment(ctx, "en-1", now, credit)
	require.NoError(t, err)
	require.True(t, ok)

	claimed, err := s.ClaimRewardCredit(ctx, credit.SourceID, now.Add(time.Minute), now.Add(-5*time.Minute))
	require.NoError(t, err)
	assert.False(t, claimed, "a fresh claim is held")

	claimed, err = s.ClaimRewardCredit(ctx, credit.SourceID, now.Add(time.Hour), now.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, claimed, "a stale claim can be taken over")

	require.NoError(t, s.ReleaseRewardCredit(ctx, credit.SourceID))
	claimed, err = s.ClaimRewardCredit(ctx, credit.SourceID, now.Add(2*time.Hour), now)
	require.NoError(t, err)
	assert.True(t, claimed, "a released credit can be claimed")

	require.NoError(t, s.MarkRewardCreditDelivered(ctx, credit.SourceID, now.Add(2*time.Hour)))
	pending, err := s.GetPendingRewardCredits(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, pending)

	claimed, err = s.ClaimRewardCredit(ctx, credit.SourceID, now.Add(3*time.Hour), now.Add(3*time.Hour))
	require.NoError(t, err)
	assert.False(t, claimed, "delivered credits are never claimed")
}

func rewardCredit(enrollmentID string, points int) model.RewardCredit {
	return model.RewardCredit{
		SourceID:     model.RewardSourceID(enrollmentID),
		EnrollmentID: enrollmentID,
		UserID:       "u1",
		Points:       points,
		Reason:       "Volunteer: " + enrollmentID,
	}
}
