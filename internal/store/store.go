package store

import (
	"context"
	"time"

	"github.com/nhle/volunteer-board/internal/model"
)

// EnrollmentFilter controls filtering for enrollment queries.
type EnrollmentFilter struct {
	UserID  string
	Status  *model.EnrollmentStatus // nil (all)
	EventID *string
}

// NotificationFilter controls filtering and pagination for notification queries.
type NotificationFilter struct {
	Kinds []model.NotificationKind // any of these kinds (OR logic); empty means all
	Read  *bool                    // nil (all)
	Limit int
}

// Store defines the persistence interface for enrollments, notifications,
// fired trigger keys, reward credits and point entries.
type Store interface {
	// === Enrollments ===

	// CreateEnrollment inserts a new enrollment. A second enrollment for
	// the same (user, event) fails with ErrDuplicateEnrollment.
	CreateEnrollment(ctx context.Context, e model.Enrollment) error
	GetEnrollment(ctx context.Context, userID, eventID string) (*model.Enrollment, error)
	GetEnrollmentByID(ctx context.Context, id string) (*model.Enrollment, error)
	GetEnrollments(ctx context.Context, filter EnrollmentFilter) ([]model.Enrollment, error)

	// The conditional mutations below report whether a row changed.

	DeleteAppliedEnrollment(ctx context.Context, id string) (bool, error)
	MarkEnrollmentNoShow(ctx context.Context, id string, now time.Time) (bool, error)
	// CompleteEnrollment also records credit as owed, atomically with the
	// status change.
	CompleteEnrollment(ctx context.Context, id string, now time.Time, credit model.RewardCredit) (bool, error)

	// === Notifications ===

	CreateNotification(ctx context.Context, n model.Notification) error
	GetNotifications(ctx context.Context, filter NotificationFilter) ([]model.Notification, error)
	CountUnreadNotifications(ctx context.Context) (int, error)
	MarkNotificationRead(ctx context.Context, id string) error
	MarkAllNotificationsRead(ctx context.Context) (int64, error)
	DeleteNotification(ctx context.Context, id string) error
	ClearNotifications(ctx context.Context) (int64, error)

	// === Fired triggers ===

	// InsertTriggerIfAbsent records key and reports whether this call
	// inserted it.
	InsertTriggerIfAbsent(ctx context.Context, key string, firedAt time.Time) (bool, error)
	TriggerExists(ctx context.Context, key string) (bool, error)

	// === Reward credits ===

	GetPendingRewardCredits(ctx context.Context, userID string) ([]model.RewardCredit, error)
	ClaimRewardCredit(ctx context.Context, sourceID string, now, staleBefore time.Time) (bool, error)
	ReleaseRewardCredit(ctx context.Context, sourceID string) error
	MarkRewardCreditDelivered(ctx context.Context, sourceID string, now time.Time) error

	// === Points ===

	CreatePointEntry(ctx context.Context, entry model.PointEntry) error
	GetPointEntries(ctx context.Context, userID string) ([]model.PointEntry, error)
	GetPointBalance(ctx context.Context, userID string) (int, error)
}
