package model

import "time"

// NotificationKind identifies the trigger that produced a notification.
type NotificationKind string

// Notification kinds. Each is also the trigger kind used for its dedup key.
const (
	KindApplied        NotificationKind = "applied"
	KindCancelDeadline NotificationKind = "cancel_deadline"
	KindStartOneDay    NotificationKind = "start_1day"
	KindStartToday     NotificationKind = "start_today"
	KindEndedVerify    NotificationKind = "ended_verify"
	KindVerified       NotificationKind = "verified"
)

// NotificationKinds lists every kind in display order.
var NotificationKinds = []NotificationKind{
	KindApplied,
	KindCancelDeadline,
	KindStartOneDay,
	KindStartToday,
	KindEndedVerify,
	KindVerified,
}

// Notification represents an alert surfaced to the user about one of
// their enrollments.
type Notification struct {
	// ID is the unique identifier for this notification.
	ID string `json:"id"`

	// Kind identifies which trigger generated this notification.
	Kind NotificationKind `json:"kind"`

	Title string `json:"title"`
	Body  string `json:"body"`

	// EnrollmentID links this notification to the originating enrollment, if any.
	EnrollmentID string `json:"enrollment_id,omitempty"`

	// NavTarget is an optional view reference, e.g. "event/E1".
	NavTarget string `json:"nav_target,omitempty"`

	// Read indicates whether the user has seen this notification.
	Read bool `json:"read"`

	// CreatedAt is when this notification was generated.
	CreatedAt time.Time `json:"created_at"`
}
