package model

import "time"

// EnrollmentStatus is the lifecycle state of an enrollment.
type EnrollmentStatus string

// Enrollment status constants.
const (
	EnrollmentApplied   EnrollmentStatus = "applied"
	EnrollmentCompleted EnrollmentStatus = "completed"
	EnrollmentNoShow    EnrollmentStatus = "no_show"
)

// Enrollment is a user's participation record for one volunteer event.
// The cancellation deadline and verification secret are copied from the
// event at apply time so later catalog edits cannot change them.
type Enrollment struct {
	ID                   string           `json:"id" db:"id"`
	UserID               string           `json:"user_id" db:"user_id"`
	EventID              string           `json:"event_id" db:"event_id"`
	Status               EnrollmentStatus `json:"status" db:"status"`
	IsVerified           bool             `json:"is_verified" db:"is_verified"`
	CancellationDeadline time.Time        `json:"cancellation_deadline" db:"cancellation_deadline"`
	VerificationSecret   string           `json:"-" db:"verification_secret"`
	AppliedAt            time.Time        `json:"applied_at" db:"applied_at"`
	VerifiedAt           *time.Time       `json:"verified_at,omitempty" db:"verified_at"`
	UpdatedAt            time.Time        `json:"updated_at" db:"updated_at"`
}

// IsVerifiable reports whether a correct code can still complete the enrollment.
func (e Enrollment) IsVerifiable() bool {
	return e.Status == EnrollmentApplied || e.Status == EnrollmentNoShow
}
