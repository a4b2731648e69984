package model

import "time"

// PointEntry is one credit in the local point ledger. SourceID ties the
// entry to the credit that produced it; an entry with a given SourceID is
// recorded once.
type PointEntry struct {
	ID        string    `json:"id" db:"id"`
	SourceID  string    `json:"source_id,omitempty" db:"source_id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Points    int       `json:"points" db:"points"`
	Reason    string    `json:"reason" db:"reason"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// RewardCredit is the reward owed for one completed enrollment. It is
// written together with the completion and stays pending until the
// dispatcher accepts it.
type RewardCredit struct {
	SourceID     string     `json:"source_id" db:"source_id"`
	EnrollmentID string     `json:"enrollment_id" db:"enrollment_id"`
	UserID       string     `json:"user_id" db:"user_id"`
	Points       int        `json:"points" db:"points"`
	Reason       string     `json:"reason" db:"reason"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	ClaimedAt    *time.Time `json:"-" db:"claimed_at"`
	DeliveredAt  *time.Time `json:"delivered_at,omitempty" db:"delivered_at"`
}

// RewardSourceID returns the credit key for an enrollment.
func RewardSourceID(enrollmentID string) string {
	return "reward:" + enrollmentID
}
