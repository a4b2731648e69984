package model

import (
	"fmt"
	"time"
)

// EventStatus is the recruiting state of a published volunteer event.
type EventStatus string

// Event status constants.
const (
	EventRecruiting EventStatus = "recruiting"
	EventClosed     EventStatus = "closed"
)

// VolunteerEvent is a published volunteer activity. It is owned by the
// catalog and never mutated by the lifecycle engine.
type VolunteerEvent struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	Organizer   string `json:"organizer" yaml:"organizer"`
	Region      string `json:"region" yaml:"region"`
	Location    string `json:"location" yaml:"location"`

	StartsAt time.Time `json:"starts_at" yaml:"starts_at"`
	Points   int       `json:"points" yaml:"points"`

	// CurrentParticipants is advisory display data only.
	MaxParticipants     int `json:"max_participants" yaml:"max_participants"`
	CurrentParticipants int `json:"current_participants" yaml:"current_participants"`

	ApplicationDeadline  time.Time `json:"application_deadline" yaml:"application_deadline"`
	CancellationDeadline time.Time `json:"cancellation_deadline" yaml:"cancellation_deadline"`
	PenaltyPolicy        string    `json:"penalty_policy" yaml:"penalty_policy"`

	VerificationSecret string      `json:"verification_secret" yaml:"verification_secret"`
	Status             EventStatus `json:"status" yaml:"status"`
}

// IsRecruiting reports whether the event still accepts applications.
func (e VolunteerEvent) IsRecruiting() bool { return e.Status == EventRecruiting }

// IsFull reports whether the advisory participant count reached capacity.
// An event without a capacity is never full.
func (e VolunteerEvent) IsFull() bool {
	return e.MaxParticipants > 0 && e.CurrentParticipants >= e.MaxParticipants
}

// Validate checks the fields a catalog source must provide before the event
// can be listed.
func (e VolunteerEvent) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("event id must not be empty")
	}
	if e.Title == "" {
		return fmt.Errorf("event %s: title must not be empty", e.ID)
	}
	if e.StartsAt.IsZero() {
		return fmt.Errorf("event %s: starts_at must be set", e.ID)
	}
	if e.ApplicationDeadline.After(e.StartsAt) {
		return fmt.Errorf("event %s: application deadline is after the start", e.ID)
	}
	if e.CancellationDeadline.After(e.StartsAt) {
		return fmt.Errorf("event %s: cancellation deadline is after the start", e.ID)
	}
	if e.Points < 0 {
		return fmt.Errorf("event %s: points must not be negative", e.ID)
	}
	switch e.Status {
	case EventRecruiting, EventClosed:
	default:
		return fmt.Errorf("event %s: unknown status %q", e.ID, e.Status)
	}
	return nil
}
