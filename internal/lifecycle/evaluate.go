package lifecycle

import (
	"time"

	"github.com/nhle/volunteer-board/internal/datewindow"
	"github.com/nhle/volunteer-board/internal/model"
)

// Trigger is a notification-worthy condition for one enrollment.
type Trigger struct {
	EnrollmentID string                 `json:"enrollment_id"`
	EventID      string                 `json:"event_id"`
	Kind         model.NotificationKind `json:"kind"`
	Title        string                 `json:"title"`
	Body         string                 `json:"body"`
	NavTarget    string                 `json:"nav_target"`
}

// Transition is a status change the reconciler should apply.
type Transition struct {
	EnrollmentID string                 `json:"enrollment_id"`
	EventID      string                 `json:"event_id"`
	To           model.EnrollmentStatus `json:"to"`
}

// Skip records an enrollment that could not be evaluated.
type Skip struct {
	EnrollmentID string `json:"enrollment_id"`
	EventID      string `json:"event_id"`
	Reason       string `json:"reason"`
}

// Plan is the outcome of evaluating the ledger at one instant.
type Plan struct {
	Transitions []Transition
	Triggers    []Trigger
	Skipped     []Skip
}

// Evaluate derives transitions and triggers from now, the catalog and the
// ledger. It has no side effects; running it twice with the same inputs
// gives the same plan.
//
// For every applied enrollment:
//   - the day before the captured cancellation deadline emits cancel_deadline
//   - the day before the event emits start_1day, else the event day emits start_today
//   - a past event day without verification moves it to no_show and emits ended_verify
//
// Unverified no_show enrollments re-emit ended_verify so a pass interrupted
// between the transition and the notification still delivers it.
func Evaluate(now time.Time, loc *time.Location, events []model.VolunteerEvent, enrollments []model.Enrollment) Plan {
	if loc == nil {
		loc = time.Local
	}
	byID := make(map[string]model.VolunteerEvent, len(events))
	for _, e := range events {
		byID[e.ID] = e
	}

	var plan Plan
	for _, en := range enrollments {
		if en.Status != model.EnrollmentApplied && en.Status != model.EnrollmentNoShow {
			continue
		}

		ev, ok := byID[en.EventID]
		if !ok {
			plan.Skipped = append(plan.Skipped, Skip{
				EnrollmentID: en.ID,
				EventID:      en.EventID,
				Reason:       "event not in catalog",
			})
			continue
		}

		trigger := func(kind model.NotificationKind) {
			title, body := render(kind, ev, en, ev.Points, loc)
			plan.Triggers = append(plan.Triggers, Trigger{
				EnrollmentID: en.ID,
				EventID:      en.EventID,
				Kind:         kind,
				Title:        title,
				Body:         body,
				NavTarget:    NavTarget(en.EventID),
			})
		}

		if en.Status == model.EnrollmentNoShow {
			if !en.IsVerified {
				trigger(model.KindEndedVerify)
			}
			continue
		}

		if datewindow.SameDay(now, datewindow.DayBefore(en.CancellationDeadline), loc) {
			trigger(model.KindCancelDeadline)
		}

		if datewindow.SameDay(now, datewindow.DayBefore(ev.StartsAt), loc) {
			trigger(model.KindStartOneDay)
		} else if datewindow.SameDay(now, ev.StartsAt, loc) {
			trigger(model.KindStartToday)
		}

		if datewindow.After(now, ev.StartsAt, loc) && !en.IsVerified {
			plan.Transitions = append(plan.Transitions, Transition{
				EnrollmentID: en.ID,
				EventID:      en.EventID,
				To:           model.EnrollmentNoShow,
			})
			trigger(model.KindEndedVerify)
		}
	}
	return plan
}
