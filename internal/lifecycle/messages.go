package lifecycle

import (
	"fmt"
	"strings"
	"time"

	"github.com/nhle/volunteer-board/internal/model"
)

const (
	dayLayout      = "Mon Jan 2"
	deadlineLayout = "Mon Jan 2 15:04"
	timeLayout     = "15:04"
)

// NavTarget returns the view reference for an event.
func NavTarget(eventID string) string {
	return "event/" + eventID
}

// render builds the notification text for a trigger kind. ev may be the
// zero value when the event is no longer in the catalog.
func render(kind model.NotificationKind, ev model.VolunteerEvent, en model.Enrollment, points int, loc *time.Location) (title, body string) {
	name := ev.Title
	if name == "" {
		name = "Your activity"
	}

	switch kind {
	case model.KindApplied:
		title = "Application received"
		body = fmt.Sprintf("You're signed up for %s on %s. You can cancel until %s.",
			name, ev.StartsAt.In(loc).Format(dayLayout), en.CancellationDeadline.In(loc).Format(deadlineLayout))
	case model.KindCancelDeadline:
		title = "Cancellation closes tomorrow"
		body = fmt.Sprintf("%s: free cancellation ends %s.", name, en.CancellationDeadline.In(loc).Format(deadlineLayout))
		if policy := strings.TrimSpace(ev.PenaltyPolicy); policy != "" {
			body += " " + policy
		}
	case model.KindStartOneDay:
		title = name + " is tomorrow"
		body = fmt.Sprintf("Starts at %s, %s.", ev.StartsAt.In(loc).Format(timeLayout), ev.Location)
	case model.KindStartToday:
		title = name + " is today"
		body = fmt.Sprintf("Starts at %s, %s. Ask the organizer for the verification code.",
			ev.StartsAt.In(loc).Format(timeLayout), ev.Location)
	case model.KindEndedVerify:
		title = "Verify your attendance"
		body = fmt.Sprintf("%s has ended. Enter the verification code to collect %d points.", name, ev.Points)
	case model.KindVerified:
		title = "Attendance verified"
		body = fmt.Sprintf("%s: %d points credited. Thank you for volunteering!", name, points)
	default:
		title = string(kind)
	}
	return title, body
}
