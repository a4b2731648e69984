package testutil

import (
	"time"

	"github.com/nhle/volunteer-board/internal/model"
)

// Date returns a fixed 2025 timestamp in UTC.
func Date(month time.Month, day, hour int) time.Time {
	return time.Date(2025, month, day, hour, 0, 0, 0, time.UTC)
}

// RiverCleanup returns a recruiting event starting Dec 15 with a Dec 13
// cancellation deadline and a Dec 10 application deadline.
func RiverCleanup() model.VolunteerEvent {
	return model.VolunteerEvent{
		ID:                   "E1",
		Title:                "River cleanup",
		Description:          "Collect and sort litter along the riverbank.",
		Organizer:            "Green Ward",
		Region:               "Mapo",
		Location:             "Hangang Park, gate 3",
		StartsAt:             Date(time.December, 15, 10),
		Points:               50,
		MaxParticipants:      20,
		CurrentParticipants:  7,
		ApplicationDeadline:  Date(time.December, 10, 18),
		CancellationDeadline: Date(time.December, 13, 18),
		PenaltyPolicy:        "Late cancellations lose 10 points.",
		VerificationSecret:   "GREEN42",
		Status:               model.EventRecruiting,
	}
}

// SortingWorkshop returns a second recruiting event starting Dec 20.
func SortingWorkshop() model.VolunteerEvent {
	return model.VolunteerEvent{
		ID:                   "E2",
		Title:                "Recycling sorting workshop",
		Organizer:            "Eco Library",
		Region:               "Jongno",
		Location:             "Community center hall",
		StartsAt:             Date(time.December, 20, 14),
		Points:               30,
		ApplicationDeadline:  Date(time.December, 18, 18),
		CancellationDeadline: Date(time.December, 19, 12),
		VerificationSecret:   "sort-it",
		Status:               model.EventRecruiting,
	}
}
