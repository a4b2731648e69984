package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/nhle/volunteer-board/internal/model"
	"github.com/nhle/volunteer-board/internal/store"
)

// Report summarises one reconciliation pass.
type Report struct {
	Now         time.Time    `json:"now"`
	Evaluated   int          `json:"evaluated"`
	Transitions []Transition `json:"transitions"`
	Fired       []Trigger    `json:"fired"`
	Skipped     []Skip       `json:"skipped"`
	Failures    int          `json:"failures"`

	// Credited counts pending reward credits delivered in this pass.
	Credited int `json:"credited"`
}

// Reconciler applies Evaluate's plan to the ledger and the inbox.
type Reconciler struct {
	store  EnrollmentStore
	events EventLookup
	announcer
	opts Options
}

// NewReconciler creates a Reconciler.
func NewReconciler(s EnrollmentStore, events EventLookup, guard TriggerGuard, inbox Inbox, opts Options) *Reconciler {
	opts = opts.withDefaults()
	logger := opts.Logger.With("component", "reconciler")
	opts.Logger = logger
	return &Reconciler{
		store:     s,
		events:    events,
		announcer: announcer{guard: guard, inbox: inbox, logger: logger},
		opts:      opts,
	}
}

// Run evaluates userID's ledger at now and applies the result. Per-enrollment
// failures are logged and counted; only failing to read the ledger aborts
// the pass. Completed enrollments are never touched and nothing is deleted.
func (r *Reconciler) Run(ctx context.Context, userID string, now time.Time) (Report, error) {
	enrollments, err := r.store.GetEnrollments(ctx, store.EnrollmentFilter{UserID: userID})
	if err != nil {
		return Report{}, fmt.Errorf("loading enrollments: %w", err)
	}

	plan := Evaluate(now, r.opts.Location, r.events.All(), enrollments)
	report := Report{
		Now:       now,
		Evaluated: len(enrollments),
		Skipped:   plan.Skipped,
	}
	for _, s := range plan.Skipped {
		r.opts.Logger.Warn("skipping enrollment", "enrollment_id", s.EnrollmentID, "event_id", s.EventID, "reason", s.Reason)
	}

	// ended_verify may only fire for enrollments that are actually no_show.
	noShow := make(map[string]bool)
	for _, en := range enrollments {
		if en.Status == model.EnrollmentNoShow {
			noShow[en.ID] = true
		}
	}

	for _, t := range plan.Transitions {
		changed, err := r.store.MarkEnrollmentNoShow(ctx, t.EnrollmentID, now)
		if err != nil {
			report.Failures++
			r.opts.Logger.Error("marking no-show", "enrollment_id", t.EnrollmentID, "error", err)
			continue
		}
		if changed {
			noShow[t.EnrollmentID] = true
			report.Transitions = append(report.Transitions, t)
			r.opts.Logger.Info("enrollment marked no-show", "enrollment_id", t.EnrollmentID, "event_id", t.EventID)
			continue
		}

		// Another pass or a verification got there first.
		current, err := r.store.GetEnrollmentByID(ctx, t.EnrollmentID)
		if err != nil {
			report.Failures++
			r.opts.Logger.Error("re-reading enrollment", "enrollment_id", t.EnrollmentID, "error", err)
			continue
		}
		noShow[t.EnrollmentID] = current.Status == model.EnrollmentNoShow
	}

	for _, t := range plan.Triggers {
		if t.Kind == model.KindEndedVerify && !noShow[t.EnrollmentID] {
			continue
		}
		delivered, err := r.announce(ctx, t, now)
		if err != nil {
			report.Failures++
			continue
		}
		if delivered {
			report.Fired = append(report.Fired, t)
			r.opts.Logger.Debug("trigger fired", "enrollment_id", t.EnrollmentID, "kind", t.Kind)
		}
	}

	return report, nil
}
