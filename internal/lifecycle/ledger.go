// Package lifecycle implements the volunteer participation state machine:
// applying and cancelling, the reminder reconciler, and attendance
// verification.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/volunteer-board/internal/datewindow"
	"github.com/nhle/volunteer-board/internal/errdef"
	"github.com/nhle/volunteer-board/internal/logging"
	"github.com/nhle/volunteer-board/internal/model"
	"github.com/nhle/volunteer-board/internal/store"
)

// EventLookup is the read-only catalog view the engine needs.
type EventLookup interface {
	Get(id string) (model.VolunteerEvent, bool)
	All() []model.VolunteerEvent
}

// EnrollmentStore is the enrollment persistence the engine needs.
type EnrollmentStore interface {
	CreateEnrollment(ctx context.Context, e model.Enrollment) error
	GetEnrollment(ctx context.Context, userID, eventID string) (*model.Enrollment, error)
	GetEnrollmentByID(ctx context.Context, id string) (*model.Enrollment, error)
	GetEnrollments(ctx context.Context, filter store.EnrollmentFilter) ([]model.Enrollment, error)
	DeleteAppliedEnrollment(ctx context.Context, id string) (bool, error)
	MarkEnrollmentNoShow(ctx context.Context, id string, now time.Time) (bool, error)
	CompleteEnrollment(ctx context.Context, id string, now time.Time, credit model.RewardCredit) (bool, error)
}

// Options configures the engine components.
type Options struct {
	// Location is the time zone calendar days are compared in.
	Location *time.Location

	// EnforceCapacity rejects applications to full events.
	EnforceCapacity bool

	Logger *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Location == nil {
		o.Location = time.Local
	}
	if o.Logger == nil {
		o.Logger = logging.Discard()
	}
	return o
}

// Ledger runs the user-initiated enrollment commands.
type Ledger struct {
	store  EnrollmentStore
	events EventLookup
	announcer
	opts Options
}

// NewLedger creates a Ledger.
func NewLedger(s EnrollmentStore, events EventLookup, guard TriggerGuard, inbox Inbox, opts Options) *Ledger {
	opts = opts.withDefaults()
	logger := opts.Logger.With("component", "ledger")
	opts.Logger = logger
	return &Ledger{
		store:     s,
		events:    events,
		announcer: announcer{guard: guard, inbox: inbox, logger: logger},
		opts:      opts,
	}
}

// Apply enrolls userID in eventID. Preconditions are checked in order:
// the event exists, it is recruiting, the application deadline has not
// passed, capacity (when enforced), and no prior enrollment.
func (l *Ledger) Apply(ctx context.Context, userID, eventID string, now time.Time) (*model.Enrollment, error) {
	ev, ok := l.events.Get(eventID)
	if !ok {
		return nil, errdef.NewNotFound("event %s not found", eventID)
	}
	if !ev.IsRecruiting() {
		return nil, errdef.NewInvalidState(errdef.ReasonEventClosed, "%s is no longer recruiting", ev.Title)
	}
	if !datewindow.NotPast(now, ev.ApplicationDeadline) {
		return nil, errdef.NewInvalidState(errdef.ReasonApplicationClosed,
			"applications for %s closed at %s", ev.Title, ev.ApplicationDeadline.In(l.opts.Location).Format(deadlineLayout))
	}
	if l.opts.EnforceCapacity && ev.IsFull() {
		return nil, errdef.NewInvalidState(errdef.ReasonEventFull, "%s is full", ev.Title)
	}

	existing, err := l.store.GetEnrollment(ctx, userID, eventID)
	if err == nil && existing != nil {
		return nil, errdef.NewInvalidState(errdef.ReasonAlreadyApplied, "already applied to %s", ev.Title)
	}
	if err != nil && !errdef.IsNotFound(err) {
		return nil, fmt.Errorf("applying to %s: %w", eventID, err)
	}

	en := model.Enrollment{
		ID:                   uuid.New().String(),
		UserID:               userID,
		EventID:              eventID,
		Status:               model.EnrollmentApplied,
		CancellationDeadline: ev.CancellationDeadline,
		VerificationSecret:   ev.VerificationSecret,
		AppliedAt:            now,
		UpdatedAt:            now,
	}
	if err := l.store.CreateEnrollment(ctx, en); err != nil {
		if errors.Is(err, store.ErrDuplicateEnrollment) {
			return nil, errdef.NewInvalidState(errdef.ReasonAlreadyApplied, "already applied to %s", ev.Title)
		}
		return nil, fmt.Errorf("applying to %s: %w", eventID, err)
	}

	l.opts.Logger.Info("enrollment created", "enrollment_id", en.ID, "event_id", eventID, "user_id", userID)

	title, body := render(model.KindApplied, ev, en, ev.Points, l.opts.Location)
	trigger := Trigger{
		EnrollmentID: en.ID,
		EventID:      eventID,
		Kind:         model.KindApplied,
		Title:        title,
		Body:         body,
		NavTarget:    NavTarget(eventID),
	}
	if _, err := l.announce(ctx, trigger, now); err != nil {
		l.opts.Logger.Error("announcing application", "enrollment_id", en.ID, "error", err)
	}

	return &en, nil
}

// Cancel removes userID's enrollment in eventID. It succeeds up to and
// including the captured cancellation deadline instant.
func (l *Ledger) Cancel(ctx context.Context, userID, eventID string, now time.Time) error {
	en, err := l.store.GetEnrollment(ctx, userID, eventID)
	if err != nil {
		return err
	}
	if en.Status != model.EnrollmentApplied {
		return errdef.NewInvalidState(errdef.ReasonNotCancellable, "enrollment is %s and can no longer be cancelled", en.Status)
	}
	if !datewindow.NotPast(now, en.CancellationDeadline) {
		msg := "cancellation deadline passed"
		if ev, ok := l.events.Get(eventID); ok && ev.PenaltyPolicy != "" {
			msg += ": " + ev.PenaltyPolicy
		}
		return errdef.NewInvalidState(errdef.ReasonCancellationClosed, "%s", msg)
	}

	deleted, err := l.store.DeleteAppliedEnrollment(ctx, en.ID)
	if err != nil {
		return fmt.Errorf("cancelling %s: %w", eventID, err)
	}
	if !deleted {
		// Verified or marked no-show between the read and the delete.
		return errdef.NewInvalidState(errdef.ReasonNotCancellable, "enrollment changed and can no longer be cancelled")
	}

	l.opts.Logger.Info("enrollment cancelled", "enrollment_id", en.ID, "event_id", eventID, "user_id", userID)
	return nil
}

// Get returns userID's enrollment in eventID.
func (l *Ledger) Get(ctx context.Context, userID, eventID string) (*model.Enrollment, error) {
	return l.store.GetEnrollment(ctx, userID, eventID)
}

// List returns userID's enrollments, optionally filtered by status.
func (l *Ledger) List(ctx context.Context, userID string, status *model.EnrollmentStatus) ([]model.Enrollment, error) {
	return l.store.GetEnrollments(ctx, store.EnrollmentFilter{UserID: userID, Status: status})
}
