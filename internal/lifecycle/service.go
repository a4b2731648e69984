package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/nhle/volunteer-board/internal/catalog"
	"github.com/nhle/volunteer-board/internal/guard"
	"github.com/nhle/volunteer-board/internal/model"
	"github.com/nhle/volunteer-board/internal/notify"
	"github.com/nhle/volunteer-board/internal/reward"
	"github.com/nhle/volunteer-board/internal/scan"
	"github.com/nhle/volunteer-board/internal/store"
)

// Service is the surface the CLI and terminal UI talk to. It binds the
// engine components to one user.
type Service struct {
	userID   string
	catalog  *catalog.Catalog
	ledger   *Ledger
	recon    *Reconciler
	verifier *Verifier
	inbox    *notify.Service
	points   *reward.PointLedger
	guard    *guard.Guard
}

// Deps are the collaborators a Service is assembled from.
type Deps struct {
	UserID  string
	Store   *store.SQLiteStore
	Catalog *catalog.Catalog
	Inbox   *notify.Service
	Points  *reward.PointLedger

	// Decoder overrides the scan payload decoder.
	Decoder scan.Decoder
}

// NewService wires the ledger, reconciler and verifier over shared deps.
func NewService(d Deps, opts Options) *Service {
	g := guard.New(d.Store)
	return &Service{
		userID:   d.UserID,
		catalog:  d.Catalog,
		ledger:   NewLedger(d.Store, d.Catalog, g, d.Inbox, opts),
		recon:    NewReconciler(d.Store, d.Catalog, g, d.Inbox, opts),
		verifier: NewVerifier(d.Store, d.Catalog, d.Points, d.Decoder, g, d.Inbox, opts),
		inbox:    d.Inbox,
		points:   d.Points,
		guard:    g,
	}
}

// UserID returns the user this service acts for.
func (s *Service) UserID() string { return s.userID }

// Inbox exposes the notification service for subscriptions.
func (s *Service) Inbox() *notify.Service { return s.inbox }

// ApplyToActivity enrolls the user in eventID and announces the application.
func (s *Service) ApplyToActivity(ctx context.Context, eventID string, now time.Time) (*model.Enrollment, error) {
	return s.ledger.Apply(ctx, s.userID, eventID, now)
}

// CancelEnrollment withdraws the user's application while the cancellation
// window is open.
func (s *Service) CancelEnrollment(ctx context.Context, eventID string, now time.Time) error {
	return s.ledger.Cancel(ctx, s.userID, eventID, now)
}

// VerifyByCode completes the user's enrollment when code matches its secret.
func (s *Service) VerifyByCode(ctx context.Context, eventID, code string, now time.Time) (Result, error) {
	return s.verifier.VerifyByCode(ctx, s.userID, eventID, code, now)
}

// VerifyByScanPayload decodes a scanned payload and verifies it against eventID.
func (s *Service) VerifyByScanPayload(ctx context.Context, eventID, payload string, now time.Time) (Result, error) {
	return s.verifier.VerifyByScanPayload(ctx, s.userID, eventID, payload, now)
}

// RunReconciliation advances enrollment statuses, fires due reminders and
// retries reward credits that are still pending.
func (s *Service) RunReconciliation(ctx context.Context, now time.Time) (Report, error) {
	report, err := s.recon.Run(ctx, s.userID, now)
	if err != nil {
		return report, err
	}

	settled, failed, err := s.verifier.SettleCredits(ctx, s.userID, now)
	if err != nil {
		return report, fmt.Errorf("settling reward credits: %w", err)
	}
	report.Credited = settled
	report.Failures += failed
	return report, nil
}

// SentReminders returns the notification kinds already fired for the
// user's enrollment in eventID, in model.NotificationKinds order.
func (s *Service) SentReminders(ctx context.Context, eventID string) ([]model.NotificationKind, error) {
	en, err := s.ledger.Get(ctx, s.userID, eventID)
	if err != nil {
		return nil, err
	}

	var sent []model.NotificationKind
	for _, kind := range model.NotificationKinds {
		fired, err := s.guard.Fired(ctx, en.ID, kind)
		if err != nil {
			return nil, fmt.Errorf("checking %s reminder: %w", kind, err)
		}
		if fired {
			sent = append(sent, kind)
		}
	}
	return sent, nil
}

// ListNotifications returns the notifications matching filter.
func (s *Service) ListNotifications(ctx context.Context, filter notify.Filter) ([]model.Notification, error) {
	return s.inbox.List(ctx, filter)
}

// MarkRead marks one notification read.
func (s *Service) MarkRead(ctx context.Context, id string) error {
	return s.inbox.MarkRead(ctx, id)
}

// MarkAllRead marks every notification read.
func (s *Service) MarkAllRead(ctx context.Context) error {
	return s.inbox.MarkAllRead(ctx)
}

// DeleteNotification removes one notification from the inbox.
func (s *Service) DeleteNotification(ctx context.Context, id string) error {
	return s.inbox.Delete(ctx, id)
}

// ClearAll empties the inbox.
func (s *Service) ClearAll(ctx context.Context) error {
	return s.inbox.Clear(ctx)
}

// UnreadCount is the number of unread notifications.
func (s *Service) UnreadCount() int {
	return s.inbox.UnreadCount()
}

// ListActivities returns catalog events matching filter.
func (s *Service) ListActivities(filter catalog.Filter) []model.VolunteerEvent {
	return s.catalog.List(filter)
}

// GetActivity returns the event and whether it exists.
func (s *Service) GetActivity(eventID string) (model.VolunteerEvent, bool) {
	return s.catalog.Get(eventID)
}

// Regions lists the catalog's distinct regions.
func (s *Service) Regions() []string {
	return s.catalog.Regions()
}

// RefreshCatalog reloads the activity catalog from its source.
func (s *Service) RefreshCatalog(ctx context.Context) error {
	return s.catalog.Refresh(ctx)
}

// MyEnrollments lists the user's enrollments, optionally by status.
func (s *Service) MyEnrollments(ctx context.Context, status *model.EnrollmentStatus) ([]model.Enrollment, error) {
	return s.ledger.List(ctx, s.userID, status)
}

// MyEnrollment returns the user's enrollment for one event.
func (s *Service) MyEnrollment(ctx context.Context, eventID string) (*model.Enrollment, error) {
	return s.ledger.Get(ctx, s.userID, eventID)
}

// PointBalance sums the user's credited points.
func (s *Service) PointBalance(ctx context.Context) (int, error) {
	return s.points.Balance(ctx, s.userID)
}

// PointHistory returns the user's point entries, newest first.
func (s *Service) PointHistory(ctx context.Context) ([]model.PointEntry, error) {
	return s.points.History(ctx, s.userID)
}
