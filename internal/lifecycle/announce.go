package lifecycle

import (
	"context"
	"log/slog"
	"time"

	"github.com/nhle/volunteer-board/internal/model"
	"github.com/nhle/volunteer-board/internal/notify"
)

// TriggerGuard records fired (enrollment, kind) pairs atomically.
type TriggerGuard interface {
	Fire(ctx context.Context, enrollmentID string, kind model.NotificationKind) (bool, error)
}

// Inbox appends notification records.
type Inbox interface {
	Add(ctx context.Context, in notify.NewNotification) (model.Notification, error)
}

// announcer routes every trigger through the guard and appends a
// notification only for keys it freshly fired.
type announcer struct {
	guard  TriggerGuard
	inbox  Inbox
	logger *slog.Logger
}

// announce reports whether this call delivered the notification. Once the
// key is recorded the trigger is never retried, so a failed append is
// logged and returned but not undone.
func (a announcer) announce(ctx context.Context, t Trigger, at time.Time) (bool, error) {
	fired, err := a.guard.Fire(ctx, t.EnrollmentID, t.Kind)
	if err != nil || !fired {
		return false, err
	}

	_, err = a.inbox.Add(ctx, notify.NewNotification{
		Kind:         t.Kind,
		Title:        t.Title,
		Body:         t.Body,
		EnrollmentID: t.EnrollmentID,
		NavTarget:    t.NavTarget,
		At:           at,
	})
	if err != nil {
		a.logger.Error("trigger fired but notification was not stored",
			"enrollment_id", t.EnrollmentID, "kind", t.Kind, "error", err)
		return false, err
	}
	return true, nil
}
