// Package reward credits points for verified participation.
package reward

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nhle/volunteer-board/internal/logging"
	"github.com/nhle/volunteer-board/internal/model"
)

// Dispatcher is the point ledger collaborator. Credit is invoked once per
// enrollment that transitions into completed, and again only if an earlier
// attempt failed. Implementations must treat a repeated SourceID as already
// applied.
type Dispatcher interface {
	Credit(ctx context.Context, credit model.RewardCredit) error
}

// pointStore is the persistence the local ledger needs.
type pointStore interface {
	CreatePointEntry(ctx context.Context, entry model.PointEntry) error
	GetPointEntries(ctx context.Context, userID string) ([]model.PointEntry, error)
	GetPointBalance(ctx context.Context, userID string) (int, error)
}

// PointLedger is a Dispatcher that keeps credits in the local database.
type PointLedger struct {
	store  pointStore
	logger *slog.Logger
	now    func() time.Time
}

var _ Dispatcher = (*PointLedger)(nil)

// NewPointLedger creates a ledger over the given store.
func NewPointLedger(s pointStore, logger *slog.Logger) *PointLedger {
	if logger == nil {
		logger = logging.Discard()
	}
	return &PointLedger{store: s, logger: logger.With("component", "reward"), now: time.Now}
}

// Credit appends a ledger entry. Zero-point credits are recorded too so the
// history shows every completed activity. A credit whose SourceID is already
// in the ledger is accepted without a second entry.
func (l *PointLedger) Credit(ctx context.Context, credit model.RewardCredit) error {
	if credit.Points < 0 {
		return fmt.Errorf("crediting %s: negative points %d", credit.UserID, credit.Points)
	}
	entry := model.PointEntry{
		SourceID:  credit.SourceID,
		UserID:    credit.UserID,
		Points:    credit.Points,
		Reason:    credit.Reason,
		CreatedAt: l.now(),
	}
	if err := l.store.CreatePointEntry(ctx, entry); err != nil {
		return fmt.Errorf("crediting %s: %w", credit.UserID, err)
	}
	l.logger.Info("points credited", "user_id", credit.UserID, "points", credit.Points,
		"source_id", credit.SourceID, "reason", credit.Reason)
	return nil
}

// Balance returns the user's current point total.
func (l *PointLedger) Balance(ctx context.Context, userID string) (int, error) {
	return l.store.GetPointBalance(ctx, userID)
}

// History returns the user's credits, newest first.
func (l *PointLedger) History(ctx context.Context, userID string) ([]model.PointEntry, error) {
	return l.store.GetPointEntries(ctx, userID)
}
