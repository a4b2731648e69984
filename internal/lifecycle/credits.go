package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nhle/volunteer-board/internal/model"
	"github.com/nhle/volunteer-board/internal/reward"
)

// creditClaimTTL is how long a delivery attempt holds a credit before
// another attempt may take it over.
const creditClaimTTL = 5 * time.Minute

// RewardStore is the pending-credit persistence the engine needs.
type RewardStore interface {
	GetPendingRewardCredits(ctx context.Context, userID string) ([]model.RewardCredit, error)
	ClaimRewardCredit(ctx context.Context, sourceID string, now, staleBefore time.Time) (bool, error)
	ReleaseRewardCredit(ctx context.Context, sourceID string) error
	MarkRewardCreditDelivered(ctx context.Context, sourceID string, now time.Time) error
}

// creditor hands owed credits to the dispatcher. The caller must hold the
// credit's claim.
type creditor struct {
	store      RewardStore
	dispatcher reward.Dispatcher
	logger     *slog.Logger
}

// deliver sends one claimed credit. On failure the claim is released and
// the credit stays pending.
func (c creditor) deliver(ctx context.Context, credit model.RewardCredit, now time.Time) error {
	if err := c.dispatcher.Credit(ctx, credit); err != nil {
		if rerr := c.store.ReleaseRewardCredit(ctx, credit.SourceID); rerr != nil {
			c.logger.Error("releasing reward credit", "source_id", credit.SourceID, "error", rerr)
		}
		return fmt.Errorf("crediting reward %s: %w", credit.SourceID, err)
	}
	if err := c.store.MarkRewardCreditDelivered(ctx, credit.SourceID, now); err != nil {
		// The claim lapses and the credit is resent under the same SourceID.
		c.logger.Error("marking reward credit delivered", "source_id", credit.SourceID, "error", err)
	}
	return nil
}

// settle delivers every pending credit of userID that no other attempt
// holds. Per-credit failures are logged and counted.
func (c creditor) settle(ctx context.Context, userID string, now time.Time) (settled, failed int, err error) {
	pending, err := c.store.GetPendingRewardCredits(ctx, userID)
	if err != nil {
		return 0, 0, err
	}

	for _, credit := range pending {
		claimed, err := c.store.ClaimRewardCredit(ctx, credit.SourceID, now, now.Add(-creditClaimTTL))
		if err != nil {
			failed++
			c.logger.Error("claiming reward credit", "source_id", credit.SourceID, "error", err)
			continue
		}
		if !claimed {
			continue
		}
		if err := c.deliver(ctx, credit, now); err != nil {
			failed++
			c.logger.Warn("reward credit still pending", "source_id", credit.SourceID, "error", err)
			continue
		}
		settled++
		c.logger.Info("pending reward credited", "source_id", credit.SourceID, "points", credit.Points)
	}
	return settled, failed, nil
}
