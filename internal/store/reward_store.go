package store

import (
	"context"
	"fmt"
	"time"

	"github.com/nhle/volunteer-board/internal/model"
)

const rewardCreditColumns = `source_id, enrollment_id, user_id, points, reason,
	created_at, claimed_at, delivered_at`

// GetPendingRewardCredits returns a user's undelivered credits, oldest first.
func (s *SQLiteStore) GetPendingRewardCredits(ctx context.Context, userID string) ([]model.RewardCredit, error) {
	var credits []model.RewardCredit
	err := s.db.SelectContext(ctx, &credits, `
		SELECT `+rewardCreditColumns+`
		FROM reward_credits
		WHERE user_id = ? AND delivered_at IS NULL
		ORDER BY created_at ASC, rowid ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying pending reward credits: %w", err)
	}
	return credits, nil
}

// ClaimRewardCredit marks an undelivered credit as being delivered at now.
// A claim older than staleBefore is treated as abandoned and can be taken
// over. It reports whether this call holds the claim.
func (s *SQLiteStore) ClaimRewardCredit(ctx context.Context, sourceID string, now, staleBefore time.Time) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE reward_credits SET claimed_at = ?
		WHERE source_id = ? AND delivered_at IS NULL
			AND (claimed_at IS NULL OR claimed_at < ?)`,
		now.UTC(), sourceID, staleBefore.UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("claiming reward credit %s: %w", sourceID, err)
	}
	return changed(result)
}

// ReleaseRewardCredit drops the claim on an undelivered credit so the next
// attempt can take it.
func (s *SQLiteStore) ReleaseRewardCredit(ctx context.Context, sourceID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE reward_credits SET claimed_at = NULL
		WHERE source_id = ? AND delivered_at IS NULL`, sourceID)
	if err != nil {
		return fmt.Errorf("releasing reward credit %s: %w", sourceID, err)
	}
	return nil
}

// MarkRewardCreditDelivered records that the dispatcher accepted a credit.
func (s *SQLiteStore) MarkRewardCreditDelivered(ctx context.Context, sourceID string, now time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE reward_credits SET delivered_at = ?
		WHERE source_id = ? AND delivered_at IS NULL`, now.UTC(), sourceID)
	if err != nil {
		return fmt.Errorf("marking reward credit %s delivered: %w", sourceID, err)
	}
	return nil
}
