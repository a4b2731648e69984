package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/volunteer-board/internal/model"
)

// CreatePointEntry appends a credit to the local point ledger. An entry
// whose SourceID is already recorded is ignored, so redelivering a credit
// is harmless.
func (s *SQLiteStore) CreatePointEntry(ctx context.Context, entry model.PointEntry) error {
	if entry.UserID == "" {
		return fmt.Errorf("point entry user must not be empty")
	}
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	sourceID := sql.NullString{String: entry.SourceID, Valid: entry.SourceID != ""}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO point_entries (id, source_id, user_id, points, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID, sourceID, entry.UserID, entry.Points, entry.Reason, entry.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("creating point entry: %w", err)
	}
	return nil
}

// GetPointEntries returns a user's point history, newest first.
func (s *SQLiteStore) GetPointEntries(ctx context.Context, userID string) ([]model.PointEntry, error) {
	var entries []model.PointEntry
	err := s.db.SelectContext(ctx, &entries, `
		SELECT id, COALESCE(source_id, '') AS source_id, user_id, points, reason, created_at
		FROM point_entries WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying point entries: %w", err)
	}
	return entries, nil
}

// GetPointBalance returns the sum of a user's point entries.
func (s *SQLiteStore) GetPointBalance(ctx context.Context, userID string) (int, error) {
	var balance int
	if err := s.db.GetContext(ctx, &balance,
		"SELECT COALESCE(SUM(points), 0) FROM point_entries WHERE user_id = ?", userID); err != nil {
		return 0, fmt.Errorf("summing points: %w", err)
	}
	return balance, nil
}
