package store

import (
	"context"
	"fmt"
	"time"
)

// InsertTriggerIfAbsent records a fired trigger key in a single atomic
// statement. It returns true only for the caller whose insert created the row.
func (s *SQLiteStore) InsertTriggerIfAbsent(
	ctx context.Context,
	key string,
	firedAt time.Time,
) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO fired_triggers (key, fired_at) VALUES (?, ?)",
		key, firedAt.UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("recording trigger %s: %w", key, err)
	}
	return changed(result)
}

// TriggerExists reports whether key has been recorded.
func (s *SQLiteStore) TriggerExists(ctx context.Context, key string) (bool, error) {
	var count int
	if err := s.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM fired_triggers WHERE key = ?", key); err != nil {
		return false, fmt.Errorf("checking trigger %s: %w", key, err)
	}
	return count > 0, nil
}
