// Package guard records which (enrollment, trigger kind) pairs have already
// fired so that every reminder and reward side effect happens at most once.
package guard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nhle/volunteer-board/internal/model"
)

// ErrDuplicateTrigger is returned by Claim when the key was already recorded.
var ErrDuplicateTrigger = errors.New("trigger already fired")

// Key is the string form of a fired trigger, "{enrollmentID}:{kind}".
type Key string

// KeyFor builds the dedup key for a trigger. It is the only place keys are
// constructed.
func KeyFor(enrollmentID string, kind model.NotificationKind) Key {
	return Key(enrollmentID + ":" + string(kind))
}

// keyStore is the persistence the guard needs.
type keyStore interface {
	InsertTriggerIfAbsent(ctx context.Context, key string, firedAt time.Time) (bool, error)
	TriggerExists(ctx context.Context, key string) (bool, error)
}

// Guard is an atomic insert-if-absent set of fired trigger keys.
type Guard struct {
	store keyStore
	now   func() time.Time
}

// New creates a Guard over the given store.
func New(store keyStore) *Guard {
	return &Guard{store: store, now: time.Now}
}

// Claim records the trigger. It returns ErrDuplicateTrigger when another
// caller has already claimed the same key.
func (g *Guard) Claim(ctx context.Context, enrollmentID string, kind model.NotificationKind) error {
	if enrollmentID == "" {
		return fmt.Errorf("claiming %s trigger: empty enrollment id", kind)
	}
	key := KeyFor(enrollmentID, kind)

	inserted, err := g.store.InsertTriggerIfAbsent(ctx, string(key), g.now())
	if err != nil {
		return fmt.Errorf("claiming %s: %w", key, err)
	}
	if !inserted {
		return fmt.Errorf("claiming %s: %w", key, ErrDuplicateTrigger)
	}
	return nil
}

// Fire claims the trigger and reports whether this caller fired it.
// Duplicates are not errors.
func (g *Guard) Fire(ctx context.Context, enrollmentID string, kind model.NotificationKind) (bool, error) {
	err := g.Claim(ctx, enrollmentID, kind)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrDuplicateTrigger):
		return false, nil
	default:
		return false, err
	}
}

// Fired reports whether the trigger has already been recorded.
func (g *Guard) Fired(ctx context.Context, enrollmentID string, kind model.NotificationKind) (bool, error) {
	return g.store.TriggerExists(ctx, string(KeyFor(enrollmentID, kind)))
}
