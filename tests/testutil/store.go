package testutil

import (
	"path/filepath"
	"testing"

	"github.com/nhle/volunteer-board/internal/store"
)

// NewTestStore creates an in-memory SQLiteStore with all migrations applied.
// It automatically closes the store when the test completes.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	return open(t, ":memory:")
}

// OpenTestStore opens (or creates) a file-backed store named name inside
// dir. Opening the same dir and name twice reaches the same database.
func OpenTestStore(t *testing.T, dir, name string) *store.SQLiteStore {
	t.Helper()
	return open(t, filepath.Join(dir, name))
}

func open(t *testing.T, path string) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("opening test store %s: %v", path, err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store %s: %v", path, err)
		}
	})

	return s
}
