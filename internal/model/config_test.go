package model_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/volunteer-board/internal/model"
)

func TestLoadConfig_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := model.LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "local-user", cfg.User.ID)
	assert.Equal(t, model.CatalogSourceFile, cfg.Catalog.Source)
	assert.Equal(t, 60, cfg.Lifecycle.PollIntervalSec)
	assert.False(t, cfg.Lifecycle.EnforceCapacity)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadConfig_OverridesAndDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
user:
  id: alice
lifecycle:
  timezone: Asia/Seoul
  enforce_capacity: true
catalog:
  source: feed
  feed_url: https://example.org/events.json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := model.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "alice", cfg.User.ID)
	assert.True(t, cfg.Lifecycle.EnforceCapacity)
	assert.Equal(t, 60, cfg.Lifecycle.PollIntervalSec)
	assert.Equal(t, model.CatalogSourceFeed, cfg.Catalog.Source)
	assert.Equal(t, "https://example.org/events.json", cfg.Catalog.FeedURL)

	loc, err := cfg.Lifecycle.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Seoul", loc.String())
}

func TestLoadConfig_RejectsUnknownCatalogSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("catalog:\n  source: carrier-pigeon\n"), 0o600))

	_, err := model.LoadConfig(path)
	assert.ErrorContains(t, err, "unknown catalog source")
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := model.LoadConfig(path)
	require.NoError(t, err)
	cfg.User.ID = "bob"
	cfg.Lifecycle.PollIntervalSec = 30

	require.NoError(t, model.SaveConfig(path, cfg))

	loaded, err := model.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "bob", loaded.User.ID)
	assert.Equal(t, 30*time.Second, loaded.Lifecycle.PollInterval())
}

func TestVolunteerEvent_Validate(t *testing.T) {
	start := time.Date(2025, 12, 15, 9, 0, 0, 0, time.UTC)
	valid := model.VolunteerEvent{
		ID:                   "E1",
		Title:                "River cleanup",
		StartsAt:             start,
		ApplicationDeadline:  start.AddDate(0, 0, -3),
		CancellationDeadline: start.AddDate(0, 0, -2),
		Status:               model.EventRecruiting,
	}
	require.NoError(t, valid.Validate())

	late := valid
	late.CancellationDeadline = start.AddDate(0, 0, 1)
	assert.ErrorContains(t, late.Validate(), "cancellation deadline")

	unknown := valid
	unknown.Status = "paused"
	assert.ErrorContains(t, unknown.Validate(), "unknown status")

	assert.False(t, valid.IsFull())
	valid.MaxParticipants, valid.CurrentParticipants = 10, 10
	assert.True(t, valid.IsFull())
}
