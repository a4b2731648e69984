package cli_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/volunteer-board/internal/cli"
	"github.com/nhle/volunteer-board/internal/credential"
	"github.com/nhle/volunteer-board/internal/errdef"
	"github.com/nhle/volunteer-board/internal/model"
	"github.com/nhle/volunteer-board/internal/source/file"
	"github.com/nhle/volunteer-board/tests/testutil"
)

// writeConfig lays out a config, a catalog file and a database path in a
// temp directory and returns the config path.
func writeConfig(t *testing.T, mutate func(*model.AppConfig)) string {
	t.Helper()
	dir := t.TempDir()

	catalogPath := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, file.Write(catalogPath, []model.VolunteerEvent{
		testutil.RiverCleanup(),
		testutil.SortingWorkshop(),
	}))

	cfg := &model.AppConfig{
		User:  model.UserConfig{ID: "u1"},
		Store: model.StoreConfig{Path: filepath.Join(dir, "data", "board.db")},
		Catalog: model.CatalogConfig{
			Source: model.CatalogSourceFile,
			Path:   catalogPath,
		},
		Lifecycle: model.LifecycleConfig{PollIntervalSec: 60, Timezone: "UTC"},
		Log:       model.LogConfig{Level: "error", Format: "text"},
	}
	if mutate != nil {
		mutate(cfg)
	}

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, model.SaveConfig(path, cfg))
	return path
}

func execute(t *testing.T, cfgPath string, args ...string) (string, error) {
	t.Helper()
	cmd := cli.NewRootCmdForTest()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := cmd.Execute()
	return buf.String(), err
}

func TestEventsList(t *testing.T) {
	cfg := writeConfig(t, nil)

	out, err := execute(t, cfg, "events", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "River cleanup")
	assert.Contains(t, out, "Recycling sorting workshop")
	assert.Contains(t, out, "7/20")
}

func TestEventsList_FilteredJSON(t *testing.T) {
	cfg := writeConfig(t, nil)

	out, err := execute(t, cfg, "events", "list", "--region", "Mapo", "--json")
	require.NoError(t, err)

	var events []model.VolunteerEvent
	require.NoError(t, json.Unmarshal([]byte(out), &events), "output should be valid JSON")
	require.Len(t, events, 1)
	assert.Equal(t, "E1", events[0].ID)
	assert.Empty(t, events[0].VerificationSecret, "secret must not be printed")

	out, err = execute(t, cfg, "events", "list", "--from", "2025-12-16", "--json")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &events))
	require.Len(t, events, 1)
	assert.Equal(t, "E2", events[0].ID)
}

func TestEventsShow(t *testing.T) {
	cfg := writeConfig(t, nil)

	out, err := execute(t, cfg, "events", "show", "E1")
	require.NoError(t, err)
	assert.Contains(t, out, "Late cancellations lose 10 points.")
	assert.NotContains(t, out, "GREEN42")
	assert.NotContains(t, out, "Your enrollment")

	_, err = execute(t, cfg, "events", "show", "E9")
	assert.True(t, errdef.IsNotFound(err))
}

func TestApplyCancelFlow(t *testing.T) {
	cfg := writeConfig(t, nil)

	out, err := execute(t, cfg, "--now", "2025-12-01T09:00", "apply", "E2")
	require.NoError(t, err)
	assert.Contains(t, out, "Applied to E2")
	assert.Contains(t, out, "2025-12-19 12:00")

	_, err = execute(t, cfg, "--now", "2025-12-01T10:00", "apply", "E2")
	assert.True(t, errdef.IsInvalidState(err))

	out, err = execute(t, cfg, "--now", "2025-12-02T09:00", "enrollments", "--status", "applied")
	require.NoError(t, err)
	assert.Contains(t, out, "Recycling sorting workshop")

	out, err = execute(t, cfg, "--now", "2025-12-02T09:00", "events", "show", "E2")
	require.NoError(t, err)
	assert.Contains(t, out, "Your enrollment: applied")
	assert.Contains(t, out, "Notifications sent: applied\n")

	_, err = execute(t, cfg, "--now", "2025-12-19T12:01", "cancel", "E2")
	assert.Equal(t, errdef.ReasonCancellationClosed, errdef.ReasonOf(err))

	out, err = execute(t, cfg, "--now", "2025-12-19T12:00", "cancel", "E2")
	require.NoError(t, err)
	assert.Contains(t, out, "Cancelled enrollment in E2")

	out, err = execute(t, cfg, "--now", "2025-12-19T13:00", "enrollments")
	require.NoError(t, err)
	assert.Contains(t, out, "No enrollments.")
}

func TestEnrollments_RejectsUnknownStatus(t *testing.T) {
	cfg := writeConfig(t, nil)
	_, err := execute(t, cfg, "enrollments", "--status", "cancelled")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown status")
}

func TestVerifyAndPoints(t *testing.T) {
	cfg := writeConfig(t, nil)

	_, err := execute(t, cfg, "--now", "2025-12-01T09:00", "apply", "E1")
	require.NoError(t, err)

	_, err = execute(t, cfg, "--now", "2025-12-15T12:00", "verify", "E1", "--code", "wrong")
	assert.True(t, errdef.IsVerificationMismatch(err))

	out, err := execute(t, cfg, "--now", "2025-12-15T12:00", "verify", "E1", "--payload", "VOLUNTEER:E1:GREEN42")
	require.NoError(t, err)
	assert.Contains(t, out, "50 points credited")

	out, err = execute(t, cfg, "--now", "2025-12-15T12:05", "verify", "E1", "--code", "GREEN42", "--json")
	require.NoError(t, err)
	var res map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, true, res["already_verified"])
	assert.Equal(t, float64(0), res["points_credited"])

	out, err = execute(t, cfg, "--now", "2025-12-15T12:10", "points")
	require.NoError(t, err)
	assert.Contains(t, out, "Balance: 50 points")
	assert.Contains(t, out, "Volunteer: River cleanup")
}

func TestVerify_RequiresCodeOrPayload(t *testing.T) {
	cfg := writeConfig(t, nil)
	_, err := execute(t, cfg, "verify", "E1")
	require.Error(t, err)

	_, err = execute(t, cfg, "verify", "E1", "--code", "a", "--payload", "b")
	require.Error(t, err)
}

func TestReconcileAndNotifications(t *testing.T) {
	cfg := writeConfig(t, nil)

	_, err := execute(t, cfg, "--now", "2025-12-01T09:00", "apply", "E1")
	require.NoError(t, err)

	out, err := execute(t, cfg, "--now", "2025-12-14T09:00", "reconcile", "--json")
	require.NoError(t, err)
	var report struct {
		Evaluated int `json:"evaluated"`
		Fired     []struct {
			Kind string `json:"kind"`
		} `json:"fired"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 1, report.Evaluated)
	require.Len(t, report.Fired, 1)
	assert.Equal(t, string(model.KindStartOneDay), report.Fired[0].Kind)

	// A second pass on the same day fires nothing new.
	out, err = execute(t, cfg, "--now", "2025-12-14T15:00", "reconcile")
	require.NoError(t, err)
	assert.Contains(t, out, "0 reminders")

	out, err = execute(t, cfg, "--now", "2025-12-14T16:00", "notifications", "list", "--unread", "--json")
	require.NoError(t, err)
	var items []model.Notification
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	require.Len(t, items, 2)
	assert.Equal(t, model.KindStartOneDay, items[0].Kind)
	assert.Equal(t, model.KindApplied, items[1].Kind)

	out, err = execute(t, cfg, "--now", "2025-12-14T16:00", "notifications", "list", "--kind", "applied", "--json")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	require.Len(t, items, 1)

	_, err = execute(t, cfg, "notifications", "read", items[0].ID)
	require.NoError(t, err)
	out, err = execute(t, cfg, "--now", "2025-12-14T16:00", "notifications", "list", "--unread", "--json")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	require.Len(t, items, 1)

	_, err = execute(t, cfg, "notifications", "delete", items[0].ID)
	require.NoError(t, err)
	_, err = execute(t, cfg, "notifications", "read-all")
	require.NoError(t, err)
	_, err = execute(t, cfg, "notifications", "clear")
	require.NoError(t, err)

	out, err = execute(t, cfg, "--now", "2025-12-14T16:00", "notifications", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Inbox is empty.")
}

func TestNotifications_RejectsUnknownKind(t *testing.T) {
	cfg := writeConfig(t, nil)
	_, err := execute(t, cfg, "notifications", "list", "--kind", "reminder")
	require.Error(t, err)
}

func TestReconcile_MarksNoShow(t *testing.T) {
	cfg := writeConfig(t, nil)

	_, err := execute(t, cfg, "--now", "2025-12-01T09:00", "apply", "E1")
	require.NoError(t, err)

	out, err := execute(t, cfg, "--now", "2025-12-16T09:00", "reconcile")
	require.NoError(t, err)
	assert.Contains(t, out, "E1: now no_show")
	assert.Contains(t, out, "E1: ended_verify")

	out, err = execute(t, cfg, "--now", "2025-12-16T10:00", "enrollments", "--status", "no_show")
	require.NoError(t, err)
	assert.Contains(t, out, "River cleanup")
}

func TestViewCommandsReconcileFirst(t *testing.T) {
	cfg := writeConfig(t, nil)

	_, err := execute(t, cfg, "--now", "2025-12-01T09:00", "apply", "E1")
	require.NoError(t, err)

	// No explicit reconcile: viewing on Dec 16 moves E1 to no_show.
	out, err := execute(t, cfg, "--now", "2025-12-16T09:00", "enrollments", "--status", "no_show")
	require.NoError(t, err)
	assert.Contains(t, out, "River cleanup")

	out, err = execute(t, cfg, "--now", "2025-12-16T09:05", "notifications", "list", "--kind", "ended_verify", "--json")
	require.NoError(t, err)
	var items []model.Notification
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	assert.Len(t, items, 1)
}

func TestMissingCatalogStillRuns(t *testing.T) {
	cfg := writeConfig(t, func(c *model.AppConfig) {
		c.Catalog.Path = filepath.Join(t.TempDir(), "missing.yaml")
	})

	out, err := execute(t, cfg, "events", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No activities found.")
}

func TestInvalidNow(t *testing.T) {
	cfg := writeConfig(t, nil)
	_, err := execute(t, cfg, "--now", "tomorrow", "events", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --now")
}

func TestFeedToken_SetAndClear(t *testing.T) {
	vault := credential.NewVault(keyring.NewArrayKeyring(nil))
	restore := cli.SetVaultOpener(func() (*credential.Vault, error) { return vault, nil })
	t.Cleanup(restore)

	cmd := cli.NewRootCmdForTest()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetIn(strings.NewReader("  tok-123\n"))
	cmd.SetArgs([]string{"feed-token", "set"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "Feed token saved.")

	got, err := vault.Get(credential.FeedTokenKey)
	require.NoError(t, err)
	assert.Equal(t, "tok-123", got)

	cmd = cli.NewRootCmdForTest()
	cmd.SetOut(io.Discard)
	cmd.SetArgs([]string{"feed-token", "clear"})
	require.NoError(t, cmd.Execute())
	_, err = vault.Get(credential.FeedTokenKey)
	assert.True(t, credential.IsNotFound(err))
}

func TestFeedSource_UsesStoredToken(t *testing.T) {
	vault := credential.NewVault(keyring.NewArrayKeyring(nil))
	require.NoError(t, vault.Set(credential.FeedTokenKey, "tok-123"))
	restore := cli.SetVaultOpener(func() (*credential.Vault, error) { return vault, nil })
	t.Cleanup(restore)

	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"events": []model.VolunteerEvent{testutil.SortingWorkshop()},
		})
	}))
	t.Cleanup(srv.Close)

	cfg := writeConfig(t, func(c *model.AppConfig) {
		c.Catalog.Source = model.CatalogSourceFeed
		c.Catalog.FeedURL = srv.URL
	})

	out, err := execute(t, cfg, "events", "list")
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.Contains(t, out, "Recycling sorting workshop")
	assert.NotContains(t, out, "River cleanup")
}
