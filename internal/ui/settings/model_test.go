package settings

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/volunteer-board/internal/credential"
	"github.com/nhle/volunteer-board/internal/model"
	"github.com/nhle/volunteer-board/internal/source/file"
	"github.com/nhle/volunteer-board/tests/testutil"
)

func newTestModel(t *testing.T, vault *credential.Vault) (Model, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := model.AppConfig{
		User:    model.UserConfig{ID: "u1"},
		Store:   model.StoreConfig{Path: filepath.Join(dir, "board.db")},
		Catalog: model.CatalogConfig{Source: model.CatalogSourceFile, Path: filepath.Join(dir, "none.yaml"), RefreshIntervalSec: 900},
		Lifecycle: model.LifecycleConfig{
			PollIntervalSec: 60,
			Timezone:        "UTC",
		},
	}
	open := func() (*credential.Vault, error) { return vault, nil }
	path := filepath.Join(dir, "config.yaml")
	m := New(path, cfg, open, 100, 30)
	m.Start()
	return m, dir
}

func TestSave_FileSource(t *testing.T) {
	m, dir := newTestModel(t, nil)

	catalogPath := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, file.Write(catalogPath, []model.VolunteerEvent{testutil.RiverCleanup(), testutil.SortingWorkshop()}))
	m.fb.path = catalogPath
	m.fb.pollInterval = "120"
	m.fb.timezone = "Asia/Seoul"
	m.fb.enforceCapacity = true

	msg := m.save()()
	res, ok := msg.(resultMsg)
	require.True(t, ok)
	require.NoError(t, res.err)
	assert.True(t, res.saved)
	assert.Equal(t, 2, res.events)

	loaded, err := model.LoadConfig(m.configPath)
	require.NoError(t, err)
	assert.Equal(t, catalogPath, loaded.Catalog.Path)
	assert.Equal(t, 120, loaded.Lifecycle.PollIntervalSec)
	assert.Equal(t, "Asia/Seoul", loaded.Lifecycle.Timezone)
	assert.True(t, loaded.Lifecycle.EnforceCapacity)

	m, cmd := m.Update(res)
	require.NotNil(t, cmd)
	saved, ok := cmd().(SavedMsg)
	require.True(t, ok)
	assert.Equal(t, catalogPath, saved.Config.Catalog.Path)
	assert.Equal(t, ModeResult, m.mode)
	assert.Contains(t, m.View(), "2 activities loaded")
}

func TestSave_FeedSourceStoresToken(t *testing.T) {
	vault := credential.NewVault(keyring.NewArrayKeyring(nil))
	m, _ := newTestModel(t, vault)

	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"events": []model.VolunteerEvent{testutil.SortingWorkshop()},
		})
	}))
	t.Cleanup(srv.Close)

	m.fb.source = model.CatalogSourceFeed
	m.fb.feedURL = srv.URL
	m.fb.token = " tok-9 "

	res := m.save()().(resultMsg)
	require.NoError(t, res.err)
	assert.Equal(t, 1, res.events)
	assert.Equal(t, "Bearer tok-9", gotAuth)

	stored, err := vault.Get(credential.FeedTokenKey)
	require.NoError(t, err)
	assert.Equal(t, "tok-9", stored)

	// An empty token field keeps the stored one.
	m.fb.token = ""
	gotAuth = ""
	res = m.save()().(resultMsg)
	require.NoError(t, res.err)
	assert.Equal(t, "Bearer tok-9", gotAuth)
}

func TestSave_CatalogFailureStillSaves(t *testing.T) {
	m, _ := newTestModel(t, nil)

	res := m.save()().(resultMsg)
	assert.True(t, res.saved)
	require.Error(t, res.err)

	m, _ = m.Update(res)
	assert.Contains(t, m.View(), "Catalog check failed")
}

func TestSave_RejectsBadNumbers(t *testing.T) {
	m, _ := newTestModel(t, nil)
	m.fb.pollInterval = "soon"

	res := m.save()().(resultMsg)
	assert.False(t, res.saved)
	require.Error(t, res.err)

	m, cmd := m.Update(res)
	assert.Nil(t, cmd)
	assert.Contains(t, m.View(), "Not saved")
}

func TestValidators(t *testing.T) {
	assert.NoError(t, validateTimezone("Local"))
	assert.NoError(t, validateTimezone("Europe/Berlin"))
	assert.Error(t, validateTimezone("Mars/Olympus"))

	assert.NoError(t, validatePositive("30"))
	assert.Error(t, validatePositive("0"))
	assert.NoError(t, validateNonNegative("0"))
	assert.Error(t, validateNonNegative("-1"))

	assert.NoError(t, validateURL("https://example.org/feed"))
	assert.Error(t, validateURL("example.org"))
	assert.Error(t, validateRequired("Catalog file")("  "))
}
