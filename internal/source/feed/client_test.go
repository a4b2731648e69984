package feed_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/volunteer-board/internal/model"
	"github.com/nhle/volunteer-board/internal/source"
	"github.com/nhle/volunteer-board/internal/source/feed"
	"github.com/nhle/volunteer-board/tests/testutil"
)

func serveEvents(t *testing.T, events []model.VolunteerEvent) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{"events": events})
	require.NoError(t, err)
	return body
}

func TestLoad_SendsBearerToken(t *testing.T) {
	body := serveEvents(t, []model.VolunteerEvent{testutil.RiverCleanup()})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	events, err := feed.New(srv.URL, "tok").Load(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "E1", events[0].ID)
	assert.Equal(t, "GREEN42", events[0].VerificationSecret)
}

func TestLoad_RetriesOn429(t *testing.T) {
	body := serveEvents(t, []model.VolunteerEvent{testutil.SortingWorkshop()})
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	events, err := feed.New(srv.URL, "", feed.WithMaxBackoff(10*time.Millisecond)).Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, events, 1)
	assert.EqualValues(t, 2, calls.Load())
}

func TestLoad_UnauthorizedIsAuthError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := feed.New(srv.URL, "expired").Load(context.Background())
	assert.True(t, source.IsAuthError(err))
}

func TestLoad_ServerErrorMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"message":"maintenance"}`))
	}))
	defer srv.Close()

	_, err := feed.New(srv.URL, "").Load(context.Background())
	assert.ErrorContains(t, err, "maintenance")
}
