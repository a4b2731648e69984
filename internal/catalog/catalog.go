// Package catalog is the read-only view over published volunteer events.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/nhle/volunteer-board/internal/datewindow"
	"github.com/nhle/volunteer-board/internal/logging"
	"github.com/nhle/volunteer-board/internal/model"
	"github.com/nhle/volunteer-board/internal/source"
)

// Filter selects events for List. Zero fields match everything.
type Filter struct {
	// Query is matched case-insensitively against title and location.
	Query     string
	Region    string
	Organizer string

	// From drops events starting on an earlier calendar day.
	From time.Time

	// RecruitingOnly drops closed events.
	RecruitingOnly bool
}

// Catalog holds the latest snapshot loaded from a source.
type Catalog struct {
	src    source.Source
	loc    *time.Location
	logger *slog.Logger

	mu       sync.RWMutex
	events   []model.VolunteerEvent
	byID     map[string]model.VolunteerEvent
	loadedAt time.Time
}

// New creates an empty catalog over src. Call Refresh to load it.
func New(src source.Source, loc *time.Location, logger *slog.Logger) *Catalog {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Catalog{
		src:    src,
		loc:    loc,
		logger: logger.With("component", "catalog", "source", src.Kind()),
		byID:   map[string]model.VolunteerEvent{},
	}
}

// Refresh reloads the snapshot. A failed load keeps the previous snapshot.
// Invalid or duplicate events are dropped with a warning and the rest are
// listed.
func (c *Catalog) Refresh(ctx context.Context) error {
	events, err := c.src.Load(ctx)
	if err != nil {
		c.logger.Warn("catalog refresh failed, keeping previous snapshot", "error", err)
		return fmt.Errorf("refreshing catalog: %w", err)
	}

	sorted, rejected := source.Validate(events)
	for _, err := range rejected {
		c.logger.Warn("skipping invalid catalog event", "error", err)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartsAt.Before(sorted[j].StartsAt)
	})

	byID := make(map[string]model.VolunteerEvent, len(sorted))
	for _, e := range sorted {
		byID[e.ID] = e
	}

	c.mu.Lock()
	c.events = sorted
	c.byID = byID
	c.loadedAt = time.Now()
	c.mu.Unlock()

	c.logger.Debug("catalog refreshed", "events", len(sorted))
	return nil
}

// LoadedAt returns when the current snapshot was loaded.
func (c *Catalog) LoadedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loadedAt
}

// List returns events matching filter, sorted by start time ascending.
func (c *Catalog) List(filter Filter) []model.VolunteerEvent {
	c.mu.RLock()
	defer c.mu.RUnlock()

	query := strings.ToLower(strings.TrimSpace(filter.Query))

	var out []model.VolunteerEvent
	for _, e := range c.events {
		if query != "" &&
			!strings.Contains(strings.ToLower(e.Title), query) &&
			!strings.Contains(strings.ToLower(e.Location), query) {
			continue
		}
		if filter.Region != "" && !strings.EqualFold(e.Region, filter.Region) {
			continue
		}
		if filter.Organizer != "" && !strings.EqualFold(e.Organizer, filter.Organizer) {
			continue
		}
		if !filter.From.IsZero() && datewindow.Day(e.StartsAt, c.loc).Before(datewindow.Day(filter.From, c.loc)) {
			continue
		}
		if filter.RecruitingOnly && !e.IsRecruiting() {
			continue
		}
		out = append(out, e)
	}
	return out
}

// All returns every event in the snapshot.
func (c *Catalog) All() []model.VolunteerEvent {
	return c.List(Filter{})
}

// Get returns the event with id. Absence is not an error.
func (c *Catalog) Get(id string) (model.VolunteerEvent, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.byID[id]
	return e, ok
}

// Regions returns the distinct regions in the snapshot, sorted.
func (c *Catalog) Regions() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seen := map[string]bool{}
	var out []string
	for _, e := range c.events {
		if e.Region != "" && !seen[e.Region] {
			seen[e.Region] = true
			out = append(out, e.Region)
		}
	}
	sort.Strings(out)
	return out
}
