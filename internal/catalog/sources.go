package catalog

import (
	"fmt"

	"github.com/nhle/volunteer-board/internal/model"
	"github.com/nhle/volunteer-board/internal/source"
	"github.com/nhle/volunteer-board/internal/source/feed"
	"github.com/nhle/volunteer-board/internal/source/file"
)

// NewSource builds the source selected by cfg. token is only used by the
// feed source; an empty token sends unauthenticated requests.
func NewSource(cfg model.CatalogConfig, token string) (source.Source, error) {
	switch cfg.Source {
	case model.CatalogSourceFeed:
		if cfg.FeedURL == "" {
			return nil, fmt.Errorf("catalog.feed_url must be set for the feed source")
		}
		return feed.New(cfg.FeedURL, token), nil
	case model.CatalogSourceFile, "":
		if cfg.Path == "" {
			return nil, fmt.Errorf("catalog.path must be set for the file source")
		}
		return file.New(cfg.Path), nil
	default:
		return nil, fmt.Errorf("unknown catalog source %q", cfg.Source)
	}
}
