package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/nhle/volunteer-board/internal/model"
)

// Kind identifies the kind of catalog source.
type Kind string

const (
	KindFile Kind = "file"
	KindFeed Kind = "feed"
)

// AuthError indicates that authentication has failed or expired for a source.
// It is returned by source clients when a 401 response is received.
type AuthError struct {
	Kind    Kind
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error (%s): %s", e.Kind, e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// Source defines the contract every catalog source must implement.
type Source interface {
	// Kind returns the source kind identifier.
	Kind() Kind

	// Load returns the full list of published volunteer events.
	Load(ctx context.Context) ([]model.VolunteerEvent, error)
}

// Validate splits events into those that can be listed and the reasons the
// rest were rejected. The first event with a given id wins; later ones are
// rejected as duplicates.
func Validate(events []model.VolunteerEvent) ([]model.VolunteerEvent, []error) {
	valid := make([]model.VolunteerEvent, 0, len(events))
	var rejected []error
	seen := make(map[string]bool, len(events))
	for _, e := range events {
		if err := e.Validate(); err != nil {
			rejected = append(rejected, err)
			continue
		}
		if seen[e.ID] {
			rejected = append(rejected, fmt.Errorf("duplicate event id %s", e.ID))
			continue
		}
		seen[e.ID] = true
		valid = append(valid, e)
	}
	return valid, rejected
}

// Static is an in-memory source, used for tests and embedding.
type Static []model.VolunteerEvent

func (s Static) Kind() Kind { return "static" }

func (s Static) Load(context.Context) ([]model.VolunteerEvent, error) {
	out := make([]model.VolunteerEvent, len(s))
	copy(out, s)
	return out, nil
}
