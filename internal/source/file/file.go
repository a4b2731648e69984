// Package file loads the activity catalog from a YAML file.
package file

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/nhle/volunteer-board/internal/model"
	"github.com/nhle/volunteer-board/internal/source"
)

// document is the on-disk layout of a catalog file.
type document struct {
	Events []model.VolunteerEvent `yaml:"events"`
}

// Source reads events from a YAML file on every Load.
type Source struct {
	path string
}

var _ source.Source = (*Source)(nil)

// New creates a file source for path.
func New(path string) *Source {
	return &Source{path: path}
}

func (s *Source) Kind() source.Kind { return source.KindFile }

// Load reads and validates the catalog file.
func (s *Source) Load(ctx context.Context) ([]model.VolunteerEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog %s: %w", s.path, err)
	}

	events, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", s.path, err)
	}
	return events, nil
}

// Parse decodes catalog YAML. Unknown keys are rejected so typos do not
// silently drop deadlines. Event contents are validated by the catalog.
func Parse(data []byte) ([]model.VolunteerEvent, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parsing yaml: %w", err)
	}
	return doc.Events, nil
}

// Write stores events as a catalog file, creating or truncating it.
func Write(path string, events []model.VolunteerEvent) error {
	data, err := yaml.Marshal(document{Events: events})
	if err != nil {
		return fmt.Errorf("encoding catalog: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing catalog %s: %w", path, err)
	}
	return nil
}
