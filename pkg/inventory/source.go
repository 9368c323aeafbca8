package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/cryptellation/freshness/pkg/freshness"
)

// ErrNoVersionInfo is returned by StaticSource for coordinates it knows nothing about.
var ErrNoVersionInfo = errors.New("no version information")

// Source lists the versions available for a coordinate, in publication order.
// An error marks the coordinate as unresolved, its message becomes the reason.
//
//go:generate go run go.uber.org/mock/mockgen@v0.5.2 -destination=mock_source.gen.go -package=inventory . Source
type Source interface {
	Candidates(ctx context.Context, coordinate freshness.Coordinate) ([]string, error)
}

// StaticSource serves candidates recorded ahead of time, typically from a
// snapshot file. It must not be modified once handed to a Builder.
type StaticSource struct {
	candidates map[freshness.Coordinate][]string
	unresolved map[freshness.Coordinate]string
}

// Ensure StaticSource implements Source.
var _ Source = (*StaticSource)(nil)

// NewStaticSource returns an empty StaticSource.
func NewStaticSource() *StaticSource {
	return &StaticSource{
		candidates: make(map[freshness.Coordinate][]string),
		unresolved: make(map[freshness.Coordinate]string),
	}
}

// Add records the available versions of a coordinate.
func (s *StaticSource) Add(c freshness.Coordinate, versions ...string) {
	s.candidates[c] = append(s.candidates[c], versions...)
}

// AddUnresolved records that versions of a coordinate could not be determined.
func (s *StaticSource) AddUnresolved(c freshness.Coordinate, reason string) {
	s.unresolved[c] = reason
}

// Candidates implements Source.
func (s *StaticSource) Candidates(ctx context.Context, c freshness.Coordinate) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if reason, ok := s.unresolved[c]; ok {
		return nil, errors.New(reason)
	}
	versions, ok := s.candidates[c]
	if !ok {
		return nil, fmt.Errorf("%w for %s", ErrNoVersionInfo, c)
	}
	return versions, nil
}
