package search

import (
	"context"

	"github.com/stackfield/tracksearch/internal/domain"
	"github.com/stackfield/tracksearch/internal/engine"
)

// Engine is the consumer interface for the read path (ISP).
type Engine interface {
	Search(ctx context.Context, body map[string]any) (*engine.SearchResponse, error)
	Count(ctx context.Context, body map[string]any) (int64, error)
}

// RecordLoader resolves a hit back to its tracker record. A vanished record
// returns domain.ErrRecordNotFound.
type RecordLoader interface {
	Load(ctx context.Context, kind domain.Kind, id int64) (domain.Record, error)
}

// ProjectNamer resolves a project id to its display name for aggregation
// labels.
type ProjectNamer interface {
	ProjectName(ctx context.Context, id int64) (string, bool)
}

// Options holds presentation settings shared by both searcher variants.
type Options struct {
	HighlightEnabled  bool
	FragmentSize      int
	NumberOfFragments int
}

func (o Options) fragmentSize() int {
	if o.FragmentSize <= 0 {
		return 150
	}
	return o.FragmentSize
}

func (o Options) numberOfFragments() int {
	if o.NumberOfFragments <= 0 {
		return 3
	}
	return o.NumberOfFragments
}
