package search

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/stackfield/tracksearch/internal/domain"
	"github.com/stackfield/tracksearch/internal/domain/search/query"
	"github.com/stackfield/tracksearch/internal/domain/search/result"
)

// Adapter presents engine-backed search through the shape the tracker's
// result pages expect: a token list, match counts overall and per kind, and
// pages of hits confirmed against the tracker's records. Counts are memoized
// for the adapter's lifetime, which is one request.
type Adapter struct {
	searcher *Searcher
	loader   RecordLoader
	q        query.Query
	logger   *zap.Logger

	count       *int64
	countByType map[domain.Kind]int64
}

// NewAdapter wraps a searcher and record loader for one query.
func NewAdapter(searcher *Searcher, loader RecordLoader, q query.Query, logger *zap.Logger) *Adapter {
	return &Adapter{
		searcher: searcher,
		loader:   loader,
		q:        q,
		logger:   logger,
	}
}

// Tokens returns the effective search terms after tokenization.
func (a *Adapter) Tokens() []string {
	return Tokenize(a.q.Question())
}

// ResultCount is the engine-side total for the query. Zero when the query
// has no usable tokens.
func (a *Adapter) ResultCount(ctx context.Context) int64 {
	if a.count != nil {
		return *a.count
	}
	var n int64
	if len(a.Tokens()) > 0 {
		n = a.searcher.Count(ctx, a.q)
	}
	a.count = &n
	return n
}

// ResultCountByType breaks the total down per record kind, one count query
// per kind in the search scope.
func (a *Adapter) ResultCountByType(ctx context.Context) map[domain.Kind]int64 {
	if a.countByType != nil {
		return a.countByType
	}
	counts := make(map[domain.Kind]int64, len(a.q.Kinds()))
	if len(a.Tokens()) > 0 {
		for _, kind := range a.q.Kinds() {
			counts[kind] = a.searcher.Count(ctx, a.q.WithKinds(kind))
		}
	}
	a.countByType = counts
	return counts
}

// Results returns one page of hits, each resolved back to its tracker
// record through the loader. Hits whose record no longer exists are
// dropped, so a page may come back short until the index catches up.
func (a *Adapter) Results(ctx context.Context, offset, limit int) []result.Result {
	hits := a.searcher.Search(ctx, a.q.WithPagination(offset, limit))
	kept := make([]result.Result, 0, len(hits))
	for i := range hits {
		hit := hits[i]
		if _, err := a.loader.Load(ctx, hit.Kind(), hit.ID()); err != nil {
			if !errors.Is(err, domain.ErrRecordNotFound) {
				a.logger.Warn("record load failed",
					zap.String("kind", string(hit.Kind())),
					zap.Int64("id", hit.ID()),
					zap.Error(err),
				)
			}
			continue
		}
		kept = append(kept, hit)
	}
	return kept
}
