// Package search executes permission-filtered queries against the engine.
// Both searcher variants share the hybrid contract: the engine applies the
// coarse permission clause, and every surviving hit is revalidated against
// the authorization oracle before it reaches a consumer.
package search

import (
	"context"

	"go.uber.org/zap"

	"github.com/stackfield/tracksearch/internal/domain"
	"github.com/stackfield/tracksearch/internal/domain/search/query"
	"github.com/stackfield/tracksearch/internal/domain/search/result"
	"github.com/stackfield/tracksearch/internal/esquery"
	"github.com/stackfield/tracksearch/internal/metrics"
	"github.com/stackfield/tracksearch/internal/permission"
)

// OverfetchRatio compensates for hits the post-filter discards: the engine
// is asked for (limit+offset)×ratio hits from offset zero, and pagination
// is applied to the post-filtered list. Without it a page could come back
// short even when more authorized matches exist past the raw window.
const OverfetchRatio = 2

const basicSnippetLen = 200

// Searcher is the basic read path. One instance serves one request for one
// user; the permission filter it owns must not outlive that.
type Searcher struct {
	engine Engine
	oracle permission.Oracle
	filter *permission.Filter
	user   domain.User
	opts   Options
	logger *zap.Logger
}

// NewSearcher creates a request-scoped searcher for the given user.
func NewSearcher(e Engine, oracle permission.Oracle, user domain.User, opts Options, logger *zap.Logger) *Searcher {
	return &Searcher{
		engine: e,
		oracle: oracle,
		filter: permission.NewFilter(user, oracle),
		user:   user,
		opts:   opts,
		logger: logger,
	}
}

// Search runs the ranked query and returns the requested page of authorized
// results. Engine failures degrade to an empty page, logged, never raised.
func (s *Searcher) Search(ctx context.Context, q query.Query) []result.Result {
	if len(Tokenize(q.Question())) == 0 {
		return nil
	}

	verdict, err := s.filter.Build(ctx, q.Kinds())
	if err != nil {
		s.logger.Error("permission filter failed", zap.Error(err))
		return nil
	}
	if !verdict.Allowed() {
		return nil
	}

	fetchSize := (q.Limit() + q.Offset()) * OverfetchRatio
	body := map[string]any{
		"query": esquery.NewBool().
			Must(s.rankedQuery(&q)).
			Filter(s.buildFilters(&q, verdict)...).
			Build(),
		"size": fetchSize,
		// Offset is applied after post-filtering, so the engine always
		// starts from zero.
		"from":    0,
		"_source": true,
	}
	if highlight := s.highlightConfig(); highlight != nil {
		body["highlight"] = highlight
	}

	metrics.CountSearchQuery("basic")
	resp, err := s.engine.Search(ctx, body)
	if err != nil {
		s.logger.Error("search failed", zap.Error(err))
		return nil
	}

	results := processHits(resp.Hits, basicSnippetLen, "...", s.logger)
	results = revalidate(ctx, s.oracle, s.user, results, s.logger)

	// Pagination over the post-filtered list.
	if q.Offset() >= len(results) {
		return nil
	}
	results = results[q.Offset():]
	if len(results) > q.Limit() {
		results = results[:q.Limit()]
	}
	return results
}

// Count returns the engine-side match count. Coarse by design: it is not
// post-filtered, so it may slightly exceed the number of visible results.
func (s *Searcher) Count(ctx context.Context, q query.Query) int64 {
	if len(Tokenize(q.Question())) == 0 {
		return 0
	}

	verdict, err := s.filter.Build(ctx, q.Kinds())
	if err != nil {
		s.logger.Error("permission filter failed", zap.Error(err))
		return 0
	}
	if !verdict.Allowed() {
		return 0
	}

	body := map[string]any{
		"query": esquery.NewBool().
			Must(s.rankedQuery(&q)).
			Filter(s.buildFilters(&q, verdict)...).
			Build(),
	}

	metrics.CountSearchQuery("count")
	count, err := s.engine.Count(ctx, body)
	if err != nil {
		s.logger.Error("count failed", zap.Error(err))
		return 0
	}
	return count
}

// rankedQuery is the relevance disjunction: exact phrase with a boost,
// fuzzy best-fields over text and custom fields, and a nested journal match
// scored by its best entry.
func (s *Searcher) rankedQuery(q *query.Query) esquery.M {
	operator := "or"
	if q.AllWords() {
		operator = "and"
	}

	phrase := esquery.M{"multi_match": esquery.M{
		"query": q.Question(),
		"fields": []string{
			"title^3", "content",
			"attachments.filename", "attachments.description", "attachments.fulltext_content",
		},
		"type":  "phrase",
		"boost": 2,
	}}

	best := esquery.M{"multi_match": esquery.M{
		"query": q.Question(),
		"fields": []string{
			"title^3", "content", "custom_fields.value",
			"attachments.filename", "attachments.fulltext_content",
		},
		"type":      "best_fields",
		"operator":  operator,
		"fuzziness": "AUTO",
	}}

	journals := esquery.Nested("work_item_fields.journals", esquery.M{
		"match": esquery.M{
			journalNotesField: esquery.M{
				"query":    q.Question(),
				"operator": operator,
			},
		},
	}, "max")

	return esquery.NewBool().
		Should(phrase, best, journals).
		MinimumShouldMatch(1).
		Build()
}

func (s *Searcher) buildFilters(q *query.Query, verdict permission.Verdict) []esquery.M {
	filters := []esquery.M{
		esquery.Terms("type", kindStrings(q.Kinds())),
	}

	if len(q.ProjectIDs()) > 0 {
		filters = append(filters, esquery.Terms("project_id", q.ProjectIDs()))
	}

	filters = append(filters, verdict.Clause())

	if q.OpenOnly() {
		filters = append(filters, openWorkItemsFilter())
	}

	if q.TitlesOnly() {
		filters = append(filters, esquery.NewBool().
			Should(esquery.Exists("title")).
			MinimumShouldMatch(1).
			Build())
	}

	return filters
}

// openWorkItemsFilter keeps every non-work-item document plus work items
// whose status is not closed.
func openWorkItemsFilter() esquery.M {
	return esquery.NewBool().
		Should(
			esquery.NewBool().MustNot(esquery.Term("type", domain.KindWorkItem)).Build(),
			esquery.Term("work_item_fields.status_is_closed", false),
		).
		MinimumShouldMatch(1).
		Build()
}

func (s *Searcher) highlightConfig() esquery.M {
	if !s.opts.HighlightEnabled {
		return nil
	}
	return esquery.M{
		"fields": esquery.M{
			"title": esquery.M{"number_of_fragments": 0},
			"content": esquery.M{
				"fragment_size":       s.opts.fragmentSize(),
				"number_of_fragments": s.opts.numberOfFragments(),
			},
			journalNotesField: esquery.M{
				"fragment_size":       s.opts.fragmentSize(),
				"number_of_fragments": s.opts.numberOfFragments(),
			},
		},
		"pre_tags":  []string{`<span class="highlight">`},
		"post_tags": []string{`</span>`},
	}
}
