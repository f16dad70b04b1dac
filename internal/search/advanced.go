package search

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/stackfield/tracksearch/internal/domain"
	"github.com/stackfield/tracksearch/internal/domain/search/query"
	"github.com/stackfield/tracksearch/internal/domain/search/result"
	"github.com/stackfield/tracksearch/internal/engine"
	"github.com/stackfield/tracksearch/internal/esquery"
	"github.com/stackfield/tracksearch/internal/metrics"
	"github.com/stackfield/tracksearch/internal/permission"
)

const (
	advancedSnippetLen   = 300
	advancedFragmentSize = 200
	dateOnlyLayout       = "2006-01-02"
)

// Aggregations summarizes the full (pre-pagination) match set by record
// type, project and creation month.
type Aggregations struct {
	ByType    []Bucket
	ByProject []Bucket
	ByDate    []Bucket
}

// Bucket is one aggregation entry. Label is human-readable; Key is the raw
// bucket key as the engine reported it.
type Bucket struct {
	Key   string
	Count int64
	Label string
}

// AdvancedSearcher is the faceted read path: field-scoped matching, date
// range and sort control, and aggregations over the full match set. Unlike
// the basic searcher it paginates engine-side, so a page can come back
// short when the post-filter drops hits from it.
type AdvancedSearcher struct {
	engine Engine
	oracle permission.Oracle
	namer  ProjectNamer
	filter *permission.Filter
	user   domain.User
	opts   Options
	logger *zap.Logger

	totalCount int64
	aggs       Aggregations
}

// NewAdvancedSearcher creates a request-scoped advanced searcher. namer may
// be nil; project buckets then fall back to numeric labels.
func NewAdvancedSearcher(e Engine, oracle permission.Oracle, namer ProjectNamer, user domain.User, opts Options, logger *zap.Logger) *AdvancedSearcher {
	return &AdvancedSearcher{
		engine: e,
		oracle: oracle,
		namer:  namer,
		filter: permission.NewFilter(user, oracle),
		user:   user,
		opts:   opts,
		logger: logger,
	}
}

// Search runs the faceted query. TotalCount and Aggregations are populated
// as a side effect and reflect the last call.
func (s *AdvancedSearcher) Search(ctx context.Context, q query.Query) []result.Result {
	s.totalCount = 0
	s.aggs = Aggregations{}

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

	body := map[string]any{
		"query": esquery.NewBool().
			Must(s.scopedQuery(&q)).
			Filter(s.buildFilters(&q, verdict)...).
			Build(),
		"sort": sortSpec(q.SortBy()),
		"aggs": aggregationSpec(),
		// Engine-side pagination: aggregations need the full match set in
		// one request, so the window is exact rather than overfetched.
		"from":             q.Offset(),
		"size":             q.Limit(),
		"track_total_hits": true,
		"_source":          true,
	}
	if highlight := s.highlightConfig(); highlight != nil {
		body["highlight"] = highlight
	}

	metrics.CountSearchQuery("advanced")
	resp, err := s.engine.Search(ctx, body)
	if err != nil {
		s.logger.Error("advanced search failed", zap.Error(err))
		return nil
	}

	s.totalCount = resp.Total
	s.aggs = s.decodeAggregations(ctx, resp.Aggregations)

	results := processHits(resp.Hits, advancedSnippetLen, " ... ", s.logger)
	return revalidate(ctx, s.oracle, s.user, results, s.logger)
}

// TotalCount is the engine-side total from the last Search call.
func (s *AdvancedSearcher) TotalCount() int64 { return s.totalCount }

// Aggregations are the facet buckets from the last Search call.
func (s *AdvancedSearcher) Aggregations() Aggregations { return s.aggs }

// scopedQuery builds the ranked query for the requested field scope.
func (s *AdvancedSearcher) scopedQuery(q *query.Query) esquery.M {
	switch q.SearchIn() {
	case query.InTitle:
		return esquery.M{"multi_match": esquery.M{
			"query":     q.Question(),
			"fields":    []string{"title^3", "title.raw"},
			"type":      "best_fields",
			"fuzziness": "AUTO",
		}}
	case query.InContent:
		return esquery.M{"multi_match": esquery.M{
			"query":     q.Question(),
			"fields":    []string{"content", journalNotesField, "custom_fields.value"},
			"type":      "best_fields",
			"fuzziness": "AUTO",
		}}
	default:
		phrase := esquery.M{"multi_match": esquery.M{
			"query":  q.Question(),
			"fields": []string{"title^3"},
			"type":   "phrase",
			"boost":  2,
		}}
		best := esquery.M{"multi_match": esquery.M{
			"query":     q.Question(),
			"fields":    []string{"title^2", "content", "custom_fields.value", "attachments.filename"},
			"type":      "best_fields",
			"fuzziness": "AUTO",
		}}
		journals := esquery.Nested("work_item_fields.journals", esquery.M{
			"match": esquery.M{journalNotesField: q.Question()},
		}, "max")
		return esquery.NewBool().
			Should(phrase, best, journals).
			MinimumShouldMatch(1).
			Build()
	}
}

func (s *AdvancedSearcher) buildFilters(q *query.Query, verdict permission.Verdict) []esquery.M {
	filters := []esquery.M{
		esquery.Terms("type", kindStrings(q.Kinds())),
	}

	if len(q.ProjectIDs()) > 0 {
		filters = append(filters, esquery.Terms("project_id", q.ProjectIDs()))
	}

	if q.DateFrom() != nil || q.DateTo() != nil {
		var gte, lte any
		if t := q.DateFrom(); t != nil {
			gte = t.Format(dateOnlyLayout)
		}
		if t := q.DateTo(); t != nil {
			lte = t.Format(dateOnlyLayout)
		}
		filters = append(filters, esquery.Range("created_on", gte, lte))
	}

	filters = append(filters, verdict.Clause())

	if !q.IncludeClosed() {
		filters = append(filters, openWorkItemsFilter())
	}

	return filters
}

func sortSpec(sort query.Sort) []any {
	switch sort {
	case query.SortDateDesc:
		return []any{esquery.M{"created_on": esquery.M{"order": "desc"}}, "_score"}
	case query.SortDateAsc:
		return []any{esquery.M{"created_on": esquery.M{"order": "asc"}}, "_score"}
	case query.SortUpdatedDesc:
		return []any{esquery.M{"updated_on": esquery.M{"order": "desc", "missing": "_last"}}, "_score"}
	default:
		return []any{"_score", esquery.M{"created_on": esquery.M{"order": "desc"}}}
	}
}

func aggregationSpec() esquery.M {
	return esquery.M{
		"by_type": esquery.M{
			"terms": esquery.M{"field": "type", "size": 10},
		},
		"by_project": esquery.M{
			"terms": esquery.M{"field": "project_id", "size": 20},
		},
		"by_date": esquery.M{
			"date_histogram": esquery.M{
				"field":             "created_on",
				"calendar_interval": "month",
				"format":            "yyyy-MM",
				"min_doc_count":     1,
			},
		},
	}
}

func (s *AdvancedSearcher) highlightConfig() esquery.M {
	if !s.opts.HighlightEnabled {
		return nil
	}
	return esquery.M{
		"fields": esquery.M{
			"title": esquery.M{"number_of_fragments": 0},
			"content": esquery.M{
				"fragment_size":       advancedFragmentSize,
				"number_of_fragments": 3,
			},
			journalNotesField: esquery.M{
				"fragment_size":       advancedFragmentSize,
				"number_of_fragments": 2,
			},
		},
		"pre_tags":  []string{`<mark class="es-highlight">`},
		"post_tags": []string{`</mark>`},
	}
}

var kindLabels = map[string]string{
	string(domain.KindWorkItem):     "Work item",
	string(domain.KindWikiPage):     "Wiki page",
	string(domain.KindAnnouncement): "Announcement",
	string(domain.KindForumPost):    "Forum post",
	string(domain.KindCommit):       "Commit",
	string(domain.KindFile):         "File",
	string(domain.KindProject):      "Project",
}

func (s *AdvancedSearcher) decodeAggregations(ctx context.Context, raw map[string]engine.Aggregation) Aggregations {
	var aggs Aggregations
	for _, b := range raw["by_type"].Buckets {
		key := bucketKeyString(b.Key, b.KeyAsString)
		label := kindLabels[key]
		if label == "" {
			label = key
		}
		aggs.ByType = append(aggs.ByType, Bucket{Key: key, Count: b.DocCount, Label: label})
	}
	for _, b := range raw["by_project"].Buckets {
		key := bucketKeyString(b.Key, b.KeyAsString)
		aggs.ByProject = append(aggs.ByProject, Bucket{
			Key:   key,
			Count: b.DocCount,
			Label: s.projectLabel(ctx, b.Key, key),
		})
	}
	for _, b := range raw["by_date"].Buckets {
		key := bucketKeyString(b.Key, b.KeyAsString)
		aggs.ByDate = append(aggs.ByDate, Bucket{Key: key, Count: b.DocCount, Label: key})
	}
	return aggs
}

func (s *AdvancedSearcher) projectLabel(ctx context.Context, key any, fallback string) string {
	id, ok := bucketKeyInt64(key)
	if !ok {
		return fallback
	}
	if s.namer != nil {
		if name, found := s.namer.ProjectName(ctx, id); found {
			return name
		}
	}
	return fmt.Sprintf("Project #%d", id)
}

func bucketKeyString(key any, keyAsString string) string {
	if keyAsString != "" {
		return keyAsString
	}
	switch v := key.(type) {
	case string:
		return v
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%g", v)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

func bucketKeyInt64(key any) (int64, bool) {
	switch v := key.(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	default:
		return 0, false
	}
}
