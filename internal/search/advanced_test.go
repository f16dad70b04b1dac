package search

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/stackfield/tracksearch/internal/domain"
	"github.com/stackfield/tracksearch/internal/domain/search/query"
	"github.com/stackfield/tracksearch/internal/engine"
	"github.com/stackfield/tracksearch/internal/esquery"
)

// --- Mocks ---

type stubNamer struct {
	names map[int64]string
}

func (s *stubNamer) ProjectName(_ context.Context, id int64) (string, bool) {
	name, ok := s.names[id]
	return name, ok
}

func advancedQuery(t *testing.T, p query.Params) query.Query {
	t.Helper()
	if p.Question == "" {
		p.Question = "crash"
	}
	if len(p.Kinds) == 0 {
		p.Kinds = []domain.Kind{domain.KindWorkItem}
	}
	return mustQuery(t, p)
}

// --- Tests ---

func TestAdvancedSearch_ExactPaginationNoOverfetch(t *testing.T) {
	eng := &mockEngine{}
	s := NewAdvancedSearcher(eng, &stubOracle{}, nil, domain.User{ID: 1}, Options{}, zap.NewNop())

	q := advancedQuery(t, query.Params{Offset: 30, Limit: 15})
	s.Search(context.Background(), q)

	if eng.searchCalls != 1 {
		t.Fatalf("expected 1 engine call, got %d", eng.searchCalls)
	}
	if got := eng.lastBody["from"]; got != 30 {
		t.Errorf("from = %v, want 30", got)
	}
	if got := eng.lastBody["size"]; got != 15 {
		t.Errorf("size = %v, want 15 (no overfetch)", got)
	}
	if got := eng.lastBody["track_total_hits"]; got != true {
		t.Errorf("track_total_hits = %v, want true", got)
	}
}

func TestAdvancedSearch_DeniedVerdict_SkipsEngine(t *testing.T) {
	eng := &mockEngine{}
	s := NewAdvancedSearcher(eng, denyAllOracle{}, nil, domain.User{ID: 1}, Options{}, zap.NewNop())

	if results := s.Search(context.Background(), advancedQuery(t, query.Params{})); len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
	if eng.searchCalls != 0 {
		t.Error("engine must not be contacted when denied")
	}
	if s.TotalCount() != 0 {
		t.Errorf("TotalCount = %d, want 0", s.TotalCount())
	}
}

func TestAdvancedSearch_TotalCountFromEngine(t *testing.T) {
	eng := &mockEngine{searchResp: &engine.SearchResponse{
		Total: 123,
		Hits:  []engine.Hit{hitFor(t, domain.KindWorkItem, 1, "item")},
	}}
	s := NewAdvancedSearcher(eng, &stubOracle{}, nil, domain.User{ID: 1}, Options{}, zap.NewNop())

	s.Search(context.Background(), advancedQuery(t, query.Params{}))
	if s.TotalCount() != 123 {
		t.Errorf("TotalCount = %d, want 123", s.TotalCount())
	}
}

func TestAdvancedSearch_Aggregations(t *testing.T) {
	eng := &mockEngine{searchResp: &engine.SearchResponse{
		Total: 5,
		Aggregations: map[string]engine.Aggregation{
			"by_type": {Buckets: []engine.AggBucket{
				{Key: "work_item", DocCount: 3},
				{Key: "wiki_page", DocCount: 2},
			}},
			"by_project": {Buckets: []engine.AggBucket{
				{Key: float64(7), DocCount: 4},
				{Key: float64(8), DocCount: 1},
			}},
			"by_date": {Buckets: []engine.AggBucket{
				{Key: float64(1704067200000), KeyAsString: "2024-01", DocCount: 5},
			}},
		},
	}}
	namer := &stubNamer{names: map[int64]string{7: "Infrastructure"}}
	s := NewAdvancedSearcher(eng, &stubOracle{}, namer, domain.User{ID: 1}, Options{}, zap.NewNop())

	s.Search(context.Background(), advancedQuery(t, query.Params{}))
	aggs := s.Aggregations()

	if len(aggs.ByType) != 2 {
		t.Fatalf("expected 2 type buckets, got %d", len(aggs.ByType))
	}
	if aggs.ByType[0].Label != "Work item" {
		t.Errorf("type label = %q, want %q", aggs.ByType[0].Label, "Work item")
	}

	if len(aggs.ByProject) != 2 {
		t.Fatalf("expected 2 project buckets, got %d", len(aggs.ByProject))
	}
	if aggs.ByProject[0].Label != "Infrastructure" {
		t.Errorf("project label = %q, want resolved name", aggs.ByProject[0].Label)
	}
	if aggs.ByProject[1].Label != "Project #8" {
		t.Errorf("project label = %q, want numeric fallback", aggs.ByProject[1].Label)
	}

	if len(aggs.ByDate) != 1 {
		t.Fatalf("expected 1 date bucket, got %d", len(aggs.ByDate))
	}
	if aggs.ByDate[0].Key != "2024-01" {
		t.Errorf("date key = %q, want formatted month", aggs.ByDate[0].Key)
	}
}

func TestAdvancedSearch_SortSpecs(t *testing.T) {
	tests := []struct {
		sort      query.Sort
		wantFirst string
	}{
		{query.SortDateDesc, "created_on"},
		{query.SortDateAsc, "created_on"},
		{query.SortUpdatedDesc, "updated_on"},
	}
	for _, tt := range tests {
		t.Run(string(tt.sort), func(t *testing.T) {
			eng := &mockEngine{}
			s := NewAdvancedSearcher(eng, &stubOracle{}, nil, domain.User{ID: 1}, Options{}, zap.NewNop())

			s.Search(context.Background(), advancedQuery(t, query.Params{SortBy: tt.sort}))
			sort, ok := eng.lastBody["sort"].([]any)
			if !ok || len(sort) == 0 {
				t.Fatalf("sort spec missing: %v", eng.lastBody["sort"])
			}
			first, ok := sort[0].(esquery.M)
			if !ok {
				t.Fatalf("first sort entry = %v, want field object", sort[0])
			}
			if _, ok := first[tt.wantFirst]; !ok {
				t.Errorf("first sort field missing %q: %v", tt.wantFirst, first)
			}
		})
	}
}

func TestAdvancedSearch_RelevanceSortLeadsWithScore(t *testing.T) {
	eng := &mockEngine{}
	s := NewAdvancedSearcher(eng, &stubOracle{}, nil, domain.User{ID: 1}, Options{}, zap.NewNop())

	s.Search(context.Background(), advancedQuery(t, query.Params{SortBy: query.SortRelevance}))
	sort := eng.lastBody["sort"].([]any)
	if sort[0] != "_score" {
		t.Errorf("first sort entry = %v, want _score", sort[0])
	}
}

func TestAdvancedSearch_FuzzyMatchingInEveryScope(t *testing.T) {
	scopes := []query.SearchIn{query.InAll, query.InTitle, query.InContent}
	for _, scope := range scopes {
		t.Run(string(scope), func(t *testing.T) {
			eng := &mockEngine{}
			s := NewAdvancedSearcher(eng, &stubOracle{}, nil, domain.User{ID: 1}, Options{}, zap.NewNop())

			s.Search(context.Background(), advancedQuery(t, query.Params{SearchIn: scope}))

			raw, err := json.Marshal(eng.lastBody)
			if err != nil {
				t.Fatalf("marshal body: %v", err)
			}
			if !strings.Contains(string(raw), `"fuzziness":"AUTO"`) {
				t.Errorf("fuzzy matching missing for scope %q: %s", scope, raw)
			}
		})
	}
}

func TestAdvancedSearch_DateRangeFilter(t *testing.T) {
	eng := &mockEngine{}
	s := NewAdvancedSearcher(eng, &stubOracle{}, nil, domain.User{ID: 1}, Options{}, zap.NewNop())

	fromDate := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	toDate := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	q := advancedQuery(t, query.Params{DateFrom: &fromDate, DateTo: &toDate})
	s.Search(context.Background(), q)

	raw, err := json.Marshal(eng.lastBody)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	body := string(raw)
	if !strings.Contains(body, `"gte":"2024-01-01"`) || !strings.Contains(body, `"lte":"2024-06-30"`) {
		t.Errorf("date range filter missing: %s", body)
	}
}
