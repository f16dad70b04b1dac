package chi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/stackfield/tracksearch/internal/domain"
	"github.com/stackfield/tracksearch/internal/domain/search/query"
	"github.com/stackfield/tracksearch/internal/domain/search/result"
	"github.com/stackfield/tracksearch/internal/search"
)

type hitResponse struct {
	Kind      string     `json:"kind"`
	ID        int64      `json:"id"`
	ProjectID *int64     `json:"project_id,omitempty"`
	Title     string     `json:"title"`
	Snippet   string     `json:"snippet"`
	Score     float64    `json:"score"`
	CreatedOn *time.Time `json:"created_on,omitempty"`
	UpdatedOn *time.Time `json:"updated_on,omitempty"`
}

type searchResponse struct {
	Query        string           `json:"query"`
	Tokens       []string         `json:"tokens"`
	Total        int64            `json:"total"`
	CountsByType map[string]int64 `json:"counts_by_type"`
	Offset       int              `json:"offset"`
	Limit        int              `json:"limit"`
	Hits         []hitResponse    `json:"hits"`
}

type bucketResponse struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
	Label string `json:"label"`
}

type aggregationsResponse struct {
	ByType    []bucketResponse `json:"by_type"`
	ByProject []bucketResponse `json:"by_project"`
	ByDate    []bucketResponse `json:"by_date"`
}

type advancedSearchResponse struct {
	Query        string               `json:"query"`
	Total        int64                `json:"total"`
	Offset       int                  `json:"offset"`
	Limit        int                  `json:"limit"`
	Hits         []hitResponse        `json:"hits"`
	Aggregations aggregationsResponse `json:"aggregations"`
}

// handleSearch serves GET /search.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q, err := queryFromRequest(r, false)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}

	user := principalFromContext(r.Context())
	searcher := search.NewSearcher(s.engine, s.oracle, user, s.opts, s.logger)
	adapter := search.NewAdapter(searcher, s.loader, q, s.logger)

	hits := adapter.Results(r.Context(), q.Offset(), q.Limit())

	counts := make(map[string]int64, len(q.Kinds()))
	for kind, n := range adapter.ResultCountByType(r.Context()) {
		counts[string(kind)] = n
	}

	writeJSON(w, http.StatusOK, searchResponse{
		Query:        q.Question(),
		Tokens:       adapter.Tokens(),
		Total:        adapter.ResultCount(r.Context()),
		CountsByType: counts,
		Offset:       q.Offset(),
		Limit:        q.Limit(),
		Hits:         hitsToResponse(hits),
	})
}

// handleAdvancedSearch serves GET /search/advanced.
func (s *Server) handleAdvancedSearch(w http.ResponseWriter, r *http.Request) {
	q, err := queryFromRequest(r, true)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}

	user := principalFromContext(r.Context())
	searcher := search.NewAdvancedSearcher(s.engine, s.oracle, s.namer, user, s.opts, s.logger)

	hits := searcher.Search(r.Context(), q)
	aggs := searcher.Aggregations()

	writeJSON(w, http.StatusOK, advancedSearchResponse{
		Query:  q.Question(),
		Total:  searcher.TotalCount(),
		Offset: q.Offset(),
		Limit:  q.Limit(),
		Hits:   hitsToResponse(hits),
		Aggregations: aggregationsResponse{
			ByType:    bucketsToResponse(aggs.ByType),
			ByProject: bucketsToResponse(aggs.ByProject),
			ByDate:    bucketsToResponse(aggs.ByDate),
		},
	})
}

// handleCreateIndex serves PUT /admin/index. force=true drops an existing
// index first.
func (s *Server) handleCreateIndex(w http.ResponseWriter, r *http.Request) {
	force := r.URL.Query().Get("force") == "true"
	if !s.admin.CreateIndex(r.Context(), force) {
		writeError(w, http.StatusBadGateway, codeEngineUnavailable, "index creation failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"acknowledged": true})
}

// handleDeleteIndex serves DELETE /admin/index.
func (s *Server) handleDeleteIndex(w http.ResponseWriter, r *http.Request) {
	if !s.admin.DeleteIndex(r.Context()) {
		writeError(w, http.StatusBadGateway, codeEngineUnavailable, "index deletion failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"acknowledged": true})
}

// handleRefresh serves POST /admin/refresh.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if !s.admin.Refresh(r.Context()) {
		writeError(w, http.StatusBadGateway, codeEngineUnavailable, "refresh failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"acknowledged": true})
}

// handleStats serves GET /admin/stats.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.admin.Stats(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// queryFromRequest parses the shared query parameters. Advanced requests
// additionally understand search_in, date bounds, sort and include_closed.
func queryFromRequest(r *http.Request, advanced bool) (query.Query, error) {
	v := r.URL.Query()

	p := query.Params{
		Question:   v.Get("q"),
		Kinds:      parseKinds(v.Get("kinds")),
		ProjectIDs: parseInt64List(v.Get("projects")),
		Offset:     parseInt(v.Get("offset")),
		Limit:      parseInt(v.Get("limit")),
	}

	if advanced {
		p.SearchIn = query.SearchIn(v.Get("search_in"))
		p.SortBy = query.Sort(v.Get("sort"))
		p.IncludeClosed = v.Get("include_closed") != "false"
		var err error
		if p.DateFrom, err = parseDate(v.Get("from_date")); err != nil {
			return query.Query{}, err
		}
		if p.DateTo, err = parseDate(v.Get("to_date")); err != nil {
			return query.Query{}, err
		}
	} else {
		p.AllWords = v.Get("all_words") == "true"
		p.TitlesOnly = v.Get("titles_only") == "true"
		p.OpenOnly = v.Get("open_only") == "true"
	}

	return query.New(p)
}

func parseKinds(raw string) []domain.Kind {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	kinds := make([]domain.Kind, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			kinds = append(kinds, domain.Kind(part))
		}
	}
	return kinds
}

func parseInt64List(raw string) []int64 {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		if id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

func parseInt(raw string) int {
	n, _ := strconv.Atoi(raw)
	return n
}

func parseDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func hitsToResponse(hits []result.Result) []hitResponse {
	out := make([]hitResponse, len(hits))
	for i, h := range hits {
		out[i] = hitResponse{
			Kind:      string(h.Kind()),
			ID:        h.ID(),
			ProjectID: h.ProjectID(),
			Title:     h.Title(),
			Snippet:   h.Snippet(),
			Score:     h.Score(),
			CreatedOn: h.CreatedOn(),
			UpdatedOn: h.UpdatedOn(),
		}
	}
	return out
}

func bucketsToResponse(buckets []search.Bucket) []bucketResponse {
	out := make([]bucketResponse, len(buckets))
	for i, b := range buckets {
		out[i] = bucketResponse{Key: b.Key, Count: b.Count, Label: b.Label}
	}
	return out
}
