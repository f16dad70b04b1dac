// Package query defines the validated, immutable search request value.
package query

import (
	"fmt"
	"time"

	"github.com/stackfield/tracksearch/internal/domain"
)

// Pagination limits.
const (
	DefaultLimit = 25
	MaxLimit     = 100
)

// SearchIn selects which document fields a query matches against.
type SearchIn string

const (
	InAll     SearchIn = "all"
	InTitle   SearchIn = "title"
	InContent SearchIn = "content"
)

// IsValid reports whether s is a known scope.
func (s SearchIn) IsValid() bool {
	switch s {
	case InAll, InTitle, InContent:
		return true
	}
	return false
}

// Sort selects the result ordering.
type Sort string

const (
	SortRelevance   Sort = "relevance"
	SortDateDesc    Sort = "date_desc"
	SortDateAsc     Sort = "date_asc"
	SortUpdatedDesc Sort = "updated_desc"
)

// IsValid reports whether s is a known sort mode.
func (s Sort) IsValid() bool {
	switch s {
	case SortRelevance, SortDateDesc, SortDateAsc, SortUpdatedDesc:
		return true
	}
	return false
}

// Params collects the raw search parameters before validation.
type Params struct {
	Question   string
	SearchIn   SearchIn
	Kinds      []domain.Kind
	ProjectIDs []int64
	DateFrom   *time.Time
	DateTo     *time.Time
	SortBy     Sort

	// Basic-searcher toggles.
	AllWords   bool
	TitlesOnly bool
	OpenOnly   bool
	// Advanced-searcher toggle; inverse semantics of OpenOnly: closed work
	// items are included unless explicitly excluded.
	IncludeClosed bool

	Offset int
	Limit  int
}

// Query is a validated search request, constructed once per request and
// discarded after use.
type Query struct {
	question   string
	searchIn   SearchIn
	kinds      []domain.Kind
	projectIDs []int64
	dateFrom   *time.Time
	dateTo     *time.Time
	sortBy     Sort

	allWords      bool
	titlesOnly    bool
	openOnly      bool
	includeClosed bool

	offset int
	limit  int
}

// New validates and normalizes search parameters. Defaults: search in all
// fields, every kind, relevance order, limit 25. Limit is clamped to
// [1, 100]; a non-positive limit resets to the default.
func New(p Params) (Query, error) {
	if p.SearchIn == "" {
		p.SearchIn = InAll
	}
	if !p.SearchIn.IsValid() {
		return Query{}, fmt.Errorf("invalid search_in: %q", p.SearchIn)
	}

	if p.SortBy == "" {
		p.SortBy = SortRelevance
	}
	if !p.SortBy.IsValid() {
		return Query{}, fmt.Errorf("invalid sort_by: %q", p.SortBy)
	}

	kinds := p.Kinds
	if len(kinds) == 0 {
		kinds = domain.AllKinds()
	}
	for _, k := range kinds {
		if !k.IsValid() {
			return Query{}, fmt.Errorf("invalid record kind: %q", k)
		}
	}

	if p.DateFrom != nil && p.DateTo != nil && p.DateTo.Before(*p.DateFrom) {
		return Query{}, fmt.Errorf("date_to is before date_from")
	}

	limit := p.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	offset := p.Offset
	if offset < 0 {
		offset = 0
	}

	return Query{
		question:      p.Question,
		searchIn:      p.SearchIn,
		kinds:         kinds,
		projectIDs:    p.ProjectIDs,
		dateFrom:      p.DateFrom,
		dateTo:        p.DateTo,
		sortBy:        p.SortBy,
		allWords:      p.AllWords,
		titlesOnly:    p.TitlesOnly,
		openOnly:      p.OpenOnly,
		includeClosed: p.IncludeClosed,
		offset:        offset,
		limit:         limit,
	}, nil
}

// Question returns the raw search input.
func (q *Query) Question() string { return q.question }

// SearchIn returns the field scope.
func (q *Query) SearchIn() SearchIn { return q.searchIn }

// Kinds returns the requested record kinds.
func (q *Query) Kinds() []domain.Kind { return q.kinds }

// ProjectIDs returns the explicit project restriction, if any.
func (q *Query) ProjectIDs() []int64 { return q.projectIDs }

// DateFrom returns the lower creation-date bound, if any.
func (q *Query) DateFrom() *time.Time { return q.dateFrom }

// DateTo returns the upper creation-date bound, if any.
func (q *Query) DateTo() *time.Time { return q.dateTo }

// SortBy returns the result ordering.
func (q *Query) SortBy() Sort { return q.sortBy }

// AllWords reports whether every token has to match.
func (q *Query) AllWords() bool { return q.allWords }

// TitlesOnly reports whether only titled documents are wanted.
func (q *Query) TitlesOnly() bool { return q.titlesOnly }

// OpenOnly reports whether closed work items are excluded (basic searcher).
func (q *Query) OpenOnly() bool { return q.openOnly }

// IncludeClosed reports whether closed work items are kept (advanced searcher).
func (q *Query) IncludeClosed() bool { return q.includeClosed }

// Offset returns the pagination offset.
func (q *Query) Offset() int { return q.offset }

// Limit returns the clamped page size.
func (q *Query) Limit() int { return q.limit }

// WithKinds returns a copy restricted to the given kinds.
func (q Query) WithKinds(kinds ...domain.Kind) Query {
	q.kinds = kinds
	return q
}

// WithPagination returns a copy with the given offset and limit, applying
// the same clamping as New.
func (q Query) WithPagination(offset, limit int) Query {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if offset < 0 {
		offset = 0
	}
	q.offset = offset
	q.limit = limit
	return q
}
