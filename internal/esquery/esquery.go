// Package esquery builds Elasticsearch query DSL fragments as plain JSON
// maps. Only the clause shapes this module actually sends are covered.
package esquery

// M is one JSON object of the query DSL.
type M map[string]any

// Term matches a single exact value on a keyword/integer/boolean field.
func Term(field string, value any) M {
	return M{"term": M{field: value}}
}

// Terms matches any of the given values on a field.
func Terms[T any](field string, values []T) M {
	vals := make([]any, len(values))
	for i, v := range values {
		vals[i] = v
	}
	return M{"terms": M{field: vals}}
}

// Exists matches documents that have a non-null value for the field.
func Exists(field string) M {
	return M{"exists": M{"field": field}}
}

// MatchAll matches every document.
func MatchAll() M {
	return M{"match_all": M{}}
}

// Range matches values between the given bounds. A nil bound is omitted.
func Range(field string, gte, lte any) M {
	bounds := M{}
	if gte != nil {
		bounds["gte"] = gte
	}
	if lte != nil {
		bounds["lte"] = lte
	}
	return M{"range": M{field: bounds}}
}

// Nested wraps a query so it applies per entry of a nested object array,
// scored by the given mode ("max", "avg", ...).
func Nested(path string, query M, scoreMode string) M {
	return M{"nested": M{
		"path":       path,
		"query":      query,
		"score_mode": scoreMode,
	}}
}

// Bool accumulates clauses for a compound bool query.
type Bool struct {
	must     []M
	should   []M
	filter   []M
	mustNot  []M
	minMatch int
}

// NewBool creates an empty bool query builder.
func NewBool() *Bool { return &Bool{} }

// Must adds clauses that all have to match (scored).
func (b *Bool) Must(clauses ...M) *Bool {
	b.must = append(b.must, clauses...)
	return b
}

// Should adds clauses of which at least MinimumShouldMatch have to match.
func (b *Bool) Should(clauses ...M) *Bool {
	b.should = append(b.should, clauses...)
	return b
}

// Filter adds clauses that have to match without contributing to the score.
func (b *Bool) Filter(clauses ...M) *Bool {
	b.filter = append(b.filter, clauses...)
	return b
}

// MustNot adds clauses that must not match.
func (b *Bool) MustNot(clauses ...M) *Bool {
	b.mustNot = append(b.mustNot, clauses...)
	return b
}

// MinimumShouldMatch sets the should-clause threshold.
func (b *Bool) MinimumShouldMatch(n int) *Bool {
	b.minMatch = n
	return b
}

// Build renders the accumulated clauses as a bool query object.
func (b *Bool) Build() M {
	inner := M{}
	if len(b.must) > 0 {
		inner["must"] = b.must
	}
	if len(b.should) > 0 {
		inner["should"] = b.should
	}
	if len(b.filter) > 0 {
		inner["filter"] = b.filter
	}
	if len(b.mustNot) > 0 {
		inner["must_not"] = b.mustNot
	}
	if b.minMatch > 0 {
		inner["minimum_should_match"] = b.minMatch
	}
	return M{"bool": inner}
}
