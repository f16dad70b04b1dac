// Package result defines the search hit value returned to consumers.
package result

import (
	"time"

	"github.com/stackfield/tracksearch/internal/domain"
)

// Result is a single search hit: the document projection plus the engine's
// relevance score and presentation-ready title/snippet (with highlighting
// already applied when enabled).
type Result struct {
	kind      domain.Kind
	id        int64
	projectID *int64
	title     string
	snippet   string
	score     float64
	createdOn *time.Time
	updatedOn *time.Time
	source    domain.Document
}

// New creates a search result.
func New(
	kind domain.Kind, id int64, projectID *int64,
	title, snippet string, score float64,
	createdOn, updatedOn *time.Time,
	source domain.Document,
) Result {
	return Result{
		kind: kind, id: id, projectID: projectID,
		title: title, snippet: snippet, score: score,
		createdOn: createdOn, updatedOn: updatedOn,
		source: source,
	}
}

// Kind returns the record kind of the hit.
func (r *Result) Kind() domain.Kind { return r.kind }

// ID returns the record id of the hit.
func (r *Result) ID() int64 { return r.id }

// ProjectID returns the project association, if any.
func (r *Result) ProjectID() *int64 { return r.projectID }

// Title returns the display title, highlighted when available.
func (r *Result) Title() string { return r.title }

// Snippet returns the content excerpt, highlighted when available.
func (r *Result) Snippet() string { return r.snippet }

// Score returns the engine-assigned relevance score.
func (r *Result) Score() float64 { return r.score }

// CreatedOn returns the document creation timestamp.
func (r *Result) CreatedOn() *time.Time { return r.createdOn }

// UpdatedOn returns the document update timestamp, if any.
func (r *Result) UpdatedOn() *time.Time { return r.updatedOn }

// Source returns the full document projection of the hit.
func (r *Result) Source() domain.Document { return r.source }
