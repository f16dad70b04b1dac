package search

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/stackfield/tracksearch/internal/domain"
	"github.com/stackfield/tracksearch/internal/domain/search/result"
	"github.com/stackfield/tracksearch/internal/engine"
	"github.com/stackfield/tracksearch/internal/permission"
)

const journalNotesField = "work_item_fields.journals.notes"

// processHits decodes engine hits into results, preferring highlight
// fragments over raw field values for title and snippet.
func processHits(hits []engine.Hit, snippetLen int, fragmentSep string, logger *zap.Logger) []result.Result {
	results := make([]result.Result, 0, len(hits))
	for _, hit := range hits {
		var doc domain.Document
		if err := json.Unmarshal(hit.Source, &doc); err != nil {
			logger.Warn("undecodable hit source",
				zap.String("doc_id", hit.DocID),
				zap.Error(err),
			)
			continue
		}

		title := doc.Title
		if fragments := hit.Highlight["title"]; len(fragments) > 0 {
			title = fragments[0]
		}

		results = append(results, result.New(
			doc.Type, doc.ID, doc.ProjectID,
			title,
			extractSnippet(hit.Highlight, &doc, snippetLen, fragmentSep),
			hit.Score,
			doc.CreatedOn, doc.UpdatedOn,
			doc,
		))
	}
	return results
}

// extractSnippet prefers content highlights, then journal-note highlights,
// then a plain truncation of the content.
func extractSnippet(highlight map[string][]string, doc *domain.Document, maxLen int, sep string) string {
	if fragments := highlight["content"]; len(fragments) > 0 {
		return strings.Join(fragments, sep)
	}
	if fragments := highlight[journalNotesField]; len(fragments) > 0 {
		return strings.Join(fragments, sep)
	}
	return truncate(doc.Content, maxLen)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}

func kindStrings(kinds []domain.Kind) []string {
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = string(k)
	}
	return out
}

// revalidate keeps only the hits the oracle confirms the user may view.
// The engine-side clause is necessary but not sufficient; record-level
// rules and staleness of the index are resolved here. Hits that fail the
// check, including on oracle error, are dropped.
func revalidate(ctx context.Context, oracle permission.Oracle, user domain.User, results []result.Result, logger *zap.Logger) []result.Result {
	kept := results[:0]
	for i := range results {
		r := results[i]
		visible, err := oracle.CanView(ctx, user, r.Kind(), r.ID())
		if err != nil {
			logger.Debug("revalidation failed, dropping hit",
				zap.String("kind", string(r.Kind())),
				zap.Int64("id", r.ID()),
				zap.Error(err),
			)
			continue
		}
		if visible {
			kept = append(kept, r)
		}
	}
	return kept
}
