// Package indexer owns the index lifecycle and the document write path.
// Every operation converts engine failures into a boolean outcome and a log
// line: the write path degrades, it never breaks a caller.
package indexer

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/stackfield/tracksearch/internal/docbuilder"
	"github.com/stackfield/tracksearch/internal/domain"
	"github.com/stackfield/tracksearch/internal/engine"
	"github.com/stackfield/tracksearch/internal/metrics"
)

// engineAPI is the consumer interface for engine write operations (ISP).
type engineAPI interface {
	IndexDocument(ctx context.Context, docID string, doc any) error
	DeleteDocument(ctx context.Context, docID string) error
	Bulk(ctx context.Context, docs []engine.BulkDoc) (*engine.BulkResult, error)
	CreateIndex(ctx context.Context, body map[string]any) error
	DeleteIndex(ctx context.Context) error
	IndexExists(ctx context.Context) (bool, error)
	Refresh(ctx context.Context) error
	Stats(ctx context.Context) (map[string]any, error)
}

// Indexer executes index lifecycle and document write operations.
// A nil engine must be passed as an untyped nil so the availability check
// works; see the composition root.
type Indexer struct {
	engine engineAPI
	logger *zap.Logger
}

// New creates an indexer.
func New(e engineAPI, logger *zap.Logger) *Indexer {
	return &Indexer{engine: e, logger: logger}
}

func (i *Indexer) available() bool { return i.engine != nil }

// Index builds the document for a record and upserts it at its identity.
// Overwrites are idempotent, so retries are safe. A mapping failure is a
// programming error and is escalated, not converted to false.
func (i *Indexer) Index(ctx context.Context, rec domain.Record) bool {
	if !i.available() {
		return false
	}

	doc, err := docbuilder.Build(rec)
	if err != nil {
		// Unsupported variant: fix by adding a mapping, not by catching.
		i.logger.DPanic("document mapping failed", zap.Error(err))
		return false
	}

	docID := docbuilder.DocumentID(rec)
	err = i.engine.IndexDocument(ctx, docID, &doc)
	metrics.CountIndexOperation(engine.OpIndex, err == nil)
	if err != nil {
		i.logger.Error("indexing failed",
			zap.String("doc_id", docID),
			zap.Error(err),
		)
		return false
	}
	return true
}

// DeleteRecord removes a record's document from the index.
func (i *Indexer) DeleteRecord(ctx context.Context, rec domain.Record) bool {
	return i.Delete(ctx, rec.Kind(), rec.RecordID())
}

// Delete removes a document by (kind, id). The pair form exists because a
// destroyed record can no longer self-describe its type. A missing document
// is not an error.
func (i *Indexer) Delete(ctx context.Context, kind domain.Kind, id int64) bool {
	if !i.available() {
		return false
	}

	docID := domain.DocumentID(kind, id)
	err := i.engine.DeleteDocument(ctx, docID)
	metrics.CountIndexOperation(engine.OpDelete, err == nil)
	if err != nil {
		i.logger.Error("delete failed",
			zap.String("doc_id", docID),
			zap.Error(err),
		)
		return false
	}
	return true
}

// BulkIndex upserts a batch of records in one engine round trip. Individual
// item failures are logged one by one; the batch reports success only when
// zero item errors occurred. Already-written items are not rolled back.
func (i *Indexer) BulkIndex(ctx context.Context, records []domain.Record) bool {
	if !i.available() {
		return false
	}
	if len(records) == 0 {
		return true
	}

	docs := make([]engine.BulkDoc, 0, len(records))
	for _, rec := range records {
		doc, err := docbuilder.Build(rec)
		if err != nil {
			i.logger.DPanic("document mapping failed", zap.Error(err))
			return false
		}
		docs = append(docs, engine.BulkDoc{DocID: docbuilder.DocumentID(rec), Document: doc})
	}

	result, err := i.engine.Bulk(ctx, docs)
	metrics.CountIndexOperation(engine.OpBulk, err == nil)
	if err != nil {
		i.logger.Error("bulk indexing failed", zap.Error(err))
		return false
	}

	if result.Errors {
		for _, item := range result.Items {
			if item.Error == "" {
				continue
			}
			i.logger.Error("bulk item failed",
				zap.String("doc_id", item.DocID),
				zap.Int("status", item.Status),
				zap.String("error", item.Error),
			)
		}
	}
	return !result.Errors
}

// CreateIndex creates the index with the fixed mapping and analyzer.
// Idempotent: an existing index is left alone unless force is set, in which
// case it is deleted and recreated.
func (i *Indexer) CreateIndex(ctx context.Context, force bool) bool {
	if !i.available() {
		return false
	}

	exists, err := i.engine.IndexExists(ctx)
	if err != nil {
		i.logger.Error("index existence check failed", zap.Error(err))
		return false
	}
	if exists {
		if !force {
			return true
		}
		if !i.DeleteIndex(ctx) {
			return false
		}
	}

	if err := i.engine.CreateIndex(ctx, indexBody()); err != nil {
		i.logger.Error("create index failed", zap.Error(err))
		return false
	}
	return true
}

// DeleteIndex removes the index. A missing index is a success.
func (i *Indexer) DeleteIndex(ctx context.Context) bool {
	if !i.available() {
		return false
	}
	if err := i.engine.DeleteIndex(ctx); err != nil {
		i.logger.Error("delete index failed", zap.Error(err))
		return false
	}
	return true
}

// Refresh makes recent writes searchable.
func (i *Indexer) Refresh(ctx context.Context) bool {
	if !i.available() {
		return false
	}
	if err := i.engine.Refresh(ctx); err != nil {
		i.logger.Error("refresh failed", zap.Error(err))
		return false
	}
	return true
}

// Stats returns the raw index statistics. Unlike the boolean write
// operations the error is passed through, so callers can distinguish a
// missing index from an unreachable engine.
func (i *Indexer) Stats(ctx context.Context) (map[string]any, error) {
	if !i.available() {
		return nil, domain.ErrEngineUnavailable
	}
	stats, err := i.engine.Stats(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrIndexNotFound) {
			i.logger.Error("stats failed", zap.Error(err))
		}
		return nil, err
	}
	return stats, nil
}
