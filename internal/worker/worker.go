// Package worker drains the index-task queue and applies each task to the
// engine through the indexer.
package worker

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/stackfield/tracksearch/internal/domain"
	"github.com/stackfield/tracksearch/internal/queue"
)

const (
	dequeueTimeout = 5 * time.Second
	maxAttempts    = 3
)

// RecordLoader fetches the current state of a record for indexing.
type RecordLoader interface {
	Load(ctx context.Context, kind domain.Kind, id int64) (domain.Record, error)
}

// indexWriter is the indexer surface the worker drives.
type indexWriter interface {
	Index(ctx context.Context, rec domain.Record) bool
	Delete(ctx context.Context, kind domain.Kind, id int64) bool
}

// taskSource is the consumer side of the queue.
type taskSource interface {
	Dequeue(ctx context.Context, timeout time.Duration) (*queue.Task, error)
	PushDead(ctx context.Context, task queue.Task) error
}

// Worker consumes index tasks one at a time. Each task gets up to
// maxAttempts tries with polynomially growing backoff; a task that still
// fails is parked on the dead list and the loop moves on.
type Worker struct {
	queue   taskSource
	indexer indexWriter
	loader  RecordLoader
	logger  *zap.Logger
	backoff func(attempt int) time.Duration
}

// New creates a worker over the given queue, indexer and loader.
func New(q taskSource, idx indexWriter, loader RecordLoader, logger *zap.Logger) *Worker {
	return &Worker{
		queue:   q,
		indexer: idx,
		loader:  loader,
		logger:  logger,
		// 1s, 4s between tries.
		backoff: func(attempt int) time.Duration {
			return time.Duration(attempt*attempt) * time.Second
		},
	}
}

// Run consumes tasks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	w.logger.Info("index worker started")
	for {
		if ctx.Err() != nil {
			w.logger.Info("index worker stopped")
			return
		}

		task, err := w.queue.Dequeue(ctx, dequeueTimeout)
		if err != nil {
			if ctx.Err() != nil {
				w.logger.Info("index worker stopped")
				return
			}
			w.logger.Error("dequeue failed", zap.Error(err))
			sleep(ctx, time.Second)
			continue
		}
		if task == nil {
			continue
		}

		w.handle(ctx, *task)
	}
}

func (w *Worker) handle(ctx context.Context, task queue.Task) {
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if w.process(ctx, task) {
			return
		}
		if ctx.Err() != nil {
			return
		}
		if attempt < maxAttempts {
			sleep(ctx, w.backoff(attempt))
		}
	}

	w.logger.Error("index task exhausted retries, parking on dead list",
		zap.String("kind", string(task.Kind)),
		zap.Int64("id", task.ID),
		zap.String("action", task.Action),
	)
	if err := w.queue.PushDead(ctx, task); err != nil {
		w.logger.Error("failed to park task", zap.Error(err))
	}
}

func (w *Worker) process(ctx context.Context, task queue.Task) bool {
	switch task.Action {
	case queue.ActionIndex:
		rec, err := w.loader.Load(ctx, task.Kind, task.ID)
		if err != nil {
			// A record deleted between enqueue and processing is not a
			// failure; the delete task that follows cleans the index.
			if errors.Is(err, domain.ErrRecordNotFound) {
				return true
			}
			w.logger.Warn("record load failed",
				zap.String("kind", string(task.Kind)),
				zap.Int64("id", task.ID),
				zap.Error(err),
			)
			return false
		}
		return w.indexer.Index(ctx, rec)
	case queue.ActionDelete:
		return w.indexer.Delete(ctx, task.Kind, task.ID)
	default:
		w.logger.Error("unknown task action, dropping",
			zap.String("action", task.Action),
		)
		return true
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
