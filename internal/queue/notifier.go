package queue

import (
	"context"

	"go.uber.org/zap"

	"github.com/stackfield/tracksearch/internal/domain"
)

// taskQueue is the producer side surface the notifier needs.
type taskQueue interface {
	Enqueue(ctx context.Context, task Task) error
}

// Notifier translates record lifecycle events into index tasks. Enqueue
// failures are logged and swallowed so a Redis outage never fails a save;
// the record is picked up again by the next reconcile.
type Notifier struct {
	queue  taskQueue
	logger *zap.Logger
}

// NewNotifier creates a notifier over the given queue.
func NewNotifier(q taskQueue, logger *zap.Logger) *Notifier {
	return &Notifier{queue: q, logger: logger}
}

// RecordSaved schedules (re)indexing of a created or updated record.
func (n *Notifier) RecordSaved(ctx context.Context, rec domain.Record) {
	if rec == nil {
		return
	}
	n.enqueue(ctx, Task{Kind: rec.Kind(), ID: rec.RecordID(), Action: ActionIndex})
}

// RecordDeleted schedules removal of a record from the index.
func (n *Notifier) RecordDeleted(ctx context.Context, kind domain.Kind, id int64) {
	n.enqueue(ctx, Task{Kind: kind, ID: id, Action: ActionDelete})
}

func (n *Notifier) enqueue(ctx context.Context, task Task) {
	if err := n.queue.Enqueue(ctx, task); err != nil {
		n.logger.Error("failed to enqueue index task",
			zap.String("kind", string(task.Kind)),
			zap.Int64("id", task.ID),
			zap.String("action", task.Action),
			zap.Error(err),
		)
	}
}
