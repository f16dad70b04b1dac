package queue

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/stackfield/tracksearch/internal/domain"
)

// --- Mocks ---

type mockTaskQueue struct {
	tasks []Task
	err   error
}

func (m *mockTaskQueue) Enqueue(_ context.Context, task Task) error {
	if m.err != nil {
		return m.err
	}
	m.tasks = append(m.tasks, task)
	return nil
}

// --- Tests ---

func TestNotifier_RecordSaved(t *testing.T) {
	q := &mockTaskQueue{}
	n := NewNotifier(q, zap.NewNop())

	n.RecordSaved(context.Background(), &domain.WikiPage{ID: 7})

	if len(q.tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(q.tasks))
	}
	want := Task{Kind: domain.KindWikiPage, ID: 7, Action: ActionIndex}
	if q.tasks[0] != want {
		t.Errorf("task = %+v, want %+v", q.tasks[0], want)
	}
}

func TestNotifier_RecordSavedNil(t *testing.T) {
	q := &mockTaskQueue{}
	n := NewNotifier(q, zap.NewNop())

	n.RecordSaved(context.Background(), nil)

	if len(q.tasks) != 0 {
		t.Errorf("expected no task for nil record, got %d", len(q.tasks))
	}
}

func TestNotifier_RecordDeleted(t *testing.T) {
	q := &mockTaskQueue{}
	n := NewNotifier(q, zap.NewNop())

	n.RecordDeleted(context.Background(), domain.KindWorkItem, 42)

	if len(q.tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(q.tasks))
	}
	want := Task{Kind: domain.KindWorkItem, ID: 42, Action: ActionDelete}
	if q.tasks[0] != want {
		t.Errorf("task = %+v, want %+v", q.tasks[0], want)
	}
}

func TestNotifier_EnqueueErrorSwallowed(t *testing.T) {
	q := &mockTaskQueue{err: errors.New("connection refused")}
	n := NewNotifier(q, zap.NewNop())

	n.RecordDeleted(context.Background(), domain.KindWorkItem, 1)
	// Nothing to assert beyond not panicking; the failure is logged only.
}
