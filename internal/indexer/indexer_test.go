package indexer

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/stackfield/tracksearch/internal/domain"
	"github.com/stackfield/tracksearch/internal/engine"
)

// --- Mocks ---

type mockEngine struct {
	indexErr   error
	deleteErr  error
	bulkResult *engine.BulkResult
	bulkErr    error
	exists     bool
	existsErr  error
	createErr  error
	dropErr    error
	refreshErr error
	stats      map[string]any
	statsErr   error

	indexedIDs []string
	deletedIDs []string
	bulkDocs   []engine.BulkDoc
	created    int
	dropped    int
}

func (m *mockEngine) IndexDocument(_ context.Context, docID string, _ any) error {
	m.indexedIDs = append(m.indexedIDs, docID)
	return m.indexErr
}

func (m *mockEngine) DeleteDocument(_ context.Context, docID string) error {
	m.deletedIDs = append(m.deletedIDs, docID)
	return m.deleteErr
}

func (m *mockEngine) Bulk(_ context.Context, docs []engine.BulkDoc) (*engine.BulkResult, error) {
	m.bulkDocs = docs
	if m.bulkErr != nil {
		return nil, m.bulkErr
	}
	if m.bulkResult != nil {
		return m.bulkResult, nil
	}
	return &engine.BulkResult{}, nil
}

func (m *mockEngine) CreateIndex(_ context.Context, _ map[string]any) error {
	m.created++
	return m.createErr
}

func (m *mockEngine) DeleteIndex(_ context.Context) error {
	m.dropped++
	return m.dropErr
}

func (m *mockEngine) IndexExists(_ context.Context) (bool, error) {
	return m.exists, m.existsErr
}

func (m *mockEngine) Refresh(_ context.Context) error { return m.refreshErr }

func (m *mockEngine) Stats(_ context.Context) (map[string]any, error) {
	return m.stats, m.statsErr
}

func workItem(id int64) *domain.WorkItem {
	return &domain.WorkItem{ID: id, ProjectID: 1, Subject: "subject"}
}

// --- Tests ---

func TestIndex_WritesAtDocumentIdentity(t *testing.T) {
	eng := &mockEngine{}
	idx := New(eng, zap.NewNop())

	if !idx.Index(context.Background(), workItem(42)) {
		t.Fatal("expected success")
	}
	if len(eng.indexedIDs) != 1 || eng.indexedIDs[0] != "work_item_42" {
		t.Errorf("indexed IDs = %v, want [work_item_42]", eng.indexedIDs)
	}
}

func TestIndex_EngineError_ReturnsFalse(t *testing.T) {
	eng := &mockEngine{indexErr: errors.New("engine down")}
	idx := New(eng, zap.NewNop())

	if idx.Index(context.Background(), workItem(1)) {
		t.Error("expected failure on engine error")
	}
}

func TestIndex_NilEngine_ReturnsFalse(t *testing.T) {
	idx := New(nil, zap.NewNop())

	if idx.Index(context.Background(), workItem(1)) {
		t.Error("expected failure without engine")
	}
	if idx.Delete(context.Background(), domain.KindWorkItem, 1) {
		t.Error("expected failure without engine")
	}
	if _, err := idx.Stats(context.Background()); !errors.Is(err, domain.ErrEngineUnavailable) {
		t.Errorf("expected ErrEngineUnavailable without engine, got %v", err)
	}
}

func TestDelete_ByKindAndID(t *testing.T) {
	eng := &mockEngine{}
	idx := New(eng, zap.NewNop())

	if !idx.Delete(context.Background(), domain.KindWikiPage, 7) {
		t.Fatal("expected success")
	}
	if len(eng.deletedIDs) != 1 || eng.deletedIDs[0] != "wiki_page_7" {
		t.Errorf("deleted IDs = %v, want [wiki_page_7]", eng.deletedIDs)
	}
}

func TestBulkIndex_EmptyBatch(t *testing.T) {
	eng := &mockEngine{}
	idx := New(eng, zap.NewNop())

	if !idx.BulkIndex(context.Background(), nil) {
		t.Error("empty batch must succeed without touching the engine")
	}
	if eng.bulkDocs != nil {
		t.Error("engine must not be contacted for an empty batch")
	}
}

func TestBulkIndex_PartialFailure(t *testing.T) {
	eng := &mockEngine{bulkResult: &engine.BulkResult{
		Errors: true,
		Items: []engine.BulkItemResult{
			{DocID: "work_item_1", Status: 200},
			{DocID: "work_item_2", Status: 429, Error: "rejected"},
		},
	}}
	idx := New(eng, zap.NewNop())

	ok := idx.BulkIndex(context.Background(), []domain.Record{workItem(1), workItem(2)})
	if ok {
		t.Error("batch with item errors must report failure")
	}
	if len(eng.bulkDocs) != 2 {
		t.Errorf("expected 2 bulk docs, got %d", len(eng.bulkDocs))
	}
}

func TestCreateIndex_ExistingWithoutForce(t *testing.T) {
	eng := &mockEngine{exists: true}
	idx := New(eng, zap.NewNop())

	if !idx.CreateIndex(context.Background(), false) {
		t.Fatal("existing index without force must succeed")
	}
	if eng.created != 0 || eng.dropped != 0 {
		t.Error("existing index must be left alone")
	}
}

func TestCreateIndex_ForceRecreates(t *testing.T) {
	eng := &mockEngine{exists: true}
	idx := New(eng, zap.NewNop())

	if !idx.CreateIndex(context.Background(), true) {
		t.Fatal("expected success")
	}
	if eng.dropped != 1 {
		t.Errorf("dropped = %d, want 1", eng.dropped)
	}
	if eng.created != 1 {
		t.Errorf("created = %d, want 1", eng.created)
	}
}

func TestCreateIndex_Fresh(t *testing.T) {
	eng := &mockEngine{}
	idx := New(eng, zap.NewNop())

	if !idx.CreateIndex(context.Background(), false) {
		t.Fatal("expected success")
	}
	if eng.created != 1 {
		t.Errorf("created = %d, want 1", eng.created)
	}
}

func TestStats_MissingIndexPassesSentinel(t *testing.T) {
	eng := &mockEngine{statsErr: domain.ErrIndexNotFound}
	idx := New(eng, zap.NewNop())

	stats, err := idx.Stats(context.Background())
	if stats != nil {
		t.Errorf("expected nil stats, got %v", stats)
	}
	if !errors.Is(err, domain.ErrIndexNotFound) {
		t.Errorf("expected ErrIndexNotFound, got %v", err)
	}
}

func TestStats_Passthrough(t *testing.T) {
	eng := &mockEngine{stats: map[string]any{"docs": 10.0}}
	idx := New(eng, zap.NewNop())

	stats, err := idx.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats == nil || stats["docs"] != 10.0 {
		t.Errorf("stats = %v", stats)
	}
}
