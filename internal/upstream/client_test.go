package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stackfield/tracksearch/internal/domain"
	"github.com/stackfield/tracksearch/internal/permission"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(Config{BaseURL: srv.URL, Token: "secret"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestNew_RequiresBaseURL(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("expected error without base URL")
	}
}

func TestHasCapability(t *testing.T) {
	var gotPath, gotAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(map[string]bool{"granted": true})
	})

	ok, err := c.HasCapability(context.Background(), domain.User{ID: 9}, permission.CapViewWorkItems)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("expected granted")
	}
	if gotPath != "/internal/users/9/capabilities/view_work_items" {
		t.Errorf("path = %q", gotPath)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("auth = %q", gotAuth)
	}
}

func TestHasCapability_AdminShortCircuits(t *testing.T) {
	called := false
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		called = true
		w.WriteHeader(http.StatusInternalServerError)
	})

	ok, err := c.HasCapability(context.Background(), domain.User{ID: 1, Admin: true}, permission.CapViewFiles)
	if err != nil || !ok {
		t.Fatalf("admin must be granted locally, got (%v, %v)", ok, err)
	}
	if called {
		t.Error("admin check must not hit the tracker")
	}
}

func TestProjectsWithCapability(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("capability"); got != "view_commits" {
			t.Errorf("capability param = %q", got)
		}
		_ = json.NewEncoder(w).Encode(map[string][]int64{"project_ids": {3, 4}})
	})

	ids, err := c.ProjectsWithCapability(context.Background(), domain.User{ID: 9}, permission.CapViewCommits)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 2 || ids[0] != 3 || ids[1] != 4 {
		t.Errorf("ids = %v, want [3 4]", ids)
	}
}

func TestLoad_WorkItem(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/internal/records/work_item/42" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": 42, "project_id": 3, "subject": "Crash", "private": true,
		})
	})

	rec, err := c.Load(context.Background(), domain.KindWorkItem, 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	w, ok := rec.(*domain.WorkItem)
	if !ok {
		t.Fatalf("record type = %T, want *WorkItem", rec)
	}
	if w.ID != 42 || w.Subject != "Crash" || !w.Private {
		t.Errorf("work item = %+v", w)
	}
}

func TestLoad_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.Load(context.Background(), domain.KindWikiPage, 7)
	if !errors.Is(err, domain.ErrRecordNotFound) {
		t.Errorf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestLoad_UnknownKind(t *testing.T) {
	c := newTestClient(t, func(_ http.ResponseWriter, _ *http.Request) {})

	_, err := c.Load(context.Background(), domain.Kind("calendar"), 1)
	if !errors.Is(err, domain.ErrUnsupportedRecord) {
		t.Errorf("expected ErrUnsupportedRecord, got %v", err)
	}
}

func TestCanView(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/internal/users/9/can-view/forum_post/12" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]bool{"allowed": false})
	})

	ok, err := c.CanView(context.Background(), domain.User{ID: 9}, domain.KindForumPost, 12)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected denial")
	}
}

func TestProjectName(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"name": "Infrastructure"})
	})

	name, ok := c.ProjectName(context.Background(), 3)
	if !ok || name != "Infrastructure" {
		t.Errorf("ProjectName = (%q, %v)", name, ok)
	}
}

func TestProjectName_ErrorDegrades(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	if _, ok := c.ProjectName(context.Background(), 3); ok {
		t.Error("expected lookup failure")
	}
}
