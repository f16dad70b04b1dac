package permission

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stackfield/tracksearch/internal/domain"
)

// --- Mocks ---

type mockOracle struct {
	capabilities map[Capability]bool
	projects     map[Capability][]int64
	member       []int64

	capErr  error
	projErr error

	projectCalls map[Capability]int
	memberCalls  int
}

func newMockOracle() *mockOracle {
	return &mockOracle{
		capabilities: make(map[Capability]bool),
		projects:     make(map[Capability][]int64),
		projectCalls: make(map[Capability]int),
	}
}

func (m *mockOracle) HasCapability(_ context.Context, _ domain.User, c Capability) (bool, error) {
	if m.capErr != nil {
		return false, m.capErr
	}
	return m.capabilities[c], nil
}

func (m *mockOracle) ProjectsWithCapability(_ context.Context, _ domain.User, c Capability) ([]int64, error) {
	m.projectCalls[c]++
	if m.projErr != nil {
		return nil, m.projErr
	}
	return m.projects[c], nil
}

func (m *mockOracle) MemberProjects(_ context.Context, _ domain.User) ([]int64, error) {
	m.memberCalls++
	return m.member, nil
}

func (m *mockOracle) CanView(_ context.Context, _ domain.User, _ domain.Kind, _ int64) (bool, error) {
	return true, nil
}

func clauseJSON(t *testing.T, v Verdict) string {
	t.Helper()
	data, err := json.Marshal(v.Clause())
	if err != nil {
		t.Fatalf("marshal clause: %v", err)
	}
	return string(data)
}

// --- Tests ---

func TestBuild_NoCapabilities_Denies(t *testing.T) {
	f := NewFilter(domain.User{ID: 5}, newMockOracle())

	v, err := f.Build(context.Background(), []domain.Kind{domain.KindWorkItem, domain.KindWikiPage})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Allowed() {
		t.Error("expected denial without any capability")
	}
}

func TestBuild_ZeroVerdictDenies(t *testing.T) {
	var v Verdict
	if v.Allowed() {
		t.Error("zero verdict must deny")
	}
}

func TestBuild_Admin_AllowsEveryKind(t *testing.T) {
	f := NewFilter(domain.User{ID: 1, Admin: true}, newMockOracle())

	v, err := f.Build(context.Background(), domain.AllKinds())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !v.Allowed() {
		t.Fatal("admin must be allowed")
	}
	// Admins get the bare type terms without project restriction.
	if got := clauseJSON(t, v); strings.Contains(got, "project_id") {
		t.Errorf("admin clause must not restrict projects: %s", got)
	}
}

func TestBuild_WorkItems_PrivateBranches(t *testing.T) {
	oracle := newMockOracle()
	oracle.capabilities[CapViewWorkItems] = true
	oracle.projects[CapViewWorkItems] = []int64{3, 4}
	f := NewFilter(domain.User{ID: 9}, oracle)

	v, err := f.Build(context.Background(), []domain.Kind{domain.KindWorkItem})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !v.Allowed() {
		t.Fatal("expected allowance")
	}

	got := clauseJSON(t, v)
	for _, want := range []string{
		`"work_item_fields.is_private":false`,
		`"work_item_fields.author_id":9`,
		`"work_item_fields.assigned_to_id":9`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("clause missing %s: %s", want, got)
		}
	}
	// No view-private projects: the fourth branch must be absent.
	if strings.Count(got, `"work_item_fields.is_private":true`) != 2 {
		t.Errorf("expected exactly two private branches: %s", got)
	}
}

func TestBuild_WorkItems_ViewPrivateProjects(t *testing.T) {
	oracle := newMockOracle()
	oracle.capabilities[CapViewWorkItems] = true
	oracle.projects[CapViewWorkItems] = []int64{3}
	oracle.projects[CapViewPrivateWorkItems] = []int64{3}
	f := NewFilter(domain.User{ID: 9}, oracle)

	v, err := f.Build(context.Background(), []domain.Kind{domain.KindWorkItem})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := clauseJSON(t, v)
	if strings.Count(got, `"work_item_fields.is_private":true`) != 3 {
		t.Errorf("expected the view-private branch to be present: %s", got)
	}
}

func TestBuild_WorkItems_NoProjects_Denies(t *testing.T) {
	oracle := newMockOracle()
	oracle.capabilities[CapViewWorkItems] = true
	f := NewFilter(domain.User{ID: 9}, oracle)

	v, err := f.Build(context.Background(), []domain.Kind{domain.KindWorkItem})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Allowed() {
		t.Error("capability without any permitted project must deny")
	}
}

func TestBuild_Announcements_PublicProjectsWithoutMembership(t *testing.T) {
	oracle := newMockOracle()
	oracle.capabilities[CapViewAnnouncements] = true
	f := NewFilter(domain.User{ID: 9}, oracle)

	v, err := f.Build(context.Background(), []domain.Kind{domain.KindAnnouncement})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !v.Allowed() {
		t.Fatal("announcements on public projects need no membership")
	}
	got := clauseJSON(t, v)
	if !strings.Contains(got, `"project_is_public":true`) {
		t.Errorf("clause missing public-project branch: %s", got)
	}
	if strings.Contains(got, `"project_id"`) {
		t.Errorf("clause must not carry a member branch without project grants: %s", got)
	}
}

func TestBuild_Projects_AnonymousSeesPublicActive(t *testing.T) {
	f := NewFilter(domain.AnonymousUser(), newMockOracle())

	v, err := f.Build(context.Background(), []domain.Kind{domain.KindProject})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !v.Allowed() {
		t.Fatal("anonymous project search must be allowed")
	}
	got := clauseJSON(t, v)
	if !strings.Contains(got, `"project_is_public":true`) {
		t.Errorf("clause missing public restriction: %s", got)
	}
	if !strings.Contains(got, `"status":1`) {
		t.Errorf("clause missing active-status restriction: %s", got)
	}
}

func TestBuild_MixedKinds_PartialDenialStillAllows(t *testing.T) {
	// No capability for wiki pages, but projects are always searchable.
	f := NewFilter(domain.User{ID: 9}, newMockOracle())

	v, err := f.Build(context.Background(), []domain.Kind{domain.KindWikiPage, domain.KindProject})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !v.Allowed() {
		t.Fatal("one permitted kind is enough")
	}
	if got := clauseJSON(t, v); strings.Contains(got, string(domain.KindWikiPage)) {
		t.Errorf("denied kind must not appear in the clause: %s", got)
	}
}

func TestBuild_OracleError_Propagates(t *testing.T) {
	oracle := newMockOracle()
	oracle.capErr = errors.New("tracker down")
	f := NewFilter(domain.User{ID: 9}, oracle)

	if _, err := f.Build(context.Background(), []domain.Kind{domain.KindWorkItem}); err == nil {
		t.Error("expected oracle error to propagate")
	}
}

func TestFilter_MemoizesProjectLookups(t *testing.T) {
	oracle := newMockOracle()
	oracle.capabilities[CapViewWorkItems] = true
	oracle.projects[CapViewWorkItems] = []int64{3}
	f := NewFilter(domain.User{ID: 9}, oracle)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := f.Build(ctx, []domain.Kind{domain.KindWorkItem}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if oracle.projectCalls[CapViewWorkItems] != 1 {
		t.Errorf("expected 1 project lookup, got %d", oracle.projectCalls[CapViewWorkItems])
	}
}
