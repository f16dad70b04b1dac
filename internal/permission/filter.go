// Package permission compiles per-user visibility rules into coarse engine
// filter clauses. The hybrid contract: the engine filters cheaply but only
// approximately, and the oracle revalidates every hit afterwards.
package permission

import (
	"context"
	"fmt"

	"github.com/stackfield/tracksearch/internal/domain"
	"github.com/stackfield/tracksearch/internal/esquery"
)

// Filter compiles permission predicates for one user. It memoizes oracle
// project lookups, so an instance is scoped to a single request and must
// never be shared across users.
type Filter struct {
	user   domain.User
	oracle Oracle

	projectCache map[Capability][]int64
	memberCache  []int64
	memberLoaded bool
}

// NewFilter creates a permission filter for one request.
func NewFilter(user domain.User, oracle Oracle) *Filter {
	return &Filter{
		user:         user,
		oracle:       oracle,
		projectCache: make(map[Capability][]int64),
	}
}

// Build compiles the verdict for the requested kinds, OR-combining the
// per-kind clauses. Kinds the user has no access to contribute nothing; when
// every kind is denied the verdict is the explicit denial.
func (f *Filter) Build(ctx context.Context, kinds []domain.Kind) (Verdict, error) {
	if len(kinds) == 0 {
		kinds = domain.AllKinds()
	}

	var clauses []esquery.M
	for _, kind := range kinds {
		clause, ok, err := f.kindFilter(ctx, kind)
		if err != nil {
			return Deny(), fmt.Errorf("filter for %s: %w", kind, err)
		}
		if ok {
			clauses = append(clauses, clause)
		}
	}

	if len(clauses) == 0 {
		return Deny(), nil
	}
	return Allow(esquery.NewBool().Should(clauses...).MinimumShouldMatch(1).Build()), nil
}

func (f *Filter) kindFilter(ctx context.Context, kind domain.Kind) (esquery.M, bool, error) {
	switch kind {
	case domain.KindWorkItem:
		return f.workItemFilter(ctx)
	case domain.KindAnnouncement:
		return f.announcementFilter(ctx)
	case domain.KindProject:
		return f.projectFilter(ctx)
	case domain.KindWikiPage, domain.KindForumPost, domain.KindCommit, domain.KindFile:
		return f.memberOnlyFilter(ctx, kind)
	default:
		return nil, false, nil
	}
}

// workItemFilter handles private items and role-based visibility. Four
// branches for non-admins: non-private items in permitted projects, private
// items authored by or assigned to the user, and private items in projects
// with the view-private capability.
func (f *Filter) workItemFilter(ctx context.Context) (esquery.M, bool, error) {
	typeTerm := esquery.Term("type", domain.KindWorkItem)
	if f.user.Admin {
		return typeTerm, true, nil
	}

	ok, err := f.oracle.HasCapability(ctx, f.user, CapViewWorkItems)
	if err != nil || !ok {
		return nil, false, err
	}

	projectIDs, err := f.projectsWith(ctx, CapViewWorkItems)
	if err != nil {
		return nil, false, err
	}
	if len(projectIDs) == 0 {
		return nil, false, nil
	}

	branches := []esquery.M{
		// Non-private items in permitted projects.
		esquery.NewBool().Must(
			typeTerm,
			esquery.Term("work_item_fields.is_private", false),
			esquery.Terms("project_id", projectIDs),
		).Build(),
		// Private items authored by the user.
		esquery.NewBool().Must(
			typeTerm,
			esquery.Term("work_item_fields.is_private", true),
			esquery.Term("work_item_fields.author_id", f.user.ID),
		).Build(),
		// Private items assigned to the user.
		esquery.NewBool().Must(
			typeTerm,
			esquery.Term("work_item_fields.is_private", true),
			esquery.Term("work_item_fields.assigned_to_id", f.user.ID),
		).Build(),
	}

	privateIDs, err := f.projectsWith(ctx, CapViewPrivateWorkItems)
	if err != nil {
		return nil, false, err
	}
	if len(privateIDs) > 0 {
		branches = append(branches, esquery.NewBool().Must(
			typeTerm,
			esquery.Term("work_item_fields.is_private", true),
			esquery.Terms("project_id", privateIDs),
		).Build())
	}

	return esquery.NewBool().Should(branches...).MinimumShouldMatch(1).Build(), true, nil
}

// announcementFilter allows public projects without membership: announcements
// are readable project-wide when the project is public.
func (f *Filter) announcementFilter(ctx context.Context) (esquery.M, bool, error) {
	typeTerm := esquery.Term("type", domain.KindAnnouncement)
	if f.user.Admin {
		return typeTerm, true, nil
	}

	ok, err := f.oracle.HasCapability(ctx, f.user, CapViewAnnouncements)
	if err != nil || !ok {
		return nil, false, err
	}

	publicClause := esquery.NewBool().Must(
		typeTerm,
		esquery.Term("project_is_public", true),
	).Build()

	projectIDs, err := f.projectsWith(ctx, CapViewAnnouncements)
	if err != nil {
		return nil, false, err
	}
	if len(projectIDs) == 0 {
		return publicClause, true, nil
	}

	memberClause := esquery.NewBool().Must(
		typeTerm,
		esquery.Terms("project_id", projectIDs),
	).Build()

	return esquery.NewBool().
		Should(publicClause, memberClause).
		MinimumShouldMatch(1).
		Build(), true, nil
}

// memberOnlyFilter covers wiki pages, forum posts, commits and files: the
// kind's view capability restricted to the permitted projects.
func (f *Filter) memberOnlyFilter(ctx context.Context, kind domain.Kind) (esquery.M, bool, error) {
	typeTerm := esquery.Term("type", kind)
	if f.user.Admin {
		return typeTerm, true, nil
	}

	capability := viewCapability[kind]
	ok, err := f.oracle.HasCapability(ctx, f.user, capability)
	if err != nil || !ok {
		return nil, false, err
	}

	projectIDs, err := f.projectsWith(ctx, capability)
	if err != nil {
		return nil, false, err
	}
	if len(projectIDs) == 0 {
		return nil, false, nil
	}

	return esquery.NewBool().Must(
		typeTerm,
		esquery.Terms("project_id", projectIDs),
	).Build(), true, nil
}

// projectFilter needs no capability: anyone sees public active projects,
// members additionally see their own, admins see everything.
func (f *Filter) projectFilter(ctx context.Context) (esquery.M, bool, error) {
	typeTerm := esquery.Term("type", domain.KindProject)
	if f.user.Admin {
		return typeTerm, true, nil
	}

	branches := []esquery.M{
		esquery.NewBool().Must(
			typeTerm,
			esquery.Term("project_is_public", true),
			esquery.Term("status", domain.ProjectStatusActive),
		).Build(),
	}

	memberIDs, err := f.memberProjects(ctx)
	if err != nil {
		return nil, false, err
	}
	if len(memberIDs) > 0 {
		branches = append(branches, esquery.NewBool().Must(
			typeTerm,
			esquery.Terms("project_id", memberIDs),
			esquery.Term("status", domain.ProjectStatusActive),
		).Build())
	}

	return esquery.NewBool().Should(branches...).MinimumShouldMatch(1).Build(), true, nil
}

// projectsWith memoizes the oracle's capability→project-id lookup for the
// lifetime of this filter instance.
func (f *Filter) projectsWith(ctx context.Context, capability Capability) ([]int64, error) {
	if ids, ok := f.projectCache[capability]; ok {
		return ids, nil
	}
	ids, err := f.oracle.ProjectsWithCapability(ctx, f.user, capability)
	if err != nil {
		return nil, err
	}
	f.projectCache[capability] = ids
	return ids, nil
}

func (f *Filter) memberProjects(ctx context.Context) ([]int64, error) {
	if f.memberLoaded {
		return f.memberCache, nil
	}
	ids, err := f.oracle.MemberProjects(ctx, f.user)
	if err != nil {
		return nil, err
	}
	f.memberCache = ids
	f.memberLoaded = true
	return ids, nil
}
