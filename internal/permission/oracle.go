package permission

import (
	"context"

	"github.com/stackfield/tracksearch/internal/domain"
)

// Oracle is the external authorization authority. The compiled engine filter
// is only a necessary condition; CanView is the sufficient, per-record check
// applied after every query.
type Oracle interface {
	// HasCapability reports whether the user holds the capability in any
	// project (the global check gating a record kind as a whole).
	HasCapability(ctx context.Context, user domain.User, cap Capability) (bool, error)
	// ProjectsWithCapability returns the ids of projects where the user
	// holds the capability.
	ProjectsWithCapability(ctx context.Context, user domain.User, cap Capability) ([]int64, error)
	// MemberProjects returns the ids of projects the user is a member of.
	MemberProjects(ctx context.Context, user domain.User) ([]int64, error)
	// CanView evaluates the record's own visibility rule for the user.
	// A record that cannot be loaded is simply not visible.
	CanView(ctx context.Context, user domain.User, kind domain.Kind, id int64) (bool, error)
}
