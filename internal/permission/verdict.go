package permission

import "github.com/stackfield/tracksearch/internal/esquery"

// Verdict is the outcome of compiling a permission filter: either an engine
// clause restricting what the user may see, or an explicit denial. The zero
// value denies, so an accidentally missing verdict can never widen access.
type Verdict struct {
	allowed bool
	clause  esquery.M
}

// Allow creates a verdict carrying the coarse filter clause.
func Allow(clause esquery.M) Verdict {
	return Verdict{allowed: true, clause: clause}
}

// Deny creates the explicit no-access verdict.
func Deny() Verdict { return Verdict{} }

// Allowed reports whether any access was granted.
func (v Verdict) Allowed() bool { return v.allowed }

// Clause returns the engine filter clause. Only meaningful when Allowed.
func (v Verdict) Clause() esquery.M { return v.clause }
