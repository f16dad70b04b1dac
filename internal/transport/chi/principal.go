package chi

import (
	"context"
	"net/http"
	"strconv"

	"github.com/stackfield/tracksearch/internal/domain"
)

// The tracker's frontend terminates authentication and forwards the
// principal in headers. A missing or malformed X-User-Id degrades to the
// anonymous user rather than failing the request; anonymous search is a
// legitimate mode on public projects.
const (
	headerUserID = "X-User-Id"
	headerAdmin  = "X-Admin"
)

type principalKey struct{}

// PrincipalMiddleware resolves the requesting user from headers and stores
// it in the request context.
func PrincipalMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := domain.AnonymousUser()
			if raw := r.Header.Get(headerUserID); raw != "" {
				if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
					user = domain.User{ID: id}
					user.Admin = r.Header.Get(headerAdmin) == "true"
				}
			}
			ctx := context.WithValue(r.Context(), principalKey{}, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// principalFromContext returns the request's user, anonymous if unset.
func principalFromContext(ctx context.Context) domain.User {
	if u, ok := ctx.Value(principalKey{}).(domain.User); ok {
		return u
	}
	return domain.AnonymousUser()
}
