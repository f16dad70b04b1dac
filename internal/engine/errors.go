package engine

import (
	"fmt"
	"net/http"

	"github.com/stackfield/tracksearch/internal/domain"
)

// Operation names used in engine errors and metrics labels.
const (
	OpIndex       = "index"
	OpDelete      = "delete"
	OpBulk        = "bulk"
	OpSearch      = "search"
	OpCount       = "count"
	OpCreateIndex = "create_index"
	OpDeleteIndex = "delete_index"
	OpExists      = "exists"
	OpRefresh     = "refresh"
	OpStats       = "stats"
	OpPing        = "ping"
)

// Error is a typed engine failure carrying the operation and, when the
// engine answered at all, the HTTP status of the response.
type Error struct {
	Op     string
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("engine %s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("engine %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func opError(op string, err error) error {
	return &Error{Op: op, Err: err}
}

func statusError(op string, status int, err error) error {
	return &Error{Op: op, Status: status, Err: err}
}

// transportError marks failures where the engine never answered, so callers
// can match domain.ErrEngineUnavailable.
func transportError(op string, err error) error {
	return &Error{Op: op, Err: fmt.Errorf("%w: %v", domain.ErrEngineUnavailable, err)}
}

// indexMissingError marks a 404 on an index-level operation, so callers can
// match domain.ErrIndexNotFound.
func indexMissingError(op string) error {
	return &Error{Op: op, Status: http.StatusNotFound, Err: domain.ErrIndexNotFound}
}
