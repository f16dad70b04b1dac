package engine

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stackfield/tracksearch/internal/domain"
)

func TestTransportError_MatchesEngineUnavailable(t *testing.T) {
	err := transportError(OpSearch, fmt.Errorf("dial tcp: connection refused"))

	if !errors.Is(err, domain.ErrEngineUnavailable) {
		t.Errorf("transport failure must match ErrEngineUnavailable, got %v", err)
	}
	var engErr *Error
	if !errors.As(err, &engErr) || engErr.Op != OpSearch {
		t.Errorf("expected typed engine error for op %q, got %v", OpSearch, err)
	}
}

func TestIndexMissingError_MatchesIndexNotFound(t *testing.T) {
	err := indexMissingError(OpStats)

	if !errors.Is(err, domain.ErrIndexNotFound) {
		t.Errorf("404 on an index operation must match ErrIndexNotFound, got %v", err)
	}
	var engErr *Error
	if !errors.As(err, &engErr) || engErr.Status != http.StatusNotFound {
		t.Errorf("expected status 404 carried on the error, got %v", err)
	}
}
