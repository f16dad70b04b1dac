// Package chi exposes the search service over HTTP.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/stackfield/tracksearch/internal/domain"
	"github.com/stackfield/tracksearch/internal/permission"
	"github.com/stackfield/tracksearch/internal/search"
)

// Error response codes.
const (
	codeBadRequest        = "bad_request"
	codeForbidden         = "forbidden"
	codeNotFound          = "not_found"
	codeEngineUnavailable = "engine_unavailable"
	codeInternalError     = "internal_error"
)

// errorResponse is the uniform error body.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// indexAdmin is the index-maintenance surface the admin routes drive.
type indexAdmin interface {
	CreateIndex(ctx context.Context, force bool) bool
	DeleteIndex(ctx context.Context) bool
	Refresh(ctx context.Context) bool
	Stats(ctx context.Context) (map[string]any, error)
}

// pinger reports engine connectivity for the health endpoint.
type pinger interface {
	Ping(ctx context.Context) error
}

// Server wires search and index administration into HTTP handlers. Search
// handlers construct a fresh searcher per request so permission state never
// crosses users.
type Server struct {
	engine        search.Engine
	ping          pinger
	oracle        permission.Oracle
	loader        search.RecordLoader
	namer         search.ProjectNamer
	admin         indexAdmin
	opts          search.Options
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates the HTTP API server.
func NewServer(
	eng search.Engine,
	ping pinger,
	oracle permission.Oracle,
	loader search.RecordLoader,
	namer search.ProjectNamer,
	admin indexAdmin,
	opts search.Options,
	logger *zap.Logger,
) *Server {
	s := &Server{
		engine: eng,
		ping:   ping,
		oracle: oracle,
		loader: loader,
		namer:  namer,
		admin:  admin,
		opts:   opts,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrRecordNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrIndexNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrUnsupportedRecord, http.StatusBadRequest, codeBadRequest),
		sentinelHandler(domain.ErrEngineUnavailable, http.StatusServiceUnavailable, codeEngineUnavailable),
	}
	return s
}

// Routes mounts all handlers on the given router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(PrincipalMiddleware())

		r.Get("/search", s.handleSearch)
		r.Get("/search/advanced", s.handleAdvancedSearch)

		r.Route("/admin", func(r chi.Router) {
			r.Use(s.requireAdmin)
			r.Put("/index", s.handleCreateIndex)
			r.Delete("/index", s.handleDeleteIndex)
			r.Post("/refresh", s.handleRefresh)
			r.Get("/stats", s.handleStats)
		})
	})
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !principalFromContext(r.Context()).Admin {
			writeError(w, http.StatusForbidden, codeForbidden, "administrator access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	httpStatus := http.StatusOK
	if err := s.ping.Ping(r.Context()); err != nil {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, map[string]string{"status": status})
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without
// exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrRecordNotFound,
		domain.ErrIndexNotFound,
		domain.ErrUnsupportedRecord,
		domain.ErrEngineUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}
