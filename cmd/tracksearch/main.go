package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/stackfield/tracksearch/internal/config"
	"github.com/stackfield/tracksearch/internal/engine"
	"github.com/stackfield/tracksearch/internal/indexer"
	logpkg "github.com/stackfield/tracksearch/internal/logger"
	"github.com/stackfield/tracksearch/internal/metrics"
	"github.com/stackfield/tracksearch/internal/queue"
	"github.com/stackfield/tracksearch/internal/search"
	chiTransport "github.com/stackfield/tracksearch/internal/transport/chi"
	"github.com/stackfield/tracksearch/internal/upstream"
	"github.com/stackfield/tracksearch/internal/version"
	"github.com/stackfield/tracksearch/internal/worker"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting tracksearch API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("es_addrs", cfg.Elasticsearch.Addrs),
		zap.String("es_index", cfg.Elasticsearch.Index),
	)

	// Register search metrics explicitly (no init())
	metrics.RegisterSearchMetrics()

	eng, err := engine.New(engine.Config{
		Addrs:          cfg.Elasticsearch.Addrs,
		Index:          cfg.Elasticsearch.Index,
		Username:       cfg.Elasticsearch.Username,
		Password:       cfg.Elasticsearch.Password,
		RequestTimeout: time.Duration(cfg.Elasticsearch.RequestTimeoutSec) * time.Second,
	})
	if err != nil {
		logger.Fatal("Failed to create engine client", zap.Error(err))
	}

	ctx := context.Background()
	if err := eng.WaitForReady(ctx, time.Duration(cfg.Elasticsearch.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Search engine not ready", zap.Error(err))
	}
	logger.Info("Connected to search engine")

	tracker, err := upstream.New(upstream.Config{
		BaseURL: cfg.Upstream.BaseURL,
		Token:   cfg.Upstream.Token,
		Timeout: time.Duration(cfg.Upstream.RequestTimeoutSec) * time.Second,
	})
	if err != nil {
		logger.Fatal("Failed to create tracker client", zap.Error(err))
	}

	idx := indexer.New(eng, logger)
	if !idx.CreateIndex(ctx, false) {
		logger.Warn("Index bootstrap failed, continuing; create it via the admin API")
	}

	taskQueue, err := queue.New(queue.Config{
		Addrs:    cfg.Redis.Addrs,
		Password: cfg.Redis.Password,
		Key:      cfg.Redis.QueueKey,
	})
	if err != nil {
		logger.Fatal("Failed to create task queue", zap.Error(err))
	}
	defer taskQueue.Close()

	if err := taskQueue.Ping(ctx); err != nil {
		logger.Fatal("Task queue not ready", zap.Error(err))
	}

	// Index worker consumes tasks until shutdown.
	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()
	w := worker.New(taskQueue, idx, tracker, logger.Named("worker"))
	go w.Run(workerCtx)

	server := chiTransport.NewServer(
		eng, eng, tracker, tracker, tracker, idx,
		search.Options{
			HighlightEnabled:  cfg.Search.Highlight.Enabled,
			FragmentSize:      cfg.Search.Highlight.FragmentSize,
			NumberOfFragments: cfg.Search.Highlight.NumberOfFragments,
		},
		logger,
	)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	stopWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
