// Package engine wraps the Elasticsearch client behind typed operations and
// typed errors. All engine I/O of the module goes through this package; no
// caller ever inspects a raw HTTP response.
package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	elasticsearch "github.com/elastic/go-elasticsearch/v8"

	"github.com/stackfield/tracksearch/internal/metrics"
)

// Config holds connection parameters for the search engine.
type Config struct {
	Addrs          []string
	Index          string
	Username       string
	Password       string
	RequestTimeout time.Duration
}

// Client is a typed facade over the Elasticsearch API, scoped to one index.
type Client struct {
	es      *elasticsearch.Client
	index   string
	timeout time.Duration
}

// New creates an engine client.
func New(cfg Config) (*Client, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}
	if cfg.Index == "" {
		return nil, fmt.Errorf("index is required")
	}

	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addrs,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{es: es, index: cfg.Index, timeout: timeout}, nil
}

// Index returns the index name the client operates on.
func (c *Client) Index() string { return c.index }

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.timeout)
}

// IndexDocument upserts a document at the given id. Writing the same id
// twice overwrites in place, which makes retries safe.
func (c *Client) IndexDocument(ctx context.Context, docID string, doc any) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	start := time.Now()

	body, err := json.Marshal(doc)
	if err != nil {
		return opError(OpIndex, err)
	}

	res, err := c.es.Index(
		c.index,
		bytes.NewReader(body),
		c.es.Index.WithDocumentID(docID),
		c.es.Index.WithContext(ctx),
	)
	metrics.ObserveEngineRequest(OpIndex, start, err)
	if err != nil {
		return transportError(OpIndex, err)
	}
	defer res.Body.Close()

	return c.checkStatus(OpIndex, res.StatusCode, res.Body)
}

// DeleteDocument removes a document by id. A missing document is not an error.
func (c *Client) DeleteDocument(ctx context.Context, docID string) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	start := time.Now()

	res, err := c.es.Delete(c.index, docID, c.es.Delete.WithContext(ctx))
	metrics.ObserveEngineRequest(OpDelete, start, err)
	if err != nil {
		return transportError(OpDelete, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil
	}
	return c.checkStatus(OpDelete, res.StatusCode, res.Body)
}

// BulkDoc is one document of a bulk upsert.
type BulkDoc struct {
	DocID    string
	Document any
}

// Bulk upserts a batch of documents in one round trip. The per-item results
// are returned even when the overall request succeeds, so callers can log
// individual failures.
func (c *Client) Bulk(ctx context.Context, docs []BulkDoc) (*BulkResult, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	start := time.Now()

	// Alternating action/document NDJSON stream.
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, d := range docs {
		action := map[string]any{"index": map[string]any{"_index": c.index, "_id": d.DocID}}
		if err := enc.Encode(action); err != nil {
			return nil, opError(OpBulk, err)
		}
		if err := enc.Encode(d.Document); err != nil {
			return nil, opError(OpBulk, err)
		}
	}

	res, err := c.es.Bulk(&buf, c.es.Bulk.WithIndex(c.index), c.es.Bulk.WithContext(ctx))
	metrics.ObserveEngineRequest(OpBulk, start, err)
	if err != nil {
		return nil, transportError(OpBulk, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, statusError(OpBulk, res.StatusCode, readBodyError(res.Body))
	}

	var raw rawBulkResponse
	if err := json.NewDecoder(res.Body).Decode(&raw); err != nil {
		return nil, opError(OpBulk, fmt.Errorf("decode response: %w", err))
	}
	return raw.decode(), nil
}

// Search executes a query body against the index and decodes the response.
func (c *Client) Search(ctx context.Context, body map[string]any) (*SearchResponse, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	start := time.Now()

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, opError(OpSearch, err)
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(c.index),
		c.es.Search.WithBody(&buf),
		c.es.Search.WithTrackTotalHits(true),
	)
	metrics.ObserveEngineRequest(OpSearch, start, err)
	if err != nil {
		return nil, transportError(OpSearch, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, indexMissingError(OpSearch)
	}
	if res.IsError() {
		return nil, statusError(OpSearch, res.StatusCode, readBodyError(res.Body))
	}

	var raw rawSearchResponse
	if err := json.NewDecoder(res.Body).Decode(&raw); err != nil {
		return nil, opError(OpSearch, fmt.Errorf("decode response: %w", err))
	}
	return raw.decode(), nil
}

// Count returns the number of documents matching a query body.
func (c *Client) Count(ctx context.Context, body map[string]any) (int64, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	start := time.Now()

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, opError(OpCount, err)
	}

	res, err := c.es.Count(
		c.es.Count.WithContext(ctx),
		c.es.Count.WithIndex(c.index),
		c.es.Count.WithBody(&buf),
	)
	metrics.ObserveEngineRequest(OpCount, start, err)
	if err != nil {
		return 0, transportError(OpCount, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return 0, indexMissingError(OpCount)
	}
	if res.IsError() {
		return 0, statusError(OpCount, res.StatusCode, readBodyError(res.Body))
	}

	var out struct {
		Count int64 `json:"count"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return 0, opError(OpCount, fmt.Errorf("decode response: %w", err))
	}
	return out.Count, nil
}

// CreateIndex creates the index with the given settings and mappings body.
func (c *Client) CreateIndex(ctx context.Context, body map[string]any) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	start := time.Now()

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return opError(OpCreateIndex, err)
	}

	res, err := c.es.Indices.Create(
		c.index,
		c.es.Indices.Create.WithBody(&buf),
		c.es.Indices.Create.WithContext(ctx),
	)
	metrics.ObserveEngineRequest(OpCreateIndex, start, err)
	if err != nil {
		return transportError(OpCreateIndex, err)
	}
	defer res.Body.Close()

	return c.checkStatus(OpCreateIndex, res.StatusCode, res.Body)
}

// DeleteIndex removes the index. A missing index is not an error.
func (c *Client) DeleteIndex(ctx context.Context) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	start := time.Now()

	res, err := c.es.Indices.Delete([]string{c.index}, c.es.Indices.Delete.WithContext(ctx))
	metrics.ObserveEngineRequest(OpDeleteIndex, start, err)
	if err != nil {
		return transportError(OpDeleteIndex, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil
	}
	return c.checkStatus(OpDeleteIndex, res.StatusCode, res.Body)
}

// IndexExists reports whether the index exists.
func (c *Client) IndexExists(ctx context.Context) (bool, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	start := time.Now()

	res, err := c.es.Indices.Exists([]string{c.index}, c.es.Indices.Exists.WithContext(ctx))
	metrics.ObserveEngineRequest(OpExists, start, err)
	if err != nil {
		return false, transportError(OpExists, err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, statusError(OpExists, res.StatusCode, readBodyError(res.Body))
	}
}

// Refresh makes recent writes searchable.
func (c *Client) Refresh(ctx context.Context) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	start := time.Now()

	res, err := c.es.Indices.Refresh(
		c.es.Indices.Refresh.WithIndex(c.index),
		c.es.Indices.Refresh.WithContext(ctx),
	)
	metrics.ObserveEngineRequest(OpRefresh, start, err)
	if err != nil {
		return transportError(OpRefresh, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return indexMissingError(OpRefresh)
	}
	return c.checkStatus(OpRefresh, res.StatusCode, res.Body)
}

// Stats returns the raw index statistics document.
func (c *Client) Stats(ctx context.Context) (map[string]any, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	start := time.Now()

	res, err := c.es.Indices.Stats(
		c.es.Indices.Stats.WithIndex(c.index),
		c.es.Indices.Stats.WithContext(ctx),
	)
	metrics.ObserveEngineRequest(OpStats, start, err)
	if err != nil {
		return nil, transportError(OpStats, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, indexMissingError(OpStats)
	}
	if res.IsError() {
		return nil, statusError(OpStats, res.StatusCode, readBodyError(res.Body))
	}

	var out map[string]any
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, opError(OpStats, fmt.Errorf("decode response: %w", err))
	}
	return out, nil
}

// Ping checks engine connectivity.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	res, err := c.es.Ping(c.es.Ping.WithContext(ctx))
	if err != nil {
		return transportError(OpPing, err)
	}
	defer res.Body.Close()

	return c.checkStatus(OpPing, res.StatusCode, res.Body)
}

// WaitForReady polls Ping until the engine responds or timeout expires.
func (c *Client) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for engine: %w", ctx.Err())
		case <-ticker.C:
			if err := c.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

func (c *Client) checkStatus(op string, status int, body io.Reader) error {
	if status >= 200 && status < 300 {
		return nil
	}
	return statusError(op, status, readBodyError(body))
}

func readBodyError(body io.Reader) error {
	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(data) == 0 {
		return fmt.Errorf("engine error response")
	}
	return fmt.Errorf("%s", data)
}
