// Package client is a small HTTP client for the tracksearch API, intended
// for the tracker application and internal tooling.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client talks to one tracksearch server on behalf of one principal.
type Client struct {
	baseURL string
	userID  int64
	admin   bool
	http    *http.Client
}

// Option configures the Client.
type Option interface {
	apply(*Client)
}

type optionFunc func(*Client)

func (f optionFunc) apply(c *Client) { f(c) }

// AsUser sets the principal the client acts for.
func AsUser(id int64) Option {
	return optionFunc(func(c *Client) { c.userID = id })
}

// AsAdmin marks the principal as an administrator. Required for the index
// maintenance calls.
func AsAdmin() Option {
	return optionFunc(func(c *Client) { c.admin = true })
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return optionFunc(func(c *Client) { c.http = h })
}

// New creates a client for the server at baseURL. Without AsUser the client
// searches anonymously.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o.apply(c)
	}
	return c, nil
}

// SearchRequest holds basic-search parameters. Zero values are omitted.
type SearchRequest struct {
	Query      string
	Kinds      []string
	ProjectIDs []int64
	AllWords   bool
	TitlesOnly bool
	OpenOnly   bool
	Offset     int
	Limit      int
}

// AdvancedSearchRequest holds faceted-search parameters.
type AdvancedSearchRequest struct {
	Query         string
	SearchIn      string
	Kinds         []string
	ProjectIDs    []int64
	FromDate      string // YYYY-MM-DD
	ToDate        string // YYYY-MM-DD
	Sort          string
	IncludeClosed bool
	Offset        int
	Limit         int
}

// Hit is one search result.
type Hit struct {
	Kind      string     `json:"kind"`
	ID        int64      `json:"id"`
	ProjectID *int64     `json:"project_id"`
	Title     string     `json:"title"`
	Snippet   string     `json:"snippet"`
	Score     float64    `json:"score"`
	CreatedOn *time.Time `json:"created_on"`
	UpdatedOn *time.Time `json:"updated_on"`
}

// SearchResult is the basic-search response.
type SearchResult struct {
	Query        string           `json:"query"`
	Tokens       []string         `json:"tokens"`
	Total        int64            `json:"total"`
	CountsByType map[string]int64 `json:"counts_by_type"`
	Offset       int              `json:"offset"`
	Limit        int              `json:"limit"`
	Hits         []Hit            `json:"hits"`
}

// Bucket is one aggregation bucket.
type Bucket struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
	Label string `json:"label"`
}

// Aggregations summarizes the match set.
type Aggregations struct {
	ByType    []Bucket `json:"by_type"`
	ByProject []Bucket `json:"by_project"`
	ByDate    []Bucket `json:"by_date"`
}

// AdvancedSearchResult is the faceted-search response.
type AdvancedSearchResult struct {
	Query        string       `json:"query"`
	Total        int64        `json:"total"`
	Offset       int          `json:"offset"`
	Limit        int          `json:"limit"`
	Hits         []Hit        `json:"hits"`
	Aggregations Aggregations `json:"aggregations"`
}

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("tracksearch: %s (%d): %s", e.Code, e.Status, e.Message)
}

// Search runs a basic search.
func (c *Client) Search(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	v := url.Values{}
	v.Set("q", req.Query)
	setList(v, "kinds", req.Kinds)
	setInt64List(v, "projects", req.ProjectIDs)
	setBool(v, "all_words", req.AllWords)
	setBool(v, "titles_only", req.TitlesOnly)
	setBool(v, "open_only", req.OpenOnly)
	setPage(v, req.Offset, req.Limit)

	var out SearchResult
	if err := c.get(ctx, "/search?"+v.Encode(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AdvancedSearch runs a faceted search.
func (c *Client) AdvancedSearch(ctx context.Context, req AdvancedSearchRequest) (*AdvancedSearchResult, error) {
	v := url.Values{}
	v.Set("q", req.Query)
	setList(v, "kinds", req.Kinds)
	setInt64List(v, "projects", req.ProjectIDs)
	if req.SearchIn != "" {
		v.Set("search_in", req.SearchIn)
	}
	if req.FromDate != "" {
		v.Set("from_date", req.FromDate)
	}
	if req.ToDate != "" {
		v.Set("to_date", req.ToDate)
	}
	if req.Sort != "" {
		v.Set("sort", req.Sort)
	}
	if !req.IncludeClosed {
		v.Set("include_closed", "false")
	}
	setPage(v, req.Offset, req.Limit)

	var out AdvancedSearchResult
	if err := c.get(ctx, "/search/advanced?"+v.Encode(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateIndex creates the index, dropping an existing one when force is set.
func (c *Client) CreateIndex(ctx context.Context, force bool) error {
	path := "/admin/index"
	if force {
		path += "?force=true"
	}
	return c.do(ctx, http.MethodPut, path, nil)
}

// DeleteIndex removes the index.
func (c *Client) DeleteIndex(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/admin/index", nil)
}

// Refresh makes recent writes visible to search.
func (c *Client) Refresh(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/admin/refresh", nil)
}

// Stats returns raw index statistics.
func (c *Client) Stats(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	if err := c.get(ctx, "/admin/stats", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Health reports whether the server and its engine are reachable.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, out)
}

func (c *Client) do(ctx context.Context, method, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userID > 0 {
		req.Header.Set("X-User-Id", strconv.FormatInt(c.userID, 10))
	}
	if c.admin {
		req.Header.Set("X-Admin", "true")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if jsonErr := json.Unmarshal(body, apiErr); jsonErr != nil || apiErr.Code == "" {
			apiErr.Code = "unknown"
			apiErr.Message = strings.TrimSpace(string(body))
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func setList(v url.Values, key string, values []string) {
	if len(values) > 0 {
		v.Set(key, strings.Join(values, ","))
	}
}

func setInt64List(v url.Values, key string, ids []int64) {
	if len(ids) == 0 {
		return
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	v.Set(key, strings.Join(parts, ","))
}

func setBool(v url.Values, key string, val bool) {
	if val {
		v.Set(key, "true")
	}
}

func setPage(v url.Values, offset, limit int) {
	if offset > 0 {
		v.Set("offset", strconv.Itoa(offset))
	}
	if limit > 0 {
		v.Set("limit", strconv.Itoa(limit))
	}
}
