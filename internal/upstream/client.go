// Package upstream talks to the tracker's internal API. The tracker stays
// the source of truth for records, project metadata and authorization; this
// service never persists any of it, only asks.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/stackfield/tracksearch/internal/domain"
	"github.com/stackfield/tracksearch/internal/permission"
)

const defaultTimeout = 10 * time.Second

// Config holds connection parameters for the tracker API.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Client is an HTTP client for the tracker's internal API. It serves as the
// authorization oracle, the record loader and the project name resolver.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New creates a tracker API client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		http:    &http.Client{Timeout: timeout},
	}, nil
}

// HasCapability reports whether the user holds the capability in at least
// one project, or globally.
func (c *Client) HasCapability(ctx context.Context, user domain.User, capability permission.Capability) (bool, error) {
	if user.Admin {
		return true, nil
	}
	var resp struct {
		Granted bool `json:"granted"`
	}
	path := fmt.Sprintf("/internal/users/%d/capabilities/%s", user.ID, capability)
	if err := c.getJSON(ctx, path, &resp); err != nil {
		return false, fmt.Errorf("has capability: %w", err)
	}
	return resp.Granted, nil
}

// ProjectsWithCapability lists project IDs where the user holds the
// capability.
func (c *Client) ProjectsWithCapability(ctx context.Context, user domain.User, capability permission.Capability) ([]int64, error) {
	var resp struct {
		ProjectIDs []int64 `json:"project_ids"`
	}
	path := fmt.Sprintf("/internal/users/%d/projects?capability=%s", user.ID, url.QueryEscape(string(capability)))
	if err := c.getJSON(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("projects with capability: %w", err)
	}
	return resp.ProjectIDs, nil
}

// MemberProjects lists project IDs the user is a member of.
func (c *Client) MemberProjects(ctx context.Context, user domain.User) ([]int64, error) {
	var resp struct {
		ProjectIDs []int64 `json:"project_ids"`
	}
	path := fmt.Sprintf("/internal/users/%d/projects", user.ID)
	if err := c.getJSON(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("member projects: %w", err)
	}
	return resp.ProjectIDs, nil
}

// CanView asks the tracker for the record-level visibility decision.
func (c *Client) CanView(ctx context.Context, user domain.User, kind domain.Kind, id int64) (bool, error) {
	var resp struct {
		Allowed bool `json:"allowed"`
	}
	path := fmt.Sprintf("/internal/users/%d/can-view/%s/%d", user.ID, kind, id)
	if err := c.getJSON(ctx, path, &resp); err != nil {
		return false, fmt.Errorf("can view: %w", err)
	}
	return resp.Allowed, nil
}

// Load fetches the current state of a record. Returns
// domain.ErrRecordNotFound when the tracker no longer has it.
func (c *Client) Load(ctx context.Context, kind domain.Kind, id int64) (domain.Record, error) {
	rec, err := newRecord(kind)
	if err != nil {
		return nil, err
	}

	path := fmt.Sprintf("/internal/records/%s/%d", kind, id)
	if err := c.getJSON(ctx, path, rec); err != nil {
		return nil, fmt.Errorf("load %s %d: %w", kind, id, err)
	}
	return rec, nil
}

// ProjectName resolves a project ID to its display name.
func (c *Client) ProjectName(ctx context.Context, id int64) (string, bool) {
	var resp struct {
		Name string `json:"name"`
	}
	path := fmt.Sprintf("/internal/projects/%d", id)
	if err := c.getJSON(ctx, path, &resp); err != nil {
		return "", false
	}
	return resp.Name, resp.Name != ""
}

func newRecord(kind domain.Kind) (domain.Record, error) {
	switch kind {
	case domain.KindWorkItem:
		return &domain.WorkItem{}, nil
	case domain.KindWikiPage:
		return &domain.WikiPage{}, nil
	case domain.KindAnnouncement:
		return &domain.Announcement{}, nil
	case domain.KindForumPost:
		return &domain.ForumPost{}, nil
	case domain.KindCommit:
		return &domain.Commit{}, nil
	case domain.KindFile:
		return &domain.FileDoc{}, nil
	case domain.KindProject:
		return &domain.Project{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedRecord, kind)
	}
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domain.ErrRecordNotFound
	case resp.StatusCode >= 300:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
