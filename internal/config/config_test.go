package config

import (
	"strings"
	"testing"
)

func validConfig() Config {
	var c Config
	c.HTTP.Port = 8080
	c.Elasticsearch.Addrs = []string{"http://localhost:9200"}
	c.Upstream.BaseURL = "http://localhost:3000"
	c.ApplyDefaults()
	return c
}

func TestApplyDefaults(t *testing.T) {
	c := validConfig()

	if c.Elasticsearch.Index != "tracksearch" {
		t.Errorf("index = %q", c.Elasticsearch.Index)
	}
	if c.Redis.QueueKey != "tracksearch:index_tasks" {
		t.Errorf("queue key = %q", c.Redis.QueueKey)
	}
	if c.Search.DefaultPageSize != 25 || c.Search.MaxPageSize != 100 {
		t.Errorf("page sizes = (%d, %d)", c.Search.DefaultPageSize, c.Search.MaxPageSize)
	}
	if c.Search.Highlight.FragmentSize != 150 || c.Search.Highlight.NumberOfFragments != 3 {
		t.Errorf("highlight = %+v", c.Search.Highlight)
	}
	if c.HTTP.ShutdownSec != 10 {
		t.Errorf("shutdown = %d", c.HTTP.ShutdownSec)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad port", func(c *Config) { c.HTTP.Port = 0 }, "http.port"},
		{"no es addrs", func(c *Config) { c.Elasticsearch.Addrs = nil }, "elasticsearch.addrs"},
		{"no upstream", func(c *Config) { c.Upstream.BaseURL = "" }, "upstream.base_url"},
		{"inverted page sizes", func(c *Config) { c.Search.MaxPageSize = 10 }, "max_page_size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TRACKSEARCH_TEST_VAR", "from-env")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"set variable", "index: ${TRACKSEARCH_TEST_VAR}", "index: from-env"},
		{"unset variable", "index: ${TRACKSEARCH_TEST_UNSET}", "index: "},
		{"unset with default", "index: ${TRACKSEARCH_TEST_UNSET:-fallback}", "index: fallback"},
		{"set wins over default", "index: ${TRACKSEARCH_TEST_VAR:-fallback}", "index: from-env"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := string(expandEnvVars([]byte(tt.input)))
			if got != tt.want {
				t.Errorf("expandEnvVars(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
