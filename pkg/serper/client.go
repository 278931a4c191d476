// Package serper provides a client for the Serper Google search API.
package serper

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// DefaultBaseURL is the production Serper search endpoint.
const DefaultBaseURL = "https://google.serper.dev"

// Result is a single ranked search hit.
type Result struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// Client defines the search operations the discovery phase depends on.
type Client interface {
	// Search runs one query and returns up to limit ranked results.
	// Entries without a link are dropped. Any transport or non-2xx
	// failure is returned to the caller; there is no retry.
	Search(ctx context.Context, query string, limit int) ([]Result, error)
}

// Option configures the Serper client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a Serper search client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type searchRequest struct {
	Q   string `json:"q"`
	Num int    `json:"num"`
}

type searchResponse struct {
	Organic []Result `json:"organic"`
}

func (c *httpClient) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if c.apiKey == "" {
		return nil, eris.New("serper: missing API key")
	}

	num := limit
	if num < 1 {
		num = 1
	}
	if num > 100 {
		num = 100
	}

	payload, err := json.Marshal(searchRequest{Q: query, Num: num})
	if err != nil {
		return nil, eris.Wrap(err, "serper: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(payload))
	if err != nil {
		return nil, eris.Wrap(err, "serper: create request")
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "serper: request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "serper: read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, eris.Errorf("serper: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, eris.Wrap(err, "serper: unmarshal response")
	}

	out := make([]Result, 0, len(parsed.Organic))
	for _, item := range parsed.Organic {
		link := strings.TrimSpace(item.Link)
		if link == "" {
			continue
		}
		out = append(out, Result{
			Title:   strings.TrimSpace(item.Title),
			Link:    link,
			Snippet: strings.TrimSpace(item.Snippet),
		})
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}
