// Package news queries the news search API that seeds the keyword pipeline
// with context for a topic.
package news

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/socialwatch/searchagent/internal/keywords"
)

var (
	// ErrNotFound is returned when the API has nothing for the topic.
	ErrNotFound = errors.New("news: topic not found")
	// ErrNoContent is returned when the API answered without news text.
	ErrNoContent = errors.New("news: empty content")
)

// StatusError reports an unexpected HTTP status from the API.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return "news: unexpected status " + e.Status
}

// Result is the context gathered for a topic.
type Result struct {
	Keywords []string
	Content  string
}

// Empty reports whether the result carries no context at all.
func (r Result) Empty() bool {
	return len(r.Keywords) == 0 && r.Content == ""
}

// Searcher is satisfied by Client.
type Searcher interface {
	Search(ctx context.Context, topic string) (Result, error)
}

// Client talks to the search-keywords endpoint.
type Client struct {
	endpoint string
	http     *http.Client
}

var _ Searcher = (*Client)(nil)

// New returns a client for endpoint, the full search-keywords URL.
func New(endpoint string, timeout time.Duration) *Client {
	return NewWithHTTPClient(endpoint, &http.Client{Timeout: timeout})
}

// NewWithHTTPClient lets callers supply their own transport.
func NewWithHTTPClient(endpoint string, hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{endpoint: endpoint, http: hc}
}

type searchResponse struct {
	News string `json:"news"`
}

// Search fetches news for topic and extracts capitalised keywords from it.
func (c *Client) Search(ctx context.Context, topic string) (Result, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return Result{}, fmt.Errorf("news: parse endpoint: %w", err)
	}
	q := u.Query()
	q.Set("keyword", topic)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Result{}, fmt.Errorf("news: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("news: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		_, _ = io.Copy(io.Discard, resp.Body)
		return Result{}, ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return Result{}, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Result{}, fmt.Errorf("news: decode response: %w", err)
	}
	if strings.TrimSpace(body.News) == "" {
		return Result{}, ErrNoContent
	}

	return Result{
		Keywords: keywords.ExtractCapitalized(body.News),
		Content:  body.News,
	}, nil
}
