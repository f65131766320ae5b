// Package websearch provides the live web search fallback used when local
// retrieval produces no usable evidence. It talks to a Tavily-style search
// API and is designed to degrade, never to fail a request: any error path
// collapses to (nil, nil) at the caller via the pipeline's error handling.
package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"ragbot/internal/contextutil"
)

const (
	maxAttempts    = 5
	initialBackoff = 200 * time.Millisecond
	maxResults     = 3
)

// Result is a single web search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// Response is the synthesized answer plus its supporting hits.
type Response struct {
	Answer  string   `json:"answer"`
	Results []Result `json:"results"`
}

// Client is a client for the search API. A Client constructed without an API
// key is disabled: Search returns (nil, nil), which callers must treat as
// "no web evidence".
type Client struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	client  *http.Client
}

// NewClient creates a new web search client. timeout is the hard per-call
// deadline, separate from retry backoff; a slow network must never stall the
// answer pipeline.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Timeout: timeout,
		client:  http.DefaultClient,
	}
}

// Enabled reports whether the client has an API key configured.
func (c *Client) Enabled() bool {
	return c != nil && c.APIKey != ""
}

type searchRequest struct {
	APIKey        string `json:"api_key"`
	Query         string `json:"query"`
	SearchDepth   string `json:"search_depth"`
	MaxResults    int    `json:"max_results"`
	IncludeAnswer bool   `json:"include_answer"`
}

// Search runs a web search for the given query. It retries transient 5xx
// failures with exponential backoff, up to 5 attempts. Exhausted retries,
// a missing API key, or a malformed response all yield (nil, err) or
// (nil, nil); the caller treats both identically to "no web evidence".
func (c *Client) Search(ctx context.Context, query string) (*Response, error) {
	if !c.Enabled() {
		return nil, nil
	}

	logger := contextutil.LoggerFromContext(ctx)

	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	backoff := initialBackoff
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, retryable, err := c.doSearch(ctx, query)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
		logger.WarnContext(ctx, "web search attempt failed", "attempt", attempt, "error", err)

		if attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	return nil, fmt.Errorf("web search failed after %d attempts: %w", maxAttempts, lastErr)
}

// doSearch performs a single search request. The second return value reports
// whether the failure is worth retrying (5xx status or transport error).
func (c *Client) doSearch(ctx context.Context, query string) (*Response, bool, error) {
	payload := searchRequest{
		APIKey:        c.APIKey,
		Query:         query,
		SearchDepth:   "advanced",
		MaxResults:    maxResults,
		IncludeAnswer: true,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, false, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/search", c.BaseURL)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 500 {
		raw, _ := io.ReadAll(resp.Body)
		return nil, true, fmt.Errorf("bad status %d: %s", resp.StatusCode, string(raw))
	}
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, false, fmt.Errorf("bad status %d: %s", resp.StatusCode, string(raw))
	}

	var searchResp Response
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, false, fmt.Errorf("failed to decode response: %w", err)
	}

	return &searchResp, false, nil
}
