// Package client provides an HTTP client for the textlens server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/raphaelgruber/textlens/internal/metrics"
	"github.com/raphaelgruber/textlens/internal/models"
	"github.com/raphaelgruber/textlens/internal/service"
)

// Client talks to the textlens REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new API client.
// If baseURL is empty, uses TEXTLENS_SERVER_URL env var or defaults to localhost:8080.
// Timeout can be configured via TEXTLENS_CLIENT_TIMEOUT env var (default 10m,
// long enough for synchronous LLM analysis with retries).
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = os.Getenv("TEXTLENS_SERVER_URL")
	}
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	timeout := 10 * time.Minute
	if t := os.Getenv("TEXTLENS_CLIENT_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			timeout = d
		}
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Detail)
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// SearchOptions filters a search request. Zero values are omitted.
type SearchOptions struct {
	Topic   string
	Keyword string
	Limit   int
	Offset  int
}

// BatchSubmitResponse is the immediate ack for a batch submission.
type BatchSubmitResponse struct {
	BatchID    string `json:"batch_id"`
	Message    string `json:"message"`
	TotalTexts int    `json:"total_texts"`
}

// BatchList is the response of the batch listing endpoint.
type BatchList struct {
	Batches []service.BatchSnapshot `json:"batches"`
	Total   int                     `json:"total"`
}

// Status is the health/root probe response.
type Status struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Analyze submits one text for synchronous analysis.
func (c *Client) Analyze(ctx context.Context, text string) (*models.Analysis, error) {
	var result models.Analysis
	err := c.post(ctx, "/analyze", map[string]string{"text": text}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Get fetches a stored analysis by ID.
func (c *Client) Get(ctx context.Context, id int64) (*models.Analysis, error) {
	var result models.Analysis
	if err := c.get(ctx, "/analysis/"+strconv.FormatInt(id, 10), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Search queries stored analyses.
func (c *Client) Search(ctx context.Context, opts SearchOptions) (*service.SearchResult, error) {
	q := url.Values{}
	if opts.Topic != "" {
		q.Set("topic", opts.Topic)
	}
	if opts.Keyword != "" {
		q.Set("keyword", opts.Keyword)
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Offset > 0 {
		q.Set("offset", strconv.Itoa(opts.Offset))
	}

	path := "/search"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var result service.SearchResult
	if err := c.get(ctx, path, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// BatchSubmit submits texts for background analysis.
func (c *Client) BatchSubmit(ctx context.Context, texts []string) (*BatchSubmitResponse, error) {
	var result BatchSubmitResponse
	err := c.post(ctx, "/batch/analyze", map[string][]string{"texts": texts}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// BatchStatus fetches the current state of a batch.
func (c *Client) BatchStatus(ctx context.Context, batchID string) (*service.BatchSnapshot, error) {
	var result service.BatchSnapshot
	if err := c.get(ctx, "/batch/"+url.PathEscape(batchID), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// BatchList lists all batches, most recent first.
func (c *Client) BatchList(ctx context.Context) (*BatchList, error) {
	var result BatchList
	if err := c.get(ctx, "/batch", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// BatchWatch streams batch snapshots over a websocket, invoking onUpdate for
// each one until the batch completes or onUpdate returns an error.
func (c *Client) BatchWatch(ctx context.Context, batchID string, onUpdate func(service.BatchSnapshot) error) error {
	wsURL := c.baseURL
	wsURL = strings.Replace(wsURL, "http://", "ws://", 1)
	wsURL = strings.Replace(wsURL, "https://", "wss://", 1)
	wsURL += "/batch/" + url.PathEscape(batchID) + "/watch"

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, resp, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return &APIError{StatusCode: http.StatusNotFound, Detail: "Batch not found"}
		}
		return fmt.Errorf("websocket connect: %w", err)
	}
	defer conn.Close()

	// Close the connection when the context ends so ReadJSON unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		var snap service.BatchSnapshot
		if err := conn.ReadJSON(&snap); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read snapshot: %w", err)
		}
		if err := onUpdate(snap); err != nil {
			return err
		}
		if snap.Status == service.BatchStatusCompleted {
			return nil
		}
	}
}

// Health probes the server's health endpoint.
func (c *Client) Health(ctx context.Context) (*Status, error) {
	var result Status
	if err := c.get(ctx, "/health", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Stats fetches the server's runtime metrics.
func (c *Client) Stats(ctx context.Context) (*metrics.Snapshot, error) {
	var result metrics.Snapshot
	if err := c.get(ctx, "/stats", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) get(ctx context.Context, path string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.do(req, result)
}

func (c *Client) post(ctx context.Context, path string, body, result any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, result)
}

func (c *Client) do(req *http.Request, result any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := strings.TrimSpace(string(body))
		var errBody struct {
			Detail string `json:"detail"`
		}
		if json.Unmarshal(body, &errBody) == nil && errBody.Detail != "" {
			detail = errBody.Detail
		}
		return &APIError{StatusCode: resp.StatusCode, Detail: detail}
	}

	if result != nil && len(body) > 0 {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}
