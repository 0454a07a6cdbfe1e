// Package backend implements the HTTP client for the agira hybrid
// search backend. The backend exposes collection-scoped hybrid search
// over vector and keyword indexes; this package only speaks its wire
// protocol and maps failures onto the retrieval error sentinels.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/agira-hq/agira-context/internal/retrieval"
)

const (
	// DefaultEndpoint is the default backend base URL.
	DefaultEndpoint = "http://localhost:8700"

	// connPoolSize bounds idle connections to the backend.
	connPoolSize = 4
)

// ClientConfig configures the backend client.
type ClientConfig struct {
	// Endpoint is the base URL of the backend (e.g. http://localhost:8700).
	Endpoint string

	// Timeout is a fallback request timeout applied when the caller's
	// context carries no deadline.
	Timeout time.Duration
}

// Client talks to the hybrid search backend over HTTP.
type Client struct {
	client   *http.Client
	endpoint string
	timeout  time.Duration
}

// Verify interface implementation at compile time
var _ retrieval.HybridSearcher = (*Client)(nil)

// NewClient creates a backend client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	// No http.Client.Timeout: the retrieval layer sets per-request
	// deadlines via context, and a static client timeout would override
	// them.
	transport := &http.Transport{
		MaxIdleConns:        connPoolSize,
		MaxIdleConnsPerHost: connPoolSize,
		IdleConnTimeout:     10 * time.Second,
	}

	return &Client{
		client:   &http.Client{Transport: transport},
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		timeout:  cfg.Timeout,
	}
}

// searchRequestBody is the wire form of a hybrid search call.
type searchRequestBody struct {
	Query   string                `json:"query"`
	Alpha   float64               `json:"alpha"`
	Filters *retrieval.FilterSpec `json:"filters,omitempty"`
	Limit   int                   `json:"limit"`
}

// searchResponseBody is the wire form of the backend's reply.
type searchResponseBody struct {
	Objects []retrieval.SearchableObject `json:"objects"`
}

// errorResponseBody carries the backend's error detail, when present.
type errorResponseBody struct {
	Error string `json:"error"`
}

// HybridSearch runs one hybrid search call against the backend.
func (c *Client) HybridSearch(ctx context.Context, req retrieval.SearchRequest) ([]retrieval.SearchableObject, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	body, err := json.Marshal(searchRequestBody{
		Query:   req.Query,
		Alpha:   req.Alpha,
		Filters: req.Filters,
		Limit:   req.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode search request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/collections/%s/search", c.endpoint, req.Collection)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", retrieval.ErrBackendUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, c.statusError(resp)
	}

	var parsed searchResponseBody
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %v", retrieval.ErrBackendUnavailable, err)
	}

	return parsed.Objects, nil
}

// statusError maps a non-200 response onto a retrieval sentinel.
// Client-side status codes mean the collection or request shape is
// wrong; everything else is treated as the backend being unavailable.
func (c *Client) statusError(resp *http.Response) error {
	detail := readErrorDetail(resp.Body)

	switch resp.StatusCode {
	case http.StatusBadRequest, http.StatusNotFound, http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: backend returned %d: %s",
			retrieval.ErrBackendMisconfigured, resp.StatusCode, detail)
	default:
		return fmt.Errorf("%w: backend returned %d: %s",
			retrieval.ErrBackendUnavailable, resp.StatusCode, detail)
	}
}

// readErrorDetail extracts a short error message from a failed response.
func readErrorDetail(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(data) == 0 {
		return "no detail"
	}

	var parsed errorResponseBody
	if err := json.Unmarshal(data, &parsed); err == nil && parsed.Error != "" {
		return parsed.Error
	}

	return strings.TrimSpace(string(data))
}

// Close releases idle connections.
func (c *Client) Close() {
	c.client.CloseIdleConnections()
}
