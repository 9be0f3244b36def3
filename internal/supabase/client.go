// Package supabase implements a minimal PostgREST client for the four
// operations the record store needs: equality-filtered select, insert,
// equality-filtered update and equality-filtered delete over named tables.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"sort"

	"github.com/colmago/colmago/internal/ratelimit"
)

const restPath = "rest/v1"

// Client talks to the Supabase REST API for a single project.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	limiter *ratelimit.Limiter
}

// New creates a new Client for the given project URL and API key.
// Supabase free tier is generous but shared; 5 req/sec keeps the
// interactive CRUD workload well clear of throttling.
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{},
		limiter: ratelimit.New("Supabase", 5),
	}
}

// tableURL builds the REST endpoint URL for a table, with one eq clause
// per filter field. Filter keys are sorted so the query string is stable.
func (c *Client) tableURL(table string, filters map[string]any, limit int) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	u.Path = path.Join(u.Path, restPath, table)

	q := u.Query()
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		q.Set(k, fmt.Sprintf("eq.%v", filters[k]))
	}
	if limit > 0 {
		q.Set("limit", fmt.Sprintf("%d", limit))
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, body []byte) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewBuffer(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Prefer", "return=minimal")
	}
	return req, nil
}

// do executes the request and decodes an API error body on non-2xx status.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer func() { _ = resp.Body.Close() }()
		var errResp struct {
			Message string `json:"message"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil || errResp.Message == "" {
			return nil, fmt.Errorf("request failed with status %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("API error: %s (status %d)", errResp.Message, resp.StatusCode)
	}
	return resp, nil
}

// Select retrieves records from a table, applying the given equality
// filters conjunctively. A limit of 0 means no limit.
func (c *Client) Select(ctx context.Context, table string, filters map[string]any, limit int) ([]map[string]any, error) {
	endpoint, err := c.tableURL(table, filters, limit)
	if err != nil {
		return nil, err
	}

	slog.Debug("Supabase select", "table", table, "filters", len(filters))

	req, err := c.newRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	var rows []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return rows, nil
}

// Insert sends a single record to a table. Key assignment is left
// entirely to the backend.
func (c *Client) Insert(ctx context.Context, table string, record map[string]any) error {
	endpoint, err := c.tableURL(table, nil, 0)
	if err != nil {
		return err
	}

	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return err
	}

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}

// Update overwrites the given fields of the record whose id matches.
func (c *Client) Update(ctx context.Context, table string, id int, record map[string]any) error {
	endpoint, err := c.tableURL(table, map[string]any{"id": id}, 0)
	if err != nil {
		return err
	}

	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPatch, endpoint, body)
	if err != nil {
		return err
	}

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}

// Delete removes the records whose id matches.
func (c *Client) Delete(ctx context.Context, table string, id int) error {
	endpoint, err := c.tableURL(table, map[string]any{"id": id}, 0)
	if err != nil {
		return err
	}

	req, err := c.newRequest(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return err
	}

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}
