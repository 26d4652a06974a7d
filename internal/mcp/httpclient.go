package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/xpasha85/treadlogic-server/internal/models"
	"github.com/xpasha85/treadlogic-server/internal/workouts"
)

// HTTPClient implements DataSource by calling the TreadLogic REST API.
// Used for stdio MCP mode where the binary runs next to the assistant but
// the plans live on a remote server.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL and
// authenticating with the given bearer token.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// apiError is the error body written by the REST API.
type apiError struct {
	Error    string `json:"error"`
	Path     string `json:"path"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return nil, fmt.Errorf("httpclient: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpclient: %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: read body: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return data, nil
	case http.StatusNotFound:
		return nil, workouts.ErrNotFound
	case http.StatusUnprocessableEntity:
		var ae apiError
		if err := json.Unmarshal(data, &ae); err == nil && ae.Path+ae.Expected != "" {
			return nil, &models.ValidationError{Path: ae.Path, Expected: ae.Expected, Actual: ae.Actual}
		}
	}
	return nil, fmt.Errorf("httpclient: %s %s returned %d: %s", method, path, resp.StatusCode, data)
}

func (c *HTTPClient) ListAll(ctx context.Context) ([]models.Plan, error) {
	data, err := c.do(ctx, http.MethodGet, "/workouts", nil)
	if err != nil {
		return nil, err
	}

	var plans []models.Plan
	if err := json.Unmarshal(data, &plans); err != nil {
		return nil, fmt.Errorf("httpclient: decode workouts: %w", err)
	}
	if plans == nil {
		plans = []models.Plan{}
	}
	return plans, nil
}

// Get lists the collection and returns the first plan with the given id.
// The REST API has no single-plan route.
func (c *HTTPClient) Get(ctx context.Context, id string) (models.Plan, error) {
	plans, err := c.ListAll(ctx)
	if err != nil {
		return models.Plan{}, err
	}
	for _, p := range plans {
		if p.ID == id {
			return p, nil
		}
	}
	return models.Plan{}, workouts.ErrNotFound
}

func (c *HTTPClient) Upsert(ctx context.Context, raw []byte) (models.Plan, error) {
	data, err := c.do(ctx, http.MethodPost, "/workouts", raw)
	if err != nil {
		return models.Plan{}, err
	}

	var plan models.Plan
	if err := json.Unmarshal(data, &plan); err != nil {
		return models.Plan{}, fmt.Errorf("httpclient: decode workout: %w", err)
	}
	return plan, nil
}

func (c *HTTPClient) Delete(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/workouts/"+url.PathEscape(id), nil)
	return err
}
