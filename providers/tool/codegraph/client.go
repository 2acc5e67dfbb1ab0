// Package codegraph exposes a semantic code graph service as agent tools:
// symbol search, source retrieval, dependency traversal, subgraph context,
// complexity hotspots, and whole-graph statistics. The service itself is an
// opaque HTTP collaborator speaking JSON.
package codegraph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Client is a thin JSON client for the code graph service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// ClientOption configures a Client.
type ClientOption func(client *Client)

// WithHTTPClient overrides the HTTP client used for requests.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(client *Client) {
		client.httpClient = httpClient
	}
}

// NewClient creates a client for the service at baseURL (e.g.
// "http://localhost:8731").
func NewClient(baseURL string, options ...ClientOption) *Client {
	client := &Client{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
	}
	for _, option := range options {
		option(client)
	}
	return client
}

// SearchSymbols looks up code symbols matching a free-text query.
func (c *Client) SearchSymbols(ctx context.Context, input SearchInput) ([]Symbol, error) {
	var response searchResponse
	if err := c.call(ctx, http.MethodPost, "/v1/search", input, &response); err != nil {
		return nil, err
	}
	return response.Results, nil
}

// SourceCode fetches the source text of one node with surrounding context
// lines.
func (c *Client) SourceCode(ctx context.Context, input SourceInput) (string, error) {
	var response sourceResponse
	if err := c.call(ctx, http.MethodPost, "/v1/source", input, &response); err != nil {
		return "", err
	}
	if response.File != "" {
		return fmt.Sprintf("%s (lines %d-%d):\n%s", response.File, response.StartLine, response.EndLine, response.Source), nil
	}
	return response.Source, nil
}

// Dependencies traverses one hop of the graph from a node.
func (c *Client) Dependencies(ctx context.Context, input DependenciesInput) ([]Dependency, error) {
	var response dependenciesResponse
	if err := c.call(ctx, http.MethodPost, "/v1/dependencies", input, &response); err != nil {
		return nil, err
	}
	return response.Dependencies, nil
}

// SubgraphContext returns a narrative description of the neighbourhood
// around the given nodes.
func (c *Client) SubgraphContext(ctx context.Context, input ContextInput) (string, error) {
	var response contextResponse
	if err := c.call(ctx, http.MethodPost, "/v1/context", input, &response); err != nil {
		return "", err
	}
	return response.Description, nil
}

// Metrics lists the highest-ranked nodes for a metric.
func (c *Client) Metrics(ctx context.Context, input MetricsInput) ([]Hotspot, error) {
	var response metricsResponse
	if err := c.call(ctx, http.MethodPost, "/v1/metrics", input, &response); err != nil {
		return nil, err
	}
	return response.Results, nil
}

// GraphStats reports node and edge counts for the whole graph.
func (c *Client) GraphStats(ctx context.Context) (Stats, error) {
	var response Stats
	if err := c.call(ctx, http.MethodGet, "/v1/stats", nil, &response); err != nil {
		return Stats{}, err
	}
	return response, nil
}

func (c *Client) call(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("error marshaling request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	if payload != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("error making request: %w", err)
	}
	defer response.Body.Close()

	raw, err := io.ReadAll(response.Body)
	if err != nil {
		return fmt.Errorf("error reading response: %w", err)
	}

	if response.StatusCode != http.StatusOK {
		var serviceErr apiError
		if err := json.Unmarshal(raw, &serviceErr); err == nil && serviceErr.Error != "" {
			return fmt.Errorf("code graph service error (status %d): %s", response.StatusCode, serviceErr.Error)
		}
		return fmt.Errorf("unexpected status code %d: %s", response.StatusCode, string(raw))
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("error parsing response: %w", err)
	}
	return nil
}
