package ml

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ContentIngest/internal/domain"
	"ContentIngest/internal/ports"
)

// Client talks to an external inference service that hosts the
// classification and relevance models.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

var (
	_ ports.ContentClassifier = (*Client)(nil)
	_ ports.ConcernFilter     = (*Client)(nil)
)

// NewClient creates a reusable HTTP client.
func NewClient(endpoint, apiKey string) *Client {
	return &Client{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		apiKey:   apiKey,
		http:     &http.Client{Timeout: 15 * time.Second},
	}
}

// Classify sends the content for tagging, risk and NAICS extraction.
func (c *Client) Classify(ctx context.Context, content string) (domain.Classification, error) {
	result, err := postJSON[domain.Classification](ctx, c, "/classify", classifyRequest{Content: content})
	if err != nil {
		return domain.Classification{}, fmt.Errorf("classify content: %w", err)
	}
	return result, nil
}

// HasConcern asks the relevance model whether the entry is worth fetching.
func (c *Client) HasConcern(ctx context.Context, title, description string) (bool, error) {
	resp, err := postJSON[concernResponse](ctx, c, "/concern", concernRequest{Title: title, Description: description})
	if err != nil {
		return false, fmt.Errorf("check concern: %w", err)
	}
	return resp.Concern, nil
}

type classifyRequest struct {
	Content string `json:"content"`
}

type concernRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type concernResponse struct {
	Concern bool `json:"concern"`
}

func postJSON[T any](ctx context.Context, c *Client, path string, payload any) (T, error) {
	var out T

	body, err := json.Marshal(payload)
	if err != nil {
		return out, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return out, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return out, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return out, fmt.Errorf("unexpected status %s: %s", resp.Status, strings.TrimSpace(string(snippet)))
	}

	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return out, fmt.Errorf("decode response: %w", err)
	}
	return out, nil
}
