package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ContentIngest/internal/config"
	"ContentIngest/internal/domain"
	"ContentIngest/internal/ports"
)

const maxPromptRunes = 12000

const classifyInstruction = `Classify the following insurance-industry content.
Reply with a single JSON object with the keys:
  "tag": one of "Current", "Emerging", "Not Relevant",
  "risks": list of risk categories,
  "naics_codes": list of affected NAICS codes as strings,
  "summary": one sentence.`

const concernInstruction = `Does this article raise a concern relevant to insurers
(regulation, litigation, climate, liability or emerging risk)? Answer only "yes" or "no".`

// ErrEmptyCompletion is returned when the API answers without a message.
var ErrEmptyCompletion = errors.New("chatgpt returned no choices")

// ChatGPTClient classifies and pre-filters content through an
// OpenAI-compatible chat completions endpoint.
type ChatGPTClient struct {
	endpoint     string
	model        string
	apiKey       string
	systemPrompt string
	httpClient   *http.Client
}

var (
	_ ports.ContentClassifier = (*ChatGPTClient)(nil)
	_ ports.ConcernFilter     = (*ChatGPTClient)(nil)
)

// NewChatGPTClient builds a client from configuration.
func NewChatGPTClient(cfg config.ChatGPTConfig) *ChatGPTClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ChatGPTClient{
		endpoint:     cfg.Endpoint,
		model:        cfg.Model,
		apiKey:       cfg.APIKey,
		systemPrompt: cfg.SystemPrompt,
		httpClient:   &http.Client{Timeout: timeout},
	}
}

// WithHTTPClient swaps the transport, mostly for tests.
func (c *ChatGPTClient) WithHTTPClient(client *http.Client) *ChatGPTClient {
	if client != nil {
		c.httpClient = client
	}
	return c
}

// Classify asks the model for a structured classification of content.
func (c *ChatGPTClient) Classify(ctx context.Context, content string) (domain.Classification, error) {
	answer, err := c.complete(ctx, classifyInstruction+"\n\n"+truncate(content), true)
	if err != nil {
		return domain.Classification{}, fmt.Errorf("classify content: %w", err)
	}

	var result domain.Classification
	if err := json.Unmarshal([]byte(stripFences(answer)), &result); err != nil {
		return domain.Classification{}, fmt.Errorf("decode classification: %w", err)
	}
	if result.Risks == nil {
		result.Risks = []string{}
	}
	if result.NAICSCodes == nil {
		result.NAICSCodes = []string{}
	}
	return result, nil
}

// HasConcern asks the model for a yes/no relevance verdict.
func (c *ChatGPTClient) HasConcern(ctx context.Context, title, description string) (bool, error) {
	prompt := fmt.Sprintf("%s\n\nTitle: %s\nDescription: %s", concernInstruction, title, truncate(description))
	answer, err := c.complete(ctx, prompt, false)
	if err != nil {
		return false, fmt.Errorf("check concern: %w", err)
	}
	verdict := strings.ToLower(strings.TrimSpace(answer))
	return strings.HasPrefix(verdict, "yes"), nil
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *ChatGPTClient) complete(ctx context.Context, prompt string, jsonMode bool) (string, error) {
	if c == nil {
		return "", fmt.Errorf("chatgpt client is nil")
	}
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return "", fmt.Errorf("chatgpt client misconfigured")
	}

	payload := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: safePrompt(c.systemPrompt)},
			{Role: "user", Content: prompt},
		},
	}
	if jsonMode {
		payload.ResponseFormat = map[string]string{"type": "json_object"}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal chatgpt payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send completion: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("chatgpt error %s: %s", resp.Status, strings.TrimSpace(string(snippet)))
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode completion: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	return decoded.Choices[0].Message.Content, nil
}

func safePrompt(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "You are an analyst who screens news and court filings for insurance carriers."
	}
	return prompt
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= maxPromptRunes {
		return s
	}
	return string(r[:maxPromptRunes])
}

// stripFences removes a ```json ... ``` wrapper some models add.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
