// Package ai turns a rules question plus retrieved rules into a natural
// language ruling by calling the Claude Messages API.
package ai

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

	"github.com/rulecraft/rulecraft/internal/storage"
)

const (
	defaultAPIURL    = "https://api.anthropic.com/v1/messages"
	anthropicVersion = "2023-06-01"

	// noContextPlaceholder is sent when search produced nothing to ground on
	noContextPlaceholder = "No specific rules found for context."
)

// ErrNotConfigured means no API key is set; callers should surface this
// instead of attempting a ruling.
var ErrNotConfigured = errors.New("CLAUDE_API_KEY not configured")

// ErrEmptyResponse means the API answered successfully but with zero content
// blocks. Distinct from a ruling that happens to be an empty string.
var ErrEmptyResponse = errors.New("empty response from Claude")

// APIError is a non-success status from the Claude API. Body is kept for
// diagnostics.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("claude api error (status %d): %s", e.Status, e.Body)
}

// Client calls the Claude Messages API
type Client struct {
	apiURL    string
	apiKey    string
	model     string
	maxTokens int
	client    *http.Client
}

// NewClient creates a Claude client. Rulings can take a while to generate,
// so the timeout is generous; a stalled service still cannot hold a request
// slot forever.
func NewClient(apiKey, model string, maxTokens int) *Client {
	return &Client{
		apiURL:    defaultAPIURL,
		apiKey:    apiKey,
		model:     model,
		maxTokens: maxTokens,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// SetAPIURL overrides the API endpoint. Used by tests.
func (c *Client) SetAPIURL(url string) {
	c.apiURL = url
}

// messageRequest is the request format for the Claude Messages API
type messageRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// messageResponse is the response format from the Claude Messages API
type messageResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

// GetRuling asks Claude for a ruling on the question, grounded in the given
// rules. The rules arrive already ranked by the search engine; their order is
// preserved in the prompt. Failures are never retried here: transport errors
// come back wrapped, non-success statuses as *APIError, undecodable bodies
// wrapped as parse errors, and a success with no content as ErrEmptyResponse.
func (c *Client) GetRuling(ctx context.Context, question string, relevantRules []*storage.Rule) (string, error) {
	if c.apiKey == "" {
		return "", ErrNotConfigured
	}

	req := messageRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System:    buildSystemPrompt(relevantRules),
		Messages: []message{
			{Role: "user", Content: question},
		},
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)
	httpReq.Header.Set("content-type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", &APIError{Status: resp.StatusCode, Body: string(bodyBytes)}
	}

	var msgResp messageResponse
	if err := json.NewDecoder(resp.Body).Decode(&msgResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	if len(msgResp.Content) == 0 {
		return "", ErrEmptyResponse
	}

	return msgResp.Content[0].Text, nil
}

// buildRulesContext renders the grounding context: one block per rule with
// title, content, and citation line, blank-line separated, in the order the
// search engine returned them.
func buildRulesContext(rules []*storage.Rule) string {
	if len(rules) == 0 {
		return noContextPlaceholder
	}

	blocks := make([]string, 0, len(rules))
	for _, r := range rules {
		blocks = append(blocks, fmt.Sprintf("## %s\n%s\n(Source: %s, Page %s)\n",
			r.Title, r.Content, r.Source, r.PageLabel()))
	}
	return strings.Join(blocks, "\n")
}

// buildSystemPrompt combines the fixed persona instructions with the
// rendered rules context
func buildSystemPrompt(rules []*storage.Rule) string {
	return fmt.Sprintf(`You are a D&D 2024 rules expert. Your role is to provide accurate rulings based on the official 2024 Player's Handbook and Dungeon Master's Guide.

IMPORTANT GUIDELINES:
1. Only cite rules from D&D 2024 (not 2014 or earlier editions)
2. When uncertain, clearly state the ambiguity
3. Distinguish between RAW (Rules as Written) and RAI (Rules as Intended)
4. If homebrew or DM discretion is needed, say so clearly
5. Cite specific page numbers when possible

RELEVANT RULES FOR CONTEXT:
%s

Provide clear, concise rulings that a DM can use at the table.`, buildRulesContext(rules))
}
