package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rulecraft/rulecraft/internal/storage"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient("test-key", "claude-sonnet-4-20250514", 1024)
	c.SetAPIURL(srv.URL)
	return c
}

func ruleWithPage(title, content string, page *int) *storage.Rule {
	return &storage.Rule{
		ID:       strings.ToLower(title),
		Title:    title,
		Category: "Combat",
		Content:  content,
		Source:   "Player's Handbook",
		Page:     page,
	}
}

func TestGetRulingSuccess(t *testing.T) {
	var gotReq messageRequest
	var gotHeaders http.Header

	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]string{
				{"text": "Yes, that works by RAW."},
				{"text": "ignored second block"},
			},
		})
	})

	page := 25
	rules := []*storage.Rule{ruleWithPage("Grapple", "Grab a creature.", &page)}

	ruling, err := client.GetRuling(context.Background(), "Can I grapple two creatures?", rules)
	require.NoError(t, err)

	// First content segment only
	assert.Equal(t, "Yes, that works by RAW.", ruling)

	assert.Equal(t, "test-key", gotHeaders.Get("x-api-key"))
	assert.Equal(t, "2023-06-01", gotHeaders.Get("anthropic-version"))
	assert.Equal(t, "application/json", gotHeaders.Get("content-type"))

	assert.Equal(t, "claude-sonnet-4-20250514", gotReq.Model)
	assert.Equal(t, 1024, gotReq.MaxTokens)
	require.Len(t, gotReq.Messages, 1)
	assert.Equal(t, "user", gotReq.Messages[0].Role)
	assert.Equal(t, "Can I grapple two creatures?", gotReq.Messages[0].Content)

	assert.Contains(t, gotReq.System, "## Grapple")
	assert.Contains(t, gotReq.System, "(Source: Player's Handbook, Page 25)")
}

func TestGetRulingNoContextPlaceholder(t *testing.T) {
	var gotReq messageRequest
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]string{{"text": "General answer."}},
		})
	})

	_, err := client.GetRuling(context.Background(), "What is initiative?", nil)
	require.NoError(t, err)
	assert.Contains(t, gotReq.System, "No specific rules found for context.")
}

func TestGetRulingMissingPageRendersNA(t *testing.T) {
	var gotReq messageRequest
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]string{{"text": "ok"}},
		})
	})

	rules := []*storage.Rule{ruleWithPage("Hide", "Make a Stealth check.", nil)}
	_, err := client.GetRuling(context.Background(), "How does hiding work?", rules)
	require.NoError(t, err)
	assert.Contains(t, gotReq.System, "(Source: Player's Handbook, Page N/A)")
}

func TestGetRulingContextPreservesOrder(t *testing.T) {
	var gotReq messageRequest
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]string{{"text": "ok"}},
		})
	})

	rules := []*storage.Rule{
		ruleWithPage("Zone of Truth", "...", nil),
		ruleWithPage("Attack Action", "...", nil),
	}
	_, err := client.GetRuling(context.Background(), "q", rules)
	require.NoError(t, err)

	// Ranked order from the search engine survives into the prompt
	assert.Less(t,
		strings.Index(gotReq.System, "## Zone of Truth"),
		strings.Index(gotReq.System, "## Attack Action"))
}

func TestGetRulingAPIError(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":"rate limited"}`))
	})

	_, err := client.GetRuling(context.Background(), "q", nil)
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.Status)
	assert.Contains(t, apiErr.Body, "rate limited")
	assert.Contains(t, apiErr.Error(), "429")
}

func TestGetRulingParseError(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json at all"))
	})

	_, err := client.GetRuling(context.Background(), "q", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")

	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}

func TestGetRulingEmptyResponse(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"content": []any{}})
	})

	_, err := client.GetRuling(context.Background(), "q", nil)
	require.ErrorIs(t, err, ErrEmptyResponse)
}

func TestGetRulingNotConfigured(t *testing.T) {
	c := NewClient("", "claude-sonnet-4-20250514", 1024)

	_, err := c.GetRuling(context.Background(), "q", nil)
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestGetRulingTransportError(t *testing.T) {
	c := NewClient("test-key", "claude-sonnet-4-20250514", 1024)
	c.SetAPIURL("http://127.0.0.1:1/unreachable")

	_, err := c.GetRuling(context.Background(), "q", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http request")
	assert.NotErrorIs(t, err, ErrEmptyResponse)
}

func TestGetRulingCancelledContext(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"content": []map[string]string{{"text": "ok"}},
		})
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.GetRuling(ctx, "q", nil)
	require.Error(t, err)
}
