package annotate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/stash/internal/errs"
	"github.com/and161185/stash/internal/model"
)

func completion(content string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "gemini-2.5-flash",
		"choices": []any{map[string]any{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
		"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
	}
}

type captured struct {
	Model          string  `json:"model"`
	Temperature    float64 `json:"temperature"`
	ResponseFormat struct {
		Type       string `json:"type"`
		JSONSchema struct {
			Name   string         `json:"name"`
			Strict bool           `json:"strict"`
			Schema map[string]any `json:"schema"`
		} `json:"json_schema"`
	} `json:"response_format"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func newServer(t *testing.T, status int, body any, got *captured) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		if got != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(got))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newClient(t *testing.T, baseURL string, f Fetcher) *Client {
	t.Helper()
	c, err := New(Config{
		APIKey:       "test-key",
		BaseURL:      baseURL + "/",
		Temperature:  DefaultTemperature,
		Timeout:      2 * time.Second,
		ExcerptChars: 20,
	}, f, zaptest.NewLogger(t))
	require.NoError(t, err)
	return c
}

func TestClient_Annotate_RequestShape(t *testing.T) {
	var got captured
	srv := newServer(t, http.StatusOK, completion(`{"title":"Go","summary":"About Go.","tags":["Go","lang"]}`), &got)

	a, err := newClient(t, srv.URL, nil).Annotate(context.Background(), "https://go.dev")
	require.NoError(t, err)
	require.Equal(t, model.Annotation{Title: "Go", Summary: "About Go.", Tags: []string{"go", "lang"}}, a)

	require.Equal(t, DefaultModel, got.Model)
	require.InDelta(t, 0.2, got.Temperature, 1e-9)
	require.Equal(t, "json_schema", got.ResponseFormat.Type)
	require.True(t, got.ResponseFormat.JSONSchema.Strict)
	require.ElementsMatch(t, []any{"title", "summary", "tags"}, got.ResponseFormat.JSONSchema.Schema["required"])
	require.Len(t, got.Messages, 2)
	require.Equal(t, "system", got.Messages[0].Role)
	require.Contains(t, got.Messages[0].Content, "3 to 5")
	require.Contains(t, got.Messages[1].Content, "https://go.dev")
}

func TestClient_Annotate_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    any
		wantErr error
	}{
		{name: "server error", status: http.StatusInternalServerError, body: map[string]any{"error": map[string]any{"message": "boom"}}, wantErr: errs.ErrAnnotationUnavailable},
		{name: "rate limited", status: http.StatusTooManyRequests, body: map[string]any{"error": map[string]any{"message": "slow down"}}, wantErr: errs.ErrAnnotationUnavailable},
		{name: "no choices", status: http.StatusOK, body: map[string]any{"id": "x", "object": "chat.completion", "choices": []any{}}, wantErr: errs.ErrAnnotationUnavailable},
		{name: "prose reply", status: http.StatusOK, body: completion("I cannot browse the web."), wantErr: errs.ErrAnnotationUnavailable},
		{name: "missing tags", status: http.StatusOK, body: completion(`{"title":"T","summary":"S"}`), wantErr: errs.ErrMalformedAnnotation},
		{name: "tags wrong type", status: http.StatusOK, body: completion(`{"title":"T","summary":"S","tags":"a,b"}`), wantErr: errs.ErrMalformedAnnotation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newServer(t, tt.status, tt.body, nil)
			a, err := newClient(t, srv.URL, nil).Annotate(context.Background(), "https://example.com")
			require.ErrorIs(t, err, tt.wantErr)
			require.Equal(t, model.Annotation{}, a)
		})
	}
}

func TestClient_Annotate_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() { close(release); srv.Close() })

	c := newClient(t, srv.URL, nil)
	c.cfg.Timeout = 50 * time.Millisecond
	_, err := c.Annotate(context.Background(), "https://example.com")
	require.ErrorIs(t, err, errs.ErrAnnotationUnavailable)
}

type stubFetcher struct {
	page Page
	err  error
}

func (s stubFetcher) Fetch(context.Context, string) (Page, error) { return s.page, s.err }

func TestClient_Annotate_PageExcerpt(t *testing.T) {
	var got captured
	srv := newServer(t, http.StatusOK, completion(`{"title":"T","summary":"S","tags":["x"]}`), &got)
	f := stubFetcher{page: Page{Title: "Home", Markdown: "0123456789abcdefghijKLMNOP"}}

	_, err := newClient(t, srv.URL, f).Annotate(context.Background(), "https://example.com")
	require.NoError(t, err)
	user := got.Messages[1].Content
	require.Contains(t, user, "Page title: Home")
	require.Contains(t, user, "0123456789abcdefghij")
	require.NotContains(t, user, "KLMNOP")
}

func TestClient_Annotate_FetchFailureFallsBack(t *testing.T) {
	var got captured
	srv := newServer(t, http.StatusOK, completion(`{"title":"T","summary":"S","tags":["x"]}`), &got)

	_, err := newClient(t, srv.URL, stubFetcher{err: errors.New("dns")}).Annotate(context.Background(), "https://example.com")
	require.NoError(t, err)
	require.NotContains(t, got.Messages[1].Content, "Page content")
}

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New(Config{}, nil, nil)
	require.Error(t, err)
}
