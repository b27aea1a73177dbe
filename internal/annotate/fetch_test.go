package annotate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const samplePage = `<!doctype html>
<html><head><title> Stash Docs </title><style>body{}</style></head>
<body>
<nav><a href="/">Home</a> <a href="/about">About</a></nav>
<main>
<h1>Getting started</h1>
<p>Stash keeps <strong>annotated</strong> links.</p>
<script>track()</script>
<ul><li>one</li><li>two</li></ul>
</main>
<footer>copyright</footer>
</body></html>`

func TestPageFetcher_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	p, err := NewPageFetcher(0, 0).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, "Stash Docs", p.Title)
	require.Contains(t, p.Markdown, "# Getting started")
	require.Contains(t, p.Markdown, "**annotated**")
	require.NotContains(t, p.Markdown, "track()")
	require.NotContains(t, p.Markdown, "About")
	require.NotContains(t, p.Markdown, "copyright")
}

func TestPageFetcher_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "not found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.NotFound(w, r)
			},
		},
		{
			name: "pdf",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/pdf")
				_, _ = w.Write([]byte("%PDF-1.4"))
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()
			_, err := NewPageFetcher(0, 0).Fetch(context.Background(), srv.URL)
			require.Error(t, err)
		})
	}
}

func TestPageFetcher_TruncatesLargeBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body><p>" + strings.Repeat("a", 10_000) + "</p></body></html>"))
	}))
	defer srv.Close()

	p, err := NewPageFetcher(0, 1024).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	require.LessOrEqual(t, len(p.Markdown), 1024)
}
