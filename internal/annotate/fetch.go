package annotate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"regexp"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"golang.org/x/net/html"
)

const (
	DefaultFetchTimeout = 10 * time.Second
	DefaultMaxPageBytes = 2 << 20
	userAgent           = "stash/1.0 (+link annotator)"
)

// Page is a downloaded article reduced to Markdown.
type Page struct {
	Title    string
	Markdown string
}

// PageFetcher downloads HTML pages and converts them to Markdown.
type PageFetcher struct {
	client   *http.Client
	maxBytes int64
	conv     *md.Converter
}

// NewPageFetcher returns a fetcher bounded by timeout and maxBytes; zero values use the defaults.
func NewPageFetcher(timeout time.Duration, maxBytes int64) *PageFetcher {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxPageBytes
	}
	conv := md.NewConverter("", true, nil)
	conv.Use(plugin.GitHubFlavored())
	return &PageFetcher{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return errors.New("too many redirects")
				}
				if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
					return fmt.Errorf("redirect to %s blocked", req.URL.Scheme)
				}
				return nil
			},
		},
		maxBytes: maxBytes,
		conv:     conv,
	}
}

// Fetch downloads url and converts its main content to Markdown.
func (f *PageFetcher) Fetch(ctx context.Context, url string) (Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Page{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return Page{}, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Page{}, fmt.Errorf("fetch: HTTP %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		mt, _, _ := mime.ParseMediaType(ct)
		if mt != "text/html" && mt != "application/xhtml+xml" {
			return Page{}, fmt.Errorf("fetch: unsupported content type %q", mt)
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return Page{}, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > f.maxBytes {
		// keep what fits; the excerpt is truncated anyway
		body = body[:f.maxBytes]
	}
	return f.convert(body)
}

var blankLines = regexp.MustCompile(`\n{3,}`)

// convert extracts the title and main content of an HTML document.
func (f *PageFetcher) convert(body []byte) (Page, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return Page{}, fmt.Errorf("parse html: %w", err)
	}

	var p Page
	if t := findElement(doc, "title"); t != nil {
		p.Title = strings.TrimSpace(textOf(t))
	}

	root := findElement(doc, "main")
	if root == nil {
		root = findElement(doc, "article")
	}
	if root == nil {
		root = findElement(doc, "body")
	}
	if root == nil {
		root = doc
	}
	removeElements(root, "script", "style", "noscript", "nav", "header", "footer", "aside", "form", "iframe")

	var sb strings.Builder
	if err := html.Render(&sb, root); err != nil {
		return Page{}, fmt.Errorf("render html: %w", err)
	}
	text, err := f.conv.ConvertString(sb.String())
	if err != nil {
		return Page{}, fmt.Errorf("convert html: %w", err)
	}
	p.Markdown = strings.TrimSpace(blankLines.ReplaceAllString(text, "\n\n"))
	return p, nil
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func textOf(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func removeElements(n *html.Node, tags ...string) {
	drop := make(map[string]bool, len(tags))
	for _, t := range tags {
		drop[t] = true
	}
	var victims []*html.Node
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.ElementNode && drop[n.Data] {
			victims = append(victims, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	for _, v := range victims {
		if v.Parent != nil {
			v.Parent.RemoveChild(v)
		}
	}
}
