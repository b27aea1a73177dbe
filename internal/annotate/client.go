// Package annotate derives a title, summary and tags for a URL using an
// OpenAI-compatible chat-completions endpoint.
package annotate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"

	"github.com/and161185/stash/internal/errs"
	"github.com/and161185/stash/internal/model"
	"github.com/and161185/stash/internal/service"
)

const (
	DefaultBaseURL     = "https://generativelanguage.googleapis.com/v1beta/openai/"
	DefaultModel       = "gemini-2.5-flash"
	DefaultTemperature = 0.2
	DefaultTimeout     = 30 * time.Second
	DefaultExcerpt     = 4000
)

// Config configures Client.
type Config struct {
	APIKey       string
	BaseURL      string
	Model        string
	Temperature  float64
	Timeout      time.Duration // per Annotate call, including the page fetch
	ExcerptChars int           // page text passed to the model; 0 disables the excerpt
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}

// Fetcher downloads a page for use as prompt context.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (Page, error)
}

// Client annotates links through a chat-completions endpoint.
type Client struct {
	api     openai.Client
	cfg     Config
	fetcher Fetcher
	log     *zap.Logger
}

var _ service.Annotator = (*Client)(nil)

// New builds a Client. fetcher may be nil, in which case the model gets only the URL.
func New(cfg Config, fetcher Fetcher, log *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("annotate: api key is required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	cfg = cfg.withDefaults()
	api := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.BaseURL),
		option.WithMaxRetries(0),
	)
	return &Client{api: api, cfg: cfg, fetcher: fetcher, log: log}, nil
}

// Annotate asks the model for url's metadata. Any failure returns a zero
// Annotation with errs.ErrAnnotationUnavailable or errs.ErrMalformedAnnotation.
func (c *Client) Annotate(ctx context.Context, url string) (model.Annotation, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.cfg.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(c.userPrompt(ctx, url)),
		},
		Temperature: openai.Float(c.cfg.Temperature),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        "link_annotation",
					Description: openai.String("Title, summary and tags of a web article"),
					Schema:      annotationSchema,
					Strict:      openai.Bool(true),
				},
			},
		},
	}

	start := time.Now()
	chat, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		return model.Annotation{}, fmt.Errorf("%w: %w", errs.ErrAnnotationUnavailable, err)
	}
	if len(chat.Choices) == 0 {
		return model.Annotation{}, fmt.Errorf("%w: no choices in response", errs.ErrAnnotationUnavailable)
	}
	c.log.Debug("annotation received",
		zap.String("url", url),
		zap.String("model", chat.Model),
		zap.Duration("took", time.Since(start)),
		zap.Int64("tokens", chat.Usage.TotalTokens),
	)

	a, err := decode(chat.Choices[0].Message.Content)
	if err != nil {
		return model.Annotation{}, err
	}
	return a, nil
}

func (c *Client) userPrompt(ctx context.Context, url string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "URL: %s\n", url)
	if c.fetcher == nil || c.cfg.ExcerptChars <= 0 {
		return b.String()
	}

	page, err := c.fetcher.Fetch(ctx, url)
	if err != nil {
		c.log.Info("page fetch failed, annotating from url only", zap.String("url", url), zap.Error(err))
		return b.String()
	}
	if page.Title != "" {
		fmt.Fprintf(&b, "Page title: %s\n", page.Title)
	}
	if text := truncate(page.Markdown, c.cfg.ExcerptChars); text != "" {
		fmt.Fprintf(&b, "\nPage content (may be truncated):\n%s\n", text)
	}
	return b.String()
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}

const systemPrompt = `You are an expert content analyst. The user gives you the URL of an article, sometimes followed by the text of the page.

1. Read the article at the URL. If its content cannot be accessed, say so in both the title and the summary.
2. Write a concise, neutral summary of no more than 3-4 sentences.
3. Give 3 to 5 relevant lowercase tags (keywords).

Reply with a JSON object with the fields "title", "summary" and "tags".`

var annotationSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"title": map[string]any{
			"type":        "string",
			"description": "The main title of the article.",
		},
		"summary": map[string]any{
			"type":        "string",
			"description": "A concise summary of the article, no more than 3-4 sentences.",
		},
		"tags": map[string]any{
			"type":        "array",
			"items":       map[string]any{"type": "string"},
			"description": "3 to 5 relevant lowercase tags for the article.",
		},
	},
	"required":             []string{"title", "summary", "tags"},
	"additionalProperties": false,
}
