package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/jimdaga/nextrend/internal/apperr"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	DefaultModel   = "gpt-4o"
	DefaultTimeout = 60 * time.Second
)

// Client calls an OpenAI-compatible chat completions endpoint.
type Client struct {
	api     openai.Client
	model   string
	timeout time.Duration
}

// Option configures a Client.
type Option func(*clientOptions)

type clientOptions struct {
	baseURL    string
	model      string
	timeout    time.Duration
	httpClient *http.Client
}

// WithBaseURL points the client at another endpoint, e.g. a test server.
func WithBaseURL(u string) Option {
	return func(o *clientOptions) { o.baseURL = u }
}

// WithModel sets the model name sent with every request.
func WithModel(m string) Option {
	return func(o *clientOptions) { o.model = m }
}

// WithTimeout sets the per-call deadline.
func WithTimeout(d time.Duration) Option {
	return func(o *clientOptions) { o.timeout = d }
}

// WithHTTPClient replaces the transport.
func WithHTTPClient(c *http.Client) Option {
	return func(o *clientOptions) { o.httpClient = c }
}

// NewClient creates a completion client. The SDK's own retries are disabled;
// a failed call fails its slot.
func NewClient(apiKey string, opts ...Option) *Client {
	o := clientOptions{model: DefaultModel, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(&o)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if o.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(o.baseURL))
	}
	if o.httpClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(o.httpClient))
	}

	return &Client{
		api:     openai.NewClient(reqOpts...),
		model:   o.model,
		timeout: o.timeout,
	}
}

// Complete sends one system and one user message and returns the first choice.
func (c *Client) Complete(ctx context.Context, p Prompt) (string, error) {
	const op = "llm.Complete"

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(p.System),
			openai.UserMessage(p.User),
		},
		Temperature: openai.Float(p.Temperature),
	}
	if p.MaxTokens > 0 {
		params.MaxTokens = openai.Int(p.MaxTokens)
	}

	resp, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", apperr.Generation(op, apiErr.StatusCode, err)
		}
		return "", apperr.Generation(op, 0, err)
	}

	if len(resp.Choices) == 0 {
		return "", apperr.EmptyResponse(op)
	}
	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", apperr.EmptyResponse(op)
	}
	return content, nil
}
