package ai

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"

	"videoagent/internal/logging"
)

// Completer generates text for a prompt with the named hosted model.
// Failures carry an *APIError where the backend reported one.
type Completer interface {
	Complete(ctx context.Context, prompt, model string) (string, error)
}

// ClientOptions configures an OpenAI-compatible chat completion client.
type ClientOptions struct {
	Provider    string // display name used in error text, e.g. "Groq"
	APIKey      string
	BaseURL     string
	Temperature float32
	Timeout     time.Duration // zero means no client-side timeout
}

// Client talks to any OpenAI-compatible /chat/completions endpoint (Groq, OpenAI).
type Client struct {
	opts       ClientOptions
	httpClient *http.Client
	logger     logging.Logger
}

// NewClient creates a completion client
func NewClient(opts ClientOptions, log logging.Logger) *Client {
	if opts.Provider == "" {
		opts.Provider = "OpenAI"
	}
	return &Client{
		opts:       opts,
		httpClient: &http.Client{Timeout: opts.Timeout},
		logger:     log.With(logging.F("component", "completion"), logging.F("provider", opts.Provider)),
	}
}

// Complete sends one non-streaming chat completion and returns the first
// choice's content unmodified.
func (c *Client) Complete(ctx context.Context, prompt, model string) (string, error) {
	log := c.logger.WithContext(ctx)

	// A fresh doer per call keeps the captured status and body request-local.
	doer := &capturingDoer{client: c.httpClient}

	cfg := openai.DefaultConfig(c.opts.APIKey)
	if c.opts.BaseURL != "" {
		cfg.BaseURL = c.opts.BaseURL
	}
	cfg.HTTPClient = doer
	client := openai.NewClientWithConfig(cfg)

	req := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: SummarySystemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		Temperature: c.opts.Temperature,
	}

	log.Info("Calling completion API", logging.F("model", model), logging.F("prompt_length", len(prompt)))

	resp, err := client.CreateChatCompletion(ctx, req)
	if err != nil {
		apiErr := &APIError{
			Provider:   c.opts.Provider,
			StatusCode: doer.status,
			Body:       doer.body,
			Err:        err,
		}
		log.Error("Completion API error", logging.F("status", doer.status), logging.Err(err))
		return "", apiErr
	}

	log.Info("Completion API response received",
		logging.F("choices", len(resp.Choices)),
		logging.F("total_tokens", resp.Usage.TotalTokens))

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s returned no choices", c.opts.Provider)
	}

	return resp.Choices[0].Message.Content, nil
}

// capturingDoer records the status and raw body of a non-2xx response and
// hands an identical body on to the openai client for its own decoding.
type capturingDoer struct {
	client *http.Client
	status int
	body   string
}

func (d *capturingDoer) Do(req *http.Request) (*http.Response, error) {
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	d.status = resp.StatusCode
	d.body = string(body)
	resp.Body = io.NopCloser(bytes.NewReader(body))
	return resp, nil
}
