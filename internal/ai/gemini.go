package ai

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"videoagent/internal/logging"
)

// GeminiClient completes prompts through the Gemini API.
type GeminiClient struct {
	apiKey      string
	baseURL     string
	temperature float32
	logger      logging.Logger
}

// NewGeminiClient creates a Gemini completer. An empty baseURL uses the SDK default.
func NewGeminiClient(apiKey, baseURL string, temperature float32, log logging.Logger) *GeminiClient {
	return &GeminiClient{
		apiKey:      apiKey,
		baseURL:     baseURL,
		temperature: temperature,
		logger:      log.With(logging.F("component", "completion"), logging.F("provider", "Gemini")),
	}
}

func (g *GeminiClient) Complete(ctx context.Context, prompt, model string) (string, error) {
	log := g.logger.WithContext(ctx)

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      g.apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: g.baseURL},
	})
	if err != nil {
		return "", &APIError{Provider: "Gemini", Err: fmt.Errorf("failed to create client: %w", err)}
	}

	log.Info("Calling completion API", logging.F("model", model), logging.F("prompt_length", len(prompt)))

	result, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(SummarySystemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr[float32](g.temperature),
	})
	if err != nil {
		log.Error("Completion API error", logging.Err(err))
		return "", geminiError(err)
	}

	return result.Text(), nil
}

func geminiError(err error) error {
	apiErr := &APIError{Provider: "Gemini", Err: err}

	var valErr genai.APIError
	var ptrErr *genai.APIError
	switch {
	case errors.As(err, &valErr):
		apiErr.StatusCode = valErr.Code
		apiErr.Body = valErr.Message
	case errors.As(err, &ptrErr):
		apiErr.StatusCode = ptrErr.Code
		apiErr.Body = ptrErr.Message
	}
	return apiErr
}
