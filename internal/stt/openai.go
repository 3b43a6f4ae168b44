package stt

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"videoagent/internal/logging"
)

// OpenAIProvider transcribes through an OpenAI-compatible /audio/transcriptions
// endpoint. Groq and OpenAI both accept video containers directly.
type OpenAIProvider struct {
	client   *openai.Client
	model    string
	language string
	logger   logging.Logger
}

// NewOpenAIProvider creates a provider for the given key. An empty baseURL
// targets api.openai.com; an empty model uses whisper-1.
func NewOpenAIProvider(apiKey, baseURL, model, language string, log logging.Logger) *OpenAIProvider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = openai.Whisper1
	}
	return &OpenAIProvider{
		client:   openai.NewClientWithConfig(cfg),
		model:    model,
		language: language,
		logger:   log.With(logging.F("provider", "openai")),
	}
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// Transcribe uploads mediaPath and returns the recognized text
func (p *OpenAIProvider) Transcribe(ctx context.Context, mediaPath string) (*Result, error) {
	startTime := time.Now()

	resp, err := p.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    p.model,
		FilePath: mediaPath,
		Language: p.language,
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		return nil, fmt.Errorf("transcription request failed: %w", err)
	}

	transcript := strings.TrimSpace(resp.Text)
	p.logger.Info("Transcription completed",
		logging.F("model", p.model),
		logging.F("length", len(transcript)),
		logging.F("duration", time.Since(startTime)))

	return &Result{
		Transcript: transcript,
		Language:   resp.Language,
		Provider:   p.Name(),
	}, nil
}
