package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"videoagent/internal/logging"
)

// FPTProvider implements STT using FPT.AI Speech-to-Text API.
// The API accepts raw audio only, so the media track is extracted first.
type FPTProvider struct {
	apiKey     string
	url        string
	extractor  *AudioExtractor
	httpClient *http.Client
	logger     logging.Logger
}

// NewFPTProvider creates a new FPT STT provider
func NewFPTProvider(apiKey, url string, extractor *AudioExtractor, log logging.Logger) *FPTProvider {
	return &FPTProvider{
		apiKey:     apiKey,
		url:        url,
		extractor:  extractor,
		httpClient: &http.Client{Timeout: 90 * time.Second},
		logger:     log.With(logging.F("provider", "fpt")),
	}
}

// Name returns the provider name
func (p *FPTProvider) Name() string {
	return "fpt"
}

// FPTSTTResponse represents FPT.AI STT API response
type FPTSTTResponse struct {
	Hypotheses []struct {
		Utterance  string  `json:"utterance"`
		Confidence float64 `json:"confidence"`
	} `json:"hypotheses"`
	ErrorCode int    `json:"errorCode,omitempty"`
	Message   string `json:"message,omitempty"`
}

// Transcribe extracts the audio track and sends it to FPT.AI
func (p *FPTProvider) Transcribe(ctx context.Context, mediaPath string) (*Result, error) {
	startTime := time.Now()

	audioPath, err := p.extractor.Extract(ctx, mediaPath)
	if err != nil {
		return nil, err
	}
	defer cleanupAudio(audioPath, p.logger)

	audioBytes, err := os.ReadFile(audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio file: %w", err)
	}

	p.logger.Debug("Processing audio file", logging.F("path", audioPath), logging.F("size", len(audioBytes)))

	// Anything smaller is a header with no samples
	if len(audioBytes) < 1000 {
		return nil, fmt.Errorf("audio file too small (%d bytes), may be empty or corrupted", len(audioBytes))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(audioBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("api-key", p.apiKey)
	req.Header.Set("Content-Type", "text/plain")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to FPT.AI: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	p.logger.Debug("Response received", logging.F("status", resp.StatusCode), logging.F("preview", preview(body)))

	failed := &Result{Provider: p.Name(), RawResponse: string(body)}

	if resp.StatusCode != http.StatusOK {
		return failed, fmt.Errorf("FPT.AI API returned status %d: %s", resp.StatusCode, string(body))
	}

	var sttResp FPTSTTResponse
	if err := json.Unmarshal(body, &sttResp); err != nil {
		return failed, fmt.Errorf("failed to parse FPT.AI response: %w", err)
	}

	if sttResp.ErrorCode != 0 {
		return failed, fmt.Errorf("FPT.AI API error %d: %s", sttResp.ErrorCode, sttResp.Message)
	}

	if len(sttResp.Hypotheses) == 0 {
		return failed, fmt.Errorf("no speech detected in audio")
	}

	// First hypothesis is the best one
	hyp := sttResp.Hypotheses[0]
	transcript := strings.TrimSpace(hyp.Utterance)
	if transcript == "" {
		return failed, fmt.Errorf("empty transcript returned")
	}

	p.logger.Info("Transcription successful",
		logging.F("confidence", hyp.Confidence),
		logging.F("length", len(transcript)),
		logging.F("duration", time.Since(startTime)))

	return &Result{
		Transcript:  transcript,
		Confidence:  hyp.Confidence,
		Provider:    p.Name(),
		RawResponse: string(body),
	}, nil
}

func cleanupAudio(path string, log logging.Logger) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Warn("Failed to remove extracted audio", logging.F("path", path), logging.Err(err))
	}
}

func preview(body []byte) string {
	s := string(body)
	if len(s) > 500 {
		return s[:500] + "..."
	}
	return s
}
