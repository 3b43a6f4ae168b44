// Package agent answers a question about a video: it transcribes the media,
// classifies the question and routes it to a summarize, search, fact-check
// or fallback handler.
package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"videoagent/internal/ai"
	"videoagent/internal/logging"
	"videoagent/internal/metrics"
	"videoagent/internal/stt"
)

// Config holds the dispatcher's per-deployment settings
type Config struct {
	Provider  string // completion provider name, for metrics
	Model     string // completion model identifier
	SearchURL string // search engine base URL, the query is appended as ?q=
}

// Dispatcher creates and processes Requests. It is safe for concurrent use;
// all per-request state lives in Request.
type Dispatcher struct {
	transcriber stt.Provider
	completer   ai.Completer
	cfg         Config
	logger      logging.Logger
	metrics     *metrics.Metrics
}

// NewDispatcher wires a dispatcher. m may be nil.
func NewDispatcher(transcriber stt.Provider, completer ai.Completer, cfg Config, log logging.Logger, m *metrics.Metrics) *Dispatcher {
	if cfg.SearchURL == "" {
		cfg.SearchURL = "https://www.duckduckgo.com/"
	}
	return &Dispatcher{
		transcriber: transcriber,
		completer:   completer,
		cfg:         cfg,
		logger:      log.With(logging.F("component", "agent")),
		metrics:     m,
	}
}

// Transcribe runs the speech model on mediaPath. Errors are returned unchanged
// apart from wrapping; there is no retry and no fallback transcript.
func (d *Dispatcher) Transcribe(ctx context.Context, mediaPath string) (*stt.Result, error) {
	log := d.logger.WithContext(ctx)
	start := time.Now()

	result, err := d.transcriber.Transcribe(ctx, mediaPath)
	if err == nil && result == nil {
		err = errors.New("transcriber returned no result")
	}
	d.metrics.RecordTranscription(d.transcriber.Name(), err == nil, time.Since(start).Seconds())
	if err != nil {
		log.Error("Transcription failed", logging.F("path", mediaPath), logging.Err(err))
		return nil, fmt.Errorf("transcription failed: %w", err)
	}

	log.Info("Transcription finished",
		logging.F("provider", result.Provider),
		logging.F("length", len(result.Transcript)),
		logging.F("duration", time.Since(start)))
	return result, nil
}

// NewRequest transcribes mediaPath and returns a Request ready to Process.
// A transcription failure is the only error that aborts a request.
func (d *Dispatcher) NewRequest(ctx context.Context, mediaPath, query string) (*Request, error) {
	result, err := d.Transcribe(ctx, mediaPath)
	if err != nil {
		return nil, err
	}
	return &Request{
		MediaPath:  mediaPath,
		Query:      query,
		Transcript: result.Transcript,
		dispatcher: d,
	}, nil
}

// Run is NewRequest followed by Process.
func (d *Dispatcher) Run(ctx context.Context, mediaPath, query string) (*Result, error) {
	req, err := d.NewRequest(ctx, mediaPath, query)
	if err != nil {
		return nil, err
	}
	return req.Process(ctx), nil
}
