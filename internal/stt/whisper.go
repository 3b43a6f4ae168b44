package stt

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"videoagent/internal/executor"
	"videoagent/internal/logging"
)

// WhisperProvider runs the openai-whisper command line tool against a local file.
// Whisper decodes video containers itself through ffmpeg, so no extraction step is needed.
type WhisperProvider struct {
	binary    string
	model     string
	language  string
	outputDir string
	exec      executor.Executor
	logger    logging.Logger
}

// WhisperOptions configures a WhisperProvider.
type WhisperOptions struct {
	Binary    string // defaults to "whisper"
	Model     string // model tier, defaults to "base"
	Language  string // empty lets whisper auto-detect
	OutputDir string // parent for scratch output directories, defaults to os.TempDir()
}

// NewWhisperProvider creates a whisper CLI provider
func NewWhisperProvider(opts WhisperOptions, runner executor.Executor, log logging.Logger) *WhisperProvider {
	if opts.Binary == "" {
		opts.Binary = "whisper"
	}
	if opts.Model == "" {
		opts.Model = "base"
	}
	return &WhisperProvider{
		binary:    opts.Binary,
		model:     opts.Model,
		language:  opts.Language,
		outputDir: opts.OutputDir,
		exec:      runner,
		logger:    log.With(logging.F("provider", "whisper")),
	}
}

// Name returns the provider name
func (p *WhisperProvider) Name() string {
	return "whisper"
}

// whisperOutput matches the JSON written by `whisper --output_format json`
type whisperOutput struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

// Transcribe runs whisper on mediaPath and returns the full text.
func (p *WhisperProvider) Transcribe(ctx context.Context, mediaPath string) (*Result, error) {
	startTime := time.Now()

	absPath, err := filepath.Abs(mediaPath)
	if err != nil {
		return nil, fmt.Errorf("resolve media path: %w", err)
	}
	if _, err := os.Stat(absPath); err != nil {
		return nil, fmt.Errorf("media file not accessible: %w", err)
	}

	outDir, err := os.MkdirTemp(p.outputDir, "whisper-*")
	if err != nil {
		return nil, fmt.Errorf("create whisper output dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	args := []string{
		absPath,
		"--model", p.model,
		"--output_dir", outDir,
		"--output_format", "json",
		"--fp16", "False",
	}
	if p.language != "" {
		args = append(args, "--language", p.language)
	}

	p.logger.Info("Transcribing media", logging.F("path", absPath), logging.F("model", p.model))

	if _, err := p.exec.Execute(ctx, p.binary, args...); err != nil {
		return nil, fmt.Errorf("whisper transcription failed: %w", err)
	}

	baseName := strings.TrimSuffix(filepath.Base(absPath), filepath.Ext(absPath))
	jsonData, err := os.ReadFile(filepath.Join(outDir, baseName+".json"))
	if err != nil {
		return nil, fmt.Errorf("read whisper output: %w", err)
	}

	var out whisperOutput
	if err := json.Unmarshal(jsonData, &out); err != nil {
		return nil, fmt.Errorf("parse whisper output: %w", err)
	}

	transcript := strings.TrimSpace(out.Text)
	if transcript == "" {
		p.logger.Warn("Whisper returned an empty transcript", logging.F("path", absPath))
	}

	p.logger.Info("Transcription completed",
		logging.F("segments", len(out.Segments)),
		logging.F("length", len(transcript)),
		logging.F("duration", time.Since(startTime)))

	return &Result{
		Transcript:  transcript,
		Language:    out.Language,
		Provider:    p.Name(),
		RawResponse: string(jsonData),
	}, nil
}

// checkWhisperBinary verifies the CLI is installed. It stands in for loading
// the model, which whisper does per invocation.
func checkWhisperBinary(binary string) error {
	if _, err := exec.LookPath(binary); err != nil {
		return fmt.Errorf("whisper binary %q not found: %w", binary, err)
	}
	return nil
}
