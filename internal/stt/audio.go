package stt

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"videoagent/internal/executor"
)

// AudioExtractor converts a media container into a 16kHz mono WAV file for
// providers that only accept raw audio.
type AudioExtractor struct {
	ffmpeg string
	exec   executor.Executor
}

// NewAudioExtractor creates an extractor that shells out to ffmpeg
func NewAudioExtractor(ffmpegBinary string, exec executor.Executor) *AudioExtractor {
	if ffmpegBinary == "" {
		ffmpegBinary = "ffmpeg"
	}
	return &AudioExtractor{ffmpeg: ffmpegBinary, exec: exec}
}

// Extract writes <media>_audio.wav next to mediaPath and returns its path.
// The caller owns the returned file.
func (a *AudioExtractor) Extract(ctx context.Context, mediaPath string) (string, error) {
	audioPath := strings.TrimSuffix(mediaPath, filepath.Ext(mediaPath)) + "_audio.wav"

	args := []string{
		"-i", mediaPath,
		"-vn",
		"-ar", "16000",
		"-ac", "1",
		"-c:a", "pcm_s16le",
		"-y",
		audioPath,
	}

	if _, err := a.exec.Execute(ctx, a.ffmpeg, args...); err != nil {
		return "", fmt.Errorf("ffmpeg extract audio: %w", err)
	}
	return audioPath, nil
}
