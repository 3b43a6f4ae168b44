package stt

import "context"

// Provider defines the interface for speech-to-text providers
type Provider interface {
	// Transcribe transcribes a local audio or video file and returns the result
	Transcribe(ctx context.Context, mediaPath string) (*Result, error)

	// Name returns the name of the provider (e.g., "whisper", "fpt", "google")
	Name() string
}
