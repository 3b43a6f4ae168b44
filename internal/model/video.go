package model

import (
	"time"

	"github.com/google/uuid"
)

// Video statuses
const (
	VideoStatusUploaded    = "uploaded"
	VideoStatusTranscribed = "transcribed"
	VideoStatusFailed      = "failed"
)

// Video is an uploaded media file held in temporary storage
type Video struct {
	ID          uuid.UUID `json:"id"`
	Filename    string    `json:"filename"`
	Path        string    `json:"-"`
	Size        int64     `json:"size_bytes"`
	ContentType string    `json:"content_type"`
	Status      string    `json:"status"`
	Transcript  string    `json:"transcript,omitempty"`
	Language    string    `json:"language,omitempty"`
	Provider    string    `json:"stt_provider,omitempty"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
