package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"videoagent/internal/logging"
	"videoagent/internal/metrics"
	"videoagent/internal/model"
)

var (
	ErrNotFound          = errors.New("video not found")
	ErrUnsupportedFormat = errors.New("unsupported video format")
	ErrTooLarge          = errors.New("video exceeds upload limit")
)

// contentTypes lists the accepted containers
var contentTypes = map[string]string{
	".mp4": "video/mp4",
	".mov": "video/quicktime",
	".avi": "video/x-msvideo",
}

// SupportedExtensions returns the accepted upload extensions, e.g. for an accept attribute
func SupportedExtensions() []string {
	return []string{".mp4", ".mov", ".avi"}
}

// MediaStore keeps uploaded videos as temp files and tracks them in memory.
type MediaStore struct {
	dir      string
	maxBytes int64
	logger   logging.Logger
	metrics  *metrics.Metrics

	mu     sync.Mutex
	videos map[uuid.UUID]*model.Video
}

// NewMediaStore creates dir if needed. maxBytes <= 0 disables the size check.
func NewMediaStore(dir string, maxBytes int64, log logging.Logger, m *metrics.Metrics) (*MediaStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	return &MediaStore{
		dir:      dir,
		maxBytes: maxBytes,
		logger:   log.With(logging.F("component", "storage")),
		metrics:  m,
		videos:   make(map[uuid.UUID]*model.Video),
	}, nil
}

// Save copies src to a new upload-*<ext> temp file and registers it.
func (s *MediaStore) Save(filename string, src io.Reader) (*model.Video, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	contentType, ok := contentTypes[ext]
	if !ok {
		s.metrics.RecordUpload("rejected")
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	out, err := os.CreateTemp(s.dir, "upload-*"+ext)
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}

	reader := src
	if s.maxBytes > 0 {
		reader = io.LimitReader(src, s.maxBytes+1)
	}
	size, err := io.Copy(out, reader)
	closeErr := out.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		s.removeFile(out.Name())
		return nil, fmt.Errorf("failed to save file: %w", err)
	}
	if s.maxBytes > 0 && size > s.maxBytes {
		s.removeFile(out.Name())
		s.metrics.RecordUpload("rejected")
		return nil, ErrTooLarge
	}

	video := &model.Video{
		ID:          uuid.New(),
		Filename:    filepath.Base(filename),
		Path:        out.Name(),
		Size:        size,
		ContentType: contentType,
		Status:      model.VideoStatusUploaded,
		CreatedAt:   time.Now(),
	}

	s.mu.Lock()
	s.videos[video.ID] = video
	s.mu.Unlock()

	s.metrics.RecordUpload("accepted")
	s.logger.Info("Video saved",
		logging.F("video_id", video.ID.String()),
		logging.F("path", video.Path),
		logging.F("size", size))

	copied := *video
	return &copied, nil
}

// Get retrieves a video by ID
func (s *MediaStore) Get(id uuid.UUID) (*model.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	video, ok := s.videos[id]
	if !ok {
		return nil, ErrNotFound
	}
	// Return a copy to avoid race conditions
	copied := *video
	return &copied, nil
}

// UpdateTranscript records a successful transcription
func (s *MediaStore) UpdateTranscript(id uuid.UUID, transcript, language, provider string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if video, ok := s.videos[id]; ok {
		video.Status = model.VideoStatusTranscribed
		video.Transcript = transcript
		video.Language = language
		video.Provider = provider
		video.Error = ""
	}
}

// UpdateError marks the video as failed
func (s *MediaStore) UpdateError(id uuid.UUID, errorMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if video, ok := s.videos[id]; ok {
		video.Status = model.VideoStatusFailed
		video.Error = errorMsg
	}
}

// Remove forgets the video and deletes its file. File deletion is best effort.
func (s *MediaStore) Remove(id uuid.UUID) error {
	s.mu.Lock()
	video, ok := s.videos[id]
	delete(s.videos, id)
	s.mu.Unlock()

	if !ok {
		return ErrNotFound
	}
	if s.removeFile(video.Path) {
		s.metrics.RecordTempFilesRemoved(1)
	}
	return nil
}

// Prune removes every video older than maxAge, plus untracked upload files of
// the same age, and returns how many were removed.
func (s *MediaStore) Prune(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	s.mu.Lock()
	var expired []*model.Video
	for id, video := range s.videos {
		if video.CreatedAt.Before(cutoff) {
			expired = append(expired, video)
			delete(s.videos, id)
		}
	}
	s.mu.Unlock()

	removed := 0
	for _, video := range expired {
		if s.removeFile(video.Path) {
			removed++
		}
	}
	orphans := s.pruneOrphans(cutoff)
	s.metrics.RecordTempFilesRemoved(removed + orphans)
	return len(expired) + orphans
}

// pruneOrphans deletes upload files nobody tracks any more, e.g. left over
// from a previous run.
func (s *MediaStore) pruneOrphans(cutoff time.Time) int {
	matches, err := filepath.Glob(filepath.Join(s.dir, "upload-*"))
	if err != nil {
		return 0
	}

	s.mu.Lock()
	tracked := make(map[string]bool, len(s.videos))
	for _, video := range s.videos {
		tracked[video.Path] = true
	}
	s.mu.Unlock()

	removed := 0
	for _, path := range matches {
		if tracked[path] {
			continue
		}
		info, err := os.Stat(path)
		if err != nil || info.IsDir() || !info.ModTime().Before(cutoff) {
			continue
		}
		if s.removeFile(path) {
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked videos
func (s *MediaStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.videos)
}

func (s *MediaStore) removeFile(path string) bool {
	if err := os.Remove(path); err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("Failed to remove temp file", logging.F("path", path), logging.Err(err))
		}
		return false
	}
	return true
}
