package api

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"videoagent/internal/agent"
	"videoagent/internal/logging"
	"videoagent/internal/model"
	"videoagent/internal/storage"
	"videoagent/internal/utils"
)

// Handler serves the upload page and the JSON API
type Handler struct {
	store   *storage.MediaStore
	agent   *agent.Dispatcher
	logger  logging.Logger
	metrics http.Handler
}

// NewHandler creates a Handler. metricsHandler may be nil to skip /metrics.
func NewHandler(store *storage.MediaStore, dispatcher *agent.Dispatcher, log logging.Logger, metricsHandler http.Handler) *Handler {
	return &Handler{
		store:   store,
		agent:   dispatcher,
		logger:  log.With(logging.F("component", "api")),
		metrics: metricsHandler,
	}
}

// RegisterRoutes mounts every route on r
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	// Health check
	r.GET("/health", h.healthCheck)
	if h.metrics != nil {
		r.GET("/metrics", gin.WrapH(h.metrics))
	}

	// Browser page
	r.GET("/", h.index)
	r.POST("/upload", h.uploadPage)
	r.POST("/analyze", h.analyzePage)

	// API v1
	v1 := r.Group("/api/v1")
	{
		v1.POST("/videos", h.uploadVideo)
		v1.GET("/videos/:video_id", h.getVideo)
		v1.POST("/videos/:video_id/analyze", h.analyzeVideo)
		v1.DELETE("/videos/:video_id", h.deleteVideo)
	}
}

// healthCheck returns server health status
func (h *Handler) healthCheck(c *gin.Context) {
	utils.Success(c, gin.H{
		"status":  "ok",
		"service": "videoagent",
	})
}

// uploadVideo saves a video and transcribes it for display
func (h *Handler) uploadVideo(c *gin.Context) {
	file, err := formVideo(c)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "video is required. Error: "+err.Error())
		return
	}

	video, status, err := h.saveUpload(file)
	if err != nil {
		utils.Error(c, status, err.Error())
		return
	}

	video, err = h.transcribe(c, video)
	if err != nil {
		utils.Error(c, http.StatusInternalServerError, err.Error())
		return
	}

	utils.Success(c, videoData(video))
}

// getVideo returns video information
func (h *Handler) getVideo(c *gin.Context) {
	video, ok := h.lookup(c)
	if !ok {
		return
	}
	utils.Success(c, videoData(video))
}

type analyzeRequest struct {
	Query string `json:"query"`
}

// analyzeVideo answers a question about an uploaded video. The video is kept
// until it is deleted or expires.
func (h *Handler) analyzeVideo(c *gin.Context) {
	video, ok := h.lookup(c)
	if !ok {
		return
	}

	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	result, err := h.agent.Run(c.Request.Context(), video.Path, req.Query)
	if err != nil {
		h.store.UpdateError(video.ID, err.Error())
		utils.Error(c, http.StatusInternalServerError, err.Error())
		return
	}

	data := gin.H{
		"video_id": video.ID,
		"query":    req.Query,
		"intent":   result.Intent,
		"result":   result.Text,
	}
	if result.Link != "" {
		data["link"] = result.Link
	}
	if result.Err != nil {
		data["completion_error"] = true
	}
	utils.Success(c, data)
}

// deleteVideo removes the video and its temp file
func (h *Handler) deleteVideo(c *gin.Context) {
	id, err := uuid.Parse(c.Param("video_id"))
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid video_id format")
		return
	}
	if err := h.store.Remove(id); err != nil {
		utils.Error(c, http.StatusNotFound, "video not found")
		return
	}
	utils.Success(c, gin.H{"video_id": id, "deleted": true})
}

func (h *Handler) lookup(c *gin.Context) (*model.Video, bool) {
	id, err := uuid.Parse(c.Param("video_id"))
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid video_id format")
		return nil, false
	}
	video, err := h.store.Get(id)
	if err != nil {
		utils.Error(c, http.StatusNotFound, "video not found")
		return nil, false
	}
	return video, true
}

// formVideo accepts the upload under "video" or "file"
func formVideo(c *gin.Context) (*multipart.FileHeader, error) {
	file, err := c.FormFile("video")
	if err == nil {
		return file, nil
	}
	if file, altErr := c.FormFile("file"); altErr == nil {
		return file, nil
	}
	return nil, err
}

// saveUpload stores the file and maps storage errors to HTTP statuses
func (h *Handler) saveUpload(file *multipart.FileHeader) (*model.Video, int, error) {
	src, err := file.Open()
	if err != nil {
		return nil, http.StatusBadRequest, errors.New("failed to read upload")
	}
	defer src.Close()

	video, err := h.store.Save(file.Filename, src)
	switch {
	case errors.Is(err, storage.ErrUnsupportedFormat):
		return nil, http.StatusBadRequest, errors.New("unsupported video format. Supported: mp4, mov, avi")
	case errors.Is(err, storage.ErrTooLarge):
		return nil, http.StatusRequestEntityTooLarge, errors.New("file size exceeds upload limit")
	case err != nil:
		h.logger.Error("Error saving video", logging.Err(err))
		return nil, http.StatusInternalServerError, errors.New("failed to save video file")
	}
	return video, http.StatusOK, nil
}

// transcribe produces the display transcript for a fresh upload. On failure
// the upload is discarded.
func (h *Handler) transcribe(c *gin.Context, video *model.Video) (*model.Video, error) {
	result, err := h.agent.Transcribe(c.Request.Context(), video.Path)
	if err != nil {
		h.logger.WithContext(c.Request.Context()).Error("Transcription failed",
			logging.F("video_id", video.ID.String()), logging.Err(err))
		_ = h.store.Remove(video.ID)
		return nil, err
	}

	h.store.UpdateTranscript(video.ID, result.Transcript, result.Language, result.Provider)
	return h.store.Get(video.ID)
}

func videoData(v *model.Video) gin.H {
	return gin.H{
		"video_id":     v.ID,
		"filename":     v.Filename,
		"status":       v.Status,
		"size_bytes":   v.Size,
		"content_type": v.ContentType,
		"transcript":   v.Transcript,
		"language":     v.Language,
		"stt_provider": v.Provider,
		"created_at":   v.CreatedAt,
	}
}
