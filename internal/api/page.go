package api

import (
	"embed"
	"encoding/base64"
	"html/template"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"videoagent/internal/agent"
	"videoagent/internal/logging"
	"videoagent/internal/model"
	"videoagent/internal/storage"
)

//go:embed templates/index.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

const (
	previewWidth  = 480
	previewHeight = 320

	// Larger files are not inlined as a data URI.
	previewMaxBytes = 64 << 20
)

type pageData struct {
	Accept  string
	Error   string
	Video   *model.Video
	Preview template.URL
	Width   int
	Height  int
	Query   string
	Result  *pageResult
}

type pageResult struct {
	Text      string
	Prefix    string
	LinkLabel string
	LinkURL   string
}

func newPageData() *pageData {
	return &pageData{
		Accept: strings.Join(storage.SupportedExtensions(), ","),
		Width:  previewWidth,
		Height: previewHeight,
	}
}

func (h *Handler) render(c *gin.Context, status int, data *pageData) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(status)
	if err := pageTemplate.Execute(c.Writer, data); err != nil {
		h.logger.Error("Failed to render page", logging.Err(err))
	}
}

func (h *Handler) index(c *gin.Context) {
	h.render(c, http.StatusOK, newPageData())
}

// uploadPage saves the upload, shows a preview and the transcript, and asks for a question
func (h *Handler) uploadPage(c *gin.Context) {
	data := newPageData()

	file, err := formVideo(c)
	if err != nil {
		data.Error = "Please choose a video file to upload."
		h.render(c, http.StatusBadRequest, data)
		return
	}

	video, status, err := h.saveUpload(file)
	if err != nil {
		data.Error = err.Error()
		h.render(c, status, data)
		return
	}

	video, err = h.transcribe(c, video)
	if err != nil {
		data.Error = "Transcription failed: " + err.Error()
		h.render(c, http.StatusInternalServerError, data)
		return
	}

	data.Video = video
	data.Preview = h.preview(video)
	h.render(c, http.StatusOK, data)
}

// analyzePage answers the question and then discards the upload
func (h *Handler) analyzePage(c *gin.Context) {
	data := newPageData()

	id, err := uuid.Parse(c.PostForm("video_id"))
	if err != nil {
		data.Error = "Please upload a video first."
		h.render(c, http.StatusBadRequest, data)
		return
	}
	video, err := h.store.Get(id)
	if err != nil {
		data.Error = "Video not found. It may have expired; please upload it again."
		h.render(c, http.StatusNotFound, data)
		return
	}
	defer func() { _ = h.store.Remove(video.ID) }()

	query := c.PostForm("query")
	result, err := h.agent.Run(c.Request.Context(), video.Path, query)
	if err != nil {
		data.Error = "Transcription failed: " + err.Error()
		h.render(c, http.StatusInternalServerError, data)
		return
	}

	data.Video = video
	data.Preview = h.preview(video)
	data.Query = query
	data.Result = toPageResult(result)
	h.render(c, http.StatusOK, data)
}

// preview inlines the video as a data URI
func (h *Handler) preview(video *model.Video) template.URL {
	if video.Size > previewMaxBytes {
		return ""
	}
	raw, err := os.ReadFile(video.Path)
	if err != nil {
		h.logger.Warn("Failed to read video for preview", logging.F("path", video.Path), logging.Err(err))
		return ""
	}
	return template.URL("data:" + video.ContentType + ";base64," + base64.StdEncoding.EncodeToString(raw))
}

// toPageResult splits "Label: [text](url)" results into parts the template renders as an anchor
func toPageResult(r *agent.Result) *pageResult {
	pr := &pageResult{Text: r.Text}
	if r.Link == "" {
		return pr
	}

	prefix, rest, ok := strings.Cut(r.Text, "[")
	if !ok {
		return pr
	}
	label, _, ok := strings.Cut(rest, "](")
	if !ok {
		return pr
	}

	pr.Prefix = strings.TrimSpace(prefix)
	pr.LinkLabel = label
	pr.LinkURL = r.Link
	return pr
}
