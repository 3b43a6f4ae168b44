package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"videoagent/internal/agent"
	"videoagent/internal/logging"
	"videoagent/internal/metrics"
	"videoagent/internal/storage"
	"videoagent/internal/stt"
)

type fakeTranscriber struct {
	transcript string
	err        error
	calls      int
}

func (f *fakeTranscriber) Name() string { return "fake" }

func (f *fakeTranscriber) Transcribe(context.Context, string) (*stt.Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &stt.Result{Transcript: f.transcript, Language: "en", Provider: "fake"}, nil
}

type fakeCompleter struct {
	text  string
	calls int
}

func (f *fakeCompleter) Complete(context.Context, string, string) (string, error) {
	f.calls++
	return f.text, nil
}

type testServer struct {
	router      *gin.Engine
	store       *storage.MediaStore
	transcriber *fakeTranscriber
	completer   *fakeCompleter
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logging.NewNopLogger()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	store, err := storage.NewMediaStore(t.TempDir(), 1<<20, log, m)
	require.NoError(t, err)

	tr := &fakeTranscriber{transcript: "The video discusses quarterly revenue growth."}
	c := &fakeCompleter{text: "Revenue grew."}
	d := agent.NewDispatcher(tr, c, agent.Config{Provider: "Groq", Model: "llama3-8b-8192"}, log, m)

	h := NewHandler(store, d, log, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return &testServer{router: NewRouter(h, log), store: store, transcriber: tr, completer: c}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func multipartRequest(t *testing.T, target, field, filename, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

type envelope struct {
	Success bool                   `json:"success"`
	Data    map[string]interface{} `json:"data"`
	Error   string                 `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func (s *testServer) upload(t *testing.T) string {
	t.Helper()
	w := s.do(multipartRequest(t, "/api/v1/videos", "video", "talk.mp4", "fake mp4 bytes"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode(t, w).Data["video_id"].(string)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := s.do(httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	env := decode(t, w)
	assert.True(t, env.Success)
	assert.Equal(t, "ok", env.Data["status"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestUploadVideo(t *testing.T) {
	s := newTestServer(t)

	w := s.do(multipartRequest(t, "/api/v1/videos", "video", "talk.mp4", "fake mp4 bytes"))
	require.Equal(t, http.StatusOK, w.Code)

	env := decode(t, w)
	assert.Equal(t, "transcribed", env.Data["status"])
	assert.Equal(t, "The video discusses quarterly revenue growth.", env.Data["transcript"])
	assert.Equal(t, "video/mp4", env.Data["content_type"])
	assert.Equal(t, 1, s.store.Len())
}

func TestUploadVideo_Rejected(t *testing.T) {
	s := newTestServer(t)

	w := s.do(multipartRequest(t, "/api/v1/videos", "video", "notes.txt", "hello"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w).Error, "unsupported video format")

	w = s.do(multipartRequest(t, "/api/v1/videos", "video", "big.mp4", strings.Repeat("x", 2<<20)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	w = s.do(httptest.NewRequest(http.MethodPost, "/api/v1/videos", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadVideo_TranscriptionFailure(t *testing.T) {
	s := newTestServer(t)
	s.transcriber.err = errors.New("corrupt media")

	w := s.do(multipartRequest(t, "/api/v1/videos", "file", "broken.avi", "junk"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, decode(t, w).Error, "corrupt media")
	assert.Equal(t, 0, s.store.Len())
}

func TestAnalyzeVideo(t *testing.T) {
	s := newTestServer(t)
	id := s.upload(t)

	body := strings.NewReader(`{"query": "Can you give me a summary?"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/videos/"+id+"/analyze", body)
	req.Header.Set("Content-Type", "application/json")
	w := s.do(req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	env := decode(t, w)
	assert.Equal(t, "summarize", env.Data["intent"])
	assert.Equal(t, "Revenue grew.", env.Data["result"])
	assert.Equal(t, 1, s.completer.calls)
	// upload plus a fresh transcript for the request
	assert.Equal(t, 2, s.transcriber.calls)
}

func TestAnalyzeVideo_FactCheck(t *testing.T) {
	s := newTestServer(t)
	id := s.upload(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/videos/"+id+"/analyze",
		strings.NewReader(`{"query": "fact-check the claim about Mars"}`))
	req.Header.Set("Content-Type", "application/json")
	w := s.do(req)

	require.Equal(t, http.StatusOK, w.Code)
	env := decode(t, w)
	assert.Equal(t, "fact_check", env.Data["intent"])
	assert.Equal(t, "https://www.duckduckgo.com/?q=fact-check the claim about Mars", env.Data["link"])
	assert.Equal(t, 0, s.completer.calls)
}

func TestAnalyzeVideo_NotFound(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/videos/"+uuid.NewString()+"/analyze", strings.NewReader(`{"query": "x"}`))
	req.Header.Set("Content-Type", "application/json")
	assert.Equal(t, http.StatusNotFound, s.do(req).Code)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/videos/not-a-uuid/analyze", strings.NewReader(`{"query": "x"}`))
	assert.Equal(t, http.StatusBadRequest, s.do(req).Code)
}

func TestDeleteVideo(t *testing.T) {
	s := newTestServer(t)
	id := s.upload(t)

	video, err := s.store.Get(uuid.MustParse(id))
	require.NoError(t, err)

	w := s.do(httptest.NewRequest(http.MethodDelete, "/api/v1/videos/"+id, nil))
	assert.Equal(t, http.StatusOK, w.Code)
	_, err = os.Stat(video.Path)
	assert.True(t, os.IsNotExist(err))

	w = s.do(httptest.NewRequest(http.MethodDelete, "/api/v1/videos/"+id, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetVideo(t *testing.T) {
	s := newTestServer(t)
	id := s.upload(t)

	w := s.do(httptest.NewRequest(http.MethodGet, "/api/v1/videos/"+id, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "talk.mp4", decode(t, w).Data["filename"])
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.upload(t)

	w := s.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "videoagent_uploads_total")
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)
	w := s.do(httptest.NewRequest(http.MethodOptions, "/api/v1/videos", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestIndexPage(t *testing.T) {
	s := newTestServer(t)
	w := s.do(httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Please upload a video to get started.")
	assert.Contains(t, w.Body.String(), `accept=".mp4,.mov,.avi"`)
}

func TestUploadPage(t *testing.T) {
	s := newTestServer(t)
	w := s.do(multipartRequest(t, "/upload", "video", "talk.mp4", "fake mp4 bytes"))

	require.Equal(t, http.StatusOK, w.Code)
	html := w.Body.String()
	assert.Contains(t, html, `width="480" height="320"`)
	assert.Contains(t, html, "data:video/mp4;base64,")
	assert.Contains(t, html, "The video discusses quarterly revenue growth.")
	assert.Contains(t, html, `name="video_id"`)
}

func TestUploadPage_TranscriptionFailure(t *testing.T) {
	s := newTestServer(t)
	s.transcriber.err = errors.New("corrupt media")

	w := s.do(multipartRequest(t, "/upload", "video", "talk.mp4", "junk"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `class="error"`)
	assert.Contains(t, w.Body.String(), "corrupt media")
}

func TestAnalyzePage(t *testing.T) {
	s := newTestServer(t)
	id := s.upload(t)
	video, err := s.store.Get(uuid.MustParse(id))
	require.NoError(t, err)

	form := url.Values{"video_id": {id}, "query": {"look up the speaker"}}
	req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := s.do(req)

	require.Equal(t, http.StatusOK, w.Code)
	html := w.Body.String()
	assert.Contains(t, html, "Analysis Result")
	assert.Contains(t, html, "Web search results:")
	assert.Contains(t, html, ">Click here</a>")
	assert.Contains(t, html, `href="https://www.duckduckgo.com/?q=look%20up%20the%20speaker"`)

	// the upload is discarded after answering
	_, err = os.Stat(video.Path)
	assert.True(t, os.IsNotExist(err))
	assert.Equal(t, 0, s.store.Len())
}

func TestAnalyzePage_Unknown(t *testing.T) {
	s := newTestServer(t)
	id := s.upload(t)

	form := url.Values{"video_id": {id}, "query": {"what's the weather"}}
	req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := s.do(req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Sorry, I couldn&#39;t understand the query.")
}

func TestToPageResult(t *testing.T) {
	r := toPageResult(&agent.Result{
		Text: "Fact-checking: [Search for verification](https://www.duckduckgo.com/?q=mars)",
		Link: "https://www.duckduckgo.com/?q=mars",
	})
	assert.Equal(t, "Fact-checking:", r.Prefix)
	assert.Equal(t, "Search for verification", r.LinkLabel)
	assert.Equal(t, "https://www.duckduckgo.com/?q=mars", r.LinkURL)

	plain := toPageResult(&agent.Result{Text: "A summary [with brackets]"})
	assert.Empty(t, plain.LinkURL)
	assert.Equal(t, "A summary [with brackets]", plain.Text)
}
