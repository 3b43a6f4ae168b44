package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"videoagent/internal/logging"
)

func newTestClient(url string) *Client {
	return NewClient(ClientOptions{
		Provider:    "Groq",
		APIKey:      "gsk_test",
		BaseURL:     url,
		Temperature: 0.5,
	}, logging.NewNopLogger())
}

func TestClient_Complete(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer gsk_test", r.Header.Get("Authorization"))
		assert.Contains(t, r.Header.Get("Content-Type"), "application/json")

		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
			Temperature float64 `json:"temperature"`
			Stream      bool    `json:"stream"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "llama3-8b-8192", body.Model)
		assert.InDelta(t, 0.5, body.Temperature, 1e-6)
		assert.False(t, body.Stream)
		if assert.Len(t, body.Messages, 2) {
			assert.Equal(t, "system", body.Messages[0].Role)
			assert.Equal(t, SummarySystemPrompt, body.Messages[0].Content)
			assert.Equal(t, "user", body.Messages[1].Role)
			assert.Equal(t, "hello prompt", body.Messages[1].Content)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"  Revenue grew.\n"},"finish_reason":"stop"}],"usage":{"total_tokens":12}}`))
	}))
	defer server.Close()

	text, err := newTestClient(server.URL).Complete(context.Background(), "hello prompt", "llama3-8b-8192")
	require.NoError(t, err)
	assert.Equal(t, "  Revenue grew.\n", text)
	assert.Equal(t, 1, calls)
}

func TestClient_Complete_Unauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("invalid key"))
	}))
	defer server.Close()

	text, err := newTestClient(server.URL).Complete(context.Background(), "p", "m")
	require.Error(t, err)
	assert.Empty(t, text)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Groq", apiErr.Provider)
	assert.Equal(t, 401, apiErr.StatusCode)
	assert.Equal(t, "invalid key", apiErr.Body)

	rendered := Render(err)
	assert.Equal(t, "Groq API Error: 401 - invalid key", rendered)
	assert.Contains(t, rendered, "401")
	assert.Contains(t, rendered, "invalid key")
}

func TestClient_Complete_JSONErrorBodyIsKeptRaw(t *testing.T) {
	const body = `{"error":{"message":"model not found","type":"invalid_request_error"}}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(body))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Complete(context.Background(), "p", "missing-model")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 404, apiErr.StatusCode)
	assert.Equal(t, body, apiErr.Body)
}

func TestClient_Complete_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := newTestClient(url).Complete(context.Background(), "p", "m")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 0, apiErr.StatusCode)
	assert.Contains(t, Render(err), "Groq API request failed")
}

func TestRender_PlainError(t *testing.T) {
	assert.Equal(t, "Completion Error: boom", Render(errors.New("boom")))
}
