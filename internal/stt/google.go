package stt

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"videoagent/internal/logging"
)

const (
	googleSpeechEndpoint = "https://speech.googleapis.com/v1/speech:recognize"
	googleCloudScope     = "https://www.googleapis.com/auth/cloud-platform"
)

// GoogleProvider implements STT using Google Cloud Speech-to-Text REST API
type GoogleProvider struct {
	projectID  string
	apiKey     string
	language   string
	endpoint   string
	extractor  *AudioExtractor
	httpClient *http.Client
	logger     logging.Logger
}

// isGoogleAPIKey reports whether keyData looks like a plain API key
// (39 characters starting with "AIzaSy") rather than service account credentials.
func isGoogleAPIKey(keyData string) bool {
	keyData = strings.TrimSpace(keyData)
	return len(keyData) == 39 && strings.HasPrefix(keyData, "AIzaSy")
}

// NewGoogleProvider creates a new Google STT provider
// keyData can be either:
//   - An API key (39 characters, typically starts with "AIzaSy")
//   - A file path to a JSON key file (e.g., "./keys/google-service-account.json")
//   - A JSON string containing the service account credentials
//
// An empty keyData falls back to application default credentials.
func NewGoogleProvider(ctx context.Context, projectID, keyData, language string, extractor *AudioExtractor, log logging.Logger) (*GoogleProvider, error) {
	keyData = strings.TrimSpace(keyData)
	if language == "" {
		language = "en-US"
	}

	p := &GoogleProvider{
		projectID: projectID,
		language:  language,
		endpoint:  googleSpeechEndpoint,
		extractor: extractor,
		logger:    log.With(logging.F("provider", "google")),
	}

	if isGoogleAPIKey(keyData) {
		p.logger.Info("Using API key authentication")
		p.apiKey = keyData
		p.httpClient = &http.Client{Timeout: 90 * time.Second}
		return p, nil
	}

	var creds *google.Credentials
	var err error
	switch {
	case keyData == "":
		creds, err = google.FindDefaultCredentials(ctx, googleCloudScope)
		if err != nil {
			return nil, fmt.Errorf("failed to find default credentials: %w. Please set GOOGLE_STT_KEY_FILE", err)
		}
	default:
		jsonData := []byte(keyData)
		if !strings.HasPrefix(keyData, "{") {
			p.logger.Info("Reading key file", logging.F("path", keyData))
			jsonData, err = os.ReadFile(keyData)
			if err != nil {
				return nil, fmt.Errorf("failed to read key file '%s': %w", keyData, err)
			}
		}
		creds, err = google.CredentialsFromJSON(ctx, jsonData, googleCloudScope)
		if err != nil {
			return nil, fmt.Errorf("failed to create credentials from JSON: %w", err)
		}
	}

	p.httpClient = oauth2.NewClient(ctx, creds.TokenSource)
	p.httpClient.Timeout = 90 * time.Second
	return p, nil
}

// Name returns the provider name
func (p *GoogleProvider) Name() string {
	return "google"
}

// GoogleSTTRequest represents Google Speech-to-Text API request
type GoogleSTTRequest struct {
	Config GoogleSTTConfig `json:"config"`
	Audio  GoogleSTTAudio  `json:"audio"`
}

// GoogleSTTConfig represents recognition config
type GoogleSTTConfig struct {
	Encoding                   string `json:"encoding"`
	SampleRateHertz            int    `json:"sampleRateHertz"`
	LanguageCode               string `json:"languageCode"`
	EnableAutomaticPunctuation bool   `json:"enableAutomaticPunctuation"`
	Model                      string `json:"model,omitempty"`
}

// GoogleSTTAudio represents audio data
type GoogleSTTAudio struct {
	Content string `json:"content"` // Base64 encoded
}

// GoogleSTTResponse represents Google Speech-to-Text API response
type GoogleSTTResponse struct {
	Results []struct {
		Alternatives []struct {
			Transcript string  `json:"transcript"`
			Confidence float64 `json:"confidence"`
		} `json:"alternatives"`
		LanguageCode string `json:"languageCode"`
	} `json:"results"`
	Error *GoogleSTTError `json:"error,omitempty"`
}

// GoogleSTTError represents an API error
type GoogleSTTError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// Transcribe extracts 16kHz LINEAR16 audio and sends it to Google Speech-to-Text.
// Results are concatenated in order.
func (p *GoogleProvider) Transcribe(ctx context.Context, mediaPath string) (*Result, error) {
	startTime := time.Now()

	audioPath, err := p.extractor.Extract(ctx, mediaPath)
	if err != nil {
		return nil, err
	}
	defer cleanupAudio(audioPath, p.logger)

	audioBytes, err := os.ReadFile(audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio file: %w", err)
	}
	if len(audioBytes) < 1000 {
		return nil, fmt.Errorf("audio file too small (%d bytes), may be empty or corrupted", len(audioBytes))
	}

	reqJSON, err := json.Marshal(GoogleSTTRequest{
		Config: GoogleSTTConfig{
			Encoding:                   "LINEAR16",
			SampleRateHertz:            16000,
			LanguageCode:               p.language,
			EnableAutomaticPunctuation: true,
			Model:                      "latest_long",
		},
		Audio: GoogleSTTAudio{
			Content: base64.StdEncoding.EncodeToString(audioBytes),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	apiURL := p.endpoint
	if p.apiKey != "" {
		apiURL += "?key=" + url.QueryEscape(p.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(reqJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.projectID != "" {
		req.Header.Set("x-goog-user-project", p.projectID)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to Google Speech-to-Text: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	p.logger.Debug("Response received", logging.F("status", resp.StatusCode), logging.F("preview", preview(body)))

	failed := &Result{Provider: p.Name(), RawResponse: string(body)}

	var sttResp GoogleSTTResponse
	if err := json.Unmarshal(body, &sttResp); err != nil {
		if resp.StatusCode != http.StatusOK {
			return failed, fmt.Errorf("Google Speech-to-Text API returned status %d: %s", resp.StatusCode, string(body))
		}
		return failed, fmt.Errorf("failed to parse Google Speech-to-Text response: %w", err)
	}

	if sttResp.Error != nil {
		return failed, fmt.Errorf("Google Speech-to-Text API error: %s", sttResp.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return failed, fmt.Errorf("Google Speech-to-Text API returned status %d: %s", resp.StatusCode, string(body))
	}

	if len(sttResp.Results) == 0 {
		return failed, fmt.Errorf("no speech detected in audio")
	}

	var parts []string
	var confidence float64
	var language string
	for i, r := range sttResp.Results {
		if len(r.Alternatives) == 0 {
			continue
		}
		best := r.Alternatives[0]
		parts = append(parts, strings.TrimSpace(best.Transcript))
		if i == 0 {
			confidence = best.Confidence
			language = r.LanguageCode
		}
	}

	transcript := strings.TrimSpace(strings.Join(parts, " "))
	if transcript == "" {
		return failed, fmt.Errorf("empty transcript returned")
	}

	p.logger.Info("Transcription successful",
		logging.F("confidence", confidence),
		logging.F("length", len(transcript)),
		logging.F("duration", time.Since(startTime)))

	return &Result{
		Transcript:  transcript,
		Language:    language,
		Confidence:  confidence,
		Provider:    p.Name(),
		RawResponse: string(body),
	}, nil
}
