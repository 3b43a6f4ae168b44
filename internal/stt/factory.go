package stt

import (
	"context"
	"fmt"

	"videoagent/internal/config"
	"videoagent/internal/executor"
	"videoagent/internal/logging"
)

// CreateProvider builds the configured provider behind a Lazy handle.
// Nothing is loaded or contacted until the first Transcribe call.
func CreateProvider(cfg config.STTConfig, tempDir string, exec executor.Executor, log logging.Logger) (*Lazy, error) {
	log = log.With(logging.F("component", "stt"))

	switch cfg.Provider {
	case config.STTWhisper, "":
		return NewLazy(config.STTWhisper, func() (Provider, error) {
			return createWhisperProvider(cfg, tempDir, exec, log)
		}), nil
	case config.STTOpenAI:
		return NewLazy(config.STTOpenAI, func() (Provider, error) {
			return createOpenAIProvider(cfg, log)
		}), nil
	case config.STTFPT:
		return NewLazy(config.STTFPT, func() (Provider, error) {
			return createFPTProvider(cfg, exec, log)
		}), nil
	case config.STTGoogle:
		return NewLazy(config.STTGoogle, func() (Provider, error) {
			return createGoogleProvider(cfg, exec, log)
		}), nil
	default:
		return nil, fmt.Errorf("unsupported STT provider: %s. Supported: whisper, openai, fpt, google", cfg.Provider)
	}
}

func createWhisperProvider(cfg config.STTConfig, tempDir string, exec executor.Executor, log logging.Logger) (Provider, error) {
	if err := checkWhisperBinary(cfg.WhisperBinary); err != nil {
		return nil, err
	}
	log.Info("Loading whisper speech model", logging.F("model", cfg.WhisperModel))
	return NewWhisperProvider(WhisperOptions{
		Binary:    cfg.WhisperBinary,
		Model:     cfg.WhisperModel,
		Language:  cfg.Language,
		OutputDir: tempDir,
	}, exec, log), nil
}

func createOpenAIProvider(cfg config.STTConfig, log logging.Logger) (Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
	}
	log.Info("Creating OpenAI transcription provider", logging.F("base_url", cfg.BaseURL))
	return NewOpenAIProvider(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.Language, log), nil
}

func createFPTProvider(cfg config.STTConfig, exec executor.Executor, log logging.Logger) (Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("FPT_AI_API_KEY environment variable is not set")
	}
	log.Info("Creating FPT STT provider", logging.F("url", cfg.FPTURL))
	return NewFPTProvider(cfg.APIKey, cfg.FPTURL, NewAudioExtractor(cfg.FFmpegBinary, exec), log), nil
}

// createGoogleProvider creates a Google STT provider
// GOOGLE_STT_KEY_FILE can be either:
//   - An API key (39 characters, typically starts with "AIzaSy")
//   - A file path to a JSON key file (e.g., "./keys/google-service-account.json")
//   - A JSON string containing the service account credentials
func createGoogleProvider(cfg config.STTConfig, exec executor.Executor, log logging.Logger) (Provider, error) {
	if !isGoogleAPIKey(cfg.GoogleKeyFile) && cfg.GoogleProjectID == "" {
		return nil, fmt.Errorf("GOOGLE_STT_PROJECT_ID environment variable is required when using service account")
	}
	log.Info("Creating Google STT provider", logging.F("project", cfg.GoogleProjectID))
	return NewGoogleProvider(context.Background(), cfg.GoogleProjectID, cfg.GoogleKeyFile, cfg.Language,
		NewAudioExtractor(cfg.FFmpegBinary, exec), log)
}
