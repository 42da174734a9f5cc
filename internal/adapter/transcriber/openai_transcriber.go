package transcriber

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"video-quiz/internal/config"
	"video-quiz/internal/domain"
	"video-quiz/internal/logger"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// AudioClient is the part of the OpenAI client used for speech-to-text
type AudioClient interface {
	CreateTranscription(ctx context.Context, request openai.AudioRequest) (openai.AudioResponse, error)
}

// OpenAITranscriber implements domain.Transcriber against an OpenAI-compatible
// audio transcription endpoint (OpenAI or a self-hosted whisper server).
type OpenAITranscriber struct {
	client   AudioClient
	model    string
	language string
	timeout  time.Duration // 0 means no limit beyond the caller's context
}

// NewOpenAITranscriber builds the transcriber from configuration
func NewOpenAITranscriber(cfg config.TranscriptionConfig, timeout time.Duration) *OpenAITranscriber {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	return NewOpenAITranscriberWithClient(openai.NewClientWithConfig(clientConfig), cfg.Model, cfg.Language, timeout)
}

// NewOpenAITranscriberWithClient wires an existing client
func NewOpenAITranscriberWithClient(client AudioClient, model, language string, timeout time.Duration) *OpenAITranscriber {
	if model == "" {
		model = openai.Whisper1
	}
	if language == "" {
		language = "de"
	}
	return &OpenAITranscriber{client: client, model: model, language: language, timeout: timeout}
}

// Transcribe returns the recognised text of the audio file at path. On any
// failure the text is empty and the error is TRANSCRIPTION_EMPTY. The file is
// left in place.
func (t *OpenAITranscriber) Transcribe(ctx context.Context, path string) (string, error) {
	l := logger.Get()

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		l.Warn("Audio file not readable", zap.String("path", path), zap.Error(err))
		return "", domain.NewTranscriptionEmptyError("audio file not found: " + path)
	}

	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	started := time.Now()
	resp, err := t.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    t.model,
		FilePath: path,
		Language: t.language,
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		msg := "transcription failed"
		if errors.Is(err, context.DeadlineExceeded) {
			msg = fmt.Sprintf("transcription timed out after %s", t.timeout)
		}
		l.Error("Speech-to-text request failed", zap.String("path", path), zap.Error(err))
		return "", domain.NewError(domain.ErrTranscriptionEmpty, msg, err)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		l.Warn("Speech-to-text returned no text", zap.String("path", path))
		return "", domain.NewTranscriptionEmptyError("transcription produced no text")
	}

	l.Info("Audio transcribed",
		zap.String("path", path),
		zap.Int("chars", len(text)),
		zap.Duration("elapsed", time.Since(started)))
	return text, nil
}
