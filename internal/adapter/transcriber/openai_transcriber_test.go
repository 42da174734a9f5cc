package transcriber

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"video-quiz/internal/domain"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAudioClient struct {
	mock.Mock
}

func (m *MockAudioClient) CreateTranscription(ctx context.Context, request openai.AudioRequest) (openai.AudioResponse, error) {
	args := m.Called(ctx, request)
	return args.Get(0).(openai.AudioResponse), args.Error(1)
}

func writeAudio(t *testing.T) string {
	path := filepath.Join(t.TempDir(), "quiz_abc.mp3")
	require.NoError(t, os.WriteFile(path, []byte("ID3"), 0o644))
	return path
}

func TestOpenAITranscriber_Transcribe_Success(t *testing.T) {
	client := new(MockAudioClient)
	path := writeAudio(t)
	tr := NewOpenAITranscriberWithClient(client, "", "", 0)

	client.On("CreateTranscription", mock.Anything, mock.MatchedBy(func(req openai.AudioRequest) bool {
		return req.FilePath == path && req.Model == openai.Whisper1 && req.Language == "de"
	})).Return(openai.AudioResponse{Text: "  Hallo und willkommen zur Vorlesung.\n"}, nil)

	text, err := tr.Transcribe(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "Hallo und willkommen zur Vorlesung.", text)
	assert.FileExists(t, path, "transcriber must not delete the audio file")
	client.AssertExpectations(t)
}

func TestOpenAITranscriber_Transcribe_Failures(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		client := new(MockAudioClient)
		tr := NewOpenAITranscriberWithClient(client, "whisper-1", "de", 0)

		text, err := tr.Transcribe(context.Background(), filepath.Join(t.TempDir(), "gone.mp3"))
		assert.Empty(t, text)
		assert.True(t, domain.IsCode(err, domain.ErrTranscriptionEmpty))
		client.AssertNotCalled(t, "CreateTranscription", mock.Anything, mock.Anything)
	})

	t.Run("backend error", func(t *testing.T) {
		client := new(MockAudioClient)
		path := writeAudio(t)
		tr := NewOpenAITranscriberWithClient(client, "whisper-1", "de", 0)
		client.On("CreateTranscription", mock.Anything, mock.Anything).
			Return(openai.AudioResponse{}, errors.New("503 Service Unavailable"))

		text, err := tr.Transcribe(context.Background(), path)
		assert.Empty(t, text)
		assert.True(t, domain.IsCode(err, domain.ErrTranscriptionEmpty))
		assert.Contains(t, err.Error(), "503")
		assert.FileExists(t, path)
	})

	t.Run("silent audio", func(t *testing.T) {
		client := new(MockAudioClient)
		path := writeAudio(t)
		tr := NewOpenAITranscriberWithClient(client, "whisper-1", "de", 0)
		client.On("CreateTranscription", mock.Anything, mock.Anything).
			Return(openai.AudioResponse{Text: " \n\t"}, nil)

		text, err := tr.Transcribe(context.Background(), path)
		assert.Empty(t, text)
		assert.True(t, domain.IsCode(err, domain.ErrTranscriptionEmpty))
	})
}

func TestOpenAITranscriber_UsesConfiguredLanguage(t *testing.T) {
	client := new(MockAudioClient)
	path := writeAudio(t)
	tr := NewOpenAITranscriberWithClient(client, "whisper-large", "en", 0)

	client.On("CreateTranscription", mock.Anything, mock.MatchedBy(func(req openai.AudioRequest) bool {
		return req.Model == "whisper-large" && req.Language == "en"
	})).Return(openai.AudioResponse{Text: "hello"}, nil)

	text, err := tr.Transcribe(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "hello", text)
	client.AssertExpectations(t)
}

// stalledClient never answers on its own and returns once the request context ends
type stalledClient struct {
	hadDeadline bool
}

func (c *stalledClient) CreateTranscription(ctx context.Context, request openai.AudioRequest) (openai.AudioResponse, error) {
	_, c.hadDeadline = ctx.Deadline()
	<-ctx.Done()
	return openai.AudioResponse{}, ctx.Err()
}

func TestOpenAITranscriber_Transcribe_Timeout(t *testing.T) {
	client := &stalledClient{}
	path := writeAudio(t)
	tr := NewOpenAITranscriberWithClient(client, "whisper-1", "de", 20*time.Millisecond)

	done := make(chan struct{})
	var (
		text string
		err  error
	)
	go func() {
		defer close(done)
		text, err = tr.Transcribe(context.Background(), path)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("transcription was not bounded by the configured timeout")
	}

	assert.True(t, client.hadDeadline)
	assert.Empty(t, text)
	assert.True(t, domain.IsCode(err, domain.ErrTranscriptionEmpty), "got %v", err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), "transcription timed out after 20ms")
	assert.FileExists(t, path)
}
