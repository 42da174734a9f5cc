package domain

import "context"

// AudioFetcher materializes the audio track of a video URL as a local file.
type AudioFetcher interface {
	// Fetch downloads exactly one media file. hintID makes the file name
	// unique per request and may be empty.
	Fetch(ctx context.Context, url string, hintID string) (*AudioFile, error)
}

// Transcriber turns a local audio file into text.
// On failure the returned transcript is always empty.
type Transcriber interface {
	Transcribe(ctx context.Context, path string) (string, error)
}

// QuizContentGenerator produces quiz content from a transcript.
// The returned content is never nil, even when err is not.
type QuizContentGenerator interface {
	Generate(ctx context.Context, transcript string) (*QuizContent, error)
}
