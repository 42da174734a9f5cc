package service

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"time"

	"video-quiz/internal/cache"
	"video-quiz/internal/domain"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// transcriptSource turns a source URL into a transcript. Results are cached
// per URL when a cache is configured, and concurrent requests for the same
// URL share a single download and transcription.
type transcriptSource struct {
	fetcher     domain.AudioFetcher
	transcriber domain.Transcriber
	cache       domain.Cache // nil disables caching
	ttl         time.Duration
	group       singleflight.Group
	removeFile  func(path string) error
}

func newTranscriptSource(fetcher domain.AudioFetcher, transcriber domain.Transcriber, c domain.Cache, ttl time.Duration) *transcriptSource {
	return &transcriptSource{
		fetcher:     fetcher,
		transcriber: transcriber,
		cache:       c,
		ttl:         ttl,
		removeFile:  os.Remove,
	}
}

// sourceTranscript is a transcript together with the title the media
// backend reported for the source video.
type sourceTranscript struct {
	Text  string `json:"text"`
	Title string `json:"title,omitempty"`
}

// decodeCachedTranscript reads a cache entry. Entries written before the
// title was cached hold the plain transcript text.
func decodeCachedTranscript(raw string) sourceTranscript {
	var st sourceTranscript
	if err := json.Unmarshal([]byte(raw), &st); err == nil && strings.TrimSpace(st.Text) != "" {
		return st
	}
	return sourceTranscript{Text: raw}
}

// Transcript returns the transcript of sourceURL. hintID names the temporary
// audio file of a fresh download.
//
// The shared download runs detached from ctx, so a caller that gives up only
// stops waiting and does not fail the other callers joined on the same URL.
func (s *transcriptSource) Transcript(ctx context.Context, l *zap.Logger, sourceURL, hintID string) (sourceTranscript, error) {
	key := cache.TranscriptKey(sourceURL)

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, key)
		switch {
		case err == nil && strings.TrimSpace(cached) != "":
			l.Info("Transcript cache hit", zap.String("cache_key", key))
			return decodeCachedTranscript(cached), nil
		case err != nil && !errors.Is(err, domain.ErrCacheMiss):
			l.Warn("Transcript cache read failed, continuing without cache", zap.Error(err))
		}
	}

	ch := s.group.DoChan(key, func() (interface{}, error) {
		return s.fetchAndTranscribe(context.WithoutCancel(ctx), l, sourceURL, hintID, key)
	})

	select {
	case <-ctx.Done():
		l.Info("Transcript request abandoned by caller", zap.String("cache_key", key), zap.Error(ctx.Err()))
		return sourceTranscript{}, domain.NewInternalError("transcript request cancelled", ctx.Err())
	case res := <-ch:
		if res.Shared {
			l.Debug("Transcript shared with a concurrent request", zap.String("cache_key", key))
		}
		if res.Err != nil {
			return sourceTranscript{}, res.Err
		}
		return res.Val.(sourceTranscript), nil
	}
}

func (s *transcriptSource) fetchAndTranscribe(ctx context.Context, l *zap.Logger, sourceURL, hintID, key string) (sourceTranscript, error) {
	logTransition(l, stateStart, stateFetching)
	audio, err := s.fetcher.Fetch(ctx, sourceURL, hintID)
	if err != nil {
		if _, ok := asDomainError(err); !ok {
			err = domain.NewDownloadError(err.Error(), err)
		}
		return sourceTranscript{}, err
	}
	defer s.cleanup(l, audio.Path)

	logTransition(l, stateFetching, stateTranscribing)
	text, err := s.transcriber.Transcribe(ctx, audio.Path)
	if err != nil {
		if _, ok := asDomainError(err); !ok {
			err = domain.NewError(domain.ErrTranscriptionEmpty, "transcription failed", err)
		}
		return sourceTranscript{}, err
	}
	if strings.TrimSpace(text) == "" {
		return sourceTranscript{}, domain.NewTranscriptionEmptyError("transcript is empty: the video contains no recognisable speech")
	}

	result := sourceTranscript{Text: text, Title: strings.TrimSpace(audio.Title)}
	if s.cache != nil && s.ttl > 0 {
		if err := s.storeTranscript(ctx, key, result); err != nil {
			l.Warn("Failed to cache transcript", zap.String("cache_key", key), zap.Error(err))
		}
	}
	return result, nil
}

func (s *transcriptSource) storeTranscript(ctx context.Context, key string, st sourceTranscript) error {
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, key, string(data), s.ttl)
}

// cleanup removes the temporary audio file. It runs exactly once per download.
func (s *transcriptSource) cleanup(l *zap.Logger, path string) {
	if err := s.removeFile(path); err != nil && !os.IsNotExist(err) {
		l.Warn("Failed to remove temporary audio file", zap.String("path", path), zap.Error(err))
		return
	}
	l.Debug("Temporary audio file removed", zap.String("path", path))
}

func asDomainError(err error) (*domain.DomainError, bool) {
	var domainErr *domain.DomainError
	ok := errors.As(err, &domainErr)
	return domainErr, ok
}
