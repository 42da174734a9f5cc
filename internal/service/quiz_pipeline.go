package service

import (
	"context"
	"net/url"
	"strings"
	"time"

	"video-quiz/internal/domain"
	"video-quiz/internal/logger"
	"video-quiz/internal/util"

	"go.uber.org/zap"
)

// pipelineState names a step of one quiz generation attempt
type pipelineState string

const (
	stateStart        pipelineState = "start"
	stateFetching     pipelineState = "fetching"
	stateTranscribing pipelineState = "transcribing"
	stateGenerating   pipelineState = "generating"
	statePersisting   pipelineState = "persisting"
	stateDone         pipelineState = "done"
	stateFailed       pipelineState = "failed"
)

func logTransition(l *zap.Logger, from, to pipelineState) {
	l.Info("Quiz pipeline transition", zap.String("from", string(from)), zap.String("to", string(to)))
}

// QuizPipeline generates a quiz from a video and stores it
type QuizPipeline interface {
	CreateQuiz(ctx context.Context, sourceURL string, requesterID string) (*domain.Quiz, error)
}

type quizPipeline struct {
	transcripts *transcriptSource
	generator   domain.QuizContentGenerator
	repo        domain.QuizRepository
	txManager   domain.TransactionManager
}

// NewQuizPipeline wires the generation pipeline. transcriptCache may be nil.
func NewQuizPipeline(
	fetcher domain.AudioFetcher,
	transcriber domain.Transcriber,
	generator domain.QuizContentGenerator,
	repo domain.QuizRepository,
	txManager domain.TransactionManager,
	transcriptCache domain.Cache,
	transcriptCacheTTL time.Duration,
) QuizPipeline {
	return &quizPipeline{
		transcripts: newTranscriptSource(fetcher, transcriber, transcriptCache, transcriptCacheTTL),
		generator:   generator,
		repo:        repo,
		txManager:   txManager,
	}
}

// CreateQuiz runs fetch, transcription and generation for sourceURL and
// persists the quiz with all of its questions in one transaction. Nothing is
// stored when any step fails. Every call creates a new quiz, even for a URL
// that was seen before.
func (p *quizPipeline) CreateQuiz(ctx context.Context, sourceURL string, requesterID string) (*domain.Quiz, error) {
	started := time.Now()
	l := logger.Get().With(zap.String("source_url", sourceURL), zap.String("requester_id", requesterID))

	fail := func(from pipelineState, err error) (*domain.Quiz, error) {
		l.Warn("Quiz pipeline failed",
			zap.String("from", string(from)),
			zap.String("to", string(stateFailed)),
			zap.String("code", string(domain.CodeOf(err))),
			zap.Error(err))
		return nil, err
	}

	if strings.TrimSpace(requesterID) == "" {
		return fail(stateStart, domain.NewUnauthorizedError("authentication required"))
	}
	sourceURL = strings.TrimSpace(sourceURL)
	if err := validateSourceURL(sourceURL); err != nil {
		return fail(stateStart, err)
	}

	quiz := domain.NewQuiz(sourceURL, requesterID)
	quiz.ID = util.NewULID()
	l = l.With(zap.String("quiz_id", quiz.ID))

	transcript, err := p.transcripts.Transcript(ctx, l, sourceURL, quiz.ID)
	if err != nil {
		return fail(stateTranscribing, err)
	}

	logTransition(l, stateTranscribing, stateGenerating)
	content, err := p.generator.Generate(ctx, transcript.Text)
	if err != nil {
		if _, ok := asDomainError(err); !ok {
			err = domain.NewGenerationError("quiz generation failed", err)
		}
		return fail(stateGenerating, err)
	}
	if content == nil {
		return fail(stateGenerating, domain.NewGenerationError("generator returned no content", nil))
	}
	if err := content.Validate(); err != nil {
		return fail(stateGenerating, err)
	}
	if strings.TrimSpace(content.Title) == "" && transcript.Title != "" {
		l.Info("Generator returned no title, using the video title", zap.String("title", transcript.Title))
		content.Title = transcript.Title
	}
	quiz.ApplyContent(content)

	logTransition(l, stateGenerating, statePersisting)
	err = p.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		return p.repo.CreateQuiz(txCtx, quiz)
	})
	if err != nil {
		return fail(statePersisting, domain.NewInternalError("failed to save quiz", err))
	}

	logTransition(l, statePersisting, stateDone)
	l.Info("Quiz created",
		zap.Int("questions", len(quiz.Questions)),
		zap.Duration("elapsed", time.Since(started)))
	return quiz, nil
}

// validateSourceURL accepts absolute http(s) URLs only
func validateSourceURL(raw string) error {
	if raw == "" {
		return domain.NewInvalidInputError("url is required")
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return domain.NewInvalidInputError("url must be an absolute http or https URL")
	}
	return nil
}
