package quizgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"video-quiz/internal/config"
	"video-quiz/internal/domain"

	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"
)

const (
	defaultQuestionCount      = 10
	defaultMaxTranscriptChars = 12000

	noTranscriptExplanation = "No transcript was available, so no quiz could be generated."
)

const promptTemplate = `You are a quiz author. Based only on the following video transcript, create a multiple-choice quiz.

Respond with ONLY a JSON object in exactly this format:
{
  "title": "short quiz title",
  "description": "one or two sentences describing the quiz",
  "questions": [
    {
      "question_title": "the question",
      "question_options": ["option 1", "option 2", "option 3", "option 4"],
      "answer": "the correct option, copied exactly from question_options"
    }
  ]
}

Rules:
1. Create exactly %d questions.
2. Every question has exactly 4 distinct options and exactly one correct answer.
3. "answer" must be identical to one of the entries in "question_options".
4. Write the quiz in the same language as the transcript.
5. Do not add any text before or after the JSON object.

Transcript:
%s`

// LLMQuizGenerator implements domain.QuizContentGenerator on top of a
// langchaingo model.
type LLMQuizGenerator struct {
	llm                llms.Model
	questionCount      int
	maxTranscriptChars int
	temperature        float64
	timeout            time.Duration
	logger             *zap.Logger
}

// NewLLMQuizGenerator creates a new generator. timeout bounds each call to the
// model; zero leaves it bounded only by the caller's context.
func NewLLMQuizGenerator(llm llms.Model, cfg config.GeneratorConfig, timeout time.Duration, logger *zap.Logger) (*LLMQuizGenerator, error) {
	if llm == nil {
		return nil, fmt.Errorf("generator model cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &LLMQuizGenerator{
		llm:                llm,
		questionCount:      cfg.QuestionCount,
		maxTranscriptChars: cfg.MaxTranscriptChars,
		temperature:        cfg.Temperature,
		timeout:            timeout,
		logger:             logger,
	}
	if g.questionCount <= 0 {
		g.questionCount = defaultQuestionCount
	}
	if g.maxTranscriptChars <= 0 {
		g.maxTranscriptChars = defaultMaxTranscriptChars
	}
	return g, nil
}

// Generate asks the model for a quiz about transcript. The returned content is
// never nil: on failure it has no questions, an explanatory description, and
// the error says what went wrong.
func (g *LLMQuizGenerator) Generate(ctx context.Context, transcript string) (*domain.QuizContent, error) {
	if strings.TrimSpace(transcript) == "" {
		return failedContent(noTranscriptExplanation), domain.NewTranscriptionEmptyError("transcript is empty")
	}

	prompt := g.buildPrompt(transcript)

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	started := time.Now()
	raw, err := llms.GenerateFromSinglePrompt(ctx, g.llm, prompt, llms.WithTemperature(g.temperature))
	if err != nil {
		msg := "generation service call failed"
		if errors.Is(err, context.DeadlineExceeded) {
			msg = fmt.Sprintf("generation service timed out after %s", g.timeout)
		}
		g.logger.Error("Quiz generation call failed", zap.Error(err))
		return failedContent(msg + ": " + err.Error()), domain.NewGenerationError(msg, err)
	}
	g.logger.Debug("Raw generator response received",
		zap.Int("length", len(raw)),
		zap.Duration("elapsed", time.Since(started)))

	content, err := parseQuizContent(raw)
	if err != nil {
		g.logger.Error("Failed to parse generator response", zap.Error(err), zap.String("raw_response", raw[:min(500, len(raw))]))
		return failedContent("the generated quiz could not be read: " + err.Error()), domain.NewGenerationError("could not parse generated quiz", err)
	}

	g.logger.Info("Quiz content generated",
		zap.String("title", content.Title),
		zap.Int("questions", len(content.Questions)))
	return content, nil
}

// buildPrompt embeds the transcript, cut to maxTranscriptChars runes. The cut
// is not aware of sentence boundaries, so the tail of long videos is lost.
func (g *LLMQuizGenerator) buildPrompt(transcript string) string {
	transcript = strings.TrimSpace(transcript)
	if runes := []rune(transcript); len(runes) > g.maxTranscriptChars {
		g.logger.Warn("Transcript truncated before generation",
			zap.Int("original_chars", len(runes)),
			zap.Int("kept_chars", g.maxTranscriptChars))
		transcript = string(runes[:g.maxTranscriptChars])
	}
	return fmt.Sprintf(promptTemplate, g.questionCount, transcript)
}

func failedContent(explanation string) *domain.QuizContent {
	return &domain.QuizContent{
		Title:       "",
		Description: explanation,
		Questions:   []domain.GeneratedQuestion{},
	}
}

// parseQuizContent reads the quiz object out of a model response. Models
// sometimes wrap the JSON in commentary, code fences or <think> blocks, so
// when direct decoding fails the span from the first '{' to the last '}' is
// decoded instead.
func parseQuizContent(raw string) (*domain.QuizContent, error) {
	cleaned := stripCodeFence(stripThinkBlock(strings.TrimSpace(raw)))
	if cleaned == "" {
		return nil, fmt.Errorf("empty response")
	}

	var content domain.QuizContent
	if err := json.Unmarshal([]byte(cleaned), &content); err != nil {
		jsonStart := strings.Index(cleaned, "{")
		jsonEnd := strings.LastIndex(cleaned, "}")
		if jsonStart == -1 || jsonEnd <= jsonStart {
			return nil, fmt.Errorf("no JSON object found in response")
		}
		content = domain.QuizContent{}
		if err := json.Unmarshal([]byte(cleaned[jsonStart:jsonEnd+1]), &content); err != nil {
			return nil, fmt.Errorf("failed to unmarshal extracted JSON: %w", err)
		}
	}

	content.Title = strings.TrimSpace(content.Title)
	content.Description = strings.TrimSpace(content.Description)
	if content.Questions == nil {
		content.Questions = []domain.GeneratedQuestion{}
	}
	for i := range content.Questions {
		q := &content.Questions[i]
		q.QuestionTitle = strings.TrimSpace(q.QuestionTitle)
		q.Answer = strings.TrimSpace(q.Answer)
		for j := range q.QuestionOptions {
			q.QuestionOptions[j] = strings.TrimSpace(q.QuestionOptions[j])
		}
	}
	return &content, nil
}

func stripThinkBlock(s string) string {
	thinkStart := strings.Index(s, "<think>")
	if thinkStart == -1 {
		return s
	}
	thinkEnd := strings.Index(s, "</think>")
	if thinkEnd == -1 || thinkEnd < thinkStart {
		return s
	}
	return strings.TrimSpace(s[:thinkStart] + s[thinkEnd+len("</think>"):])
}

func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.Index(s, "\n"); nl != -1 {
		s = s[nl+1:] // language tag
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
