package domain

import (
	"fmt"
	"strings"
	"time"
)

const (
	// PendingQuizTitle is shown while a quiz is still being generated.
	PendingQuizTitle = "Wird generiert..."
	// PendingQuizDescription is shown while a quiz is still being generated.
	PendingQuizDescription = "Das Quiz wird automatisch erstellt."
)

// Quiz represents one generation attempt and its outcome
type Quiz struct {
	ID          string
	Title       string
	Description string
	SourceURL   string // 원본 영상 URL, 생성 후 변경 불가
	OwnerID     string // 생성한 사용자, 생성 후 변경 불가
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Questions   []*Question
}

// NewQuiz creates a pending Quiz for the given owner and source URL
func NewQuiz(sourceURL, ownerID string) *Quiz {
	now := time.Now()
	return &Quiz{
		Title:       PendingQuizTitle,
		Description: PendingQuizDescription,
		SourceURL:   sourceURL,
		OwnerID:     ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// IsOwnedBy reports whether userID created the quiz
func (q *Quiz) IsOwnedBy(userID string) bool {
	return userID != "" && q.OwnerID == userID
}

// ApplyContent overwrites the placeholders with generated content and
// attaches the generated questions in order.
func (q *Quiz) ApplyContent(content *QuizContent) {
	now := time.Now()
	q.Title = content.Title
	q.Description = content.Description
	q.UpdatedAt = now
	q.Questions = make([]*Question, 0, len(content.Questions))
	for i, gq := range content.Questions {
		q.Questions = append(q.Questions, &Question{
			QuizID:          q.ID,
			QuestionTitle:   gq.QuestionTitle,
			QuestionOptions: append([]string(nil), gq.QuestionOptions...),
			Answer:          gq.Answer,
			Position:        i,
			CreatedAt:       now,
			UpdatedAt:       now,
		})
	}
}

// Validate validates the quiz
func (q *Quiz) Validate() error {
	if strings.TrimSpace(q.SourceURL) == "" {
		return NewInvalidInputError("url is required")
	}
	if q.OwnerID == "" {
		return NewUnauthorizedError("owner is required")
	}
	return nil
}

// Question is one generated multiple-choice item, owned by exactly one Quiz
type Question struct {
	ID              string
	QuizID          string
	QuestionTitle   string
	QuestionOptions []string
	Answer          string
	Position        int // 삽입 순서
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// QuizContent is the structured object produced by the generative-text step
type QuizContent struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Questions   []GeneratedQuestion `json:"questions"`
}

// GeneratedQuestion is a question as returned by the generator, before persistence
type GeneratedQuestion struct {
	QuestionTitle   string   `json:"question_title"`
	QuestionOptions []string `json:"question_options"`
	Answer          string   `json:"answer"`
}

// Validate checks that every question carries a title, options and an
// answer that is one of the options. Positions in messages are 1-based.
func (c *QuizContent) Validate() error {
	if len(c.Questions) == 0 {
		return NewGenerationError("no questions were generated", nil)
	}
	for i, q := range c.Questions {
		pos := i + 1
		if strings.TrimSpace(q.QuestionTitle) == "" || len(q.QuestionOptions) == 0 || strings.TrimSpace(q.Answer) == "" {
			return NewGenerationError(fmt.Sprintf("question %d is incomplete", pos), nil)
		}
		if !containsOption(q.QuestionOptions, q.Answer) {
			return NewGenerationError(fmt.Sprintf("question %d: answer %q is not one of the options", pos, q.Answer), nil)
		}
	}
	return nil
}

func containsOption(options []string, answer string) bool {
	want := strings.TrimSpace(answer)
	for _, o := range options {
		if strings.TrimSpace(o) == want {
			return true
		}
	}
	return false
}

// AudioFile is a transient local media file produced by the fetcher
type AudioFile struct {
	Path  string
	Title string
}

// QuizPatch holds the owner-editable fields of a quiz
type QuizPatch struct {
	Title       *string
	Description *string
}

// quizPatchFields are the only keys accepted in an update payload
var quizPatchFields = map[string]bool{
	"title":       true,
	"description": true,
}

// NewQuizPatch builds a QuizPatch from a raw update payload, rejecting any
// field outside the allowed set.
func NewQuizPatch(raw map[string]interface{}) (*QuizPatch, error) {
	if len(raw) == 0 {
		return nil, NewInvalidInputError("update payload is empty")
	}
	patch := &QuizPatch{}
	for key, value := range raw {
		if !quizPatchFields[key] {
			return nil, NewInvalidInputError(fmt.Sprintf("field %q cannot be updated", key))
		}
		s, ok := value.(string)
		if !ok {
			return nil, NewInvalidInputError(fmt.Sprintf("field %q must be a string", key))
		}
		switch key {
		case "title":
			patch.Title = &s
		case "description":
			patch.Description = &s
		}
	}
	return patch, nil
}

// Apply writes the patch into q and bumps UpdatedAt
func (p *QuizPatch) Apply(q *Quiz) {
	if p.Title != nil {
		q.Title = *p.Title
	}
	if p.Description != nil {
		q.Description = *p.Description
	}
	q.UpdatedAt = time.Now()
}
