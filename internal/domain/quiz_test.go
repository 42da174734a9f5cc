package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func validQuestion(title string) GeneratedQuestion {
	return GeneratedQuestion{
		QuestionTitle:   title,
		QuestionOptions: []string{"A", "B", "C", "D"},
		Answer:          "A",
	}
}

func TestQuizContent_Validate(t *testing.T) {
	tests := []struct {
		name    string
		content QuizContent
		wantErr bool
		errText string
	}{
		{"valid content", QuizContent{Title: "T", Questions: []GeneratedQuestion{validQuestion("Q1"), validQuestion("Q2")}}, false, ""},
		{"no questions", QuizContent{Title: "X"}, true, "no questions"},
		{
			"missing title on second question",
			QuizContent{Questions: []GeneratedQuestion{validQuestion("Q1"), {QuestionOptions: []string{"A"}, Answer: "A"}}},
			true, "question 2 is incomplete",
		},
		{
			"missing options",
			QuizContent{Questions: []GeneratedQuestion{{QuestionTitle: "Q1", Answer: "A"}}},
			true, "question 1 is incomplete",
		},
		{
			"missing answer",
			QuizContent{Questions: []GeneratedQuestion{validQuestion("Q1"), validQuestion("Q2"), {QuestionTitle: "Q3", QuestionOptions: []string{"A", "B"}}}},
			true, "question 3 is incomplete",
		},
		{
			"answer not among options",
			QuizContent{Questions: []GeneratedQuestion{{QuestionTitle: "Q1", QuestionOptions: []string{"A", "B", "C", "D"}, Answer: "E"}}},
			true, "not one of the options",
		},
		{
			"answer matches option ignoring surrounding whitespace",
			QuizContent{Questions: []GeneratedQuestion{{QuestionTitle: "Q1", QuestionOptions: []string{"A ", "B"}, Answer: " A"}}},
			false, "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.content.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr {
				return
			}
			if CodeOf(err) != ErrGenerationFailed {
				t.Errorf("CodeOf() = %s, want %s", CodeOf(err), ErrGenerationFailed)
			}
			if !strings.Contains(err.Error(), tt.errText) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.errText)
			}
		})
	}
}

func TestNewQuiz_Placeholders(t *testing.T) {
	q := NewQuiz("https://example.com/video1", "user1")
	if q.Title != PendingQuizTitle || q.Description != PendingQuizDescription {
		t.Errorf("placeholders not set: %q / %q", q.Title, q.Description)
	}
	if len(q.Questions) != 0 {
		t.Errorf("expected no questions, got %d", len(q.Questions))
	}
	if !q.IsOwnedBy("user1") || q.IsOwnedBy("user2") || q.IsOwnedBy("") {
		t.Error("IsOwnedBy mismatch")
	}
}

func TestQuiz_ApplyContent(t *testing.T) {
	q := NewQuiz("https://example.com/video1", "user1")
	q.ID = "quiz1"
	before := q.UpdatedAt
	q.ApplyContent(&QuizContent{
		Title:       "T",
		Description: "D",
		Questions:   []GeneratedQuestion{validQuestion("Q1"), validQuestion("Q2")},
	})

	if q.Title != "T" || q.Description != "D" {
		t.Errorf("content not applied: %q / %q", q.Title, q.Description)
	}
	if len(q.Questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(q.Questions))
	}
	for i, question := range q.Questions {
		if question.Position != i {
			t.Errorf("question %d position = %d", i, question.Position)
		}
		if question.QuizID != "quiz1" {
			t.Errorf("question %d quiz id = %q", i, question.QuizID)
		}
	}
	if q.UpdatedAt.Before(before) {
		t.Error("UpdatedAt went backwards")
	}
}

func TestNewQuizPatch(t *testing.T) {
	patch, err := NewQuizPatch(map[string]interface{}{"title": "Updated Title"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	q := NewQuiz("https://example.com/v", "u")
	patch.Apply(q)
	if q.Title != "Updated Title" || q.Description != PendingQuizDescription {
		t.Errorf("patch applied incorrectly: %q / %q", q.Title, q.Description)
	}

	for _, raw := range []map[string]interface{}{
		{},
		{"url": "https://evil.example.com"},
		{"title": "ok", "owner": "someone"},
		{"title": 5},
	} {
		t.Run(fmt.Sprint(raw), func(t *testing.T) {
			_, err := NewQuizPatch(raw)
			if !IsCode(err, ErrInvalidInput) {
				t.Errorf("NewQuizPatch(%v) error = %v, want INVALID_INPUT", raw, err)
			}
		})
	}
}

func TestCodeOf(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", NewDownloadError("boom", errors.New("exit 1")))
	if CodeOf(wrapped) != ErrDownloadFailed {
		t.Errorf("CodeOf(wrapped) = %s", CodeOf(wrapped))
	}
	if CodeOf(errors.New("plain")) != ErrInternal {
		t.Error("plain errors should map to INTERNAL_ERROR")
	}
	if IsCode(nil, ErrInternal) {
		t.Error("IsCode(nil) should be false")
	}
}
