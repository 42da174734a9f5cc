package dto

import (
	"time"

	"video-quiz/internal/domain"
)

// CreateQuizRequest represents a quiz generation request
// @Description Request body for generating a quiz from a video
type CreateQuizRequest struct {
	URL string `json:"url" validate:"required,http_url" example:"https://www.youtube.com/watch?v=dQw4w9WgXcQ"`
}

// UpdateQuizRequest lists the fields an owner may change. Any other key is rejected.
// @Description Request body for updating a quiz (partial)
type UpdateQuizRequest struct {
	Title       *string `json:"title,omitempty" validate:"omitempty,max=500"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=4000"`
}

// QuestionResponse represents a question in the API response
// @Description Multiple-choice question
type QuestionResponse struct {
	ID              string    `json:"id"`
	QuestionTitle   string    `json:"question_title"`
	QuestionOptions []string  `json:"question_options"`
	Answer          string    `json:"answer"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// QuizResponse represents a quiz in the API response
// @Description Quiz information with its questions
type QuizResponse struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	VideoURL    string             `json:"video_url"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
	Questions   []QuestionResponse `json:"questions"`
}

// ErrorResponse represents an error in the API response
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}

// NewQuizResponse converts a domain quiz
func NewQuizResponse(q *domain.Quiz) QuizResponse {
	resp := QuizResponse{
		ID:          q.ID,
		Title:       q.Title,
		Description: q.Description,
		VideoURL:    q.SourceURL,
		CreatedAt:   q.CreatedAt,
		UpdatedAt:   q.UpdatedAt,
		Questions:   make([]QuestionResponse, 0, len(q.Questions)),
	}
	for _, question := range q.Questions {
		options := question.QuestionOptions
		if options == nil {
			options = []string{}
		}
		resp.Questions = append(resp.Questions, QuestionResponse{
			ID:              question.ID,
			QuestionTitle:   question.QuestionTitle,
			QuestionOptions: options,
			Answer:          question.Answer,
			CreatedAt:       question.CreatedAt,
			UpdatedAt:       question.UpdatedAt,
		})
	}
	return resp
}

// NewQuizListResponse converts a list of domain quizzes
func NewQuizListResponse(quizzes []*domain.Quiz) []QuizResponse {
	resp := make([]QuizResponse, 0, len(quizzes))
	for _, q := range quizzes {
		resp = append(resp, NewQuizResponse(q))
	}
	return resp
}
