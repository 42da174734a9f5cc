package domain

import "context"

// QuizRepository defines the interface for quiz persistence
type QuizRepository interface {
	// CreateQuiz inserts the quiz row and all of its questions.
	// Callers wanting atomicity run it inside TransactionManager.WithTransaction.
	CreateQuiz(ctx context.Context, quiz *Quiz) error

	// GetQuizByID retrieves a quiz with its questions, or nil when absent
	GetQuizByID(ctx context.Context, id string) (*Quiz, error)

	// ListQuizzesByOwner returns the owner's quizzes, newest first
	ListQuizzesByOwner(ctx context.Context, ownerID string) ([]*Quiz, error)

	// UpdateQuiz updates title, description and updated_at
	UpdateQuiz(ctx context.Context, quiz *Quiz) error

	// DeleteQuiz removes the quiz; questions cascade
	DeleteQuiz(ctx context.Context, id string) error

	// Ping checks connectivity of the backing store
	Ping(ctx context.Context) error
}

// TransactionManager runs fn inside a single database transaction.
// The transaction travels in the context passed to fn.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
