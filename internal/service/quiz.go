package service

import (
	"context"

	"video-quiz/internal/domain"
	"video-quiz/internal/logger"

	"go.uber.org/zap"
)

// QuizService defines the owner-scoped quiz management operations
type QuizService interface {
	ListQuizzes(ctx context.Context, requesterID string) ([]*domain.Quiz, error)
	GetQuiz(ctx context.Context, quizID, requesterID string) (*domain.Quiz, error)
	UpdateQuiz(ctx context.Context, quizID, requesterID string, fields map[string]interface{}) (*domain.Quiz, error)
	DeleteQuiz(ctx context.Context, quizID, requesterID string) error
}

// quizService implements QuizService
type quizService struct {
	repo      domain.QuizRepository
	txManager domain.TransactionManager
}

// NewQuizService creates a new instance of quizService
func NewQuizService(repo domain.QuizRepository, txManager domain.TransactionManager) QuizService {
	return &quizService{repo: repo, txManager: txManager}
}

// ListQuizzes returns the requester's own quizzes, newest first
func (s *quizService) ListQuizzes(ctx context.Context, requesterID string) ([]*domain.Quiz, error) {
	if requesterID == "" {
		return nil, domain.NewUnauthorizedError("authentication required")
	}
	quizzes, err := s.repo.ListQuizzesByOwner(ctx, requesterID)
	if err != nil {
		logger.Get().Error("Failed to list quizzes", zap.String("requester_id", requesterID), zap.Error(err))
		return nil, domain.NewInternalError("failed to list quizzes", err)
	}
	return quizzes, nil
}

// GetQuiz returns one quiz if the requester owns it
func (s *quizService) GetQuiz(ctx context.Context, quizID, requesterID string) (*domain.Quiz, error) {
	return s.getOwnedQuiz(ctx, quizID, requesterID)
}

// UpdateQuiz applies a partial update. Only title and description may change.
func (s *quizService) UpdateQuiz(ctx context.Context, quizID, requesterID string, fields map[string]interface{}) (*domain.Quiz, error) {
	patch, err := domain.NewQuizPatch(fields)
	if err != nil {
		return nil, err
	}

	var updated *domain.Quiz
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		quiz, err := s.getOwnedQuiz(txCtx, quizID, requesterID)
		if err != nil {
			return err
		}
		patch.Apply(quiz)
		if err := s.repo.UpdateQuiz(txCtx, quiz); err != nil {
			return domain.NewInternalError("failed to update quiz", err)
		}
		updated = quiz
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Get().Info("Quiz updated", zap.String("quiz_id", quizID), zap.String("requester_id", requesterID))
	return updated, nil
}

// DeleteQuiz removes the quiz and its questions
func (s *quizService) DeleteQuiz(ctx context.Context, quizID, requesterID string) error {
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if _, err := s.getOwnedQuiz(txCtx, quizID, requesterID); err != nil {
			return err
		}
		if err := s.repo.DeleteQuiz(txCtx, quizID); err != nil {
			return domain.NewInternalError("failed to delete quiz", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Get().Info("Quiz deleted", zap.String("quiz_id", quizID), zap.String("requester_id", requesterID))
	return nil
}

func (s *quizService) getOwnedQuiz(ctx context.Context, quizID, requesterID string) (*domain.Quiz, error) {
	if requesterID == "" {
		return nil, domain.NewUnauthorizedError("authentication required")
	}
	quiz, err := s.repo.GetQuizByID(ctx, quizID)
	if err != nil {
		return nil, domain.NewInternalError("failed to get quiz", err)
	}
	if quiz == nil {
		return nil, domain.NewQuizNotFoundError(quizID)
	}
	if !quiz.IsOwnedBy(requesterID) {
		return nil, domain.NewForbiddenError("you do not have permission to access this quiz")
	}
	return quiz, nil
}
