package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"video-quiz/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func ownedQuiz(id, owner string) *domain.Quiz {
	q := domain.NewQuiz("https://example.com/"+id, owner)
	q.ID = id
	q.Title = "Title " + id
	q.Description = "Description " + id
	q.UpdatedAt = time.Now().Add(-time.Hour)
	return q
}

func TestQuizService_ListQuizzes(t *testing.T) {
	repo := new(MockQuizRepository)
	svc := NewQuizService(repo, &MockTransactionManager{})
	ctx := context.Background()

	quizzes := []*domain.Quiz{ownedQuiz("q2", "user1"), ownedQuiz("q1", "user1")}
	repo.On("ListQuizzesByOwner", ctx, "user1").Return(quizzes, nil)

	got, err := svc.ListQuizzes(ctx, "user1")
	require.NoError(t, err)
	assert.Equal(t, quizzes, got)

	_, err = svc.ListQuizzes(ctx, "")
	assert.True(t, domain.IsCode(err, domain.ErrUnauthorized))

	repo.On("ListQuizzesByOwner", ctx, "broken").Return(nil, errors.New("db down"))
	_, err = svc.ListQuizzes(ctx, "broken")
	assert.True(t, domain.IsCode(err, domain.ErrInternal))
}

func TestQuizService_GetQuiz(t *testing.T) {
	repo := new(MockQuizRepository)
	svc := NewQuizService(repo, &MockTransactionManager{})
	ctx := context.Background()

	repo.On("GetQuizByID", ctx, "q1").Return(ownedQuiz("q1", "owner"), nil)
	repo.On("GetQuizByID", ctx, "missing").Return(nil, nil)
	repo.On("GetQuizByID", ctx, "broken").Return(nil, errors.New("db down"))

	quiz, err := svc.GetQuiz(ctx, "q1", "owner")
	require.NoError(t, err)
	assert.Equal(t, "q1", quiz.ID)

	tests := []struct {
		name      string
		quizID    string
		requester string
		wantCode  domain.ErrorCode
	}{
		{"non-owner", "q1", "intruder", domain.ErrForbidden},
		{"anonymous", "q1", "", domain.ErrUnauthorized},
		{"missing", "missing", "owner", domain.ErrQuizNotFound},
		{"repository error", "broken", "owner", domain.ErrInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quiz, err := svc.GetQuiz(ctx, tt.quizID, tt.requester)
			assert.Nil(t, quiz)
			assert.True(t, domain.IsCode(err, tt.wantCode), "got %v", err)
		})
	}
}

func TestQuizService_UpdateQuiz(t *testing.T) {
	t.Run("owner updates title", func(t *testing.T) {
		repo := new(MockQuizRepository)
		tx := &MockTransactionManager{}
		svc := NewQuizService(repo, tx)
		ctx := context.Background()

		original := ownedQuiz("q1", "owner")
		before := original.UpdatedAt
		repo.On("GetQuizByID", ctx, "q1").Return(original, nil)
		repo.On("UpdateQuiz", ctx, mock.MatchedBy(func(q *domain.Quiz) bool {
			return q.Title == "Updated Title" && q.Description == "Description q1"
		})).Return(nil)

		quiz, err := svc.UpdateQuiz(ctx, "q1", "owner", map[string]interface{}{"title": "Updated Title"})
		require.NoError(t, err)
		assert.Equal(t, "Updated Title", quiz.Title)
		assert.True(t, quiz.UpdatedAt.After(before))
		assert.Equal(t, 1, tx.Committed)
		repo.AssertExpectations(t)
	})

	t.Run("non-owner is forbidden", func(t *testing.T) {
		repo := new(MockQuizRepository)
		svc := NewQuizService(repo, &MockTransactionManager{})
		ctx := context.Background()

		repo.On("GetQuizByID", ctx, "q1").Return(ownedQuiz("q1", "owner"), nil)

		_, err := svc.UpdateQuiz(ctx, "q1", "intruder", map[string]interface{}{"title": "Hacked"})
		assert.True(t, domain.IsCode(err, domain.ErrForbidden))
		repo.AssertNotCalled(t, "UpdateQuiz", mock.Anything, mock.Anything)
	})

	t.Run("immutable field is rejected before any lookup", func(t *testing.T) {
		repo := new(MockQuizRepository)
		svc := NewQuizService(repo, &MockTransactionManager{})

		_, err := svc.UpdateQuiz(context.Background(), "q1", "owner", map[string]interface{}{"url": "https://other"})
		assert.True(t, domain.IsCode(err, domain.ErrInvalidInput))
		repo.AssertNotCalled(t, "GetQuizByID", mock.Anything, mock.Anything)
	})

	t.Run("repository failure", func(t *testing.T) {
		repo := new(MockQuizRepository)
		tx := &MockTransactionManager{}
		svc := NewQuizService(repo, tx)
		ctx := context.Background()

		repo.On("GetQuizByID", ctx, "q1").Return(ownedQuiz("q1", "owner"), nil)
		repo.On("UpdateQuiz", ctx, mock.Anything).Return(errors.New("db down"))

		_, err := svc.UpdateQuiz(ctx, "q1", "owner", map[string]interface{}{"description": "new"})
		assert.True(t, domain.IsCode(err, domain.ErrInternal))
		assert.Equal(t, 0, tx.Committed)
	})
}

func TestQuizService_DeleteQuiz(t *testing.T) {
	repo := new(MockQuizRepository)
	svc := NewQuizService(repo, &MockTransactionManager{})
	ctx := context.Background()

	repo.On("GetQuizByID", ctx, "q1").Return(ownedQuiz("q1", "owner"), nil)
	repo.On("GetQuizByID", ctx, "missing").Return(nil, nil)
	repo.On("DeleteQuiz", ctx, "q1").Return(nil).Once()

	assert.True(t, domain.IsCode(svc.DeleteQuiz(ctx, "q1", "intruder"), domain.ErrForbidden))
	assert.True(t, domain.IsCode(svc.DeleteQuiz(ctx, "missing", "owner"), domain.ErrQuizNotFound))
	assert.NoError(t, svc.DeleteQuiz(ctx, "q1", "owner"))

	repo.AssertNumberOfCalls(t, "DeleteQuiz", 1)
}
