package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"video-quiz/internal/domain"
	"video-quiz/internal/repository/models"
	"video-quiz/internal/util"

	"github.com/jmoiron/sqlx"
)

const quizColumns = `id "id",
		title "title",
		description "description",
		source_url "source_url",
		owner_id "owner_id",
		created_at "created_at",
		updated_at "updated_at"`

const questionColumns = `id "id",
		quiz_id "quiz_id",
		question_title "question_title",
		question_options "question_options",
		answer "answer",
		position "position",
		created_at "created_at",
		updated_at "updated_at"`

// QuizDatabaseAdapter implements domain.QuizRepository using sqlx.DB
type QuizDatabaseAdapter struct {
	db *sqlx.DB
}

// NewQuizDatabaseAdapter creates a new instance of QuizDatabaseAdapter
func NewQuizDatabaseAdapter(db *sqlx.DB) domain.QuizRepository {
	return &QuizDatabaseAdapter{db: db}
}

// CreateQuiz inserts the quiz row followed by its question rows. It joins the
// transaction carried by ctx when there is one, so callers wrap it in
// TransactionManager.WithTransaction to make the whole write atomic.
func (a *QuizDatabaseAdapter) CreateQuiz(ctx context.Context, quiz *domain.Quiz) error {
	if quiz == nil {
		return fmt.Errorf("cannot save nil quiz")
	}
	exec := GetExecutor(ctx, a.db)

	if quiz.ID == "" {
		quiz.ID = util.NewULID()
	}
	now := time.Now()
	if quiz.CreatedAt.IsZero() {
		quiz.CreatedAt = now
	}
	if quiz.UpdatedAt.IsZero() {
		quiz.UpdatedAt = now
	}

	modelQuiz := toModelQuiz(quiz)
	quizQuery := `INSERT INTO quizzes (
		id, title, description, source_url, owner_id, created_at, updated_at
	) VALUES (
		:1, :2, :3, :4, :5, :6, :7
	)`
	if _, err := exec.ExecContext(ctx, quizQuery,
		modelQuiz.ID,
		modelQuiz.Title,
		modelQuiz.Description,
		modelQuiz.SourceURL,
		modelQuiz.OwnerID,
		modelQuiz.CreatedAt,
		modelQuiz.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to save quiz: %w", err)
	}

	questionQuery := `INSERT INTO questions (
		id, quiz_id, question_title, question_options, answer, position, created_at, updated_at
	) VALUES (
		:1, :2, :3, :4, :5, :6, :7, :8
	)`
	for i, q := range quiz.Questions {
		if q.ID == "" {
			q.ID = util.NewULID()
		}
		q.QuizID = quiz.ID
		if q.CreatedAt.IsZero() {
			q.CreatedAt = now
		}
		if q.UpdatedAt.IsZero() {
			q.UpdatedAt = now
		}
		modelQuestion := toModelQuestion(q)
		if _, err := exec.ExecContext(ctx, questionQuery,
			modelQuestion.ID,
			modelQuestion.QuizID,
			modelQuestion.QuestionTitle,
			modelQuestion.QuestionOptions,
			modelQuestion.Answer,
			modelQuestion.Position,
			modelQuestion.CreatedAt,
			modelQuestion.UpdatedAt,
		); err != nil {
			return fmt.Errorf("failed to save question %d of quiz %s: %w", i+1, quiz.ID, err)
		}
	}
	return nil
}

// GetQuizByID returns the quiz with its questions, or nil when it does not exist
func (a *QuizDatabaseAdapter) GetQuizByID(ctx context.Context, id string) (*domain.Quiz, error) {
	exec := GetExecutor(ctx, a.db)

	var modelQuiz models.Quiz
	query := `SELECT ` + quizColumns + `
	FROM quizzes
	WHERE id = :1`
	if err := exec.GetContext(ctx, &modelQuiz, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get quiz by ID %s: %w", id, err)
	}

	var modelQuestions []models.Question
	questionQuery := `SELECT ` + questionColumns + `
	FROM questions
	WHERE quiz_id = :1
	ORDER BY position ASC`
	if err := exec.SelectContext(ctx, &modelQuestions, questionQuery, id); err != nil {
		return nil, fmt.Errorf("failed to get questions for quiz %s: %w", id, err)
	}

	quiz := toDomainQuiz(&modelQuiz)
	quiz.Questions = toDomainQuestions(modelQuestions)
	return quiz, nil
}

// ListQuizzesByOwner returns the owner's quizzes newest first, each with its questions
func (a *QuizDatabaseAdapter) ListQuizzesByOwner(ctx context.Context, ownerID string) ([]*domain.Quiz, error) {
	exec := GetExecutor(ctx, a.db)

	var modelQuizzes []models.Quiz
	query := `SELECT ` + quizColumns + `
	FROM quizzes
	WHERE owner_id = :1
	ORDER BY created_at DESC`
	if err := exec.SelectContext(ctx, &modelQuizzes, query, ownerID); err != nil {
		return nil, fmt.Errorf("failed to list quizzes for owner %s: %w", ownerID, err)
	}
	if len(modelQuizzes) == 0 {
		return []*domain.Quiz{}, nil
	}

	// 퀴즈별 N+1 조회 대신 소유자의 모든 문항을 한 번에 가져온다
	var modelQuestions []models.Question
	questionQuery := `SELECT ` + questionColumns + `
	FROM questions
	WHERE quiz_id IN (SELECT id FROM quizzes WHERE owner_id = :1)
	ORDER BY quiz_id, position ASC`
	if err := exec.SelectContext(ctx, &modelQuestions, questionQuery, ownerID); err != nil {
		return nil, fmt.Errorf("failed to list questions for owner %s: %w", ownerID, err)
	}

	byQuiz := make(map[string][]models.Question)
	for _, q := range modelQuestions {
		byQuiz[q.QuizID] = append(byQuiz[q.QuizID], q)
	}

	quizzes := make([]*domain.Quiz, 0, len(modelQuizzes))
	for i := range modelQuizzes {
		quiz := toDomainQuiz(&modelQuizzes[i])
		quiz.Questions = toDomainQuestions(byQuiz[quiz.ID])
		quizzes = append(quizzes, quiz)
	}
	return quizzes, nil
}

// UpdateQuiz writes the owner-editable fields of the quiz
func (a *QuizDatabaseAdapter) UpdateQuiz(ctx context.Context, quiz *domain.Quiz) error {
	if quiz == nil {
		return fmt.Errorf("cannot update nil quiz")
	}
	exec := GetExecutor(ctx, a.db)

	query := `UPDATE quizzes
	SET title = :1, description = :2, updated_at = :3
	WHERE id = :4`
	args := []interface{}{
		util.StringToNullString(quiz.Title),
		util.StringToNullString(quiz.Description),
		quiz.UpdatedAt,
		quiz.ID,
	}
	if _, err := exec.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update quiz %s: %w", quiz.ID, err)
	}
	return nil
}

// DeleteQuiz removes the quiz; its questions go with it via ON DELETE CASCADE
func (a *QuizDatabaseAdapter) DeleteQuiz(ctx context.Context, id string) error {
	exec := GetExecutor(ctx, a.db)

	if _, err := exec.ExecContext(ctx, `DELETE FROM quizzes WHERE id = :1`, id); err != nil {
		return fmt.Errorf("failed to delete quiz %s: %w", id, err)
	}
	return nil
}

// Ping checks database connectivity
func (a *QuizDatabaseAdapter) Ping(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

func toModelQuiz(q *domain.Quiz) *models.Quiz {
	return &models.Quiz{
		ID:          q.ID,
		Title:       util.StringToNullString(q.Title),
		Description: util.StringToNullString(q.Description),
		SourceURL:   q.SourceURL,
		OwnerID:     q.OwnerID,
		CreatedAt:   q.CreatedAt,
		UpdatedAt:   q.UpdatedAt,
	}
}

func toDomainQuiz(m *models.Quiz) *domain.Quiz {
	return &domain.Quiz{
		ID:          m.ID,
		Title:       m.Title.String,
		Description: m.Description.String,
		SourceURL:   m.SourceURL,
		OwnerID:     m.OwnerID,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
		Questions:   []*domain.Question{},
	}
}

func toModelQuestion(q *domain.Question) *models.Question {
	return &models.Question{
		ID:              q.ID,
		QuizID:          q.QuizID,
		QuestionTitle:   q.QuestionTitle,
		QuestionOptions: models.StringSlice(q.QuestionOptions),
		Answer:          q.Answer,
		Position:        q.Position,
		CreatedAt:       q.CreatedAt,
		UpdatedAt:       q.UpdatedAt,
	}
}

func toDomainQuestions(ms []models.Question) []*domain.Question {
	questions := make([]*domain.Question, 0, len(ms))
	for _, m := range ms {
		questions = append(questions, &domain.Question{
			ID:              m.ID,
			QuizID:          m.QuizID,
			QuestionTitle:   m.QuestionTitle,
			QuestionOptions: []string(m.QuestionOptions),
			Answer:          m.Answer,
			Position:        m.Position,
			CreatedAt:       m.CreatedAt,
			UpdatedAt:       m.UpdatedAt,
		})
	}
	return questions
}
