package middleware_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"video-quiz/internal/domain"
	"video-quiz/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name            string
		err             error
		expectedStatus  int
		expectedCode    string
		expectedMessage string
	}{
		{"invalid input", domain.NewInvalidInputError("url is required"), 400, "INVALID_INPUT", "url is required"},
		{"unauthorized", domain.NewUnauthorizedError("no token"), 401, "UNAUTHORIZED", "no token"},
		{"forbidden", domain.NewForbiddenError("not yours"), 403, "FORBIDDEN", "not yours"},
		{"quiz not found", domain.NewQuizNotFoundError("q1"), 404, "QUIZ_NOT_FOUND", "Quiz not found with ID: q1"},
		{"transcription empty", domain.NewTranscriptionEmptyError("nothing said"), 422, "TRANSCRIPTION_EMPTY", "nothing said"},
		{"generation failed", domain.NewGenerationError("question 2 is incomplete", nil), 422, "GENERATION_FAILED", "question 2 is incomplete"},
		{"download failed wrapped", fmt.Errorf("pipeline: %w", domain.NewDownloadError("video unavailable", errors.New("exit 1"))), 502, "DOWNLOAD_FAILED", "video unavailable"},
		{"internal hides message", domain.NewInternalError("db password wrong", errors.New("ORA-01017")), 500, "INTERNAL_ERROR", "Internal server error"},
		{"fiber error", fiber.NewError(fiber.StatusMethodNotAllowed, "nope"), 405, "HTTP_ERROR", "nope"},
		{"plain error", errors.New("boom"), 500, "INTERNAL_ERROR", "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler()})
			app.Get("/", func(c *fiber.Ctx) error { return tt.err })

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil), -1)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			var body middleware.ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.expectedCode, body.Code)
			assert.Equal(t, tt.expectedMessage, body.Message)
			assert.Equal(t, tt.expectedStatus, body.Status)
		})
	}
}

func TestStatusForCode_NotFound(t *testing.T) {
	assert.Equal(t, 404, middleware.StatusForCode(domain.ErrNotFound))
	assert.Equal(t, 500, middleware.StatusForCode(domain.ErrorCode("SOMETHING_ELSE")))
}
