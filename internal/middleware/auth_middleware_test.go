package middleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"video-quiz/internal/dto"
	"video-quiz/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Manual MockAuthService for testing middleware.Protected
type ManualMockAuthService struct {
	ValidateJWTFunc func(ctx context.Context, tokenString string) (*dto.AuthClaims, error)
}

func (m *ManualMockAuthService) ValidateJWT(ctx context.Context, tokenString string) (*dto.AuthClaims, error) {
	if m.ValidateJWTFunc != nil {
		return m.ValidateJWTFunc(ctx, tokenString)
	}
	return nil, errors.New("ValidateJWTFunc not set on mock")
}

func (m *ManualMockAuthService) CreateJWT(ctx context.Context, userID string, ttl time.Duration, tokenType string) (string, error) {
	panic("not implemented in mock")
}

func claimsFor(userID, tokenType string) *dto.AuthClaims {
	return &dto.AuthClaims{
		UserID:           userID,
		TokenType:        tokenType,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}
}

func TestProtected(t *testing.T) {
	tests := []struct {
		name           string
		authHeader     string
		cookie         string
		setupMock      func(t *testing.T, mockSvc *ManualMockAuthService)
		expectedStatus int
		expectedUserID string
		expectedCode   string
	}{
		{
			name:           "No credentials",
			setupMock:      func(t *testing.T, mockSvc *ManualMockAuthService) {},
			expectedStatus: fiber.StatusUnauthorized,
			expectedCode:   "UNAUTHORIZED",
		},
		{
			name:           "Non-Bearer scheme",
			authHeader:     "Basic dXNlcjpwYXNz",
			setupMock:      func(t *testing.T, mockSvc *ManualMockAuthService) {},
			expectedStatus: fiber.StatusUnauthorized,
			expectedCode:   "UNAUTHORIZED",
		},
		{
			name:       "Valid access token in header",
			authHeader: "Bearer valid_access_token",
			setupMock: func(t *testing.T, mockSvc *ManualMockAuthService) {
				mockSvc.ValidateJWTFunc = func(ctx context.Context, tokenString string) (*dto.AuthClaims, error) {
					assert.Equal(t, "valid_access_token", tokenString)
					return claimsFor("user123", "access"), nil
				}
			},
			expectedStatus: fiber.StatusOK,
			expectedUserID: "user123",
		},
		{
			name:   "Valid access token in cookie",
			cookie: "cookie_token",
			setupMock: func(t *testing.T, mockSvc *ManualMockAuthService) {
				mockSvc.ValidateJWTFunc = func(ctx context.Context, tokenString string) (*dto.AuthClaims, error) {
					assert.Equal(t, "cookie_token", tokenString)
					return claimsFor("user456", "access"), nil
				}
			},
			expectedStatus: fiber.StatusOK,
			expectedUserID: "user456",
		},
		{
			name:       "Refresh token rejected",
			authHeader: "Bearer refresh_token",
			setupMock: func(t *testing.T, mockSvc *ManualMockAuthService) {
				mockSvc.ValidateJWTFunc = func(ctx context.Context, tokenString string) (*dto.AuthClaims, error) {
					return claimsFor("user123", "refresh"), nil
				}
			},
			expectedStatus: fiber.StatusUnauthorized,
			expectedCode:   "UNAUTHORIZED",
		},
		{
			name:       "Invalid token",
			authHeader: "Bearer invalid_token",
			setupMock: func(t *testing.T, mockSvc *ManualMockAuthService) {
				mockSvc.ValidateJWTFunc = func(ctx context.Context, tokenString string) (*dto.AuthClaims, error) {
					return nil, errors.New("token is expired")
				}
			},
			expectedStatus: fiber.StatusUnauthorized,
			expectedCode:   "UNAUTHORIZED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockAuthSvc := &ManualMockAuthService{}
			tt.setupMock(t, mockAuthSvc)

			app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler()})
			app.Get("/protected", middleware.Protected(mockAuthSvc), func(c *fiber.Ctx) error {
				return c.SendString(middleware.UserID(c))
			})

			req := httptest.NewRequest("GET", "/protected", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			if tt.cookie != "" {
				req.Header.Set("Cookie", middleware.AccessTokenCookie+"="+tt.cookie)
			}

			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)

			if tt.expectedStatus == fiber.StatusOK {
				assert.Equal(t, tt.expectedUserID, string(body))
				return
			}
			var errResp middleware.ErrorResponse
			require.NoError(t, json.Unmarshal(body, &errResp))
			assert.Equal(t, tt.expectedCode, errResp.Code)
			assert.Equal(t, tt.expectedStatus, errResp.Status)
		})
	}
}
