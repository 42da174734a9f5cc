package middleware

import (
	"strings"

	"video-quiz/internal/domain"
	"video-quiz/internal/logger"
	"video-quiz/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	AuthorizationHeader = "Authorization"
	BearerSchema        = "Bearer "
	AccessTokenCookie   = "access_token"
	UserIDKey           = "userID" // Key for storing UserID in fiber.Ctx locals
)

// Protected requires a valid access token, taken from the Authorization
// header or, for browser clients, from the access_token cookie. The caller's
// user ID is stored in c.Locals(UserIDKey).
func Protected(authService service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString, err := extractToken(c)
		if err != nil {
			return err
		}

		claims, err := authService.ValidateJWT(c.Context(), tokenString)
		if err != nil {
			logger.Get().Debug("JWT validation failed", zap.Error(err))
			return domain.NewUnauthorizedError("invalid or expired token")
		}

		if claims.TokenType != service.TokenTypeAccess {
			return domain.NewUnauthorizedError("invalid token type: expected access, got " + claims.TokenType)
		}

		c.Locals(UserIDKey, claims.UserID)
		return c.Next()
	}
}

func extractToken(c *fiber.Ctx) (string, error) {
	if authHeader := c.Get(AuthorizationHeader); authHeader != "" {
		if !strings.HasPrefix(authHeader, BearerSchema) {
			return "", domain.NewUnauthorizedError("authorization scheme is not Bearer")
		}
		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, BearerSchema))
		if tokenString == "" {
			return "", domain.NewUnauthorizedError("token is empty")
		}
		return tokenString, nil
	}
	if cookie := c.Cookies(AccessTokenCookie); cookie != "" {
		return cookie, nil
	}
	return "", domain.NewUnauthorizedError("authentication credentials were not provided")
}

// UserID returns the authenticated user's ID, or "" for anonymous requests
func UserID(c *fiber.Ctx) string {
	userID, _ := c.Locals(UserIDKey).(string)
	return userID
}
