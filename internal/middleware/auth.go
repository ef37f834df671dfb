package middleware

import (
	"strings"

	"github.com/Kawdoor/aizer/internal/failure"
	"github.com/Kawdoor/aizer/internal/identity"
	"github.com/Kawdoor/aizer/internal/models"
	"github.com/Kawdoor/aizer/pkg/logger"
	"github.com/Kawdoor/aizer/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

const (
	currentUserKey = "currentUser"
	userIDKey      = "userID"
	requestIDKey   = "requestID"
)

type AuthMiddleware struct {
	Identity identity.Provider
}

func NewAuthMiddleware(provider identity.Provider) *AuthMiddleware {
	return &AuthMiddleware{Identity: provider}
}

func CORS(origins string) fiber.Handler {
	if origins == "" {
		origins = "http://localhost:3000,http://127.0.0.1:3000"
	}
	return cors.New(cors.Config{
		AllowOrigins: origins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
	})
}

func bearerToken(c *fiber.Ctx) (string, bool) {
	authHeader := c.Get("Authorization")
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
	if authHeader == "" || token == authHeader || token == "" {
		return "", false
	}
	return token, true
}

// RequireAuth resolves the bearer access token to a user. Every rejection is
// reported as auth_expired so clients know to refresh or sign in again.
func (a *AuthMiddleware) RequireAuth(c *fiber.Ctx) error {
	token, ok := bearerToken(c)
	if !ok {
		logger.Warn("jwt_missing_header", map[string]interface{}{
			"ip":   c.IP(),
			"path": c.Path(),
		})
		return utils.Fail(c, failure.New(failure.KindAuthExpired, "authenticate", "missing authorization header"))
	}

	user, err := a.Identity.CurrentUser(c.UserContext(), token)
	if err != nil {
		logger.Warn("jwt_validation_failed", map[string]interface{}{
			"ip":    c.IP(),
			"path":  c.Path(),
			"error": err.Error(),
		})
		if failure.KindOf(err) != failure.KindTransient {
			err = failure.ErrSessionExpired
		}
		return utils.Fail(c, err)
	}

	c.Locals(currentUserKey, user)
	c.Locals(userIDKey, user.ID.String())
	return c.Next()
}

func GetCurrentUser(c *fiber.Ctx) *models.User {
	value := c.Locals(currentUserKey)
	if value == nil {
		return nil
	}
	user, ok := value.(*models.User)
	if !ok {
		return nil
	}
	return user
}

// GetRequestID returns the id RequestLogger assigned, or "".
func GetRequestID(c *fiber.Ctx) string {
	if id, ok := c.Locals(requestIDKey).(string); ok {
		return id
	}
	return ""
}
