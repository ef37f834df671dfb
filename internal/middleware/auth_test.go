package middleware

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Kawdoor/aizer/internal/database"
	"github.com/Kawdoor/aizer/internal/identity"
	"github.com/Kawdoor/aizer/internal/store"
	"github.com/Kawdoor/aizer/pkg/logger"
	"github.com/Kawdoor/aizer/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const middlewareSecret = "middleware-test-secret"

func setupMiddleware(t *testing.T) (*identity.LocalProvider, *identity.Session) {
	t.Helper()
	logger.SetOutput(io.Discard)
	utils.ConfigureJWT(middlewareSecret, 15)

	db, err := database.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("failed opening in-memory sqlite: %v", err)
	}
	provider := identity.NewLocalProvider(store.NewGormStore(db), time.Hour, nil)

	session, err := provider.SignUp(context.Background(), identity.Registration{
		Email:       "middleware@example.com",
		Password:    "password123",
		DisplayName: "Middleware",
	})
	if err != nil {
		t.Fatalf("sign up failed: %v", err)
	}
	return provider, session
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("failed decoding body: %v body=%q", err, string(raw))
	}
	return body
}

func signedToken(t *testing.T, userID uuid.UUID, expiresAt time.Time) string {
	t.Helper()
	claims := utils.Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(expiresAt.Add(-time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(middlewareSecret))
	if err != nil {
		t.Fatalf("failed signing token: %v", err)
	}
	return signed
}

func TestRequireAuth(t *testing.T) {
	provider, session := setupMiddleware(t)
	auth := NewAuthMiddleware(provider)

	app := fiber.New()
	app.Use(RequestLogger())
	app.Get("/me", auth.RequireAuth, func(c *fiber.Ctx) error {
		user := GetCurrentUser(c)
		if user == nil {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return utils.Success(c, fiber.StatusOK, fiber.Map{
			"email":     user.Email,
			"requestID": GetRequestID(c),
			"userID":    c.Locals(userIDKey),
		})
	})

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"valid token", "Bearer " + session.AccessToken, fiber.StatusOK},
		{"missing header", "", fiber.StatusUnauthorized},
		{"wrong scheme", "Token " + session.AccessToken, fiber.StatusUnauthorized},
		{"empty bearer", "Bearer ", fiber.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", fiber.StatusUnauthorized},
		{"expired token", "Bearer " + signedToken(t, session.User.ID, time.Now().Add(-time.Minute)), fiber.StatusUnauthorized},
		{"unknown user", "Bearer " + signedToken(t, uuid.New(), time.Now().Add(time.Hour)), fiber.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, resp.StatusCode)
			}

			body := decodeBody(t, resp)
			if tt.wantStatus != fiber.StatusOK {
				if body["code"] != "auth_expired" {
					t.Fatalf("expected auth_expired code, got %v", body["code"])
				}
				return
			}

			data := body["data"].(map[string]any)
			if data["email"] != "middleware@example.com" {
				t.Errorf("unexpected email %v", data["email"])
			}
			if data["userID"] != session.User.ID.String() {
				t.Errorf("expected userID local %s, got %v", session.User.ID, data["userID"])
			}
			if data["requestID"] == "" || resp.Header.Get("X-Request-ID") != data["requestID"] {
				t.Errorf("expected request id to be echoed, got %v / %q", data["requestID"], resp.Header.Get("X-Request-ID"))
			}
		})
	}
}

func TestGetCurrentUserWithoutAuth(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		if GetCurrentUser(c) != nil {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		if GetRequestID(c) != "" {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
}
