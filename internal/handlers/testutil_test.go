package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/Kawdoor/aizer/internal/database"
	"github.com/Kawdoor/aizer/internal/hierarchy"
	"github.com/Kawdoor/aizer/internal/identity"
	"github.com/Kawdoor/aizer/internal/membership"
	"github.com/Kawdoor/aizer/internal/middleware"
	"github.com/Kawdoor/aizer/internal/relocation"
	"github.com/Kawdoor/aizer/internal/services"
	"github.com/Kawdoor/aizer/internal/store"
	"github.com/Kawdoor/aizer/pkg/logger"
	"github.com/Kawdoor/aizer/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"
)

type testEnv struct {
	app   *fiber.App
	db    *gorm.DB
	audit *services.AuditService
}

var testSetupOnce sync.Once

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	testSetupOnce.Do(func() {
		logger.SetOutput(io.Discard)
		utils.ConfigureJWT("test-secret", 15)
	})

	db, err := database.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("failed opening in-memory sqlite database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed getting sql.DB from gorm: %v", err)
	}

	s := store.NewGormStore(db)
	members := membership.NewManager(s)
	access := services.NewAccessService(members)
	audit := services.NewAuditService(db, nil, 100)
	provider := identity.NewLocalProvider(s, time.Hour, nil)
	stopWatch := audit.WatchSessions(provider.Events())

	t.Cleanup(func() {
		stopWatch()
		audit.Close()
		_ = sqlDB.Close()
	})

	authMiddleware := middleware.NewAuthMiddleware(provider)

	app := fiber.New()
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.RequestLogger())
	app.Use(middleware.SecurityLogger())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})

	Register(app.Group("/api"), authMiddleware.RequireAuth, Set{
		Auth:        NewAuthHandler(provider, audit),
		Groups:      NewGroupsHandler(members, access, audit),
		Invitations: NewInvitationsHandler(members, audit),
		Hierarchy: NewHierarchyHandler(
			relocation.NewEngine(s),
			hierarchy.NewAggregator(s),
			access,
			audit,
		),
	})

	return &testEnv{app: app, db: db, audit: audit}
}

type apiResponse struct {
	Status     int             `json:"-"`
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data"`
	Error      string          `json:"error"`
	Code       string          `json:"code"`
	Pagination map[string]any  `json:"pagination"`
}

func (r apiResponse) decode(t *testing.T, dest interface{}) {
	t.Helper()
	if err := json.Unmarshal(r.Data, dest); err != nil {
		t.Fatalf("failed decoding data: %v data=%s", err, string(r.Data))
	}
}

func (env *testEnv) do(t *testing.T, method, path, token string, body interface{}) apiResponse {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed encoding body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := env.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	out := apiResponse{Status: resp.StatusCode}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			t.Fatalf("failed decoding %s %s response: %v body=%q", method, path, err, string(raw))
		}
	}
	out.Status = resp.StatusCode
	return out
}

func (env *testEnv) expect(t *testing.T, method, path, token string, body interface{}, status int) apiResponse {
	t.Helper()
	resp := env.do(t, method, path, token, body)
	if resp.Status != status {
		t.Fatalf("%s %s: expected %d, got %d (error=%q code=%q)", method, path, status, resp.Status, resp.Error, resp.Code)
	}
	return resp
}

type testUser struct {
	ID           string
	Email        string
	Token        string
	RefreshToken string
}

func (env *testEnv) register(t *testing.T, email string) testUser {
	t.Helper()

	resp := env.expect(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":       email,
		"password":    "password123",
		"displayName": "User " + email,
	}, http.StatusCreated)

	var session struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
		User         struct {
			ID    string `json:"id"`
			Email string `json:"email"`
		} `json:"user"`
	}
	resp.decode(t, &session)
	return testUser{ID: session.User.ID, Email: session.User.Email, Token: session.AccessToken, RefreshToken: session.RefreshToken}
}

type entity struct {
	ID                string  `json:"id"`
	GroupID           string  `json:"groupID"`
	Name              string  `json:"name"`
	ParentID          *string `json:"parentID"`
	ParentSpaceID     *string `json:"parentSpaceID"`
	ParentInventoryID *string `json:"parentInventoryID"`
	InventoryID       *string `json:"inventoryID"`
	SpaceID           *string `json:"spaceID"`
	Quantity          int     `json:"quantity"`
}

func (env *testEnv) createGroup(t *testing.T, owner testUser, name string) string {
	t.Helper()
	resp := env.expect(t, http.MethodPost, "/api/groups", owner.Token, map[string]string{"name": name}, http.StatusCreated)
	var group entity
	resp.decode(t, &group)
	return group.ID
}

func (env *testEnv) create(t *testing.T, token, path string, body map[string]any) entity {
	t.Helper()
	resp := env.expect(t, http.MethodPost, path, token, body, http.StatusCreated)
	var e entity
	resp.decode(t, &e)
	return e
}

// join invites user into groupID as role and accepts on their behalf.
func (env *testEnv) join(t *testing.T, owner testUser, groupID string, user testUser, role string) {
	t.Helper()
	env.expect(t, http.MethodPost, "/api/groups/"+groupID+"/members", owner.Token, map[string]string{
		"email": user.Email,
		"role":  role,
	}, http.StatusCreated)
	env.expect(t, http.MethodPost, "/api/invitations/"+groupID+"/accept", user.Token, nil, http.StatusOK)
}
