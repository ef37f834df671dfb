// Package clitest runs the real API over an in-memory SQLite database for
// CLI tests.
package clitest

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Kawdoor/aizer/internal/database"
	"github.com/Kawdoor/aizer/internal/handlers"
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
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// NewServer starts an httptest server backed by the full handler set. It is
// closed when the test ends.
func NewServer(t testing.TB) *httptest.Server {
	t.Helper()

	logger.SetOutput(io.Discard)
	utils.ConfigureJWT("clitest-secret", 15)

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

	app := fiber.New()
	app.Use(recover.New())
	app.Use(middleware.RequestLogger())

	handlers.Register(app.Group("/api"), middleware.NewAuthMiddleware(provider).RequireAuth, handlers.Set{
		Auth:        handlers.NewAuthHandler(provider, audit),
		Groups:      handlers.NewGroupsHandler(members, access, audit),
		Invitations: handlers.NewInvitationsHandler(members, audit),
		Hierarchy: handlers.NewHierarchyHandler(
			relocation.NewEngine(s),
			hierarchy.NewAggregator(s),
			access,
			audit,
		),
	})

	server := httptest.NewServer(adaptor.FiberApp(app))
	t.Cleanup(func() {
		server.Close()
		stopWatch()
		audit.Close()
		_ = sqlDB.Close()
	})
	return server
}
