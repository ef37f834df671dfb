package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Kawdoor/aizer/internal/config"
	"github.com/Kawdoor/aizer/internal/database"
	"github.com/Kawdoor/aizer/internal/handlers"
	"github.com/Kawdoor/aizer/internal/hierarchy"
	"github.com/Kawdoor/aizer/internal/identity"
	"github.com/Kawdoor/aizer/internal/membership"
	"github.com/Kawdoor/aizer/internal/metrics"
	"github.com/Kawdoor/aizer/internal/middleware"
	"github.com/Kawdoor/aizer/internal/relocation"
	"github.com/Kawdoor/aizer/internal/services"
	"github.com/Kawdoor/aizer/internal/storage"
	"github.com/Kawdoor/aizer/internal/store"
	"github.com/Kawdoor/aizer/pkg/logger"
	"github.com/Kawdoor/aizer/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	logger.Init()

	cfg := config.Load()
	utils.ConfigureJWT(cfg.JWT.Secret, cfg.JWT.ExpirationMinutes)

	db, err := database.Connect(cfg.DB)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Audit export is optional; without MinIO rows stay in the database only.
	var archive services.Archive
	if cfg.MinIO.Enabled {
		storageClient, err := storage.NewMinIOClient(cfg.MinIO)
		if err != nil {
			log.Fatalf("minio initialization failed: %v", err)
		}
		if err := storageClient.EnsureBucket(ctx); err != nil {
			log.Fatalf("failed ensuring minio bucket: %v", err)
		}
		archive = storageClient
	}

	directory := identity.NewLDAPAuthenticator(cfg.LDAP)
	if ldapAuth, ok := directory.(*identity.LDAPAuthenticator); ok {
		if err := ldapAuth.TestConnection(ctx); err != nil {
			logger.Warn("ldap_connection_test_failed", map[string]interface{}{
				"url":   cfg.LDAP.URL,
				"error": err.Error(),
			})
		}
	}

	s := store.NewGormStore(db)
	provider := identity.NewLocalProvider(s, cfg.JWT.RefreshTTL, directory)
	members := membership.NewManager(s)
	accessService := services.NewAccessService(members)

	auditService := services.NewAuditService(db, archive, cfg.Audit.QueueSize)
	stopWatching := auditService.WatchSessions(provider.Events())
	auditService.StartExporter(ctx, cfg.Audit.ExportInterval)

	authMiddleware := middleware.NewAuthMiddleware(provider)

	app := fiber.New(fiber.Config{BodyLimit: cfg.Server.BodyLimit})
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.CORS(cfg.Server.CORSOrigins))
	app.Use(metrics.Middleware())
	app.Use(middleware.RequestLogger())
	app.Use(middleware.SecurityLogger())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", metrics.Handler())

	handlers.Register(app.Group("/api"), authMiddleware.RequireAuth, handlers.Set{
		Auth:        handlers.NewAuthHandler(provider, auditService),
		Groups:      handlers.NewGroupsHandler(members, accessService, auditService),
		Invitations: handlers.NewInvitationsHandler(members, auditService),
		Hierarchy: handlers.NewHierarchyHandler(
			relocation.NewEngine(s),
			hierarchy.NewAggregator(s),
			accessService,
			auditService,
		),
	})

	listenAddr := fmt.Sprintf(":%s", cfg.Server.Port)
	logger.Info("server_starting", map[string]interface{}{
		"port":         cfg.Server.Port,
		"address":      listenAddr,
		"db_driver":    cfg.DB.Driver,
		"ldap_enabled": directory != nil,
		"audit_export": archive != nil,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(listenAddr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Printf("shutting down server due to signal: %s", sig)
		shutdownDone := make(chan struct{})
		go func() {
			_ = app.Shutdown()
			close(shutdownDone)
		}()

		select {
		case <-shutdownDone:
		case <-time.After(10 * time.Second):
			log.Print("forced shutdown timeout reached")
		}
	case err := <-errCh:
		if err != nil {
			log.Fatalf("server error: %v", err)
		}
	}

	cancel()
	stopWatching()
	auditService.Close()
}
