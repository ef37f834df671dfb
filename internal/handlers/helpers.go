package handlers

import (
	"strings"

	"github.com/Kawdoor/aizer/internal/middleware"
	"github.com/Kawdoor/aizer/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func parseUUID(value string) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSpace(value))
}

// parseOptionalUUID treats nil and blank strings as absent.
func parseOptionalUUID(value *string) (*uuid.UUID, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, nil
	}
	id, err := parseUUID(*value)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func getRequestID(c *fiber.Ctx) string {
	return middleware.GetRequestID(c)
}

// record queues an audit entry for the current request. A nil audit service
// records nothing.
func record(c *fiber.Ctx, audit *services.AuditService, entry services.AuditEntry) {
	if audit == nil {
		return
	}
	if user := middleware.GetCurrentUser(c); user != nil && entry.UserID == nil {
		entry.UserID = &user.ID
	}
	entry.IPAddress = c.IP()
	entry.RequestID = getRequestID(c)
	audit.LogAsync(entry)
}
