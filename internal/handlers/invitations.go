package handlers

import (
	"github.com/Kawdoor/aizer/internal/membership"
	"github.com/Kawdoor/aizer/internal/middleware"
	"github.com/Kawdoor/aizer/internal/services"
	"github.com/Kawdoor/aizer/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type InvitationsHandler struct {
	Members *membership.Manager
	Audit   *services.AuditService
}

func NewInvitationsHandler(members *membership.Manager, audit *services.AuditService) *InvitationsHandler {
	return &InvitationsHandler{Members: members, Audit: audit}
}

func (h *InvitationsHandler) List(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	invitations, err := h.Members.PendingInvitations(c.UserContext(), currentUser.ID)
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, invitations)
}

func (h *InvitationsHandler) Accept(c *fiber.Ctx) error {
	return h.answer(c, true)
}

func (h *InvitationsHandler) Reject(c *fiber.Ctx) error {
	return h.answer(c, false)
}

func (h *InvitationsHandler) answer(c *fiber.Ctx, accept bool) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	groupID, err := parseUUID(c.Params("groupId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid group id")
	}

	action := "invitation.accept"
	if accept {
		err = h.Members.AcceptInvitation(c.UserContext(), currentUser.ID, groupID)
	} else {
		action = "invitation.reject"
		err = h.Members.RejectInvitation(c.UserContext(), currentUser.ID, groupID)
	}
	if err != nil {
		return utils.Fail(c, err)
	}

	record(c, h.Audit, services.AuditEntry{
		GroupID:      &groupID,
		Action:       action,
		ResourceType: "membership",
		ResourceID:   &currentUser.ID,
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{"accepted": accept})
}
