package handlers

import (
	"strings"

	"github.com/Kawdoor/aizer/internal/membership"
	"github.com/Kawdoor/aizer/internal/middleware"
	"github.com/Kawdoor/aizer/internal/models"
	"github.com/Kawdoor/aizer/internal/services"
	"github.com/Kawdoor/aizer/pkg/logger"
	"github.com/Kawdoor/aizer/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type GroupsHandler struct {
	Members *membership.Manager
	Access  *services.AccessService
	Audit   *services.AuditService
}

func NewGroupsHandler(members *membership.Manager, access *services.AccessService, audit *services.AuditService) *GroupsHandler {
	return &GroupsHandler{Members: members, Access: access, Audit: audit}
}

type createGroupRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

func (h *GroupsHandler) Create(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req createGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	group, err := h.Members.CreateGroup(c.UserContext(), currentUser.ID, req.Name, req.Description)
	if err != nil {
		return utils.Fail(c, err)
	}

	logger.InfoWithUser(currentUser.ID.String(), "group_created", map[string]interface{}{
		"group_id":   group.ID.String(),
		"group_name": group.Name,
	})
	record(c, h.Audit, services.AuditEntry{
		GroupID:      &group.ID,
		Action:       "group.create",
		ResourceType: "group",
		ResourceID:   &group.ID,
		Details:      map[string]interface{}{"name": group.Name},
	})

	return utils.Success(c, fiber.StatusCreated, group)
}

func (h *GroupsHandler) List(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	groups, err := h.Members.ListGroups(c.UserContext(), currentUser.ID)
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, groups)
}

type groupResponse struct {
	*models.Group
	Role models.GroupMembershipRole `json:"role"`
}

func (h *GroupsHandler) Get(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	groupID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid group id")
	}

	role, err := h.Access.Require(c.UserContext(), currentUser.ID, groupID, models.GroupRoleMember)
	if err != nil {
		return utils.Fail(c, err)
	}
	group, err := h.Members.Group(c.UserContext(), groupID)
	if err != nil {
		return utils.Fail(c, err)
	}

	return utils.Success(c, fiber.StatusOK, groupResponse{Group: group, Role: role})
}

type updateGroupRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (h *GroupsHandler) Update(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	groupID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid group id")
	}

	var req updateGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	group, err := h.Members.UpdateGroup(c.UserContext(), currentUser.ID, groupID, membership.GroupEdit{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return utils.Fail(c, err)
	}

	record(c, h.Audit, services.AuditEntry{
		GroupID:      &group.ID,
		Action:       "group.update",
		ResourceType: "group",
		ResourceID:   &group.ID,
	})

	return utils.Success(c, fiber.StatusOK, group)
}

func (h *GroupsHandler) Delete(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	groupID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid group id")
	}

	if err := h.Members.DeleteGroup(c.UserContext(), currentUser.ID, groupID); err != nil {
		return utils.Fail(c, err)
	}

	logger.InfoWithUser(currentUser.ID.String(), "group_deleted", map[string]interface{}{
		"group_id": groupID.String(),
	})
	record(c, h.Audit, services.AuditEntry{
		GroupID:      &groupID,
		Action:       "group.delete",
		ResourceType: "group",
		ResourceID:   &groupID,
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{"deleted": true})
}

func (h *GroupsHandler) ListMembers(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	groupID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid group id")
	}
	if _, err := h.Access.Require(c.UserContext(), currentUser.ID, groupID, models.GroupRoleMember); err != nil {
		return utils.Fail(c, err)
	}

	members, err := h.Members.FetchGroupMembers(c.UserContext(), groupID)
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, members)
}

type inviteRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (h *GroupsHandler) Invite(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	groupID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid group id")
	}

	var req inviteRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	role := models.GroupMembershipRole(strings.ToLower(strings.TrimSpace(req.Role)))
	if role == "" {
		role = models.GroupRoleMember
	}

	row, err := h.Members.Invite(c.UserContext(), currentUser.ID, groupID, req.Email, role)
	if err != nil {
		return utils.Fail(c, err)
	}

	logger.InfoWithUser(currentUser.ID.String(), "group_member_invited", map[string]interface{}{
		"group_id": groupID.String(),
		"user_id":  row.UserID.String(),
		"role":     string(row.Role),
	})
	record(c, h.Audit, services.AuditEntry{
		GroupID:      &groupID,
		Action:       "member.invite",
		ResourceType: "membership",
		ResourceID:   &row.ID,
		Details: map[string]interface{}{
			"user_id": row.UserID.String(),
			"role":    string(row.Role),
		},
	})

	return utils.Success(c, fiber.StatusCreated, row)
}

type updateMemberRoleRequest struct {
	Role string `json:"role"`
}

func (h *GroupsHandler) UpdateMemberRole(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	groupID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid group id")
	}
	userID, err := parseUUID(c.Params("userId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid user id")
	}

	var req updateMemberRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	row, err := h.Members.UpdateRole(c.UserContext(), currentUser.ID, groupID, userID, models.GroupMembershipRole(strings.ToLower(strings.TrimSpace(req.Role))))
	if err != nil {
		return utils.Fail(c, err)
	}

	record(c, h.Audit, services.AuditEntry{
		GroupID:      &groupID,
		Action:       "member.update_role",
		ResourceType: "membership",
		ResourceID:   &row.ID,
		Details: map[string]interface{}{
			"user_id": userID.String(),
			"role":    string(row.Role),
		},
	})

	return utils.Success(c, fiber.StatusOK, row)
}

func (h *GroupsHandler) RemoveMember(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	groupID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid group id")
	}
	userID, err := parseUUID(c.Params("userId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid user id")
	}

	if err := h.Members.RemoveMember(c.UserContext(), currentUser.ID, groupID, userID); err != nil {
		return utils.Fail(c, err)
	}

	action := "member.remove"
	if userID == currentUser.ID {
		action = "member.leave"
	}
	record(c, h.Audit, services.AuditEntry{
		GroupID:      &groupID,
		Action:       action,
		ResourceType: "membership",
		ResourceID:   &userID,
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{"removed": true})
}

// Activity pages through the group's audit trail. Admins and the owner only.
func (h *GroupsHandler) Activity(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	groupID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid group id")
	}
	if _, err := h.Access.Require(c.UserContext(), currentUser.ID, groupID, models.GroupRoleAdmin); err != nil {
		return utils.Fail(c, err)
	}

	p := utils.ParsePagination(c)
	logs, total, err := h.Audit.GroupActivity(c.UserContext(), groupID, p)
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Paginated(c, logs, p.Page, p.Limit, total)
}
