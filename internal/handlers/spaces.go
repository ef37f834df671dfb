package handlers

import (
	"github.com/Kawdoor/aizer/internal/relocation"
	"github.com/Kawdoor/aizer/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type createSpaceRequest struct {
	GroupID     string  `json:"groupID"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	ParentID    *string `json:"parentID"`
}

func (h *HierarchyHandler) CreateSpace(c *fiber.Ctx) error {
	var req createSpaceRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	groupID, err := parseUUID(req.GroupID)
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid group id")
	}
	parentID, err := parseOptionalUUID(req.ParentID)
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid parent id")
	}
	if ok, err := h.authorize(c, groupID); !ok {
		return err
	}

	space, err := h.Engine.CreateSpace(c.UserContext(), groupID, relocation.SpaceInput{
		Name:        req.Name,
		Description: req.Description,
		ParentID:    parentID,
	})
	if err != nil {
		return utils.Fail(c, err)
	}

	h.audit(c, groupID, "space.create", "space", space.ID, map[string]interface{}{"name": space.Name})
	return utils.Success(c, fiber.StatusCreated, space)
}

type updateDetailsRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (h *HierarchyHandler) UpdateSpace(c *fiber.Ctx) error {
	var req updateDetailsRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	current, ok, err := h.loadSpace(c)
	if !ok {
		return err
	}

	space, err := h.Engine.UpdateSpace(c.UserContext(), current.ID, relocation.DetailsEdit{Name: req.Name, Description: req.Description})
	if err != nil {
		return utils.Fail(c, err)
	}

	h.audit(c, space.GroupID, "space.update", "space", space.ID, nil)
	return utils.Success(c, fiber.StatusOK, space)
}

func (h *HierarchyHandler) DeleteSpace(c *fiber.Ctx) error {
	current, ok, err := h.loadSpace(c)
	if !ok {
		return err
	}

	if err := h.Engine.DeleteSpace(c.UserContext(), current.ID); err != nil {
		return utils.Fail(c, err)
	}

	h.audit(c, current.GroupID, "space.delete", "space", current.ID, map[string]interface{}{"name": current.Name})
	return utils.Success(c, fiber.StatusOK, fiber.Map{"deleted": true})
}

type spaceParentRequest struct {
	ParentID *string `json:"parentID"`
}

func (h *HierarchyHandler) SetSpaceParent(c *fiber.Ctx) error {
	var req spaceParentRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	parentID, err := parseOptionalUUID(req.ParentID)
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid parent id")
	}
	current, ok, err := h.loadSpace(c)
	if !ok {
		return err
	}

	space, err := h.Engine.SetSpaceParent(c.UserContext(), current.ID, parentID)
	if err != nil {
		return utils.Fail(c, err)
	}

	details := map[string]interface{}{"parent_id": nil}
	if parentID != nil {
		details["parent_id"] = parentID.String()
	}
	h.audit(c, space.GroupID, "space.move", "space", space.ID, details)
	return utils.Success(c, fiber.StatusOK, space)
}

// SpaceInventories lists the inventories placed directly in a space.
func (h *HierarchyHandler) SpaceInventories(c *fiber.Ctx) error {
	current, ok, err := h.loadSpace(c)
	if !ok {
		return err
	}

	snap, err := h.snapshot(c, current.GroupID)
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, snap.ChildInventories(current.ID))
}

// SpaceItems lists items placed directly in a space.
func (h *HierarchyHandler) SpaceItems(c *fiber.Ctx) error {
	current, ok, err := h.loadSpace(c)
	if !ok {
		return err
	}

	snap, err := h.snapshot(c, current.GroupID)
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, snap.ItemsInSpace(current.ID))
}

// SpaceChildren lists the spaces nested directly under a space.
func (h *HierarchyHandler) SpaceChildren(c *fiber.Ctx) error {
	current, ok, err := h.loadSpace(c)
	if !ok {
		return err
	}

	snap, err := h.snapshot(c, current.GroupID)
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, snap.ChildSpaces(current.ID))
}
