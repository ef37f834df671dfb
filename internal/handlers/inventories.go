package handlers

import (
	"strings"

	"github.com/Kawdoor/aizer/internal/relocation"
	"github.com/Kawdoor/aizer/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type createInventoryRequest struct {
	GroupID           string  `json:"groupID"`
	Name              string  `json:"name"`
	Description       *string `json:"description"`
	ParentSpaceID     *string `json:"parentSpaceID"`
	ParentInventoryID *string `json:"parentInventoryID"`
}

func (h *HierarchyHandler) CreateInventory(c *fiber.Ctx) error {
	var req createInventoryRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	groupID, err := parseUUID(req.GroupID)
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid group id")
	}
	spaceID, err := parseOptionalUUID(req.ParentSpaceID)
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid parent space id")
	}
	inventoryID, err := parseOptionalUUID(req.ParentInventoryID)
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid parent inventory id")
	}
	if ok, err := h.authorize(c, groupID); !ok {
		return err
	}

	inv, err := h.Engine.CreateInventory(c.UserContext(), groupID, relocation.InventoryInput{
		Name:              req.Name,
		Description:       req.Description,
		ParentSpaceID:     spaceID,
		ParentInventoryID: inventoryID,
	})
	if err != nil {
		return utils.Fail(c, err)
	}

	h.audit(c, groupID, "inventory.create", "inventory", inv.ID, map[string]interface{}{"name": inv.Name})
	return utils.Success(c, fiber.StatusCreated, inv)
}

func (h *HierarchyHandler) UpdateInventory(c *fiber.Ctx) error {
	var req updateDetailsRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	current, ok, err := h.loadInventory(c)
	if !ok {
		return err
	}

	inv, err := h.Engine.UpdateInventory(c.UserContext(), current.ID, relocation.DetailsEdit{Name: req.Name, Description: req.Description})
	if err != nil {
		return utils.Fail(c, err)
	}

	h.audit(c, inv.GroupID, "inventory.update", "inventory", inv.ID, nil)
	return utils.Success(c, fiber.StatusOK, inv)
}

func (h *HierarchyHandler) DeleteInventory(c *fiber.Ctx) error {
	current, ok, err := h.loadInventory(c)
	if !ok {
		return err
	}

	if err := h.Engine.DeleteInventory(c.UserContext(), current.ID); err != nil {
		return utils.Fail(c, err)
	}

	h.audit(c, current.GroupID, "inventory.delete", "inventory", current.ID, map[string]interface{}{"name": current.Name})
	return utils.Success(c, fiber.StatusOK, fiber.Map{"deleted": true})
}

type inventoryParentRequest struct {
	Kind string  `json:"kind"`
	ID   *string `json:"id"`
}

func (r inventoryParentRequest) parent() (relocation.Parent, bool) {
	id, err := parseOptionalUUID(r.ID)
	if err != nil {
		return relocation.Parent{}, false
	}
	kind := relocation.ParentKind(strings.ToLower(strings.TrimSpace(r.Kind)))
	if kind == "" {
		kind = relocation.ParentNone
	}
	parent := relocation.Parent{Kind: kind}
	if id != nil {
		parent.ID = *id
	}
	return parent, true
}

func (h *HierarchyHandler) SetInventoryParent(c *fiber.Ctx) error {
	var req inventoryParentRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	parent, valid := req.parent()
	if !valid {
		return utils.Error(c, fiber.StatusBadRequest, "invalid parent id")
	}
	current, ok, err := h.loadInventory(c)
	if !ok {
		return err
	}

	inv, err := h.Engine.SetInventoryParent(c.UserContext(), current.ID, parent)
	if err != nil {
		return utils.Fail(c, err)
	}

	h.audit(c, inv.GroupID, "inventory.move", "inventory", inv.ID, map[string]interface{}{
		"parent_kind": string(parent.Kind),
		"parent_id":   parent.ID.String(),
	})
	return utils.Success(c, fiber.StatusOK, inv)
}

// InventoryItems lists the items stored directly in an inventory.
func (h *HierarchyHandler) InventoryItems(c *fiber.Ctx) error {
	current, ok, err := h.loadInventory(c)
	if !ok {
		return err
	}

	snap, err := h.snapshot(c, current.GroupID)
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, snap.ChildItems(current.ID))
}

// InventoryChildren lists inventories nested directly in an inventory.
func (h *HierarchyHandler) InventoryChildren(c *fiber.Ctx) error {
	current, ok, err := h.loadInventory(c)
	if !ok {
		return err
	}

	snap, err := h.snapshot(c, current.GroupID)
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, snap.NestedInventories(current.ID))
}
