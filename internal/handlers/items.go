package handlers

import (
	"encoding/json"

	"github.com/Kawdoor/aizer/internal/relocation"
	"github.com/Kawdoor/aizer/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type createItemRequest struct {
	GroupID     string           `json:"groupID"`
	Name        string           `json:"name"`
	Quantity    *int             `json:"quantity"`
	Description *string          `json:"description"`
	Color       *string          `json:"color"`
	Price       *decimal.Decimal `json:"price"`
	Measures    json.RawMessage  `json:"measures"`
	InventoryID *string          `json:"inventoryID"`
	SpaceID     *string          `json:"spaceID"`
}

func measures(raw json.RawMessage) datatypes.JSON {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return datatypes.JSON(raw)
}

func (h *HierarchyHandler) CreateItem(c *fiber.Ctx) error {
	var req createItemRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	groupID, err := parseUUID(req.GroupID)
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid group id")
	}
	inventoryID, err := parseOptionalUUID(req.InventoryID)
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid inventory id")
	}
	spaceID, err := parseOptionalUUID(req.SpaceID)
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid space id")
	}
	if ok, err := h.authorize(c, groupID); !ok {
		return err
	}

	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	item, err := h.Engine.CreateItem(c.UserContext(), groupID, relocation.ItemInput{
		Name:        req.Name,
		Quantity:    quantity,
		Description: req.Description,
		Color:       req.Color,
		Price:       req.Price,
		Measures:    measures(req.Measures),
		InventoryID: inventoryID,
		SpaceID:     spaceID,
	})
	if err != nil {
		return utils.Fail(c, err)
	}

	h.audit(c, groupID, "item.create", "item", item.ID, map[string]interface{}{
		"name":     item.Name,
		"quantity": item.Quantity,
	})
	return utils.Success(c, fiber.StatusCreated, item)
}

type updateItemRequest struct {
	Name        *string          `json:"name"`
	Quantity    *int             `json:"quantity"`
	Description *string          `json:"description"`
	Color       *string          `json:"color"`
	Price       *decimal.Decimal `json:"price"`
	ClearPrice  bool             `json:"clearPrice"`
	Measures    json.RawMessage  `json:"measures"`
}

func (h *HierarchyHandler) UpdateItem(c *fiber.Ctx) error {
	var req updateItemRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	current, ok, err := h.loadItem(c)
	if !ok {
		return err
	}

	item, err := h.Engine.UpdateItem(c.UserContext(), current.ID, relocation.ItemEdit{
		Name:        req.Name,
		Quantity:    req.Quantity,
		Description: req.Description,
		Color:       req.Color,
		Price:       req.Price,
		ClearPrice:  req.ClearPrice,
		Measures:    measures(req.Measures),
	})
	if err != nil {
		return utils.Fail(c, err)
	}

	h.audit(c, item.GroupID, "item.update", "item", item.ID, nil)
	return utils.Success(c, fiber.StatusOK, item)
}

func (h *HierarchyHandler) DeleteItem(c *fiber.Ctx) error {
	current, ok, err := h.loadItem(c)
	if !ok {
		return err
	}

	if err := h.Engine.DeleteItem(c.UserContext(), current.ID); err != nil {
		return utils.Fail(c, err)
	}

	h.audit(c, current.GroupID, "item.delete", "item", current.ID, map[string]interface{}{"name": current.Name})
	return utils.Success(c, fiber.StatusOK, fiber.Map{"deleted": true})
}

type moveItemRequest struct {
	InventoryID *string `json:"inventoryID"`
	SpaceID     *string `json:"spaceID"`
}

// MoveItem relocates an item into exactly one inventory or space.
func (h *HierarchyHandler) MoveItem(c *fiber.Ctx) error {
	var req moveItemRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	inventoryID, err := parseOptionalUUID(req.InventoryID)
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid inventory id")
	}
	spaceID, err := parseOptionalUUID(req.SpaceID)
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid space id")
	}
	if err := relocation.ValidateItemPlacement(inventoryID, spaceID); err != nil {
		return utils.Fail(c, err)
	}
	current, ok, err := h.loadItem(c)
	if !ok {
		return err
	}

	details := map[string]interface{}{}
	if current.InventoryID != nil {
		details["from_inventory_id"] = current.InventoryID.String()
	}
	if current.SpaceID != nil {
		details["from_space_id"] = current.SpaceID.String()
	}

	if inventoryID != nil {
		current, err = h.Engine.MoveItemToInventory(c.UserContext(), current.ID, *inventoryID)
		details["to_inventory_id"] = inventoryID.String()
	} else {
		current, err = h.Engine.MoveItemToSpace(c.UserContext(), current.ID, *spaceID)
		details["to_space_id"] = spaceID.String()
	}
	if err != nil {
		return utils.Fail(c, err)
	}

	h.audit(c, current.GroupID, "item.move", "item", current.ID, details)
	return utils.Success(c, fiber.StatusOK, current)
}
