package handlers

import (
	"github.com/Kawdoor/aizer/internal/failure"
	"github.com/Kawdoor/aizer/internal/hierarchy"
	"github.com/Kawdoor/aizer/internal/middleware"
	"github.com/Kawdoor/aizer/internal/models"
	"github.com/Kawdoor/aizer/internal/relocation"
	"github.com/Kawdoor/aizer/internal/services"
	"github.com/Kawdoor/aizer/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// HierarchyHandler serves spaces, inventories and items. Reads go through
// group snapshots; writes go through the relocation engine.
type HierarchyHandler struct {
	Engine     *relocation.Engine
	Aggregator *hierarchy.Aggregator
	Access     *services.AccessService
	Audit      *services.AuditService
}

func NewHierarchyHandler(engine *relocation.Engine, aggregator *hierarchy.Aggregator, access *services.AccessService, audit *services.AuditService) *HierarchyHandler {
	return &HierarchyHandler{Engine: engine, Aggregator: aggregator, Access: access, Audit: audit}
}

// authorize checks that the current user is an accepted member of groupID.
// When it reports false the response has already been written.
func (h *HierarchyHandler) authorize(c *fiber.Ctx, groupID uuid.UUID) (bool, error) {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return false, utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}
	if _, err := h.Access.Require(c.UserContext(), currentUser.ID, groupID, models.GroupRoleMember); err != nil {
		return false, utils.Fail(c, err)
	}
	return true, nil
}

// authorizeEntity is authorize for routes addressed by entity id. Callers
// outside the entity's group get the same not-found answer as an unknown id.
func (h *HierarchyHandler) authorizeEntity(c *fiber.Ctx, groupID uuid.UUID, op, missing string) (bool, error) {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return false, utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}
	if _, err := h.Access.Require(c.UserContext(), currentUser.ID, groupID, models.GroupRoleMember); err != nil {
		if failure.Is(err, failure.KindPermission) {
			err = failure.NotFound(op, missing)
		}
		return false, utils.Fail(c, err)
	}
	return true, nil
}

func (h *HierarchyHandler) snapshot(c *fiber.Ctx, groupID uuid.UUID) (*hierarchy.Snapshot, error) {
	return h.Aggregator.LoadGroupSnapshot(c.UserContext(), groupID)
}

func (h *HierarchyHandler) audit(c *fiber.Ctx, groupID uuid.UUID, action, resourceType string, resourceID uuid.UUID, details map[string]interface{}) {
	record(c, h.Audit, services.AuditEntry{
		GroupID:      &groupID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   &resourceID,
		Details:      details,
	})
}

func (h *HierarchyHandler) Snapshot(c *fiber.Ctx) error {
	groupID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid group id")
	}
	if ok, err := h.authorize(c, groupID); !ok {
		return err
	}

	snap, err := h.snapshot(c, groupID)
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, snap)
}

func (h *HierarchyHandler) Search(c *fiber.Ctx) error {
	groupID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid group id")
	}
	if ok, err := h.authorize(c, groupID); !ok {
		return err
	}

	snap, err := h.snapshot(c, groupID)
	if err != nil {
		return utils.Fail(c, err)
	}
	return utils.Success(c, fiber.StatusOK, snap.Search(c.Query("q")))
}

// Path returns the breadcrumb of a space, inventory or item in a group.
func (h *HierarchyHandler) Path(c *fiber.Ctx) error {
	groupID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid group id")
	}
	entityID, err := parseUUID(c.Params("entityId"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid entity id")
	}
	kind := hierarchy.EntityKind(c.Params("kind"))
	switch kind {
	case hierarchy.KindSpace, hierarchy.KindInventory, hierarchy.KindItem:
	default:
		return utils.Error(c, fiber.StatusBadRequest, "kind must be space, inventory or item")
	}
	if ok, err := h.authorize(c, groupID); !ok {
		return err
	}

	snap, err := h.snapshot(c, groupID)
	if err != nil {
		return utils.Fail(c, err)
	}
	path := snap.Path(kind, entityID)
	if path == nil {
		return utils.Error(c, fiber.StatusNotFound, string(kind)+" not found")
	}
	return utils.Success(c, fiber.StatusOK, path)
}

// loadSpace resolves the :id space and checks group membership. When ok is
// false the response has already been written.
func (h *HierarchyHandler) loadSpace(c *fiber.Ctx) (space *models.Space, ok bool, err error) {
	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return nil, false, utils.Error(c, fiber.StatusBadRequest, "invalid space id")
	}
	space, err = h.Engine.GetSpace(c.UserContext(), id)
	if err != nil {
		return nil, false, utils.Fail(c, err)
	}
	if ok, err := h.authorizeEntity(c, space.GroupID, "load space", "space not found"); !ok {
		return nil, false, err
	}
	return space, true, nil
}

func (h *HierarchyHandler) loadInventory(c *fiber.Ctx) (inventory *models.Inventory, ok bool, err error) {
	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return nil, false, utils.Error(c, fiber.StatusBadRequest, "invalid inventory id")
	}
	inventory, err = h.Engine.GetInventory(c.UserContext(), id)
	if err != nil {
		return nil, false, utils.Fail(c, err)
	}
	if ok, err := h.authorizeEntity(c, inventory.GroupID, "load inventory", "inventory not found"); !ok {
		return nil, false, err
	}
	return inventory, true, nil
}

func (h *HierarchyHandler) loadItem(c *fiber.Ctx) (item *models.Item, ok bool, err error) {
	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return nil, false, utils.Error(c, fiber.StatusBadRequest, "invalid item id")
	}
	item, err = h.Engine.GetItem(c.UserContext(), id)
	if err != nil {
		return nil, false, utils.Fail(c, err)
	}
	if ok, err := h.authorizeEntity(c, item.GroupID, "load item", "item not found"); !ok {
		return nil, false, err
	}
	return item, true, nil
}
