// Package relocation moves items between containers and reassigns
// inventory and space parents. Every write is a single-row update that sets
// one placement column and nulls its counterpart in the same statement, so
// a row can never be observed with two placements.
package relocation

import (
	"context"
	"fmt"

	"github.com/Kawdoor/aizer/internal/failure"
	"github.com/Kawdoor/aizer/internal/metrics"
	"github.com/Kawdoor/aizer/internal/models"
	"github.com/Kawdoor/aizer/internal/store"
	"github.com/google/uuid"
)

type Engine struct {
	Store store.Store
}

func NewEngine(s store.Store) *Engine {
	return &Engine{Store: s}
}

func byID(id uuid.UUID) []store.Filter {
	return []store.Filter{store.Eq("id", id)}
}

func (e *Engine) GetSpace(ctx context.Context, id uuid.UUID) (*models.Space, error) {
	var sp models.Space
	if err := e.Store.Get(ctx, &sp, byID(id)); err != nil {
		return nil, notFoundAs(err, "load space", "space not found")
	}
	return &sp, nil
}

func (e *Engine) GetInventory(ctx context.Context, id uuid.UUID) (*models.Inventory, error) {
	var inv models.Inventory
	if err := e.Store.Get(ctx, &inv, byID(id)); err != nil {
		return nil, notFoundAs(err, "load inventory", "inventory not found")
	}
	return &inv, nil
}

func (e *Engine) GetItem(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	var item models.Item
	if err := e.Store.Get(ctx, &item, byID(id)); err != nil {
		return nil, notFoundAs(err, "load item", "item not found")
	}
	return &item, nil
}

func notFoundAs(err error, op, message string) error {
	if failure.Is(err, failure.KindNotFound) {
		return failure.NotFound(op, message)
	}
	return err
}

// requireInGroup loads id into dest, failing validation when it does not
// exist inside groupID. Cross-group targets are indistinguishable from
// missing ones.
func (e *Engine) requireInGroup(ctx context.Context, op string, dest interface{}, id, groupID uuid.UUID, what string) error {
	err := e.Store.Get(ctx, dest, []store.Filter{store.Eq("id", id), store.Eq("group_id", groupID)})
	if failure.Is(err, failure.KindNotFound) {
		return failure.Validation(op, fmt.Sprintf("target %s not found in this group", what))
	}
	return err
}

func (e *Engine) MoveItemToInventory(ctx context.Context, itemID, inventoryID uuid.UUID) (*models.Item, error) {
	const op = "move item to inventory"

	item, err := e.moveItem(ctx, op, itemID, func(item *models.Item) (map[string]interface{}, error) {
		var target models.Inventory
		if err := e.requireInGroup(ctx, op, &target, inventoryID, item.GroupID, "inventory"); err != nil {
			return nil, err
		}
		return map[string]interface{}{"inventory_id": inventoryID, "space_id": nil}, nil
	})
	metrics.ObserveRelocation("inventory", err)
	return item, err
}

func (e *Engine) MoveItemToSpace(ctx context.Context, itemID, spaceID uuid.UUID) (*models.Item, error) {
	const op = "move item to space"

	item, err := e.moveItem(ctx, op, itemID, func(item *models.Item) (map[string]interface{}, error) {
		var target models.Space
		if err := e.requireInGroup(ctx, op, &target, spaceID, item.GroupID, "space"); err != nil {
			return nil, err
		}
		return map[string]interface{}{"space_id": spaceID, "inventory_id": nil}, nil
	})
	metrics.ObserveRelocation("space", err)
	return item, err
}

func (e *Engine) moveItem(ctx context.Context, op string, itemID uuid.UUID, build func(*models.Item) (map[string]interface{}, error)) (*models.Item, error) {
	item, err := e.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	patch, err := build(item)
	if err != nil {
		return nil, err
	}
	if err := e.apply(ctx, op, &models.Item{}, itemID, patch, "item not found"); err != nil {
		return nil, err
	}
	return e.GetItem(ctx, itemID)
}

func (e *Engine) apply(ctx context.Context, op string, model interface{}, id uuid.UUID, patch map[string]interface{}, missing string) error {
	n, err := e.Store.Update(ctx, model, patch, byID(id))
	if err != nil {
		return err
	}
	if n == 0 {
		return failure.NotFound(op, missing)
	}
	return nil
}

// SetInventoryParent reparents an inventory under a space, another
// inventory, or nothing. An inventory cannot end up inside itself.
func (e *Engine) SetInventoryParent(ctx context.Context, inventoryID uuid.UUID, parent Parent) (*models.Inventory, error) {
	const op = "set inventory parent"

	inv, err := e.setInventoryParent(ctx, op, inventoryID, parent)
	metrics.ObserveRelocation("inventory_parent", err)
	return inv, err
}

func (e *Engine) setInventoryParent(ctx context.Context, op string, inventoryID uuid.UUID, parent Parent) (*models.Inventory, error) {
	if err := parent.validate(op); err != nil {
		return nil, err
	}
	if parent.Kind == ParentInventory && parent.ID == inventoryID {
		return nil, failure.Validation(op, "an inventory cannot be its own parent")
	}

	inv, err := e.GetInventory(ctx, inventoryID)
	if err != nil {
		return nil, err
	}

	switch parent.Kind {
	case ParentSpace:
		var target models.Space
		if err := e.requireInGroup(ctx, op, &target, parent.ID, inv.GroupID, "space"); err != nil {
			return nil, err
		}
	case ParentInventory:
		var target models.Inventory
		if err := e.requireInGroup(ctx, op, &target, parent.ID, inv.GroupID, "inventory"); err != nil {
			return nil, err
		}
		inside, err := e.inventoryWithin(ctx, parent.ID, inventoryID)
		if err != nil {
			return nil, err
		}
		if inside {
			return nil, failure.Validation(op, "cannot move an inventory inside itself")
		}
	}

	if err := e.apply(ctx, op, &models.Inventory{}, inventoryID, parent.columns(), "inventory not found"); err != nil {
		return nil, err
	}
	return e.GetInventory(ctx, inventoryID)
}

// SetSpaceParent reparents a space; a nil parentID makes it a root. Both
// direct self-parenting and longer ancestor cycles are rejected.
func (e *Engine) SetSpaceParent(ctx context.Context, spaceID uuid.UUID, parentID *uuid.UUID) (*models.Space, error) {
	const op = "set space parent"

	sp, err := e.setSpaceParent(ctx, op, spaceID, parentID)
	metrics.ObserveRelocation("space_parent", err)
	return sp, err
}

func (e *Engine) setSpaceParent(ctx context.Context, op string, spaceID uuid.UUID, parentID *uuid.UUID) (*models.Space, error) {
	if parentID != nil && *parentID == spaceID {
		return nil, failure.Validation(op, "a space cannot be its own parent")
	}

	sp, err := e.GetSpace(ctx, spaceID)
	if err != nil {
		return nil, err
	}

	if parentID != nil {
		var target models.Space
		if err := e.requireInGroup(ctx, op, &target, *parentID, sp.GroupID, "space"); err != nil {
			return nil, err
		}
		inside, err := e.spaceWithin(ctx, *parentID, spaceID)
		if err != nil {
			return nil, err
		}
		if inside {
			return nil, failure.Validation(op, "cannot move a space inside itself")
		}
	}

	patch := map[string]interface{}{"parent_id": nil}
	if parentID != nil {
		patch["parent_id"] = *parentID
	}
	if err := e.apply(ctx, op, &models.Space{}, spaceID, patch, "space not found"); err != nil {
		return nil, err
	}
	return e.GetSpace(ctx, spaceID)
}

// spaceWithin reports whether start is ancestorID or lies beneath it.
// The walk stops on a repeated id so an existing cycle cannot loop forever.
func (e *Engine) spaceWithin(ctx context.Context, start, ancestorID uuid.UUID) (bool, error) {
	seen := make(map[uuid.UUID]bool)
	current := start
	for {
		if current == ancestorID {
			return true, nil
		}
		if seen[current] {
			return false, nil
		}
		seen[current] = true

		var sp models.Space
		err := e.Store.Get(ctx, &sp, byID(current))
		if failure.Is(err, failure.KindNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		if sp.ParentID == nil {
			return false, nil
		}
		current = *sp.ParentID
	}
}

func (e *Engine) inventoryWithin(ctx context.Context, start, ancestorID uuid.UUID) (bool, error) {
	seen := make(map[uuid.UUID]bool)
	current := start
	for {
		if current == ancestorID {
			return true, nil
		}
		if seen[current] {
			return false, nil
		}
		seen[current] = true

		var inv models.Inventory
		err := e.Store.Get(ctx, &inv, byID(current))
		if failure.Is(err, failure.KindNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		if inv.ParentInventoryID == nil {
			return false, nil
		}
		current = *inv.ParentInventoryID
	}
}
