package relocation

import (
	"context"

	"github.com/Kawdoor/aizer/internal/failure"
	"github.com/Kawdoor/aizer/internal/models"
	"github.com/Kawdoor/aizer/internal/store"
	"github.com/google/uuid"
)

type childRef struct {
	model  interface{}
	column string
}

func (e *Engine) DeleteSpace(ctx context.Context, id uuid.UUID) error {
	return e.deleteEmpty(ctx, "delete space", &models.Space{}, id, "space not found", []childRef{
		{&models.Space{}, "parent_id"},
		{&models.Inventory{}, "parent_space_id"},
		{&models.Item{}, "space_id"},
	})
}

func (e *Engine) DeleteInventory(ctx context.Context, id uuid.UUID) error {
	return e.deleteEmpty(ctx, "delete inventory", &models.Inventory{}, id, "inventory not found", []childRef{
		{&models.Inventory{}, "parent_inventory_id"},
		{&models.Item{}, "inventory_id"},
	})
}

func (e *Engine) DeleteItem(ctx context.Context, id uuid.UUID) error {
	return e.deleteEmpty(ctx, "delete item", &models.Item{}, id, "item not found", nil)
}

// deleteEmpty never cascades. A parent with children is refused up front, and a
// child inserted after that check is still caught by the foreign key, which
// the store classifies into the same error.
func (e *Engine) deleteEmpty(ctx context.Context, op string, model interface{}, id uuid.UUID, missing string, children []childRef) error {
	for _, child := range children {
		n, err := e.Store.Count(ctx, child.model, []store.Filter{store.Eq(child.column, id)})
		if err != nil {
			return err
		}
		if n > 0 {
			return &failure.Error{Kind: failure.KindConflict, Op: op, Message: failure.ErrHasChildren.Message}
		}
	}

	n, err := e.Store.Delete(ctx, model, byID(id))
	if err != nil {
		return err
	}
	if n == 0 {
		return failure.NotFound(op, missing)
	}
	return nil
}
