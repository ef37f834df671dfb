package relocation

import (
	"context"
	"strings"

	"github.com/Kawdoor/aizer/internal/failure"
	"github.com/Kawdoor/aizer/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type SpaceInput struct {
	Name        string
	Description *string
	ParentID    *uuid.UUID
}

type InventoryInput struct {
	Name              string
	Description       *string
	ParentSpaceID     *uuid.UUID
	ParentInventoryID *uuid.UUID
}

type ItemInput struct {
	Name        string
	Quantity    int
	Description *string
	Color       *string
	Price       *decimal.Decimal
	Measures    datatypes.JSON
	InventoryID *uuid.UUID
	SpaceID     *uuid.UUID
}

// DetailsEdit changes the descriptive fields of a space or inventory. Nil
// fields are left alone; an empty Description clears it.
type DetailsEdit struct {
	Name        *string
	Description *string
}

type ItemEdit struct {
	Name        *string
	Quantity    *int
	Description *string
	Color       *string
	Price       *decimal.Decimal
	ClearPrice  bool
	Measures    datatypes.JSON
}

func requireName(op, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", failure.Validation(op, "name is required")
	}
	return name, nil
}

// optionalText trims s and maps blank to nil.
func optionalText(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func textPatch(s string) interface{} {
	if trimmed := strings.TrimSpace(s); trimmed != "" {
		return trimmed
	}
	return nil
}

func validateAmounts(op string, quantity *int, price *decimal.Decimal) error {
	if quantity != nil && *quantity < 0 {
		return failure.Validation(op, "quantity cannot be negative")
	}
	if price != nil && price.IsNegative() {
		return failure.Validation(op, "price cannot be negative")
	}
	return nil
}

func (e *Engine) CreateSpace(ctx context.Context, groupID uuid.UUID, in SpaceInput) (*models.Space, error) {
	const op = "create space"

	name, err := requireName(op, in.Name)
	if err != nil {
		return nil, err
	}
	if in.ParentID != nil {
		var parent models.Space
		if err := e.requireInGroup(ctx, op, &parent, *in.ParentID, groupID, "space"); err != nil {
			return nil, err
		}
	}

	sp := &models.Space{
		GroupID:     groupID,
		Name:        name,
		Description: optionalText(in.Description),
		ParentID:    in.ParentID,
	}
	if err := e.Store.Insert(ctx, sp); err != nil {
		return nil, err
	}
	return sp, nil
}

func (e *Engine) CreateInventory(ctx context.Context, groupID uuid.UUID, in InventoryInput) (*models.Inventory, error) {
	const op = "create inventory"

	parent, err := ParentFromColumns(in.ParentSpaceID, in.ParentInventoryID)
	if err != nil {
		return nil, err
	}
	name, err := requireName(op, in.Name)
	if err != nil {
		return nil, err
	}

	switch parent.Kind {
	case ParentSpace:
		var target models.Space
		if err := e.requireInGroup(ctx, op, &target, parent.ID, groupID, "space"); err != nil {
			return nil, err
		}
	case ParentInventory:
		var target models.Inventory
		if err := e.requireInGroup(ctx, op, &target, parent.ID, groupID, "inventory"); err != nil {
			return nil, err
		}
	}

	inv := &models.Inventory{
		GroupID:           groupID,
		Name:              name,
		Description:       optionalText(in.Description),
		ParentSpaceID:     in.ParentSpaceID,
		ParentInventoryID: in.ParentInventoryID,
	}
	if err := e.Store.Insert(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

func (e *Engine) CreateItem(ctx context.Context, groupID uuid.UUID, in ItemInput) (*models.Item, error) {
	const op = "create item"

	name, err := requireName(op, in.Name)
	if err != nil {
		return nil, err
	}
	if err := validateAmounts(op, &in.Quantity, in.Price); err != nil {
		return nil, err
	}
	if err := ValidateItemPlacement(in.InventoryID, in.SpaceID); err != nil {
		return nil, err
	}

	if in.InventoryID != nil {
		var target models.Inventory
		if err := e.requireInGroup(ctx, op, &target, *in.InventoryID, groupID, "inventory"); err != nil {
			return nil, err
		}
	} else {
		var target models.Space
		if err := e.requireInGroup(ctx, op, &target, *in.SpaceID, groupID, "space"); err != nil {
			return nil, err
		}
	}

	item := &models.Item{
		GroupID:     groupID,
		InventoryID: in.InventoryID,
		SpaceID:     in.SpaceID,
		Name:        name,
		Quantity:    in.Quantity,
		Description: optionalText(in.Description),
		Color:       optionalText(in.Color),
		Price:       in.Price,
		Measures:    in.Measures,
	}
	if err := e.Store.Insert(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func detailsPatch(op string, edit DetailsEdit) (map[string]interface{}, error) {
	patch := map[string]interface{}{}
	if edit.Name != nil {
		name, err := requireName(op, *edit.Name)
		if err != nil {
			return nil, err
		}
		patch["name"] = name
	}
	if edit.Description != nil {
		patch["description"] = textPatch(*edit.Description)
	}
	if len(patch) == 0 {
		return nil, failure.Validation(op, "no valid fields to update")
	}
	return patch, nil
}

func (e *Engine) UpdateSpace(ctx context.Context, id uuid.UUID, edit DetailsEdit) (*models.Space, error) {
	const op = "update space"

	patch, err := detailsPatch(op, edit)
	if err != nil {
		return nil, err
	}
	if err := e.apply(ctx, op, &models.Space{}, id, patch, "space not found"); err != nil {
		return nil, err
	}
	return e.GetSpace(ctx, id)
}

func (e *Engine) UpdateInventory(ctx context.Context, id uuid.UUID, edit DetailsEdit) (*models.Inventory, error) {
	const op = "update inventory"

	patch, err := detailsPatch(op, edit)
	if err != nil {
		return nil, err
	}
	if err := e.apply(ctx, op, &models.Inventory{}, id, patch, "inventory not found"); err != nil {
		return nil, err
	}
	return e.GetInventory(ctx, id)
}

// UpdateItem edits descriptive fields only. Placement changes go through
// MoveItemToInventory and MoveItemToSpace.
func (e *Engine) UpdateItem(ctx context.Context, id uuid.UUID, edit ItemEdit) (*models.Item, error) {
	const op = "update item"

	if err := validateAmounts(op, edit.Quantity, edit.Price); err != nil {
		return nil, err
	}
	if edit.ClearPrice && edit.Price != nil {
		return nil, failure.Validation(op, "cannot set and clear the price together")
	}

	patch := map[string]interface{}{}
	if edit.Name != nil {
		name, err := requireName(op, *edit.Name)
		if err != nil {
			return nil, err
		}
		patch["name"] = name
	}
	if edit.Quantity != nil {
		patch["quantity"] = *edit.Quantity
	}
	if edit.Description != nil {
		patch["description"] = textPatch(*edit.Description)
	}
	if edit.Color != nil {
		patch["color"] = textPatch(*edit.Color)
	}
	switch {
	case edit.Price != nil:
		patch["price"] = *edit.Price
	case edit.ClearPrice:
		patch["price"] = nil
	}
	if edit.Measures != nil {
		patch["measures"] = edit.Measures
	}
	if len(patch) == 0 {
		return nil, failure.Validation(op, "no valid fields to update")
	}

	if err := e.apply(ctx, op, &models.Item{}, id, patch, "item not found"); err != nil {
		return nil, err
	}
	return e.GetItem(ctx, id)
}
