package relocation

import (
	"fmt"

	"github.com/Kawdoor/aizer/internal/failure"
	"github.com/google/uuid"
)

type ParentKind string

const (
	ParentNone      ParentKind = "none"
	ParentSpace     ParentKind = "space"
	ParentInventory ParentKind = "inventory"
)

// Parent is the single parent of an inventory. ID is ignored for ParentNone.
type Parent struct {
	Kind ParentKind `json:"kind"`
	ID   uuid.UUID  `json:"id"`
}

func NoParent() Parent { return Parent{Kind: ParentNone} }

func InSpace(id uuid.UUID) Parent { return Parent{Kind: ParentSpace, ID: id} }

func InInventory(id uuid.UUID) Parent { return Parent{Kind: ParentInventory, ID: id} }

func (p Parent) validate(op string) error {
	switch p.Kind {
	case ParentNone:
		return nil
	case ParentSpace, ParentInventory:
		if p.ID == uuid.Nil {
			return failure.Validation(op, fmt.Sprintf("a parent %s must be selected", p.Kind))
		}
		return nil
	default:
		return failure.Validation(op, fmt.Sprintf("unknown parent kind %q", p.Kind))
	}
}

// columns returns the inventory parent patch. Both columns are always
// present: setting one parent nulls the other in the same update.
func (p Parent) columns() map[string]interface{} {
	patch := map[string]interface{}{
		"parent_space_id":     nil,
		"parent_inventory_id": nil,
	}
	switch p.Kind {
	case ParentSpace:
		patch["parent_space_id"] = p.ID
	case ParentInventory:
		patch["parent_inventory_id"] = p.ID
	}
	return patch
}

// ParentFromColumns converts the two nullable parent columns of an
// inventory into a Parent, rejecting the case where both are set.
func ParentFromColumns(spaceID, inventoryID *uuid.UUID) (Parent, error) {
	if err := ValidateInventoryParents(spaceID, inventoryID); err != nil {
		return Parent{}, err
	}
	switch {
	case spaceID != nil:
		return InSpace(*spaceID), nil
	case inventoryID != nil:
		return InInventory(*inventoryID), nil
	default:
		return NoParent(), nil
	}
}

// ValidateInventoryParents enforces that an inventory has at most one parent.
func ValidateInventoryParents(spaceID, inventoryID *uuid.UUID) error {
	if spaceID != nil && inventoryID != nil {
		return &failure.Error{Kind: failure.KindValidation, Op: "validate inventory parent", Message: failure.ErrBothParents.Message}
	}
	return nil
}

// ValidateItemPlacement enforces that an item sits in exactly one container.
func ValidateItemPlacement(inventoryID, spaceID *uuid.UUID) error {
	switch {
	case inventoryID != nil && spaceID != nil:
		return failure.Validation("validate item placement", "An item can either be in an inventory OR in a space, not both.")
	case inventoryID == nil && spaceID == nil:
		return failure.Validation("validate item placement", "an item must be placed in an inventory or a space")
	}
	return nil
}
