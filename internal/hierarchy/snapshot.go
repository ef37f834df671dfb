// Package hierarchy holds the per-group snapshot of spaces, inventories and
// items and derives every parent/child view and search result from it.
package hierarchy

import (
	"time"

	"github.com/Kawdoor/aizer/internal/models"
	"github.com/google/uuid"
)

// Snapshot is one group's three collections, each ordered newest first.
// A Snapshot is never modified after it is built; reloading produces a new one.
type Snapshot struct {
	GroupID     uuid.UUID          `json:"groupID"`
	Spaces      []models.Space     `json:"spaces"`
	Inventories []models.Inventory `json:"inventories"`
	Items       []models.Item      `json:"items"`
	LoadedAt    time.Time          `json:"loadedAt"`
}

type EntityKind string

const (
	KindSpace     EntityKind = "space"
	KindInventory EntityKind = "inventory"
	KindItem      EntityKind = "item"
)

func sameID(ref *uuid.UUID, id uuid.UUID) bool {
	return ref != nil && *ref == id
}

func (s *Snapshot) ChildInventoryCount(spaceID uuid.UUID) int {
	n := 0
	for i := range s.Inventories {
		if sameID(s.Inventories[i].ParentSpaceID, spaceID) {
			n++
		}
	}
	return n
}

func (s *Snapshot) ChildInventories(spaceID uuid.UUID) []models.Inventory {
	out := []models.Inventory{}
	for _, inv := range s.Inventories {
		if sameID(inv.ParentSpaceID, spaceID) {
			out = append(out, inv)
		}
	}
	return out
}

func (s *Snapshot) ChildItemCount(inventoryID uuid.UUID) int {
	n := 0
	for i := range s.Items {
		if sameID(s.Items[i].InventoryID, inventoryID) {
			n++
		}
	}
	return n
}

func (s *Snapshot) ChildItems(inventoryID uuid.UUID) []models.Item {
	out := []models.Item{}
	for _, item := range s.Items {
		if sameID(item.InventoryID, inventoryID) {
			out = append(out, item)
		}
	}
	return out
}

// ItemsInSpace lists items placed directly in a space, not inside one of its inventories.
func (s *Snapshot) ItemsInSpace(spaceID uuid.UUID) []models.Item {
	out := []models.Item{}
	for _, item := range s.Items {
		if sameID(item.SpaceID, spaceID) {
			out = append(out, item)
		}
	}
	return out
}

func (s *Snapshot) NestedInventories(inventoryID uuid.UUID) []models.Inventory {
	out := []models.Inventory{}
	for _, inv := range s.Inventories {
		if sameID(inv.ParentInventoryID, inventoryID) {
			out = append(out, inv)
		}
	}
	return out
}

func (s *Snapshot) ChildSpaces(spaceID uuid.UUID) []models.Space {
	out := []models.Space{}
	for _, sp := range s.Spaces {
		if sameID(sp.ParentID, spaceID) {
			out = append(out, sp)
		}
	}
	return out
}

func (s *Snapshot) RootSpaces() []models.Space {
	out := []models.Space{}
	for _, sp := range s.Spaces {
		if sp.ParentID == nil {
			out = append(out, sp)
		}
	}
	return out
}

// UnplacedInventories are inventories with neither a space nor an inventory parent.
func (s *Snapshot) UnplacedInventories() []models.Inventory {
	out := []models.Inventory{}
	for _, inv := range s.Inventories {
		if inv.ParentSpaceID == nil && inv.ParentInventoryID == nil {
			out = append(out, inv)
		}
	}
	return out
}

func (s *Snapshot) Space(id uuid.UUID) (models.Space, bool) {
	for _, sp := range s.Spaces {
		if sp.ID == id {
			return sp, true
		}
	}
	return models.Space{}, false
}

func (s *Snapshot) Inventory(id uuid.UUID) (models.Inventory, bool) {
	for _, inv := range s.Inventories {
		if inv.ID == id {
			return inv, true
		}
	}
	return models.Inventory{}, false
}

func (s *Snapshot) Item(id uuid.UUID) (models.Item, bool) {
	for _, item := range s.Items {
		if item.ID == id {
			return item, true
		}
	}
	return models.Item{}, false
}
