package hierarchy

import (
	"github.com/Kawdoor/aizer/internal/models"
	"github.com/google/uuid"
)

type Crumb struct {
	Kind EntityKind `json:"kind"`
	ID   uuid.UUID  `json:"id"`
	Name string     `json:"name"`
}

// SpaceAncestors returns the parent chain of a space, nearest first. The
// walk stops at the first repeated id so a corrupted chain cannot loop.
func (s *Snapshot) SpaceAncestors(id uuid.UUID) []models.Space {
	var out []models.Space
	seen := map[uuid.UUID]bool{id: true}

	current, ok := s.Space(id)
	for ok && current.ParentID != nil && !seen[*current.ParentID] {
		seen[*current.ParentID] = true
		current, ok = s.Space(*current.ParentID)
		if ok {
			out = append(out, current)
		}
	}
	return out
}

// InventoryAncestors returns the inventory chain above an inventory, nearest
// first, ending at the first inventory whose parent is a space or nothing.
func (s *Snapshot) InventoryAncestors(id uuid.UUID) []models.Inventory {
	var out []models.Inventory
	seen := map[uuid.UUID]bool{id: true}

	current, ok := s.Inventory(id)
	for ok && current.ParentInventoryID != nil && !seen[*current.ParentInventoryID] {
		seen[*current.ParentInventoryID] = true
		current, ok = s.Inventory(*current.ParentInventoryID)
		if ok {
			out = append(out, current)
		}
	}
	return out
}

// Path returns the breadcrumb from the outermost space down to the entity itself.
func (s *Snapshot) Path(kind EntityKind, id uuid.UUID) []Crumb {
	var reversed []Crumb

	switch kind {
	case KindItem:
		item, ok := s.Item(id)
		if !ok {
			return nil
		}
		reversed = append(reversed, Crumb{Kind: KindItem, ID: item.ID, Name: item.Name})
		switch {
		case item.InventoryID != nil:
			reversed = append(reversed, s.inventoryChain(*item.InventoryID)...)
		case item.SpaceID != nil:
			reversed = append(reversed, s.spaceChain(*item.SpaceID)...)
		}
	case KindInventory:
		if _, ok := s.Inventory(id); !ok {
			return nil
		}
		reversed = s.inventoryChain(id)
	case KindSpace:
		if _, ok := s.Space(id); !ok {
			return nil
		}
		reversed = s.spaceChain(id)
	}

	path := make([]Crumb, 0, len(reversed))
	for i := len(reversed) - 1; i >= 0; i-- {
		path = append(path, reversed[i])
	}
	return path
}

func (s *Snapshot) spaceChain(id uuid.UUID) []Crumb {
	sp, ok := s.Space(id)
	if !ok {
		return nil
	}
	chain := []Crumb{{Kind: KindSpace, ID: sp.ID, Name: sp.Name}}
	for _, anc := range s.SpaceAncestors(id) {
		chain = append(chain, Crumb{Kind: KindSpace, ID: anc.ID, Name: anc.Name})
	}
	return chain
}

func (s *Snapshot) inventoryChain(id uuid.UUID) []Crumb {
	inv, ok := s.Inventory(id)
	if !ok {
		return nil
	}
	chain := []Crumb{{Kind: KindInventory, ID: inv.ID, Name: inv.Name}}
	top := inv
	for _, anc := range s.InventoryAncestors(id) {
		chain = append(chain, Crumb{Kind: KindInventory, ID: anc.ID, Name: anc.Name})
		top = anc
	}
	if top.ParentSpaceID != nil {
		chain = append(chain, s.spaceChain(*top.ParentSpaceID)...)
	}
	return chain
}
