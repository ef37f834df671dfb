// Package resolve turns the names a user types into entity ids by walking a
// group snapshot.
package resolve

import (
	"fmt"
	"strings"

	"github.com/Kawdoor/aizer/internal/failure"
	"github.com/Kawdoor/aizer/internal/hierarchy"
	"github.com/google/uuid"
)

// Children lists what sits directly under parent, or the top level when
// parent is nil: root spaces and inventories that have no parent.
func Children(snap *hierarchy.Snapshot, parent *hierarchy.Crumb) []hierarchy.Crumb {
	out := []hierarchy.Crumb{}
	if parent == nil {
		for _, sp := range snap.RootSpaces() {
			out = append(out, hierarchy.Crumb{Kind: hierarchy.KindSpace, ID: sp.ID, Name: sp.Name})
		}
		for _, inv := range snap.UnplacedInventories() {
			out = append(out, hierarchy.Crumb{Kind: hierarchy.KindInventory, ID: inv.ID, Name: inv.Name})
		}
		return out
	}

	switch parent.Kind {
	case hierarchy.KindSpace:
		for _, sp := range snap.ChildSpaces(parent.ID) {
			out = append(out, hierarchy.Crumb{Kind: hierarchy.KindSpace, ID: sp.ID, Name: sp.Name})
		}
		for _, inv := range snap.ChildInventories(parent.ID) {
			out = append(out, hierarchy.Crumb{Kind: hierarchy.KindInventory, ID: inv.ID, Name: inv.Name})
		}
		for _, item := range snap.ItemsInSpace(parent.ID) {
			out = append(out, hierarchy.Crumb{Kind: hierarchy.KindItem, ID: item.ID, Name: item.Name})
		}
	case hierarchy.KindInventory:
		for _, inv := range snap.NestedInventories(parent.ID) {
			out = append(out, hierarchy.Crumb{Kind: hierarchy.KindInventory, ID: inv.ID, Name: inv.Name})
		}
		for _, item := range snap.ChildItems(parent.ID) {
			out = append(out, hierarchy.Crumb{Kind: hierarchy.KindItem, ID: item.ID, Name: item.Name})
		}
	}
	return out
}

// Lookup finds an entity of any kind by id.
func Lookup(snap *hierarchy.Snapshot, id uuid.UUID) (hierarchy.Crumb, bool) {
	if sp, ok := snap.Space(id); ok {
		return hierarchy.Crumb{Kind: hierarchy.KindSpace, ID: sp.ID, Name: sp.Name}, true
	}
	if inv, ok := snap.Inventory(id); ok {
		return hierarchy.Crumb{Kind: hierarchy.KindInventory, ID: inv.ID, Name: inv.Name}, true
	}
	if item, ok := snap.Item(id); ok {
		return hierarchy.Crumb{Kind: hierarchy.KindItem, ID: item.ID, Name: item.Name}, true
	}
	return hierarchy.Crumb{}, false
}

// Resolve converts "Garage/Toolbox/Hammer" into the entity at the end of the
// path. Segments match names case-insensitively. A bare id is looked up
// directly. from is the starting point for relative paths; a leading "/"
// always starts at the top level.
func Resolve(snap *hierarchy.Snapshot, from *hierarchy.Crumb, ref string) (*hierarchy.Crumb, error) {
	const op = "resolve"
	ref = strings.TrimSpace(ref)

	if id, err := uuid.Parse(ref); err == nil {
		c, ok := Lookup(snap, id)
		if !ok {
			return nil, failure.NotFound(op, fmt.Sprintf("no entity with id %s", id))
		}
		return &c, nil
	}

	current := from
	if strings.HasPrefix(ref, "/") {
		current = nil
	}

	for _, segment := range strings.Split(strings.Trim(ref, "/"), "/") {
		segment = strings.TrimSpace(segment)
		switch segment {
		case "", ".":
			continue
		case "..":
			current = parentOf(snap, current)
			continue
		}

		var matches []hierarchy.Crumb
		for _, child := range Children(snap, current) {
			if strings.EqualFold(child.Name, segment) {
				matches = append(matches, child)
			}
		}
		switch len(matches) {
		case 0:
			if current == nil {
				return nil, failure.NotFound(op, fmt.Sprintf("not found at top level: %s", segment))
			}
			return nil, failure.NotFound(op, fmt.Sprintf("not found in %s: %s", current.Name, segment))
		case 1:
			next := matches[0]
			current = &next
		default:
			return nil, failure.Validation(op, fmt.Sprintf("%q is ambiguous, use its id", segment))
		}
	}
	return current, nil
}

// ResolveKind is Resolve restricted to one kind of entity.
func ResolveKind(snap *hierarchy.Snapshot, from *hierarchy.Crumb, ref string, kind hierarchy.EntityKind) (uuid.UUID, error) {
	c, err := Resolve(snap, from, ref)
	if err != nil {
		return uuid.Nil, err
	}
	if c == nil || c.Kind != kind {
		return uuid.Nil, failure.Validation("resolve", fmt.Sprintf("%s is not a %s", ref, kind))
	}
	return c.ID, nil
}

func parentOf(snap *hierarchy.Snapshot, c *hierarchy.Crumb) *hierarchy.Crumb {
	if c == nil {
		return nil
	}
	path := snap.Path(c.Kind, c.ID)
	if len(path) < 2 {
		return nil
	}
	parent := path[len(path)-2]
	return &parent
}
