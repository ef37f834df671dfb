package hierarchy

import (
	"testing"

	"github.com/Kawdoor/aizer/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func strPtr(s string) *string { return &s }

func idPtr(id uuid.UUID) *uuid.UUID { return &id }

func newSpace(name string, parent *uuid.UUID) models.Space {
	return models.Space{BaseModel: models.BaseModel{ID: uuid.New()}, Name: name, ParentID: parent}
}

func newInventory(name string, space, inventory *uuid.UUID) models.Inventory {
	return models.Inventory{BaseModel: models.BaseModel{ID: uuid.New()}, Name: name, ParentSpaceID: space, ParentInventoryID: inventory}
}

func newItem(name string, inventory, space *uuid.UUID) models.Item {
	return models.Item{BaseModel: models.BaseModel{ID: uuid.New()}, Name: name, Quantity: 1, InventoryID: inventory, SpaceID: space}
}

// garageSnapshot builds Garage > Shelf A > {Drill, Lamp}, Garage > Shelf B,
// Attic (root), Garage > Workbench (space), and a Toolbox nested in Shelf A.
type garage struct {
	snap                    *Snapshot
	garage, attic, bench    models.Space
	shelfA, shelfB, toolbox models.Inventory
	drill, lamp, rake       models.Item
}

func garageSnapshot() garage {
	var g garage
	g.garage = newSpace("Garage", nil)
	g.garage.Description = strPtr("Detached, north side")
	g.attic = newSpace("Attic", nil)
	g.bench = newSpace("Workbench", idPtr(g.garage.ID))

	g.shelfA = newInventory("Shelf A", idPtr(g.garage.ID), nil)
	g.shelfB = newInventory("Shelf B", idPtr(g.garage.ID), nil)
	g.toolbox = newInventory("Toolbox", nil, idPtr(g.shelfA.ID))
	g.toolbox.Description = strPtr("red metal case")

	g.drill = newItem("Drill", idPtr(g.shelfA.ID), nil)
	g.drill.Quantity = 19
	g.lamp = newItem("Lamp", idPtr(g.shelfA.ID), nil)
	price := decimal.RequireFromString("19.99")
	g.lamp.Price = &price
	g.lamp.Color = strPtr("Brass")
	g.rake = newItem("Rake", nil, idPtr(g.garage.ID))
	g.rake.Quantity = 2

	g.snap = &Snapshot{
		Spaces:      []models.Space{g.bench, g.attic, g.garage},
		Inventories: []models.Inventory{g.toolbox, g.shelfB, g.shelfA},
		Items:       []models.Item{g.rake, g.lamp, g.drill},
	}
	return g
}

func names[T any](list []T, name func(T) string) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		out = append(out, name(v))
	}
	return out
}

func itemNames(items []models.Item) []string {
	return names(items, func(i models.Item) string { return i.Name })
}

func inventoryNames(invs []models.Inventory) []string {
	return names(invs, func(i models.Inventory) string { return i.Name })
}

func spaceNames(spaces []models.Space) []string {
	return names(spaces, func(s models.Space) string { return s.Name })
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestChildViews(t *testing.T) {
	g := garageSnapshot()

	t.Run("child inventories preserve snapshot order", func(t *testing.T) {
		got := inventoryNames(g.snap.ChildInventories(g.garage.ID))
		if !equalStrings(got, []string{"Shelf B", "Shelf A"}) {
			t.Fatalf("unexpected child inventories %v", got)
		}
	})

	t.Run("child items preserve snapshot order", func(t *testing.T) {
		got := itemNames(g.snap.ChildItems(g.shelfA.ID))
		if !equalStrings(got, []string{"Lamp", "Drill"}) {
			t.Fatalf("unexpected child items %v", got)
		}
	})

	t.Run("nested inventories do not count as space children", func(t *testing.T) {
		if n := g.snap.ChildInventoryCount(g.garage.ID); n != 2 {
			t.Fatalf("expected 2 inventories directly in Garage, got %d", n)
		}
		got := inventoryNames(g.snap.NestedInventories(g.shelfA.ID))
		if !equalStrings(got, []string{"Toolbox"}) {
			t.Fatalf("unexpected nested inventories %v", got)
		}
	})

	t.Run("items placed in a space", func(t *testing.T) {
		got := itemNames(g.snap.ItemsInSpace(g.garage.ID))
		if !equalStrings(got, []string{"Rake"}) {
			t.Fatalf("unexpected space items %v", got)
		}
	})

	t.Run("space tree", func(t *testing.T) {
		if got := spaceNames(g.snap.RootSpaces()); !equalStrings(got, []string{"Attic", "Garage"}) {
			t.Fatalf("unexpected roots %v", got)
		}
		if got := spaceNames(g.snap.ChildSpaces(g.garage.ID)); !equalStrings(got, []string{"Workbench"}) {
			t.Fatalf("unexpected child spaces %v", got)
		}
	})

	t.Run("unknown parent yields empty non-nil lists", func(t *testing.T) {
		missing := uuid.New()
		if got := g.snap.ChildInventories(missing); got == nil || len(got) != 0 {
			t.Fatalf("expected empty list, got %v", got)
		}
		if got := g.snap.ChildItems(missing); got == nil || len(got) != 0 {
			t.Fatalf("expected empty list, got %v", got)
		}
	})
}

func TestCountConsistency(t *testing.T) {
	g := garageSnapshot()

	for _, sp := range g.snap.Spaces {
		if g.snap.ChildInventoryCount(sp.ID) != len(g.snap.ChildInventories(sp.ID)) {
			t.Fatalf("inventory count mismatch for %s", sp.Name)
		}
	}
	for _, inv := range g.snap.Inventories {
		if g.snap.ChildItemCount(inv.ID) != len(g.snap.ChildItems(inv.ID)) {
			t.Fatalf("item count mismatch for %s", inv.Name)
		}
	}
}

func TestViewsDoNotAliasSnapshot(t *testing.T) {
	g := garageSnapshot()

	children := g.snap.ChildItems(g.shelfA.ID)
	children[0].Name = "Mutated"

	if g.snap.Items[1].Name != "Lamp" {
		t.Fatalf("expected snapshot to be untouched, got %q", g.snap.Items[1].Name)
	}
}

func TestPathAndAncestors(t *testing.T) {
	g := garageSnapshot()
	toolboxItem := newItem("Hex keys", idPtr(g.toolbox.ID), nil)
	g.snap.Items = append(g.snap.Items, toolboxItem)

	t.Run("item inside nested inventory", func(t *testing.T) {
		path := g.snap.Path(KindItem, toolboxItem.ID)
		got := names(path, func(c Crumb) string { return c.Name })
		if !equalStrings(got, []string{"Garage", "Shelf A", "Toolbox", "Hex keys"}) {
			t.Fatalf("unexpected path %v", got)
		}
		if path[0].Kind != KindSpace || path[1].Kind != KindInventory || path[3].Kind != KindItem {
			t.Fatalf("unexpected crumb kinds %+v", path)
		}
	})

	t.Run("item placed in a space", func(t *testing.T) {
		got := names(g.snap.Path(KindItem, g.rake.ID), func(c Crumb) string { return c.Name })
		if !equalStrings(got, []string{"Garage", "Rake"}) {
			t.Fatalf("unexpected path %v", got)
		}
	})

	t.Run("nested space", func(t *testing.T) {
		got := names(g.snap.Path(KindSpace, g.bench.ID), func(c Crumb) string { return c.Name })
		if !equalStrings(got, []string{"Garage", "Workbench"}) {
			t.Fatalf("unexpected path %v", got)
		}
	})

	t.Run("unknown entity", func(t *testing.T) {
		if path := g.snap.Path(KindItem, uuid.New()); path != nil {
			t.Fatalf("expected nil path, got %v", path)
		}
	})

	t.Run("ancestor walk terminates on a corrupted cycle", func(t *testing.T) {
		a := newSpace("A", nil)
		b := newSpace("B", idPtr(a.ID))
		c := newSpace("C", idPtr(b.ID))
		a.ParentID = idPtr(c.ID)
		snap := &Snapshot{Spaces: []models.Space{a, b, c}}

		got := spaceNames(snap.SpaceAncestors(a.ID))
		if !equalStrings(got, []string{"C", "B"}) {
			t.Fatalf("unexpected ancestors %v", got)
		}
	})
}
