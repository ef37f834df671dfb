package hierarchy

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Kawdoor/aizer/internal/database"
	"github.com/Kawdoor/aizer/internal/failure"
	"github.com/Kawdoor/aizer/internal/models"
	"github.com/Kawdoor/aizer/internal/store"
	"github.com/google/uuid"
)

func setupAggregatorStore(t *testing.T) (*store.GormStore, models.Group) {
	t.Helper()

	db, err := database.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	s := store.NewGormStore(db)

	owner := models.User{Email: "owner@example.com", PasswordHash: "x", DisplayName: "Owner"}
	if err := s.Insert(context.Background(), &owner); err != nil {
		t.Fatalf("failed to insert owner: %v", err)
	}
	group := models.Group{Name: "Home", OwnerID: owner.ID}
	if err := s.Insert(context.Background(), &group); err != nil {
		t.Fatalf("failed to insert group: %v", err)
	}
	return s, group
}

func mustInsert(t *testing.T, s store.Store, record interface{}) {
	t.Helper()
	if err := s.Insert(context.Background(), record); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	time.Sleep(2 * time.Millisecond)
}

func TestLoadGroupSnapshot(t *testing.T) {
	s, group := setupAggregatorStore(t)
	ctx := context.Background()

	garage := models.Space{GroupID: group.ID, Name: "Garage"}
	mustInsert(t, s, &garage)
	attic := models.Space{GroupID: group.ID, Name: "Attic"}
	mustInsert(t, s, &attic)
	shelf := models.Inventory{GroupID: group.ID, Name: "Shelf A", ParentSpaceID: &garage.ID}
	mustInsert(t, s, &shelf)
	drill := models.Item{GroupID: group.ID, Name: "Drill", Quantity: 1, InventoryID: &shelf.ID}
	mustInsert(t, s, &drill)

	other := models.Group{Name: "Office", OwnerID: group.OwnerID}
	mustInsert(t, s, &other)
	mustInsert(t, s, &models.Space{GroupID: other.ID, Name: "Desk"})

	snap, err := NewAggregator(s).LoadGroupSnapshot(ctx, group.ID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if snap.GroupID != group.ID {
		t.Fatalf("expected group %s, got %s", group.ID, snap.GroupID)
	}
	if got := spaceNames(snap.Spaces); !equalStrings(got, []string{"Attic", "Garage"}) {
		t.Fatalf("expected group spaces newest first, got %v", got)
	}
	if got := inventoryNames(snap.Inventories); !equalStrings(got, []string{"Shelf A"}) {
		t.Fatalf("unexpected inventories %v", got)
	}
	if got := itemNames(snap.Items); !equalStrings(got, []string{"Drill"}) {
		t.Fatalf("unexpected items %v", got)
	}
	if snap.ChildItemCount(shelf.ID) != 1 || snap.ChildInventoryCount(garage.ID) != 1 {
		t.Fatal("expected derived counts to reflect the stored hierarchy")
	}
}

func TestLoadGroupSnapshotEmptyGroup(t *testing.T) {
	s, group := setupAggregatorStore(t)

	snap, err := NewAggregator(s).LoadGroupSnapshot(context.Background(), group.ID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if snap.Spaces == nil || snap.Inventories == nil || snap.Items == nil {
		t.Fatal("expected empty, non-nil collections")
	}
}

// failingStore fails every query against one table.
type failingStore struct {
	store.Store
	table string
	err   error
}

func (f *failingStore) Query(ctx context.Context, dest interface{}, filters []store.Filter, order *store.Order) error {
	if _, ok := dest.(*[]models.Inventory); ok && f.table == "inventories" {
		return f.err
	}
	return f.Store.Query(ctx, dest, filters, order)
}

func TestLoadGroupSnapshotFailsFast(t *testing.T) {
	s, group := setupAggregatorStore(t)
	mustInsert(t, s, &models.Space{GroupID: group.ID, Name: "Garage"})

	t.Run("fetch failure publishes nothing", func(t *testing.T) {
		broken := &failingStore{Store: s, table: "inventories", err: failure.Wrap(failure.KindTransient, "query inventories", errors.New("connection reset"))}

		snap, err := NewAggregator(broken).LoadGroupSnapshot(context.Background(), group.ID)
		if snap != nil {
			t.Fatalf("expected no partial snapshot, got %+v", snap)
		}
		if !failure.Is(err, failure.KindTransient) {
			t.Fatalf("expected transient failure, got %v", err)
		}
	})

	t.Run("permission failures keep their kind", func(t *testing.T) {
		broken := &failingStore{Store: s, table: "inventories", err: failure.Permission("query inventories", "")}

		_, err := NewAggregator(broken).LoadGroupSnapshot(context.Background(), group.ID)
		if !failure.Is(err, failure.KindPermission) {
			t.Fatalf("expected permission failure, got %v", err)
		}
	})

	t.Run("unknown group yields an empty snapshot", func(t *testing.T) {
		snap, err := NewAggregator(s).LoadGroupSnapshot(context.Background(), uuid.New())
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if len(snap.Spaces) != 0 {
			t.Fatalf("expected no spaces, got %d", len(snap.Spaces))
		}
	})
}
