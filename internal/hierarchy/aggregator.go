package hierarchy

import (
	"context"
	"time"

	"github.com/Kawdoor/aizer/internal/failure"
	"github.com/Kawdoor/aizer/internal/metrics"
	"github.com/Kawdoor/aizer/internal/models"
	"github.com/Kawdoor/aizer/internal/store"
	"github.com/Kawdoor/aizer/pkg/logger"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Loader produces snapshots. Aggregator implements it against the store;
// the CLI implements it over the HTTP API.
type Loader interface {
	LoadGroupSnapshot(ctx context.Context, groupID uuid.UUID) (*Snapshot, error)
}

type Aggregator struct {
	Store store.Store
}

func NewAggregator(s store.Store) *Aggregator {
	return &Aggregator{Store: s}
}

// LoadGroupSnapshot issues the three group-scoped queries concurrently. If any
// of them fails the whole load fails and no snapshot is returned.
func (a *Aggregator) LoadGroupSnapshot(ctx context.Context, groupID uuid.UUID) (*Snapshot, error) {
	start := time.Now()

	var (
		spaces      []models.Space
		inventories []models.Inventory
		items       []models.Item
	)
	filters := []store.Filter{store.Eq("group_id", groupID)}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.Store.Query(gctx, &spaces, filters, store.NewestFirst)
	})
	g.Go(func() error {
		return a.Store.Query(gctx, &inventories, filters, store.NewestFirst)
	})
	g.Go(func() error {
		return a.Store.Query(gctx, &items, filters, store.NewestFirst)
	})

	if err := g.Wait(); err != nil {
		metrics.ObserveSnapshotLoad(time.Since(start), err)
		logger.Error("snapshot_load_failed", err, map[string]interface{}{
			"group_id": groupID.String(),
		})
		return nil, &failure.Error{Kind: failure.KindOf(err), Op: "load group snapshot", Err: err}
	}

	metrics.ObserveSnapshotLoad(time.Since(start), nil)

	if spaces == nil {
		spaces = []models.Space{}
	}
	if inventories == nil {
		inventories = []models.Inventory{}
	}
	if items == nil {
		items = []models.Item{}
	}

	return &Snapshot{
		GroupID:     groupID,
		Spaces:      spaces,
		Inventories: inventories,
		Items:       items,
		LoadedAt:    time.Now().UTC(),
	}, nil
}
