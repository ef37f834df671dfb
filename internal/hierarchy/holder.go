package hierarchy

import (
	"context"
	"errors"
	"sync"

	"github.com/Kawdoor/aizer/internal/failure"
	"github.com/google/uuid"
)

var (
	ErrHolderClosed = errors.New("snapshot holder closed")
	// ErrSuperseded is returned by Reload when the group selection changed
	// while the load was in flight; the loaded snapshot is dropped.
	ErrSuperseded = errors.New("snapshot load superseded")
)

// Holder owns the current snapshot for one selected group. Every group
// switch discards the snapshot and every mutation is followed by Reload;
// nothing is patched in place.
type Holder struct {
	loader Loader

	mu         sync.Mutex
	groupID    uuid.UUID
	generation uint64
	snapshot   *Snapshot
	closed     bool
}

func NewHolder(loader Loader) *Holder {
	return &Holder{loader: loader}
}

// Select switches to groupID and drops the current snapshot.
func (h *Holder) Select(groupID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.groupID = groupID
	h.generation++
	h.snapshot = nil
}

func (h *Holder) GroupID() uuid.UUID {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.groupID
}

// Snapshot returns the last successfully applied snapshot, or nil.
func (h *Holder) Snapshot() *Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.snapshot
}

// Reload fetches a fresh snapshot for the selected group. The result is
// applied only if the holder is still open and the selection has not changed
// since the load started. On failure the previous snapshot is kept.
func (h *Holder) Reload(ctx context.Context) (*Snapshot, error) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrHolderClosed
	}
	if h.groupID == uuid.Nil {
		h.mu.Unlock()
		return nil, failure.Validation("reload snapshot", "no group selected")
	}
	groupID, generation := h.groupID, h.generation
	h.mu.Unlock()

	snap, err := h.loader.LoadGroupSnapshot(ctx, groupID)

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHolderClosed
	}
	if h.generation != generation {
		return nil, ErrSuperseded
	}
	if err != nil {
		return nil, err
	}
	h.snapshot = snap
	return snap, nil
}

// Close marks the holder dead; in-flight reloads will not apply their results.
func (h *Holder) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	h.snapshot = nil
}
