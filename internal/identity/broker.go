package identity

import (
	"sync"
	"time"

	"github.com/Kawdoor/aizer/pkg/logger"
	"github.com/google/uuid"
)

type EventType string

const (
	EventSignedIn       EventType = "signed_in"
	EventSignedOut      EventType = "signed_out"
	EventTokenRefreshed EventType = "token_refreshed"
	EventUserUpdated    EventType = "user_updated"
)

type Event struct {
	Type   EventType `json:"type"`
	UserID uuid.UUID `json:"userID"`
	At     time.Time `json:"at"`
}

// Broker fans session events out to subscribers. Publishing never blocks;
// a subscriber that falls behind loses events.
type Broker struct {
	mu     sync.RWMutex
	subs   map[int]chan Event
	nextID int
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[int]chan Event)}
}

// Subscribe returns a channel of events and a function that unsubscribes
// and closes it.
func (b *Broker) Subscribe(buffer int) (<-chan Event, func()) {
	ch := make(chan Event, buffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
}

func (b *Broker) Publish(evt Event) {
	if evt.At.IsZero() {
		evt.At = time.Now().UTC()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs {
		select {
		case ch <- evt:
		default:
			logger.Warn("session_event_dropped", map[string]interface{}{
				"type":    string(evt.Type),
				"user_id": evt.UserID.String(),
			})
		}
	}
}
