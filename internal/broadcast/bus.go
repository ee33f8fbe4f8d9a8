// Package broadcast fans room events out to every connection of a game.
package broadcast

import (
	"context"
	"sync"

	"github.com/abrezinsky/quizroom/internal/logger"
	"github.com/abrezinsky/quizroom/internal/models"
)

// DefaultBufferSize is the per-subscriber event buffer
const DefaultBufferSize = 256

// Bus is a per-game publish/subscribe channel. Events published to one game
// reach its current subscribers in publish order; there is no backlog.
type Bus interface {
	Publish(ctx context.Context, gameID int64, event models.Event) error
	Subscribe(gameID int64) *Subscription
	Unsubscribe(sub *Subscription)
}

// Subscription receives the events of one game room. C is closed on
// Unsubscribe, or when the subscriber fell too far behind and was dropped.
type Subscription struct {
	GameID int64
	C      <-chan models.Event

	ch   chan models.Event
	once sync.Once
}

func newSubscription(gameID int64, size int) *Subscription {
	ch := make(chan models.Event, size)
	return &Subscription{GameID: gameID, C: ch, ch: ch}
}

func (s *Subscription) close() {
	s.once.Do(func() { close(s.ch) })
}

type room struct {
	mu   sync.Mutex
	subs map[*Subscription]struct{}
}

// MemoryBus is an in-process Bus
type MemoryBus struct {
	log        logger.Logger
	bufferSize int

	mu    sync.Mutex
	rooms map[int64]*room
}

// NewMemoryBus creates an in-process bus. A bufferSize below 1 uses DefaultBufferSize.
func NewMemoryBus(log logger.Logger, bufferSize int) *MemoryBus {
	if bufferSize < 1 {
		bufferSize = DefaultBufferSize
	}
	return &MemoryBus{
		log:        log,
		bufferSize: bufferSize,
		rooms:      make(map[int64]*room),
	}
}

// Subscribe joins a game room
func (b *MemoryBus) Subscribe(gameID int64) *Subscription {
	sub := newSubscription(gameID, b.bufferSize)

	b.mu.Lock()
	defer b.mu.Unlock()

	rm, ok := b.rooms[gameID]
	if !ok {
		rm = &room{subs: make(map[*Subscription]struct{})}
		b.rooms[gameID] = rm
	}
	rm.mu.Lock()
	rm.subs[sub] = struct{}{}
	total := len(rm.subs)
	rm.mu.Unlock()

	b.log.Debug("Room subscriber added", "game_id", gameID, "subscribers", total)
	return sub
}

// Unsubscribe leaves the room and closes the subscription channel.
// Calling it more than once is safe.
func (b *MemoryBus) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}

	b.mu.Lock()
	rm, ok := b.rooms[sub.GameID]
	if ok {
		rm.mu.Lock()
		delete(rm.subs, sub)
		if len(rm.subs) == 0 {
			delete(b.rooms, sub.GameID)
		}
		rm.mu.Unlock()
	}
	b.mu.Unlock()

	sub.close()
}

// Publish delivers event to every subscriber of the game. The room lock is
// held for the whole fan-out so concurrent publishes to one room never
// interleave. A subscriber whose buffer is full is dropped.
func (b *MemoryBus) Publish(_ context.Context, gameID int64, event models.Event) error {
	b.mu.Lock()
	rm, ok := b.rooms[gameID]
	b.mu.Unlock()
	if !ok {
		return nil
	}

	rm.deliver(b.log, gameID, event)
	return nil
}

// deliver hands event to every subscriber of the room. Subscribers whose
// buffer is full are dropped.
func (rm *room) deliver(log logger.Logger, gameID int64, event models.Event) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	for sub := range rm.subs {
		select {
		case sub.ch <- event:
		default:
			delete(rm.subs, sub)
			sub.close()
			log.Warn("Dropped slow room subscriber", "game_id", gameID, "event", event.EventType())
		}
	}
}

// Subscribers returns the number of subscribers of a game room
func (b *MemoryBus) Subscribers(gameID int64) int {
	b.mu.Lock()
	rm, ok := b.rooms[gameID]
	b.mu.Unlock()
	if !ok {
		return 0
	}
	rm.mu.Lock()
	defer rm.mu.Unlock()
	return len(rm.subs)
}

// Close drops every subscriber
func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for gameID, rm := range b.rooms {
		rm.mu.Lock()
		for sub := range rm.subs {
			delete(rm.subs, sub)
			sub.close()
		}
		rm.mu.Unlock()
		delete(b.rooms, gameID)
	}
	return nil
}

var _ Bus = (*MemoryBus)(nil)
