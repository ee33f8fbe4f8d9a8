package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/abrezinsky/quizroom/internal/logger"
	"github.com/abrezinsky/quizroom/internal/models"
	"github.com/redis/go-redis/v9"
)

// ChannelPrefix prefixes the Redis channel of every game room
const ChannelPrefix = "quizroom:game:"

// RedisBus shares rooms between server instances through Redis pub/sub.
// Published events go to Redis; a single relay goroutine feeds every
// received event into a local MemoryBus, so per-room order follows the
// Redis channel order.
type RedisBus struct {
	client *redis.Client
	local  *MemoryBus
	log    logger.Logger

	mu     sync.Mutex
	pubsub *redis.PubSub
	done   chan struct{}
}

// NewRedisBus creates a bus on top of an existing Redis client
func NewRedisBus(client *redis.Client, log logger.Logger) *RedisBus {
	return &RedisBus{
		client: client,
		local:  NewMemoryBus(log, DefaultBufferSize),
		log:    log,
	}
}

// Channel returns the Redis channel of a game room
func Channel(gameID int64) string {
	return ChannelPrefix + strconv.FormatInt(gameID, 10)
}

// Start subscribes to every room channel and starts relaying.
// It returns once Redis has confirmed the subscription.
func (b *RedisBus) Start(ctx context.Context) error {
	pubsub := b.client.PSubscribe(ctx, ChannelPrefix+"*")
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return fmt.Errorf("subscribe to room channels: %w", err)
	}

	b.mu.Lock()
	b.pubsub = pubsub
	b.done = make(chan struct{})
	b.mu.Unlock()

	go b.relay(pubsub.Channel(), b.done)
	b.log.Info("Redis room bus started", "pattern", ChannelPrefix+"*")
	return nil
}

func (b *RedisBus) relay(messages <-chan *redis.Message, done chan struct{}) {
	defer close(done)
	for msg := range messages {
		gameID, err := strconv.ParseInt(strings.TrimPrefix(msg.Channel, ChannelPrefix), 10, 64)
		if err != nil {
			b.log.Warn("Ignoring message on unexpected channel", "channel", msg.Channel)
			continue
		}
		event, err := models.DecodeEvent([]byte(msg.Payload))
		if err != nil {
			b.log.Warn("Ignoring undecodable room event", "game_id", gameID, "error", err)
			continue
		}
		b.local.Publish(context.Background(), gameID, event)
	}
}

// Publish sends event to the game's Redis channel
func (b *RedisBus) Publish(ctx context.Context, gameID int64, event models.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event.EventType(), err)
	}
	if err := b.client.Publish(ctx, Channel(gameID), data).Err(); err != nil {
		return fmt.Errorf("publish %s event: %w", event.EventType(), err)
	}
	return nil
}

// Subscribe joins a game room on this instance
func (b *RedisBus) Subscribe(gameID int64) *Subscription {
	return b.local.Subscribe(gameID)
}

// Unsubscribe leaves a game room
func (b *RedisBus) Unsubscribe(sub *Subscription) {
	b.local.Unsubscribe(sub)
}

// Close stops relaying and drops local subscribers. The Redis client is
// owned by the caller and left open.
func (b *RedisBus) Close() error {
	b.mu.Lock()
	pubsub, done := b.pubsub, b.done
	b.pubsub = nil
	b.mu.Unlock()

	var err error
	if pubsub != nil {
		err = pubsub.Close()
		<-done
	}
	b.local.Close()
	return err
}

var _ Bus = (*RedisBus)(nil)
