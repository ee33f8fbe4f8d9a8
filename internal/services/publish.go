package services

import (
	"context"

	"github.com/abrezinsky/quizroom/internal/logger"
	"github.com/abrezinsky/quizroom/internal/models"
)

// Publisher delivers events to every connection of a game room
type Publisher interface {
	Publish(ctx context.Context, gameID int64, event models.Event) error
}

// roomPublisher is embedded by services that announce state changes.
// A nil Publisher turns publishing into a no-op.
type roomPublisher struct {
	log       logger.Logger
	publisher Publisher
}

// SetPublisher sets the bus used to announce changes to game rooms
func (p *roomPublisher) SetPublisher(pub Publisher) {
	p.publisher = pub
}

// publish fans an event out to the room. The state change it announces has
// already been committed, so a failed publish is logged rather than returned;
// clients resynchronise through the connect-time replay.
func (p *roomPublisher) publish(ctx context.Context, gameID int64, event models.Event) {
	if p.publisher == nil {
		return
	}
	if err := p.publisher.Publish(ctx, gameID, event); err != nil {
		p.log.Error("Failed to publish room event", "game_id", gameID, "type", event.EventType(), "error", err)
	}
}
