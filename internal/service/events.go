package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/blog/internal/events"
	"github.com/Skotchmaster/blog/internal/logging"
)

// Publisher is satisfied by *events.Producer.
type Publisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

// publish is fire-and-report: a broker failure is logged and swallowed.
func publish(ctx context.Context, p Publisher, topic, typ string, entity, actor uuid.UUID, data any) {
	if p == nil {
		return
	}
	ev := events.Event{
		Type:       typ,
		EntityID:   entity.String(),
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
	if actor != uuid.Nil {
		ev.ActorID = actor.String()
	}
	if err := p.PublishEvent(ctx, topic, ev.EntityID, ev); err != nil {
		logging.FromContext(ctx).Error("event_publish_failed", "topic", topic, "type", typ, "error", err)
	}
}
