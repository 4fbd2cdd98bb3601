package store

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/themancarve/tickets/internal/models"
)

const ticketEventsChannel = "tickets:events"

const (
	EventCreated   = "created"
	EventUpdated   = "updated"
	EventConfirmed = "confirmed"
	EventScanned   = "scanned"
	EventDeleted   = "deleted"
)

type TicketEvent struct {
	Type   string        `json:"type"`
	Ticket models.Ticket `json:"ticket"`
}

// Events broadcasts ticket mutations over a Redis channel so the staff and
// stats surfaces can watch the store instead of polling it.
type Events struct {
	redis *redis.Client
}

func NewEvents(client *redis.Client) *Events {
	return &Events{redis: client}
}

// PublishTicketChange is best-effort; a dropped event only delays a dashboard
// until its next refresh. Safe to call on a nil receiver.
func (e *Events) PublishTicketChange(ctx context.Context, eventType string, ticket models.Ticket) {
	if e == nil {
		return
	}
	payload, err := json.Marshal(TicketEvent{Type: eventType, Ticket: ticket})
	if err != nil {
		return
	}
	if err := e.redis.Publish(ctx, ticketEventsChannel, payload).Err(); err != nil {
		log.Printf("ticket event publish failed: %v", err)
	}
}

// SubscribeTickets returns a channel of ticket change events and a cancel
// function that releases the underlying subscription.
func (e *Events) SubscribeTickets(ctx context.Context) (<-chan TicketEvent, func()) {
	sub := e.redis.Subscribe(ctx, ticketEventsChannel)
	out := make(chan TicketEvent)

	go func() {
		defer close(out)
		for msg := range sub.Channel() {
			var event TicketEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				continue
			}
			select {
			case out <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, func() { sub.Close() }
}
