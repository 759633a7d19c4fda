package events

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
)

const (
	TypeProductPropertiesUpdated     = "catalog.product_properties_updated"
	TypeProductPropertyGroupsUpdated = "catalog.product_property_groups_updated"
)

// Event announces a catalog change. Consumers only rely on Type and ProductID.
type Event struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	ProductID  string            `json:"product_id"`
	OccurredAt time.Time         `json:"occurred_at"`
	Attributes map[string]string `json:"attributes,omitempty"`
	// Source is the instance that published the event.
	Source string `json:"source,omitempty"`
}

func New(eventType, productID string, now time.Time) Event {
	return Event{
		ID:         ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
		Type:       eventType,
		ProductID:  productID,
		OccurredAt: now.UTC(),
	}
}

type Handler func(ctx context.Context, evt Event) error

type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

type Subscriber interface {
	Subscribe(h Handler)
}

// Bus publishes catalog events and fans them out to local subscribers.
type Bus interface {
	Publisher
	Subscriber
}
