package lists

import (
	"context"
	"time"
)

type EventType string

const (
	EventListCreated      EventType = "list-created"
	EventListCompleted    EventType = "list-completed"
	EventItemUpdated      EventType = "item-updated"
	EventListDeleted      EventType = "list-deleted"
	EventPaymentRequested EventType = "payment-requested"
)

const EventVersion = 1

// Event is the JSON document put on the list and payment queues. EventID,
// OccurredAt and Producer are stamped by the publisher.
type Event struct {
	EventID     string       `json:"eventId"`
	Type        EventType    `json:"type"`
	OccurredAt  time.Time    `json:"occurredAt"`
	Producer    string       `json:"producer,omitempty"`
	ListID      string       `json:"listId"`
	ItemID      string       `json:"itemId,omitempty"`
	Changes     *ItemChanges `json:"changes,omitempty"`
	Version     int          `json:"version,omitempty"`
	ShopID      *string      `json:"shopId,omitempty"`
	Status      string       `json:"status,omitempty"`
	CompletedAt *time.Time   `json:"completedAt,omitempty"`
	CompletedBy *string      `json:"completedBy,omitempty"`
	Items       []Item       `json:"items,omitempty"`
	Title       string       `json:"title,omitempty"`
	ItemCount   *int         `json:"itemCount,omitempty"`
}

type ItemChanges struct {
	Status       ItemStatus `json:"status"`
	QtyCollected *int       `json:"qtyCollected,omitempty"`
}

// Publisher delivers events best-effort. Implementations must not block the
// caller beyond their own send timeout and never report failure.
type Publisher interface {
	Publish(ctx context.Context, ev Event)
}

// PartitionKey keeps every event of one list on one partition.
func PartitionKey(listID string) []byte { return []byte(listID) }
