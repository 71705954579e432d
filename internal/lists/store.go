package lists

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// Store is the durable home of lists and their items. Lookups that find
// nothing return a nil result and a nil error.
//
// An empty shopID means "unscoped". A non-empty shopID matches lists whose
// stored shop equals it or is null.
type Store interface {
	CreateList(ctx context.Context, title, shopID string, items []NewItem) (*List, error)
	GetList(ctx context.Context, listID, shopID string) (*List, error)
	ListLists(ctx context.Context, shopID string) ([]List, error)
	// UpdateItem sets status, sets qtyCollected only when non-nil and bumps
	// version by one. Concurrent updates to one item serialize.
	UpdateItem(ctx context.Context, listID, itemID string, status ItemStatus, qtyCollected *int) (*Item, error)
	// CompleteList only transitions an active list; a completed list is
	// reported as absent.
	CompleteList(ctx context.Context, listID, completedBy, shopID string) (*Completion, error)
	DeleteList(ctx context.Context, listID, shopID string) (bool, error)
	HealthCheck(ctx context.Context) error
}

func NewListID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

func NewItemID() string {
	return "item-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
