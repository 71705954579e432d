package lists

import "time"

type List struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	ShopID      *string    `json:"shopId"`
	Status      Status     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt"`
	CompletedBy *string    `json:"completedBy"`
	Items       []Item     `json:"items"`
}

// Item is a line of a List. QtyRequested travels as "qty" on the wire.
type Item struct {
	ID           string     `json:"id"`
	SKU          *string    `json:"sku"`
	Name         string     `json:"name"`
	QtyRequested int        `json:"qty"`
	QtyCollected *int       `json:"qtyCollected"`
	Status       ItemStatus `json:"status"`
	Version      int        `json:"version"`
}

// NewItem is a validated item ready to be inserted by CreateList.
type NewItem struct {
	ID     string
	SKU    *string
	Name   string
	Qty    int
	Status ItemStatus
}

// Completion is what CompleteList reports back. Title and Items are filled
// by the service after a re-fetch.
type Completion struct {
	ListID      string    `json:"listId"`
	ShopID      *string   `json:"-"`
	Status      Status    `json:"status"`
	CompletedAt time.Time `json:"completedAt"`
	CompletedBy *string   `json:"completedBy"`
	Title       string    `json:"-"`
	Items       []Item    `json:"-"`
}

type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	ShopID       *string    `json:"shopId"`
	Role         string     `json:"role"`
	Active       bool       `json:"-"`
	LastLogin    *time.Time `json:"-"`
	CreatedAt    time.Time  `json:"-"`
}

// StrPtr returns nil for the empty string.
func StrPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
