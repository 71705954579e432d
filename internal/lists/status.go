package lists

type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

var validNext = map[Status]map[Status]bool{
	StatusActive:    {StatusCompleted: true},
	StatusCompleted: {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

type ItemStatus string

const (
	ItemPending     ItemStatus = "pending"
	ItemCollected   ItemStatus = "collected"
	ItemUnavailable ItemStatus = "unavailable"
)

func (s ItemStatus) Valid() bool {
	switch s {
	case ItemPending, ItemCollected, ItemUnavailable:
		return true
	}
	return false
}
