package domain

import "time"

// Item is a single inventory record.
type Item struct {
	ID        string
	Name      string
	Quantity  int
	DateAdded time.Time
}

// ItemAction names the kind of mutation recorded in an item's audit trail.
type ItemAction string

const (
	ItemCreated ItemAction = "created"
	ItemUpdated ItemAction = "updated"
	ItemDeleted ItemAction = "deleted"
)

// ItemEvent is one entry of the audit trail kept for every item mutation.
// Name and Quantity snapshot the item after the change; they are zero for deletes.
type ItemEvent struct {
	ItemID     string
	Action     ItemAction
	Actor      string // token subject; empty when the request was anonymous
	Name       string
	Quantity   int
	OccurredAt time.Time
}
