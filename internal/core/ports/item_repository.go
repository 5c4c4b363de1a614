package ports

import (
	"context"

	"github.com/inventory-app/inventory-system/internal/core/domain"
)

// ItemRepository defines persistence operations for inventory items.
type ItemRepository interface {
	List(ctx context.Context) ([]*domain.Item, error)
	Create(ctx context.Context, item *domain.Item) (*domain.Item, error)
	FindByID(ctx context.Context, id string) (*domain.Item, error)
	// Update overwrites name and quantity and returns the updated item, or
	// domain.ErrItemNotFound when no item has the given id.
	Update(ctx context.Context, id, name string, quantity int) (*domain.Item, error)
	// Delete removes the item and reports whether a document was removed.
	// Deleting a missing item is not an error.
	Delete(ctx context.Context, id string) (bool, error)
}

// AuditRepository persists the item audit trail.
type AuditRepository interface {
	Insert(ctx context.Context, event *domain.ItemEvent) error
	ListByItem(ctx context.Context, itemID string) ([]*domain.ItemEvent, error)
}

// IdempotencyStore remembers which item a client-supplied Idempotency-Key created.
type IdempotencyStore interface {
	// Reserve claims key for the caller. When reserved is false the key is
	// already taken and itemID holds the item it created, or "" while the
	// first request is still in flight.
	Reserve(ctx context.Context, key string) (itemID string, reserved bool, err error)
	// Complete binds a reserved key to the item it created.
	Complete(ctx context.Context, key, itemID string) error
	// Release drops a reservation whose create failed.
	Release(ctx context.Context, key string) error
}
