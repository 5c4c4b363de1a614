package ports

import (
	"context"
	"time"

	"github.com/inventory-app/inventory-system/internal/core/domain"
)

// CreateItemInput carries the data needed to create an item.
type CreateItemInput struct {
	Name      string
	Quantity  int
	DateAdded *time.Time // nil means "now"
	// IdempotencyKey is optional; a repeated key returns the item created first.
	IdempotencyKey string
	Actor          string
}

// UpdateItemInput carries the fields an update may overwrite.
type UpdateItemInput struct {
	ID       string
	Name     string
	Quantity int
	Actor    string
}

// ItemService defines the use-case operations for inventory items.
type ItemService interface {
	List(ctx context.Context) ([]*domain.Item, error)
	Create(ctx context.Context, input CreateItemInput) (*domain.Item, error)
	Update(ctx context.Context, input UpdateItemInput) (*domain.Item, error)
	// Delete reports whether an item was removed; a missing item is not an error.
	Delete(ctx context.Context, id, actor string) (bool, error)
	History(ctx context.Context, id string) ([]*domain.ItemEvent, error)
}

// AuditRecorder accepts item events for asynchronous persistence.
type AuditRecorder interface {
	Record(event domain.ItemEvent)
}
