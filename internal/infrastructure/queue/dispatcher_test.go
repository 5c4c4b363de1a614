package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inventory-app/inventory-system/internal/core/domain"
)

type memAuditRepo struct {
	mu     sync.Mutex
	events []domain.ItemEvent
	err    error
}

func (r *memAuditRepo) Insert(_ context.Context, e *domain.ItemEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, *e)
	return nil
}

func (r *memAuditRepo) ListByItem(_ context.Context, itemID string) ([]*domain.ItemEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.ItemEvent
	for i := range r.events {
		if r.events[i].ItemID == itemID {
			e := r.events[i]
			out = append(out, &e)
		}
	}
	return out, nil
}

func TestDispatcher_PersistsAllEventsOnStop(t *testing.T) {
	repo := &memAuditRepo{}
	d := NewDispatcher(3, repo, zerolog.Nop())
	d.Start(context.Background())

	for i := 0; i < 30; i++ {
		d.Record(domain.ItemEvent{ItemID: fmt.Sprintf("item-%d", i%5), Action: domain.ItemUpdated, Quantity: i})
	}
	d.Stop()

	assert.Len(t, repo.events, 30)
}

func TestDispatcher_PreservesPerItemOrder(t *testing.T) {
	repo := &memAuditRepo{}
	d := NewDispatcher(4, repo, zerolog.Nop())
	d.Start(context.Background())

	for q := 0; q < 50; q++ {
		d.Record(domain.ItemEvent{ItemID: "item-a", Action: domain.ItemUpdated, Quantity: q})
		d.Record(domain.ItemEvent{ItemID: "item-b", Action: domain.ItemUpdated, Quantity: q})
	}
	d.Stop()

	for _, id := range []string{"item-a", "item-b"} {
		events, err := repo.ListByItem(context.Background(), id)
		require.NoError(t, err)
		require.Len(t, events, 50)
		for i, e := range events {
			assert.Equal(t, i, e.Quantity, "%s event %d out of order", id, i)
		}
	}
}

func TestDispatcher_SameItemSameShard(t *testing.T) {
	d := NewDispatcher(8, &memAuditRepo{}, zerolog.Nop())

	first := d.shardIndex("64b7f0c2a1b2c3d4e5f60718")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, d.shardIndex("64b7f0c2a1b2c3d4e5f60718"))
	}
	assert.GreaterOrEqual(t, first, 0)
	assert.Less(t, first, 8)
}

func TestDispatcher_DropsWhenQueueFull(t *testing.T) {
	repo := &memAuditRepo{}
	d := newDispatcher(1, 1, repo, zerolog.Nop())

	// not started yet: the single slot fills up and the second event is dropped
	d.Record(domain.ItemEvent{ItemID: "item-1", Action: domain.ItemCreated})
	d.Record(domain.ItemEvent{ItemID: "item-1", Action: domain.ItemUpdated})

	d.Start(context.Background())
	d.Stop()

	require.Len(t, repo.events, 1)
	assert.Equal(t, domain.ItemCreated, repo.events[0].Action)
}

func TestDispatcher_RecordAfterStopIsIgnored(t *testing.T) {
	repo := &memAuditRepo{}
	d := NewDispatcher(2, repo, zerolog.Nop())
	d.Start(context.Background())
	d.Stop()

	assert.NotPanics(t, func() {
		d.Record(domain.ItemEvent{ItemID: "item-1", Action: domain.ItemDeleted})
	})
	d.Stop()
	assert.Empty(t, repo.events)
}

func TestDispatcher_RepositoryFailureDoesNotStopWorker(t *testing.T) {
	repo := &memAuditRepo{err: errors.New("mongo down")}
	d := NewDispatcher(1, repo, zerolog.Nop())
	d.Start(context.Background())

	d.Record(domain.ItemEvent{ItemID: "item-1", Action: domain.ItemCreated})
	d.Record(domain.ItemEvent{ItemID: "item-1", Action: domain.ItemUpdated})
	d.Stop()

	assert.Empty(t, repo.events)
}
