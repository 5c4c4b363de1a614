package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/inventory-app/inventory-system/internal/core/domain"
	"github.com/inventory-app/inventory-system/internal/core/ports"
)

// ItemService implements CRUD over the item store and feeds the audit trail.
type ItemService struct {
	repo     ports.ItemRepository
	audits   ports.AuditRepository
	recorder ports.AuditRecorder
	idem     ports.IdempotencyStore
	logger   zerolog.Logger
	now      func() time.Time
}

// NewItemService wires the item use cases. recorder and idem may be nil, in
// which case audit recording and idempotent creation are disabled.
func NewItemService(
	repo ports.ItemRepository,
	audits ports.AuditRepository,
	recorder ports.AuditRecorder,
	idem ports.IdempotencyStore,
	logger zerolog.Logger,
) *ItemService {
	return &ItemService{
		repo:     repo,
		audits:   audits,
		recorder: recorder,
		idem:     idem,
		logger:   logger,
		now:      time.Now,
	}
}

// List returns every item in store order. The result is never nil.
func (s *ItemService) List(ctx context.Context) ([]*domain.Item, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	if items == nil {
		items = []*domain.Item{}
	}
	return items, nil
}

// Create stores a new item. DateAdded defaults to the current time. When an
// idempotency key was already used, the item created by the first call is
// returned without side effects. A key whose first request is still running
// yields domain.ErrRequestInProgress.
func (s *ItemService) Create(ctx context.Context, input ports.CreateItemInput) (*domain.Item, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}

	key := input.IdempotencyKey
	if s.idem == nil {
		key = ""
	}
	if key != "" {
		itemID, reserved, err := s.idem.Reserve(ctx, key)
		switch {
		case err != nil:
			s.logger.Warn().Err(err).Str("idempotency_key", key).Msg("idempotency reserve failed, creating anyway")
			key = ""
		case !reserved && itemID == "":
			return nil, domain.ErrRequestInProgress
		case !reserved:
			return s.replay(ctx, key, itemID)
		}
	}

	dateAdded := s.now().UTC()
	if input.DateAdded != nil && !input.DateAdded.IsZero() {
		dateAdded = input.DateAdded.UTC()
	}

	created, err := s.repo.Create(ctx, &domain.Item{
		Name:      input.Name,
		Quantity:  input.Quantity,
		DateAdded: dateAdded,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to create item")
		if key != "" {
			if relErr := s.idem.Release(context.WithoutCancel(ctx), key); relErr != nil {
				s.logger.Warn().Err(relErr).Str("idempotency_key", key).Msg("failed to release idempotency key")
			}
		}
		return nil, fmt.Errorf("create item: %w", err)
	}

	if key != "" {
		if err := s.idem.Complete(context.WithoutCancel(ctx), key, created.ID); err != nil {
			s.logger.Warn().Err(err).Str("idempotency_key", key).Msg("failed to store idempotency key")
		}
	}

	s.record(domain.ItemCreated, created, input.Actor)
	s.logger.Info().Str("item_id", created.ID).Str("name", created.Name).Msg("item created")
	return created, nil
}

// replay returns the item an earlier request created with key. If that item
// has since been deleted the replay reports domain.ErrItemNotFound.
func (s *ItemService) replay(ctx context.Context, key, itemID string) (*domain.Item, error) {
	item, err := s.repo.FindByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, domain.ErrItemNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("idempotent replay: %w", err)
	}

	s.logger.Info().Str("idempotency_key", key).Str("item_id", item.ID).Msg("idempotent replay")
	return item, nil
}

// Update overwrites name and quantity of an existing item.
func (s *ItemService) Update(ctx context.Context, input ports.UpdateItemInput) (*domain.Item, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}

	updated, err := s.repo.Update(ctx, input.ID, input.Name, input.Quantity)
	if err != nil {
		if errors.Is(err, domain.ErrItemNotFound) || errors.Is(err, domain.ErrInvalidID) {
			return nil, err
		}
		return nil, fmt.Errorf("update item: %w", err)
	}

	s.record(domain.ItemUpdated, updated, input.Actor)
	return updated, nil
}

// Delete removes an item and reports whether one was removed. Deleting an
// item that does not exist succeeds and leaves no audit event.
func (s *ItemService) Delete(ctx context.Context, id, actor string) (bool, error) {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidID) {
			return false, err
		}
		return false, fmt.Errorf("delete item: %w", err)
	}

	if deleted {
		s.record(domain.ItemDeleted, &domain.Item{ID: id}, actor)
	}
	return deleted, nil
}

// History returns the recorded mutations of an item, oldest first.
func (s *ItemService) History(ctx context.Context, id string) ([]*domain.ItemEvent, error) {
	events, err := s.audits.ListByItem(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidID) {
			return nil, err
		}
		return nil, fmt.Errorf("item history: %w", err)
	}
	if events == nil {
		events = []*domain.ItemEvent{}
	}
	return events, nil
}

func (s *ItemService) record(action domain.ItemAction, item *domain.Item, actor string) {
	if s.recorder == nil {
		return
	}
	s.recorder.Record(domain.ItemEvent{
		ItemID:     item.ID,
		Action:     action,
		Actor:      actor,
		Name:       item.Name,
		Quantity:   item.Quantity,
		OccurredAt: s.now().UTC(),
	})
}
