package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/inventory-app/inventory-system/internal/core/domain"
)

const collectionItemEvents = "item_events"

// AuditRepository implements ports.AuditRepository using MongoDB.
type AuditRepository struct {
	col *mongo.Collection
}

func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{col: db.Collection(collectionItemEvents)}
}

type mongoItemEvent struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	ItemID     primitive.ObjectID `bson:"itemId"`
	Action     string             `bson:"action"`
	Actor      string             `bson:"actor,omitempty"`
	Name       string             `bson:"name,omitempty"`
	Quantity   int                `bson:"quantity"`
	OccurredAt time.Time          `bson:"occurredAt"`
	RecordedAt time.Time          `bson:"recordedAt"`
}

// Insert appends an event to the item_events collection.
func (r *AuditRepository) Insert(ctx context.Context, event *domain.ItemEvent) error {
	itemID, err := parseID(event.ItemID)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoItemEvent{
		ItemID:     itemID,
		Action:     string(event.Action),
		Actor:      event.Actor,
		Name:       event.Name,
		Quantity:   event.Quantity,
		OccurredAt: event.OccurredAt.UTC(),
		RecordedAt: time.Now().UTC(),
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert item event: %w", err)
	}
	return nil
}

// ListByItem returns the events of one item ordered by occurrence.
func (r *AuditRepository) ListByItem(ctx context.Context, itemID string) ([]*domain.ItemEvent, error) {
	oid, err := parseID(itemID)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "occurredAt", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{"itemId": oid}, opts)
	if err != nil {
		return nil, fmt.Errorf("find item events: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoItemEvent
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode item events: %w", err)
	}

	events := make([]*domain.ItemEvent, 0, len(docs))
	for _, d := range docs {
		events = append(events, &domain.ItemEvent{
			ItemID:     d.ItemID.Hex(),
			Action:     domain.ItemAction(d.Action),
			Actor:      d.Actor,
			Name:       d.Name,
			Quantity:   d.Quantity,
			OccurredAt: d.OccurredAt.UTC(),
		})
	}
	return events, nil
}

// EnsureIndexes creates the lookup index used by ListByItem.
func (r *AuditRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "itemId", Value: 1}, {Key: "occurredAt", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("item_events index: %w", err)
	}
	return nil
}
