package handler

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/inventory-app/inventory-system/internal/core/domain"
)

// messageResponse is the envelope for acknowledgments and errors.
type messageResponse struct {
	Message string `json:"message"`
}

// --- Auth ---

type credentialsRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

// --- Items ---

type createItemRequest struct {
	Name      string       `json:"name"      validate:"required"`
	Quantity  *int         `json:"quantity"  validate:"required"`
	DateAdded optionalTime `json:"dateAdded" swaggertype:"string" format:"date-time"`
}

// optionalTime accepts an RFC 3339 timestamp, null or "". The last two leave
// it unset so the server stamps the current time.
type optionalTime struct {
	t *time.Time
}

func (o *optionalTime) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) || bytes.Equal(data, []byte(`""`)) {
		o.t = nil
		return nil
	}
	var t time.Time
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	o.t = &t
	return nil
}

// Ptr returns the parsed time, or nil when none was given.
func (o optionalTime) Ptr() *time.Time { return o.t }

type updateItemRequest struct {
	Name     string `json:"name"     validate:"required"`
	Quantity *int   `json:"quantity" validate:"required"`
}

// itemResponse carries the id under both "_id" and "id" so clients written
// against the document store's native shape keep working.
type itemResponse struct {
	MongoID   string    `json:"_id"`
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Quantity  int       `json:"quantity"`
	DateAdded time.Time `json:"dateAdded"`
}

type itemEventResponse struct {
	ItemID     string    `json:"itemId"`
	Action     string    `json:"action"`
	Actor      string    `json:"actor,omitempty"`
	Name       string    `json:"name,omitempty"`
	Quantity   int       `json:"quantity"`
	OccurredAt time.Time `json:"occurredAt"`
}

func toItemResponse(item *domain.Item) itemResponse {
	return itemResponse{
		MongoID:   item.ID,
		ID:        item.ID,
		Name:      item.Name,
		Quantity:  item.Quantity,
		DateAdded: item.DateAdded,
	}
}

func toItemResponses(items []*domain.Item) []itemResponse {
	out := make([]itemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, toItemResponse(item))
	}
	return out
}

func toItemEventResponses(events []*domain.ItemEvent) []itemEventResponse {
	out := make([]itemEventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, itemEventResponse{
			ItemID:     e.ItemID,
			Action:     string(e.Action),
			Actor:      e.Actor,
			Name:       e.Name,
			Quantity:   e.Quantity,
			OccurredAt: e.OccurredAt,
		})
	}
	return out
}
