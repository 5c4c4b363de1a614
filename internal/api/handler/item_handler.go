package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/inventory-app/inventory-system/internal/api/metrics"
	"github.com/inventory-app/inventory-system/internal/api/middleware"
	"github.com/inventory-app/inventory-system/internal/core/domain"
	"github.com/inventory-app/inventory-system/internal/core/ports"
)

// HeaderIdempotencyKey lets a client retry an item creation safely.
const HeaderIdempotencyKey = "Idempotency-Key"

// ItemHandler handles HTTP requests for inventory items.
type ItemHandler struct {
	service ports.ItemService
}

func NewItemHandler(service ports.ItemService) *ItemHandler {
	return &ItemHandler{service: service}
}

// List handles GET /api/items.
//
// @Summary      List all items
// @Tags         items
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   itemResponse
// @Failure      401  {object}  messageResponse
// @Failure      403  {object}  messageResponse
// @Failure      500  {object}  messageResponse
// @Router       /items [get]
func (h *ItemHandler) List(c echo.Context) error {
	items, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toItemResponses(items))
}

// Create handles POST /api/items.
//
// @Summary      Create an item
// @Tags         items
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string             false  "Idempotency key to prevent duplicate submissions"
// @Param        body             body      createItemRequest  true   "Item to create"
// @Success      200              {object}  itemResponse
// @Failure      400              {object}  messageResponse
// @Failure      401              {object}  messageResponse
// @Failure      403              {object}  messageResponse
// @Failure      409              {object}  messageResponse
// @Failure      500              {object}  messageResponse
// @Router       /items [post]
func (h *ItemHandler) Create(c echo.Context) error {
	var req createItemRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	item, err := h.service.Create(c.Request().Context(), ports.CreateItemInput{
		Name:           req.Name,
		Quantity:       *req.Quantity,
		DateAdded:      req.DateAdded.Ptr(),
		IdempotencyKey: c.Request().Header.Get(HeaderIdempotencyKey),
		Actor:          middleware.UserID(c),
	})
	if err != nil {
		return err
	}

	metrics.ItemMutationsTotal.WithLabelValues(string(domain.ItemCreated)).Inc()
	return c.JSON(http.StatusOK, toItemResponse(item))
}

// Update handles PUT /api/items/:id.
//
// @Summary      Update an item
// @Tags         items
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "Item id"
// @Param        body  body      updateItemRequest  true  "New name and quantity"
// @Success      200   {object}  itemResponse
// @Failure      400   {object}  messageResponse
// @Failure      401   {object}  messageResponse
// @Failure      403   {object}  messageResponse
// @Failure      404   {object}  messageResponse
// @Failure      500   {object}  messageResponse
// @Router       /items/{id} [put]
func (h *ItemHandler) Update(c echo.Context) error {
	var req updateItemRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	item, err := h.service.Update(c.Request().Context(), ports.UpdateItemInput{
		ID:       c.Param("id"),
		Name:     req.Name,
		Quantity: *req.Quantity,
		Actor:    middleware.UserID(c),
	})
	if err != nil {
		return err
	}

	metrics.ItemMutationsTotal.WithLabelValues(string(domain.ItemUpdated)).Inc()
	return c.JSON(http.StatusOK, toItemResponse(item))
}

// Delete handles DELETE /api/items/:id. Deleting an unknown id still succeeds.
//
// @Summary      Delete an item
// @Tags         items
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Item id"
// @Success      200  {object}  messageResponse
// @Failure      400  {object}  messageResponse
// @Failure      401  {object}  messageResponse
// @Failure      403  {object}  messageResponse
// @Failure      500  {object}  messageResponse
// @Router       /items/{id} [delete]
func (h *ItemHandler) Delete(c echo.Context) error {
	deleted, err := h.service.Delete(c.Request().Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		return err
	}

	if deleted {
		metrics.ItemMutationsTotal.WithLabelValues(string(domain.ItemDeleted)).Inc()
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Item deleted"})
}

// History handles GET /api/items/:id/history.
//
// @Summary      Item audit trail
// @Tags         items
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Item id"
// @Success      200  {array}   itemEventResponse
// @Failure      400  {object}  messageResponse
// @Failure      401  {object}  messageResponse
// @Failure      403  {object}  messageResponse
// @Failure      500  {object}  messageResponse
// @Router       /items/{id}/history [get]
func (h *ItemHandler) History(c echo.Context) error {
	events, err := h.service.History(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toItemEventResponses(events))
}
