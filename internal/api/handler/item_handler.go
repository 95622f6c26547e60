package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/zyborn/auction-api/internal/core/ports"
)

// ItemHandler handles the item catalogue.
type ItemHandler struct {
	service ports.ItemService
	now     func() time.Time
}

func NewItemHandler(service ports.ItemService, clock ports.Clock) *ItemHandler {
	return &ItemHandler{service: service, now: clock.Now}
}

// List handles GET /v1/items.
//
// @Summary      List items, soonest-closing first
// @Tags         items
// @Produce      json
// @Success      200  {array}   itemResponse
// @Router       /v1/items [get]
func (h *ItemHandler) List(c echo.Context) error {
	items, err := h.service.ListItems(c.Request().Context())
	if err != nil {
		return err
	}

	now := h.now()
	resp := make([]itemResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, toItemResponse(item, now))
	}
	return c.JSON(http.StatusOK, resp)
}

// Get handles GET /v1/items/:id.
//
// @Summary      Get an item
// @Tags         items
// @Produce      json
// @Param        id   path      string  true  "Item ID"
// @Success      200  {object}  itemResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/items/{id} [get]
func (h *ItemHandler) Get(c echo.Context) error {
	item, err := h.service.GetItem(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toItemResponse(item, h.now()))
}

// Create handles POST /v1/admin/items.
//
// @Summary      List a new item for auction
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createItemRequest  true  "Item"
// @Success      201   {object}  itemResponse
// @Failure      403   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/admin/items [post]
func (h *ItemHandler) Create(c echo.Context) error {
	var req createItemRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	item, err := h.service.CreateItem(c.Request().Context(), toCreateItemInput(req))
	if err != nil {
		return err
	}

	c.Response().Header().Set(echo.HeaderLocation, "/v1/items/"+item.ID)
	return c.JSON(http.StatusCreated, toItemResponse(item, h.now()))
}
