package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/zyborn/auction-api/internal/api/metrics"
	"github.com/zyborn/auction-api/internal/core/domain"
	"github.com/zyborn/auction-api/internal/core/ports"
)

// BidHandler exposes the bid admission engine and the ledger read side.
type BidHandler struct {
	service ports.BidService
}

func NewBidHandler(service ports.BidService) *BidHandler {
	return &BidHandler{service: service}
}

// Increments handles GET /v1/increments.
//
// @Summary      List the configured bid increments
// @Tags         bids
// @Produce      json
// @Success      200  {object}  incrementsResponse
// @Router       /v1/increments [get]
func (h *BidHandler) Increments(c echo.Context) error {
	return c.JSON(http.StatusOK, incrementsResponse{Increments: h.service.Increments()})
}

// Status handles GET /v1/items/:id/status.
//
// @Summary      Current price and bid count of an item
// @Tags         bids
// @Produce      json
// @Param        id   path      string  true  "Item ID"
// @Success      200  {object}  statusResponse
// @Failure      404  {object}  errorResponse
// @Failure      503  {object}  errorResponse
// @Router       /v1/items/{id}/status [get]
func (h *BidHandler) Status(c echo.Context) error {
	itemID := c.Param("id")
	status, err := h.service.GetStatus(c.Request().Context(), itemID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, statusResponse{ItemID: itemID, Amount: status.Amount, BidCount: status.BidCount})
}

// History handles GET /v1/items/:id/bids.
//
// @Summary      Accepted bids of an item in sequence order
// @Tags         bids
// @Produce      json
// @Param        id   path      string  true  "Item ID"
// @Success      200  {object}  historyResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/items/{id}/bids [get]
func (h *BidHandler) History(c echo.Context) error {
	itemID := c.Param("id")
	bids, err := h.service.History(c.Request().Context(), itemID)
	if err != nil {
		return err
	}
	if bids == nil {
		bids = []domain.Bid{}
	}
	return c.JSON(http.StatusOK, historyResponse{ItemID: itemID, Bids: bids})
}

// Submit handles POST /v1/items/:id/bids.
//
// A 409 with code CONFLICT means another bid landed first; re-read the
// status and resubmit.
//
// @Summary      Raise an item's price by one configured increment
// @Tags         bids
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string            true  "Item ID"
// @Param        body  body      submitBidRequest  true  "Chosen increment"
// @Success      201   {object}  submitBidResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /v1/items/{id}/bids [post]
func (h *BidHandler) Submit(c echo.Context) error {
	start := time.Now()

	var req submitBidRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	result, err := h.service.SubmitBid(c.Request().Context(), ports.SubmitBidInput{
		ItemID:    c.Param("id"),
		Caller:    callerFromContext(c),
		Increment: req.Increment,
	})
	if err != nil {
		metrics.BidsRejectedTotal.WithLabelValues(domain.ErrorCode(err)).Inc()
		metrics.BidAdmissionDuration.WithLabelValues("rejected").Observe(time.Since(start).Seconds())
		return err
	}

	metrics.BidsAcceptedTotal.Inc()
	metrics.BidAdmissionDuration.WithLabelValues("accepted").Observe(time.Since(start).Seconds())
	return c.JSON(http.StatusCreated, toSubmitBidResponse(result))
}
