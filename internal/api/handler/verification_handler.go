package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/zyborn/auction-api/internal/api/metrics"
	"github.com/zyborn/auction-api/internal/core/domain"
	"github.com/zyborn/auction-api/internal/core/ports"
)

// VerificationHandler exposes the bidder side and the admin side of the
// verification workflow.
type VerificationHandler struct {
	service ports.VerificationService
}

func NewVerificationHandler(service ports.VerificationService) *VerificationHandler {
	return &VerificationHandler{service: service}
}

// Get handles GET /v1/verification.
//
// @Summary      Get own verification request
// @Tags         verification
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.VerificationRequest
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/verification [get]
func (h *VerificationHandler) Get(c echo.Context) error {
	caller, err := requireCaller(c)
	if err != nil {
		return err
	}
	req, err := h.service.Get(c.Request().Context(), caller.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, req)
}

// Submit handles POST /v1/verification.
//
// @Summary      Submit or resubmit verification details
// @Tags         verification
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      verificationRequest  true  "Verification form"
// @Success      201   {object}  domain.VerificationRequest
// @Failure      401   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/verification [post]
func (h *VerificationHandler) Submit(c echo.Context) error {
	caller, err := requireCaller(c)
	if err != nil {
		return err
	}

	var body verificationRequest
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	req, err := h.service.Submit(c.Request().Context(), caller, toVerificationFields(body))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, req)
}

// CallBooked handles POST /v1/verification/call-booked.
//
// @Summary      Record that the verification call was booked
// @Tags         verification
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.VerificationRequest
// @Failure      401  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/verification/call-booked [post]
func (h *VerificationHandler) CallBooked(c echo.Context) error {
	caller, err := requireCaller(c)
	if err != nil {
		return err
	}
	req, err := h.service.MarkCallBooked(c.Request().Context(), caller.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, req)
}

// List handles GET /v1/admin/verifications?status=.
//
// @Summary      Review queue filtered by status, oldest first
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "pending (default), approved or rejected"
// @Success      200     {object}  verificationListResponse
// @Failure      403     {object}  errorResponse
// @Failure      422     {object}  errorResponse
// @Router       /v1/admin/verifications [get]
func (h *VerificationHandler) List(c echo.Context) error {
	status := domain.VerificationStatus(c.QueryParam("status"))
	if status == "" {
		status = domain.VerificationPending
	}

	reqs, err := h.service.ListByStatus(c.Request().Context(), status)
	if err != nil {
		return err
	}
	if reqs == nil {
		reqs = []*domain.VerificationRequest{}
	}
	return c.JSON(http.StatusOK, verificationListResponse{Status: status, Requests: reqs})
}

// Review handles POST /v1/admin/verifications/:id/review.
//
// @Summary      Approve or reject a pending verification request
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string         true  "Verification request ID"
// @Param        body  body      reviewRequest  true  "Decision"
// @Success      200   {object}  domain.VerificationRequest
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /v1/admin/verifications/{id}/review [post]
func (h *VerificationHandler) Review(c echo.Context) error {
	caller, err := requireCaller(c)
	if err != nil {
		return err
	}

	var body reviewRequest
	if err := bind(c, &body); err != nil {
		return err
	}

	req, err := h.service.Review(c.Request().Context(), ports.ReviewInput{
		RequestID:  c.Param("id"),
		Decision:   domain.VerificationStatus(body.Decision),
		ReviewerID: caller.UserID,
	})
	if err != nil {
		if errors.Is(err, domain.ErrPartialFailure) {
			metrics.ReviewPartialFailuresTotal.Inc()
		}
		return err
	}

	metrics.ReviewsTotal.WithLabelValues(string(req.Status)).Inc()
	return c.JSON(http.StatusOK, req)
}

// Reconcile handles POST /v1/admin/verifications/reconcile.
//
// @Summary      Repair approval flags left behind by partial reviews
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  reconcileResponse
// @Failure      403  {object}  errorResponse
// @Router       /v1/admin/verifications/reconcile [post]
func (h *VerificationHandler) Reconcile(c echo.Context) error {
	n, err := h.service.Reconcile(c.Request().Context())
	metrics.ApprovalsReconciledTotal.Add(float64(n))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, reconcileResponse{Reconciled: n})
}
