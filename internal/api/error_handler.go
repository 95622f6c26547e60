package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/zyborn/auction-api/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error  string            `json:"error"`
	Code   string            `json:"code"`
	Fields map[string]string `json:"fields,omitempty"`
}

var codeStatus = map[string]int{
	domain.CodeAuthRequired:       http.StatusUnauthorized,
	domain.CodeInvalidCredentials: http.StatusUnauthorized,
	domain.CodeProfileIncomplete:  http.StatusForbidden,
	domain.CodePendingApproval:    http.StatusForbidden,
	domain.CodeForbidden:          http.StatusForbidden,
	domain.CodeNotFound:           http.StatusNotFound,
	domain.CodeAuctionClosed:      http.StatusConflict,
	domain.CodeConflict:           http.StatusConflict,
	domain.CodeAlreadyApproved:    http.StatusConflict,
	domain.CodeNotPending:         http.StatusConflict,
	domain.CodeUserExists:         http.StatusConflict,
	domain.CodeInvalidIncrement:   http.StatusUnprocessableEntity,
	domain.CodeValidation:         http.StatusUnprocessableEntity,
	domain.CodeInvalidDecision:    http.StatusUnprocessableEntity,
	domain.CodeInvalidItem:        http.StatusUnprocessableEntity,
	domain.CodeStorageUnavailable: http.StatusServiceUnavailable,
	domain.CodePartialFailure:     http.StatusInternalServerError,
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their HTTP status and a stable code.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>", "code": "<CODE>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	// Echo's own errors (bind failures, 404 from router, auth middleware, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, errorResponse{Error: fmt.Sprintf("%v", he.Message), Code: httpCode(he.Code)}
	}

	code := domain.ErrorCode(err)
	status, known := codeStatus[code]
	if !known {
		// Unexpected error: log the real cause, return a generic message.
		log.Error().
			Err(err).
			Str("method", c.Request().Method).
			Str("path", c.Path()).
			Msg("unhandled error")
		return http.StatusInternalServerError, errorResponse{Error: "internal server error", Code: domain.CodeInternal}
	}

	body := errorResponse{Error: err.Error(), Code: code}
	switch code {
	case domain.CodeValidation:
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			body.Fields = ve.Fields
		}
	case domain.CodePartialFailure:
		log.Error().
			Err(err).
			Str("path", c.Path()).
			Msg("partial failure, run POST /v1/admin/verifications/reconcile")
		body.Error = domain.ErrPartialFailure.Error()
	case domain.CodeStorageUnavailable:
		log.Warn().Err(err).Str("path", c.Path()).Msg("storage unavailable")
		body.Error = domain.ErrStorageUnavailable.Error()
	}
	return status, body
}

func httpCode(status int) string {
	switch status {
	case http.StatusUnauthorized:
		return domain.CodeAuthRequired
	case http.StatusForbidden:
		return domain.CodeForbidden
	case http.StatusNotFound:
		return domain.CodeNotFound
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return domain.CodeValidation
	}
	return strings.ToUpper(strings.ReplaceAll(http.StatusText(status), " ", "_"))
}
