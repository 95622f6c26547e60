package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/zyborn/auction-api/internal/core/domain"
)

func renderError(t *testing.T, method string, err error) (*httptest.ResponseRecorder, errorResponse) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	NewHTTPErrorHandler(zerolog.Nop())(err, c)

	var body errorResponse
	if method != http.MethodHead {
		if jerr := json.Unmarshal(rec.Body.Bytes(), &body); jerr != nil {
			t.Fatalf("invalid json: %v (%s)", jerr, rec.Body.String())
		}
	}
	return rec, body
}

func TestHTTPErrorHandler_DomainErrors(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{domain.ErrAuthRequired, http.StatusUnauthorized, domain.CodeAuthRequired},
		{domain.ErrProfileIncomplete, http.StatusForbidden, domain.CodeProfileIncomplete},
		{domain.ErrPendingApproval, http.StatusForbidden, domain.CodePendingApproval},
		{fmt.Errorf("%w: 1234", domain.ErrInvalidIncrement), http.StatusUnprocessableEntity, domain.CodeInvalidIncrement},
		{fmt.Errorf("%w (auction closed)", domain.ErrAuctionClosed), http.StatusConflict, domain.CodeAuctionClosed},
		{fmt.Errorf("submit bid: %w", domain.ErrConflict), http.StatusConflict, domain.CodeConflict},
		{domain.ErrAlreadyApproved, http.StatusConflict, domain.CodeAlreadyApproved},
		{domain.ErrNotPending, http.StatusConflict, domain.CodeNotPending},
		{domain.ErrItemNotFound, http.StatusNotFound, domain.CodeNotFound},
		{domain.ErrInvalidCredentials, http.StatusUnauthorized, domain.CodeInvalidCredentials},
		{domain.ErrUserExists, http.StatusConflict, domain.CodeUserExists},
		{domain.ErrStorageUnavailable, http.StatusServiceUnavailable, domain.CodeStorageUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			rec, body := renderError(t, http.MethodPost, tt.err)
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rec.Code)
			}
			if body.Code != tt.code {
				t.Fatalf("expected code %s, got %s", tt.code, body.Code)
			}
		})
	}
}

func TestHTTPErrorHandler_ValidationFields(t *testing.T) {
	err := domain.NewValidationError(map[string]string{"date_of_birth": "date_of_birth is required"})
	rec, body := renderError(t, http.MethodPost, err)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	if body.Fields["date_of_birth"] == "" {
		t.Fatalf("expected field map, got %+v", body)
	}
}

func TestHTTPErrorHandler_PartialFailureHidesCause(t *testing.T) {
	err := fmt.Errorf("review r1: %w: %w", domain.ErrPartialFailure, errors.New("mongo: socket closed"))
	rec, body := renderError(t, http.MethodPost, err)

	if rec.Code != http.StatusInternalServerError || body.Code != domain.CodePartialFailure {
		t.Fatalf("unexpected response %d %+v", rec.Code, body)
	}
	if body.Error != domain.ErrPartialFailure.Error() {
		t.Fatalf("store error leaked to client: %q", body.Error)
	}
}

func TestHTTPErrorHandler_UnknownError(t *testing.T) {
	rec, body := renderError(t, http.MethodGet, errors.New("pq: relation does not exist"))

	if rec.Code != http.StatusInternalServerError || body.Code != domain.CodeInternal {
		t.Fatalf("unexpected response %d %+v", rec.Code, body)
	}
	if body.Error != "internal server error" {
		t.Fatalf("internal error leaked: %q", body.Error)
	}
}

func TestHTTPErrorHandler_EchoErrors(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{echo.NewHTTPError(http.StatusUnauthorized, "invalid token"), http.StatusUnauthorized, domain.CodeAuthRequired},
		{echo.NewHTTPError(http.StatusBadRequest, "invalid payload"), http.StatusBadRequest, domain.CodeValidation},
		{echo.ErrNotFound, http.StatusNotFound, domain.CodeNotFound},
		{echo.ErrMethodNotAllowed, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED"},
	}

	for _, tt := range tests {
		rec, body := renderError(t, http.MethodGet, tt.err)
		if rec.Code != tt.status || body.Code != tt.code {
			t.Fatalf("%v: expected %d %s, got %d %s", tt.err, tt.status, tt.code, rec.Code, body.Code)
		}
	}
}

func TestHTTPErrorHandler_HeadHasNoBody(t *testing.T) {
	rec, _ := renderError(t, http.MethodHead, domain.ErrItemNotFound)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Fatalf("expected empty body, got %q", rec.Body.String())
	}
}
