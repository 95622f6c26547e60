package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/zyborn/auction-api/internal/api/middleware"
	"github.com/zyborn/auction-api/internal/core/ports"
)

// callerFromContext builds the caller identity from claims injected by the
// auth middleware. Without claims the caller is anonymous.
func callerFromContext(c echo.Context) ports.Caller {
	userID, _ := c.Get(middleware.CtxUserID).(string)
	name, _ := c.Get(middleware.CtxDisplayName).(string)
	email, _ := c.Get(middleware.CtxEmail).(string)
	role, _ := c.Get(middleware.CtxRole).(string)
	return ports.Caller{UserID: userID, DisplayName: name, Email: email, Role: role}
}

// requireCaller is a fast-fail check for routes mounted behind Auth.
func requireCaller(c echo.Context) (ports.Caller, error) {
	caller := callerFromContext(c)
	if !caller.Authenticated() {
		return caller, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return caller, nil
}

// bind decodes and validates the request body.
func bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	return c.Validate(req)
}
