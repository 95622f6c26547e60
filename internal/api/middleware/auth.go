package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// Context keys set from a verified token.
const (
	CtxUserID      = "user_id"
	CtxDisplayName = "display_name"
	CtxEmail       = "email"
	CtxRole        = "role"
)

var errNoToken = errors.New("no bearer token")

// Auth validates the JWT and injects claims into context.
func Auth(jwtSecret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := authenticate(c, jwtSecret); err != nil {
				if errors.Is(err, errNoToken) {
					return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
				}
				return err
			}
			return next(c)
		}
	}
}

// OptionalAuth injects claims when a token is present and leaves the request
// anonymous otherwise. A token that is present but invalid is still a 401.
func OptionalAuth(jwtSecret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := authenticate(c, jwtSecret); err != nil && !errors.Is(err, errNoToken) {
				return err
			}
			return next(c)
		}
	}
}

func authenticate(c echo.Context, jwtSecret string) error {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return errNoToken
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
	}

	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(jwtSecret), nil
	})
	if err != nil || !tkn.Valid {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "token missing subject")
	}

	c.Set(CtxUserID, sub)
	c.Set(CtxDisplayName, claims["name"])
	c.Set(CtxEmail, claims["email"])
	c.Set(CtxRole, claims["role"])
	return nil
}
