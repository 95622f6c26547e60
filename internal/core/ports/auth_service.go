package ports

import (
	"context"

	"github.com/zyborn/auction-api/internal/core/domain"
)

// Caller is the identity attached to a request by the identity provider.
// The zero value is an anonymous caller.
type Caller struct {
	UserID      string
	DisplayName string
	Email       string
	Role        string
}

// Authenticated reports whether the identity provider vouched for the caller.
func (c Caller) Authenticated() bool { return c.UserID != "" }

type AuthService interface {
	Register(ctx context.Context, email, password, displayName string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
	UpdateProfile(ctx context.Context, userID, displayName string) (string, *domain.User, error)
}
