package ports

import (
	"context"

	"github.com/zyborn/auction-api/internal/core/domain"
)

// UserRepository persists accounts and the approval flag.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateDisplayName(ctx context.Context, id, displayName string) (*domain.User, error)
	// SetApprovedToBid is reserved for the verification workflow.
	SetApprovedToBid(ctx context.Context, id string, approved bool) error
}
