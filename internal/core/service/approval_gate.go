package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/zyborn/auction-api/internal/core/domain"
	"github.com/zyborn/auction-api/internal/core/ports"
)

// ApprovalGate answers whether a user may bid. It holds no state of its own.
type ApprovalGate struct {
	users ports.UserRepository
	retry RetryPolicy
}

func NewApprovalGate(users ports.UserRepository, retry RetryPolicy) *ApprovalGate {
	return &ApprovalGate{users: users, retry: retry}
}

// IsApproved returns the user's approval flag. A user without a record has
// never been approved.
func (g *ApprovalGate) IsApproved(ctx context.Context, userID string) (bool, error) {
	user, err := readWithRetry(ctx, g.retry, func(ctx context.Context) (*domain.User, error) {
		return g.users.FindByID(ctx, userID)
	})
	if errors.Is(err, domain.ErrUserNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("approval gate: %w", err)
	}
	return user.ApprovedToBid, nil
}
