package ports

import (
	"context"
	"time"

	"github.com/zyborn/auction-api/internal/core/domain"
)

// StatusUpdate is a conditional status transition on a verification request.
type StatusUpdate struct {
	RequestID  string
	From       domain.VerificationStatus
	To         domain.VerificationStatus
	ReviewedAt time.Time
	ReviewedBy string
}

// VerificationRepository persists one verification request per user.
type VerificationRepository interface {
	FindByID(ctx context.Context, id string) (*domain.VerificationRequest, error)
	FindByUserID(ctx context.Context, userID string) (*domain.VerificationRequest, error)

	// Upsert creates or replaces the request keyed by UserID. A stored request
	// that is already approved is never replaced: domain.ErrAlreadyApproved.
	Upsert(ctx context.Context, req *domain.VerificationRequest) error

	// UpdateStatus applies the transition only if the stored status equals
	// From; otherwise it returns domain.ErrNotPending.
	UpdateStatus(ctx context.Context, upd StatusUpdate) (*domain.VerificationRequest, error)

	SetCallBooked(ctx context.Context, userID string) (*domain.VerificationRequest, error)

	// ListByStatus returns matching requests, oldest SubmittedAt first.
	ListByStatus(ctx context.Context, status domain.VerificationStatus) ([]*domain.VerificationRequest, error)
}
