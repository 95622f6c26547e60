package ports

import (
	"context"

	"github.com/zyborn/auction-api/internal/core/domain"
)

// ReviewInput is an admin decision on a verification request.
type ReviewInput struct {
	RequestID  string
	Decision   domain.VerificationStatus
	ReviewerID string
}

// VerificationService is the KYC workflow that owns the approval flag.
type VerificationService interface {
	Submit(ctx context.Context, caller Caller, fields domain.VerificationFields) (*domain.VerificationRequest, error)
	Get(ctx context.Context, userID string) (*domain.VerificationRequest, error)
	MarkCallBooked(ctx context.Context, userID string) (*domain.VerificationRequest, error)
	Review(ctx context.Context, input ReviewInput) (*domain.VerificationRequest, error)
	ListByStatus(ctx context.Context, status domain.VerificationStatus) ([]*domain.VerificationRequest, error)
	Reconcile(ctx context.Context) (int, error)
}
