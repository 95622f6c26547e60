package ports

import (
	"context"

	"github.com/zyborn/auction-api/internal/core/domain"
)

// BidRepository is the per-item append-only bid collection.
type BidRepository interface {
	// Latest returns the highest-sequence bid of the item, or nil when none
	// exist. Because sequences are dense, its Seq is also the bid count.
	Latest(ctx context.Context, itemID string) (*domain.Bid, error)

	// Insert stores bid at (ItemID, Seq). It must fail with domain.ErrConflict
	// when that slot is already taken; this is the only serialization point.
	Insert(ctx context.Context, bid *domain.Bid) error

	// ListByItem returns all bids of an item ordered by Seq ascending.
	ListByItem(ctx context.Context, itemID string) ([]domain.Bid, error)
}
