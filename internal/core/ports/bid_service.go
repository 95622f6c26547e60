package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zyborn/auction-api/internal/core/domain"
)

// SubmitBidInput is a request to raise an item's price by one configured step.
type SubmitBidInput struct {
	ItemID    string
	Caller    Caller
	Increment decimal.Decimal
}

// BidResult describes an accepted bid.
type BidResult struct {
	ItemID   string
	Amount   decimal.Decimal
	Seq      int64
	Currency string
}

// BidService is the bid admission engine plus the read side of the ledger.
type BidService interface {
	SubmitBid(ctx context.Context, input SubmitBidInput) (*BidResult, error)
	GetStatus(ctx context.Context, itemID string) (*domain.LedgerStatus, error)
	History(ctx context.Context, itemID string) ([]domain.Bid, error)
	Increments() domain.IncrementSet
}

// CreateItemInput carries the fields of a new lot.
type CreateItemInput struct {
	Title         string
	Currency      string
	StartingPrice decimal.Decimal
	StartTime     *time.Time
	EndTime       time.Time
}

// ItemService manages the item catalogue.
type ItemService interface {
	CreateItem(ctx context.Context, input CreateItemInput) (*domain.Item, error)
	GetItem(ctx context.Context, id string) (*domain.Item, error)
	ListItems(ctx context.Context) ([]*domain.Item, error)
}
