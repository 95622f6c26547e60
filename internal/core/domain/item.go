package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AuctionState is the time-derived phase of an item's auction window.
type AuctionState string

const (
	AuctionScheduled AuctionState = "scheduled"
	AuctionOpen      AuctionState = "open"
	AuctionClosed    AuctionState = "closed"
)

// Item is a single lot. Its bids live in a separate per-item ledger.
type Item struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	Currency      string          `json:"currency"`
	StartingPrice decimal.Decimal `json:"starting_price"`
	StartTime     *time.Time      `json:"start_time,omitempty"`
	EndTime       time.Time       `json:"end_time"`
	CreatedAt     time.Time       `json:"created_at"`
}

// StateAt reports the auction phase at the given instant.
// A nil StartTime means the auction opened when the item was listed.
func (i *Item) StateAt(now time.Time) AuctionState {
	if i.StartTime != nil && now.Before(*i.StartTime) {
		return AuctionScheduled
	}
	if !now.Before(i.EndTime) {
		return AuctionClosed
	}
	return AuctionOpen
}

// Bid is one accepted entry of an item's ledger. Seq starts at 1 and has no gaps.
type Bid struct {
	ItemID   string          `json:"item_id"`
	Seq      int64           `json:"sequence_index"`
	Amount   decimal.Decimal `json:"amount"`
	BidderID string          `json:"bidder_id"`
	PlacedAt time.Time       `json:"placed_at"`
}

// LedgerStatus is the derived price view of an item.
type LedgerStatus struct {
	Amount   decimal.Decimal `json:"amount"`
	BidCount int64           `json:"bid_count"`
}

// CurrentPrice returns the starting price when latest is nil, otherwise the
// amount of the highest-sequence bid.
func CurrentPrice(item *Item, latest *Bid) LedgerStatus {
	if latest == nil {
		return LedgerStatus{Amount: item.StartingPrice, BidCount: 0}
	}
	return LedgerStatus{Amount: latest.Amount, BidCount: latest.Seq}
}
