package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/zyborn/auction-api/internal/core/domain"
	"github.com/zyborn/auction-api/internal/core/ports"
)

// Ledger is the per-item bid history and the only writer of bids.
type Ledger struct {
	items ports.ItemRepository
	bids  ports.BidRepository
	bus   ports.EventBus
	retry RetryPolicy
	log   zerolog.Logger
}

func NewLedger(items ports.ItemRepository, bids ports.BidRepository, bus ports.EventBus, retry RetryPolicy, log zerolog.Logger) *Ledger {
	return &Ledger{items: items, bids: bids, bus: bus, retry: retry, log: log}
}

// Item loads an item, retrying transient read failures.
func (l *Ledger) Item(ctx context.Context, itemID string) (*domain.Item, error) {
	item, err := readWithRetry(ctx, l.retry, func(ctx context.Context) (*domain.Item, error) {
		return l.items.FindByID(ctx, itemID)
	})
	if err != nil {
		return nil, fmt.Errorf("ledger: load item %s: %w", itemID, err)
	}
	return item, nil
}

// CurrentPrice returns the item's price and the bid count observed in the
// same read. The count is the expectedPriorCount for the next Append.
func (l *Ledger) CurrentPrice(ctx context.Context, item *domain.Item) (domain.LedgerStatus, error) {
	latest, err := readWithRetry(ctx, l.retry, func(ctx context.Context) (*domain.Bid, error) {
		return l.bids.Latest(ctx, item.ID)
	})
	if err != nil {
		return domain.LedgerStatus{}, fmt.Errorf("ledger: read price of %s: %w", item.ID, err)
	}
	return domain.CurrentPrice(item, latest), nil
}

// Status returns {amount, bidCount} for an item.
func (l *Ledger) Status(ctx context.Context, itemID string) (*domain.LedgerStatus, error) {
	item, err := l.Item(ctx, itemID)
	if err != nil {
		return nil, err
	}
	status, err := l.CurrentPrice(ctx, item)
	if err != nil {
		return nil, err
	}
	return &status, nil
}

// Append records bid at sequence expectedPriorCount+1. If another writer
// already took that slot it returns domain.ErrConflict and nothing is written.
func (l *Ledger) Append(ctx context.Context, itemID string, expectedPriorCount int64, bid domain.Bid) (*domain.Bid, error) {
	if expectedPriorCount < 0 {
		return nil, fmt.Errorf("ledger: negative prior count %d", expectedPriorCount)
	}
	if !bid.Amount.IsPositive() {
		return nil, fmt.Errorf("ledger: non-positive amount %s", bid.Amount)
	}

	bid.ItemID = itemID
	bid.Seq = expectedPriorCount + 1

	if err := l.bids.Insert(ctx, &bid); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, fmt.Errorf("ledger: slot %d of %s taken: %w", bid.Seq, itemID, err)
		}
		return nil, fmt.Errorf("ledger: append bid: %w", err)
	}

	event := domain.Event{
		Type:       domain.EventBidPlaced,
		Key:        itemID,
		OccurredAt: bid.PlacedAt,
		Bid:        &bid,
	}
	if err := l.bus.Publish(ctx, event); err != nil {
		l.log.Warn().Err(err).Str("item_id", itemID).Int64("seq", bid.Seq).Msg("failed to publish bid event")
	}

	return &bid, nil
}

// History returns the item's accepted bids in sequence order.
func (l *Ledger) History(ctx context.Context, itemID string) ([]domain.Bid, error) {
	if _, err := l.Item(ctx, itemID); err != nil {
		return nil, err
	}
	bids, err := readWithRetry(ctx, l.retry, func(ctx context.Context) ([]domain.Bid, error) {
		return l.bids.ListByItem(ctx, itemID)
	})
	if err != nil {
		return nil, fmt.Errorf("ledger: list bids of %s: %w", itemID, err)
	}
	return bids, nil
}

// Subscribe calls fn for every bid committed to any item, in per-item order.
func (l *Ledger) Subscribe(fn ports.EventHandler) (unsubscribe func()) {
	return l.bus.Subscribe("bid.", fn)
}
