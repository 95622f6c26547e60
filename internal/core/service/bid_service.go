package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/zyborn/auction-api/internal/core/domain"
	"github.com/zyborn/auction-api/internal/core/ports"
)

type bidService struct {
	ledger     *Ledger
	gate       *ApprovalGate
	clock      *AuctionClock
	increments domain.IncrementSet
	log        zerolog.Logger
}

// NewBidService returns the bid admission engine.
func NewBidService(
	ledger *Ledger,
	gate *ApprovalGate,
	clock *AuctionClock,
	increments domain.IncrementSet,
	log zerolog.Logger,
) ports.BidService {
	return &bidService{
		ledger:     ledger,
		gate:       gate,
		clock:      clock,
		increments: increments,
		log:        log,
	}
}

// SubmitBid runs the admission pipeline. Every rejection is a distinct
// domain error; a lost race surfaces as domain.ErrConflict and is not retried
// here, the caller re-reads the price and resubmits.
func (s *bidService) SubmitBid(ctx context.Context, in ports.SubmitBidInput) (*ports.BidResult, error) {
	// 1. Identity.
	if !in.Caller.Authenticated() {
		return nil, s.reject(in, domain.ErrAuthRequired)
	}

	// 2. Profile completeness.
	if strings.TrimSpace(in.Caller.DisplayName) == "" {
		return nil, s.reject(in, domain.ErrProfileIncomplete)
	}

	// 3. Auction window. Evaluated before approval so a closed lot answers
	// AuctionClosed to everyone.
	item, err := s.ledger.Item(ctx, in.ItemID)
	if err != nil {
		return nil, fmt.Errorf("submit bid: %w", err)
	}
	state, now := s.clock.State(item)
	if state != domain.AuctionOpen {
		return nil, s.reject(in, fmt.Errorf("%w (auction %s)", domain.ErrAuctionClosed, state))
	}

	// 4. Approval gate.
	approved, err := s.gate.IsApproved(ctx, in.Caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("submit bid: %w", err)
	}
	if !approved {
		return nil, s.reject(in, domain.ErrPendingApproval)
	}

	// 5. Increment membership, then price and count from one read.
	inc, ok := s.increments.Match(in.Increment)
	if !ok {
		return nil, s.reject(in, fmt.Errorf("%w: %s", domain.ErrInvalidIncrement, in.Increment))
	}
	status, err := s.ledger.CurrentPrice(ctx, item)
	if err != nil {
		return nil, fmt.Errorf("submit bid: %w", err)
	}

	// 6. Conditional append at BidCount+1.
	bid, err := s.ledger.Append(ctx, item.ID, status.BidCount, domain.Bid{
		Amount:   status.Amount.Add(inc.Value),
		BidderID: in.Caller.UserID,
		PlacedAt: now,
	})
	if err != nil {
		return nil, s.reject(in, fmt.Errorf("submit bid: %w", err))
	}

	s.log.Info().
		Str("item_id", item.ID).
		Str("bidder_id", bid.BidderID).
		Int64("seq", bid.Seq).
		Str("amount", bid.Amount.String()).
		Msg("bid accepted")

	// 7. Accepted.
	return &ports.BidResult{
		ItemID:   item.ID,
		Amount:   bid.Amount,
		Seq:      bid.Seq,
		Currency: item.Currency,
	}, nil
}

func (s *bidService) reject(in ports.SubmitBidInput, err error) error {
	s.log.Debug().
		Err(err).
		Str("item_id", in.ItemID).
		Str("user_id", in.Caller.UserID).
		Str("increment", in.Increment.String()).
		Msg("bid rejected")
	return err
}

func (s *bidService) GetStatus(ctx context.Context, itemID string) (*domain.LedgerStatus, error) {
	return s.ledger.Status(ctx, itemID)
}

func (s *bidService) History(ctx context.Context, itemID string) ([]domain.Bid, error) {
	return s.ledger.History(ctx, itemID)
}

func (s *bidService) Increments() domain.IncrementSet {
	return s.increments
}
