package service

import (
	"time"

	"github.com/zyborn/auction-api/internal/core/domain"
	"github.com/zyborn/auction-api/internal/core/ports"
)

// SystemClock is the process wall clock in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// AuctionClock evaluates an item's auction window against the trusted clock.
// Nothing is cached: every call reads the clock again.
type AuctionClock struct {
	clock ports.Clock
}

func NewAuctionClock(clock ports.Clock) *AuctionClock {
	if clock == nil {
		clock = SystemClock{}
	}
	return &AuctionClock{clock: clock}
}

// State returns the item's phase together with the instant it was evaluated at.
func (c *AuctionClock) State(item *domain.Item) (domain.AuctionState, time.Time) {
	now := c.clock.Now()
	return item.StateAt(now), now
}
