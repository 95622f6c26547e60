package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zyborn/auction-api/internal/core/domain"
	"github.com/zyborn/auction-api/internal/core/ports"
)

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type bidFixture struct {
	clock  *fixedClock
	items  *stubItemRepo
	bids   *stubBidRepo
	users  *stubUserRepo
	bus    *recordingBus
	ledger *Ledger
	svc    ports.BidService
}

func mustIncrements(t *testing.T, raw string) domain.IncrementSet {
	t.Helper()
	set, err := domain.ParseIncrements(raw)
	if err != nil {
		t.Fatalf("ParseIncrements(%q): %v", raw, err)
	}
	return set
}

func newBidFixture(t *testing.T) *bidFixture {
	t.Helper()

	start := baseTime.Add(2 * time.Hour)
	f := &bidFixture{
		clock: newFixedClock(baseTime),
		items: newStubItemRepo(
			&domain.Item{
				ID:            "lot-1",
				Title:         "Bronze horse",
				Currency:      "EUR",
				StartingPrice: decimal.NewFromInt(1_000_000),
				EndTime:       baseTime.Add(time.Hour),
			},
			&domain.Item{
				ID:            "lot-closed",
				Title:         "Sold vase",
				Currency:      "EUR",
				StartingPrice: decimal.NewFromInt(500),
				EndTime:       baseTime.Add(-time.Minute),
			},
			&domain.Item{
				ID:            "lot-scheduled",
				Title:         "Future lamp",
				Currency:      "EUR",
				StartingPrice: decimal.NewFromInt(500),
				StartTime:     &start,
				EndTime:       start.Add(time.Hour),
			},
		),
		bids: newStubBidRepo(),
		users: newStubUserRepo(
			&domain.User{ID: "ada", DisplayName: "Ada", ApprovedToBid: true},
			&domain.User{ID: "grace", DisplayName: "Grace", ApprovedToBid: true},
			&domain.User{ID: "eve", DisplayName: "Eve"},
		),
		bus: newRecordingBus(),
	}

	retry := RetryPolicy{Attempts: 3}
	f.ledger = NewLedger(f.items, f.bids, f.bus, retry, discardLogger)
	f.svc = NewBidService(
		f.ledger,
		NewApprovalGate(f.users, retry),
		NewAuctionClock(f.clock),
		mustIncrements(t, "1000;5000;10000;25000;50000"),
		discardLogger,
	)
	return f
}

func bidder(id, name string) ports.Caller {
	return ports.Caller{UserID: id, DisplayName: name, Role: domain.RoleBidder}
}

func TestBidService_SubmitBid_AcceptsAndAdvancesPrice(t *testing.T) {
	f := newBidFixture(t)
	ctx := context.Background()

	res, err := f.svc.SubmitBid(ctx, ports.SubmitBidInput{
		ItemID:    "lot-1",
		Caller:    bidder("ada", "Ada"),
		Increment: decimal.NewFromInt(50_000),
	})
	if err != nil {
		t.Fatalf("first bid: %v", err)
	}
	if !res.Amount.Equal(decimal.NewFromInt(1_050_000)) || res.Seq != 1 {
		t.Fatalf("expected 1050000 at seq 1, got %s at seq %d", res.Amount, res.Seq)
	}
	if res.Currency != "EUR" {
		t.Fatalf("expected currency EUR, got %s", res.Currency)
	}

	res, err = f.svc.SubmitBid(ctx, ports.SubmitBidInput{
		ItemID:    "lot-1",
		Caller:    bidder("grace", "Grace"),
		Increment: decimal.NewFromInt(50_000),
	})
	if err != nil {
		t.Fatalf("second bid: %v", err)
	}
	if !res.Amount.Equal(decimal.NewFromInt(1_100_000)) || res.Seq != 2 {
		t.Fatalf("expected 1100000 at seq 2, got %s at seq %d", res.Amount, res.Seq)
	}

	status, err := f.svc.GetStatus(ctx, "lot-1")
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if !status.Amount.Equal(decimal.NewFromInt(1_100_000)) || status.BidCount != 2 {
		t.Fatalf("unexpected status: %+v", status)
	}

	history, err := f.svc.History(ctx, "lot-1")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 2 || history[0].BidderID != "ada" || history[1].BidderID != "grace" {
		t.Fatalf("unexpected history: %+v", history)
	}
	if !history[0].PlacedAt.Equal(baseTime) {
		t.Fatalf("expected bid stamped with the trusted clock, got %s", history[0].PlacedAt)
	}

	if got := f.bus.types(); len(got) != 2 || got[0] != domain.EventBidPlaced {
		t.Fatalf("expected two bid.placed events, got %v", got)
	}
}

func TestBidService_SubmitBid_Rejections(t *testing.T) {
	cases := []struct {
		name      string
		itemID    string
		caller    ports.Caller
		increment int64
		wantErr   error
	}{
		{"anonymous", "lot-1", ports.Caller{}, 1000, domain.ErrAuthRequired},
		{"missing display name", "lot-1", bidder("ada", "  "), 1000, domain.ErrProfileIncomplete},
		{"unknown item", "lot-missing", bidder("ada", "Ada"), 1000, domain.ErrItemNotFound},
		{"closed auction", "lot-closed", bidder("ada", "Ada"), 1000, domain.ErrAuctionClosed},
		{"closed auction beats pending approval", "lot-closed", bidder("eve", "Eve"), 1000, domain.ErrAuctionClosed},
		{"scheduled auction", "lot-scheduled", bidder("ada", "Ada"), 1000, domain.ErrAuctionClosed},
		{"not approved", "lot-1", bidder("eve", "Eve"), 1000, domain.ErrPendingApproval},
		{"unknown user is not approved", "lot-1", bidder("mallory", "Mallory"), 1000, domain.ErrPendingApproval},
		{"increment not configured", "lot-1", bidder("ada", "Ada"), 1234, domain.ErrInvalidIncrement},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newBidFixture(t)

			res, err := f.svc.SubmitBid(context.Background(), ports.SubmitBidInput{
				ItemID:    tc.itemID,
				Caller:    tc.caller,
				Increment: decimal.NewFromInt(tc.increment),
			})
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
			if res != nil {
				t.Fatalf("expected no result on rejection, got %+v", res)
			}
			if f.bids.inserts != 0 {
				t.Fatalf("expected no ledger write, got %d", f.bids.inserts)
			}
			if len(f.bus.types()) != 0 {
				t.Fatalf("expected no events, got %v", f.bus.types())
			}
		})
	}
}

func TestBidService_SubmitBid_AuthCheckedBeforeStoreAccess(t *testing.T) {
	f := newBidFixture(t)

	_, err := f.svc.SubmitBid(context.Background(), ports.SubmitBidInput{ItemID: "lot-1", Increment: decimal.NewFromInt(1000)})
	if !errors.Is(err, domain.ErrAuthRequired) {
		t.Fatalf("expected ErrAuthRequired, got %v", err)
	}
	if f.items.finds != 0 {
		t.Fatalf("expected no item read for anonymous caller, got %d", f.items.finds)
	}
}

func TestBidService_SubmitBid_ClosesAtEndTime(t *testing.T) {
	f := newBidFixture(t)
	f.clock.Set(baseTime.Add(time.Hour))

	_, err := f.svc.SubmitBid(context.Background(), ports.SubmitBidInput{
		ItemID:    "lot-1",
		Caller:    bidder("ada", "Ada"),
		Increment: decimal.NewFromInt(1000),
	})
	if !errors.Is(err, domain.ErrAuctionClosed) {
		t.Fatalf("expected ErrAuctionClosed at end time, got %v", err)
	}
}

func TestBidService_SubmitBid_ConcurrentBidsOneWins(t *testing.T) {
	f := newBidFixture(t)
	ctx := context.Background()

	// Both submissions read the same price before either inserts.
	var barrier sync.WaitGroup
	barrier.Add(2)
	f.bids.afterLatest = func() {
		barrier.Done()
		barrier.Wait()
	}

	type outcome struct {
		caller ports.Caller
		res    *ports.BidResult
		err    error
	}
	callers := []ports.Caller{bidder("ada", "Ada"), bidder("grace", "Grace")}
	results := make(chan outcome, len(callers))

	var wg sync.WaitGroup
	for _, c := range callers {
		wg.Add(1)
		go func(c ports.Caller) {
			defer wg.Done()
			res, err := f.svc.SubmitBid(ctx, ports.SubmitBidInput{
				ItemID:    "lot-1",
				Caller:    c,
				Increment: decimal.NewFromInt(50_000),
			})
			results <- outcome{caller: c, res: res, err: err}
		}(c)
	}
	wg.Wait()
	close(results)
	f.bids.afterLatest = nil

	var (
		accepted int
		loser    *outcome
	)
	for o := range results {
		o := o
		switch {
		case o.err == nil:
			accepted++
			if o.res.Seq != 1 || !o.res.Amount.Equal(decimal.NewFromInt(1_050_000)) {
				t.Fatalf("unexpected winning bid: %+v", o.res)
			}
		case errors.Is(o.err, domain.ErrConflict):
			loser = &o
		default:
			t.Fatalf("unexpected error: %v", o.err)
		}
	}
	if accepted != 1 || loser == nil {
		t.Fatalf("expected exactly one accepted and one conflicting bid, got %d accepted", accepted)
	}
	if n := f.bids.count("lot-1"); n != 1 {
		t.Fatalf("expected one ledger entry after the race, got %d", n)
	}

	// The loser re-reads the price and resubmits.
	res, err := f.svc.SubmitBid(ctx, ports.SubmitBidInput{
		ItemID:    "lot-1",
		Caller:    loser.caller,
		Increment: decimal.NewFromInt(50_000),
	})
	if err != nil {
		t.Fatalf("retry after conflict: %v", err)
	}
	if res.Seq != 2 || !res.Amount.Equal(decimal.NewFromInt(1_100_000)) {
		t.Fatalf("expected 1100000 at seq 2, got %s at seq %d", res.Amount, res.Seq)
	}
}

func TestBidService_SubmitBid_StorageUnavailable(t *testing.T) {
	f := newBidFixture(t)
	f.items.findErr = domain.ErrStorageUnavailable

	_, err := f.svc.SubmitBid(context.Background(), ports.SubmitBidInput{
		ItemID:    "lot-1",
		Caller:    bidder("ada", "Ada"),
		Increment: decimal.NewFromInt(1000),
	})
	if !errors.Is(err, domain.ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
	if f.items.finds != 3 {
		t.Fatalf("expected 3 read attempts, got %d", f.items.finds)
	}
	if f.bids.inserts != 0 {
		t.Fatalf("expected no ledger write, got %d", f.bids.inserts)
	}
}

func TestBidService_Increments(t *testing.T) {
	f := newBidFixture(t)

	incs := f.svc.Increments()
	if len(incs) != 5 {
		t.Fatalf("expected 5 increments, got %d", len(incs))
	}
	if incs[4].Label != "+50,000" {
		t.Fatalf("unexpected label %q", incs[4].Label)
	}
}
