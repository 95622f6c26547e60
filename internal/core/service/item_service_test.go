package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zyborn/auction-api/internal/core/domain"
	"github.com/zyborn/auction-api/internal/core/ports"
)

func validItemInput() ports.CreateItemInput {
	return ports.CreateItemInput{
		Title:         "Oil on canvas",
		Currency:      "eur",
		StartingPrice: decimal.NewFromInt(1_000_000),
		EndTime:       baseTime.Add(24 * time.Hour),
	}
}

func TestItemService_CreateItem(t *testing.T) {
	repo := newStubItemRepo()
	svc := NewItemService(repo, newFixedClock(baseTime), discardLogger)

	item, err := svc.CreateItem(context.Background(), validItemInput())
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	if item.ID == "" {
		t.Fatalf("expected generated id")
	}
	if item.Currency != "EUR" {
		t.Fatalf("expected upper-cased currency, got %s", item.Currency)
	}
	if item.StateAt(baseTime) != domain.AuctionOpen {
		t.Fatalf("item without start time should be open immediately")
	}

	got, err := svc.GetItem(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if got.Title != "Oil on canvas" {
		t.Fatalf("unexpected item: %+v", got)
	}
}

func TestItemService_CreateItem_Validation(t *testing.T) {
	before := baseTime.Add(-time.Hour)
	after := baseTime.Add(48 * time.Hour)

	cases := []struct {
		name   string
		mutate func(*ports.CreateItemInput)
	}{
		{"empty title", func(in *ports.CreateItemInput) { in.Title = " " }},
		{"bad currency", func(in *ports.CreateItemInput) { in.Currency = "EURO" }},
		{"zero price", func(in *ports.CreateItemInput) { in.StartingPrice = decimal.Zero }},
		{"end in the past", func(in *ports.CreateItemInput) { in.EndTime = before }},
		{"end before start", func(in *ports.CreateItemInput) { in.StartTime = &after }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := newStubItemRepo()
			svc := NewItemService(repo, newFixedClock(baseTime), discardLogger)

			in := validItemInput()
			tc.mutate(&in)
			if _, err := svc.CreateItem(context.Background(), in); !errors.Is(err, domain.ErrInvalidItem) {
				t.Fatalf("expected ErrInvalidItem, got %v", err)
			}
			if len(repo.items) != 0 {
				t.Fatalf("expected nothing stored")
			}
		})
	}
}

func TestItemService_ListItems(t *testing.T) {
	repo := newStubItemRepo()
	svc := NewItemService(repo, newFixedClock(baseTime), discardLogger)

	late := validItemInput()
	late.EndTime = baseTime.Add(72 * time.Hour)
	early := validItemInput()
	early.EndTime = baseTime.Add(time.Hour)

	for _, in := range []ports.CreateItemInput{late, early} {
		if _, err := svc.CreateItem(context.Background(), in); err != nil {
			t.Fatalf("CreateItem: %v", err)
		}
	}

	items, err := svc.ListItems(context.Background())
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	if len(items) != 2 || !items[0].EndTime.Before(items[1].EndTime) {
		t.Fatalf("expected items ordered by end time, got %+v", items)
	}
}

func TestItemService_GetItem_NotFound(t *testing.T) {
	svc := NewItemService(newStubItemRepo(), newFixedClock(baseTime), discardLogger)

	if _, err := svc.GetItem(context.Background(), "missing"); !errors.Is(err, domain.ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
}
