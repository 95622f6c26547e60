package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/zyborn/auction-api/internal/core/domain"
	"github.com/zyborn/auction-api/internal/core/ports"
)

type ItemService struct {
	repo   ports.ItemRepository
	clock  ports.Clock
	logger zerolog.Logger
}

func NewItemService(repo ports.ItemRepository, clock ports.Clock, logger zerolog.Logger) *ItemService {
	return &ItemService{repo: repo, clock: clock, logger: logger}
}

// CreateItem lists a new lot. The window must end in the future and after
// its start.
func (s *ItemService) CreateItem(ctx context.Context, input ports.CreateItemInput) (*domain.Item, error) {
	now := s.clock.Now()

	switch {
	case strings.TrimSpace(input.Title) == "":
		return nil, fmt.Errorf("%w: title is required", domain.ErrInvalidItem)
	case len(input.Currency) != 3:
		return nil, fmt.Errorf("%w: currency must be a 3-letter code", domain.ErrInvalidItem)
	case !input.StartingPrice.IsPositive():
		return nil, fmt.Errorf("%w: starting price must be positive", domain.ErrInvalidItem)
	case !input.EndTime.After(now):
		return nil, fmt.Errorf("%w: end time must be in the future", domain.ErrInvalidItem)
	case input.StartTime != nil && !input.EndTime.After(*input.StartTime):
		return nil, fmt.Errorf("%w: end time must be after start time", domain.ErrInvalidItem)
	}

	item := &domain.Item{
		ID:            uuid.NewString(),
		Title:         strings.TrimSpace(input.Title),
		Currency:      strings.ToUpper(input.Currency),
		StartingPrice: input.StartingPrice,
		StartTime:     input.StartTime,
		EndTime:       input.EndTime.UTC(),
		CreatedAt:     now,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		s.logger.Error().Err(err).Msg("failed to create item")
		return nil, fmt.Errorf("create item: %w", err)
	}

	s.logger.Info().Str("item_id", item.ID).Str("title", item.Title).Msg("item created")
	return item, nil
}

func (s *ItemService) GetItem(ctx context.Context, id string) (*domain.Item, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

func (s *ItemService) ListItems(ctx context.Context) ([]*domain.Item, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}
