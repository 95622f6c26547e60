package ports

import (
	"context"

	"github.com/zyborn/auction-api/internal/core/domain"
)

// ItemRepository persists auction lots.
type ItemRepository interface {
	Create(ctx context.Context, item *domain.Item) error
	FindByID(ctx context.Context, id string) (*domain.Item, error)
	// List returns items ordered by end time, soonest first.
	List(ctx context.Context) ([]*domain.Item, error)
}
