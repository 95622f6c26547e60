package ports

import (
	"context"

	"github.com/zyborn/auction-api/internal/core/domain"
)

// EventHandler receives committed change notifications.
type EventHandler func(ctx context.Context, event domain.Event)

// EventBus publishes domain events and fans them out to subscribers.
type EventBus interface {
	Publish(ctx context.Context, event domain.Event) error
	// Subscribe registers fn for events whose type starts with prefix
	// (e.g. "bid." or "verification."). The returned func unsubscribes.
	Subscribe(prefix string, fn EventHandler) (unsubscribe func())
}
