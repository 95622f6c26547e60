package ports

import "context"

// Transactor runs fn as one unit of work. Repositories called with the ctx
// passed to fn participate in the transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
	// Atomic is false when the store runs fn without a real transaction, so a
	// failure halfway through leaves earlier writes in place.
	Atomic() bool
}
