package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/zyborn/auction-api/internal/core/ports"
)

// Transactor runs units of work in a multi-document session transaction.
// Transactions need a replica set; on a standalone server it must be created
// with transactions disabled and then runs fn directly.
type Transactor struct {
	client  *mongo.Client
	enabled bool
}

var _ ports.Transactor = (*Transactor)(nil)

func NewTransactor(client *mongo.Client, enabled bool) *Transactor {
	return &Transactor{client: client, enabled: enabled}
}

func (t *Transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if !t.enabled {
		return fn(ctx)
	}

	session, err := t.client.StartSession()
	if err != nil {
		return storeErr("start session", err)
	}
	defer session.EndSession(ctx)

	// The session context carries the transaction into every repository call.
	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

func (t *Transactor) Atomic() bool { return t.enabled }
