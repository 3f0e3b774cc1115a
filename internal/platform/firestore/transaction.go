package firestore

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/firestore"
)

const (
	txMaxAttempts = 5
	txTimeout     = 15 * time.Second
)

type txContextKey struct{}

// TxFromContext returns the transaction carried by ctx, if any. Repository
// methods check this so the same code path works inside and outside a unit of
// work.
func TxFromContext(ctx context.Context) (*firestore.Transaction, bool) {
	tx, ok := ctx.Value(txContextKey{}).(*firestore.Transaction)
	return tx, ok
}

// RunInTx executes fn inside a Firestore transaction, carrying the
// transaction handle through the context. Nested calls join the ambient
// transaction instead of opening a new one.
func (p *Provider) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if fn == nil {
		return errors.New("firestore: transaction function is required")
	}
	if _, ok := TxFromContext(ctx); ok {
		return fn(ctx)
	}

	client, err := p.Client(ctx)
	if err != nil {
		return err
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, txTimeout)
		defer cancel()
	}

	err = client.RunTransaction(ctx, func(txCtx context.Context, tx *firestore.Transaction) error {
		return fn(context.WithValue(txCtx, txContextKey{}, tx))
	}, firestore.MaxAttempts(txMaxAttempts))
	return wrap("transaction", err)
}
