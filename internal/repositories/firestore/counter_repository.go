package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	pfirestore "github.com/shopward/backoffice/internal/platform/firestore"
)

const countersCollection = "counters"

type counterDocument struct {
	CurrentValue int64     `firestore:"currentValue"`
	UpdatedAt    time.Time `firestore:"updatedAt"`
}

// CounterRepository hands out monotonic sequence numbers via Firestore
// transactions. Counters are created lazily on first use.
type CounterRepository struct {
	provider *pfirestore.Provider
	counters *pfirestore.Collection[counterDocument]
}

func NewCounterRepository(provider *pfirestore.Provider) (*CounterRepository, error) {
	if provider == nil {
		return nil, errors.New("counter repository requires firestore provider")
	}
	return &CounterRepository{
		provider: provider,
		counters: pfirestore.NewCollection[counterDocument](provider, countersCollection),
	}, nil
}

func (r *CounterRepository) Next(ctx context.Context, counterID string, step int64) (int64, error) {
	id := strings.TrimSpace(counterID)
	if id == "" {
		return 0, errors.New("counter id is required")
	}
	if step <= 0 {
		return 0, fmt.Errorf("counter step must be positive, got %d", step)
	}

	var next int64
	err := r.provider.RunInTx(ctx, func(ctx context.Context) error {
		doc, err := r.counters.Get(ctx, id)
		if err != nil {
			if !isNotFound(err) {
				return err
			}
			doc = counterDocument{}
		}
		doc.CurrentValue += step
		doc.UpdatedAt = time.Now().UTC()
		next = doc.CurrentValue
		return r.counters.Set(ctx, id, doc)
	})
	if err != nil {
		return 0, err
	}
	return next, nil
}
