package firestore

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
)

// Doc pairs a decoded document with its ID.
type Doc[T any] struct {
	ID   string
	Data T
}

// Collection is a typed view over one Firestore collection path. All
// operations join the ambient transaction when the context carries one, so
// repositories behave the same inside and outside a unit of work.
type Collection[T any] struct {
	provider *Provider
	path     string
}

// NewCollection binds a typed collection to a slash-separated path. The path
// may address a subcollection, e.g. "products/p1/skus".
func NewCollection[T any](provider *Provider, path string) *Collection[T] {
	return &Collection[T]{provider: provider, path: strings.Trim(path, "/")}
}

func (c *Collection[T]) ref(ctx context.Context) (*firestore.CollectionRef, error) {
	client, err := c.provider.Client(ctx)
	if err != nil {
		return nil, err
	}
	return client.Collection(c.path), nil
}

// Doc returns the document reference for id.
func (c *Collection[T]) Doc(ctx context.Context, id string) (*firestore.DocumentRef, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("firestore: document id required for %s", c.path)
	}
	coll, err := c.ref(ctx)
	if err != nil {
		return nil, err
	}
	return coll.Doc(id), nil
}

// Get fetches and decodes one document.
func (c *Collection[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	ref, err := c.Doc(ctx, id)
	if err != nil {
		return zero, err
	}

	var snap *firestore.DocumentSnapshot
	if tx, ok := TxFromContext(ctx); ok {
		snap, err = tx.Get(ref)
	} else {
		snap, err = ref.Get(ctx)
	}
	if err != nil {
		return zero, wrap(c.op("get"), err)
	}

	var out T
	if err := snap.DataTo(&out); err != nil {
		return zero, fmt.Errorf("%s: decode %s: %w", c.path, id, err)
	}
	return out, nil
}

// Set upserts the document.
func (c *Collection[T]) Set(ctx context.Context, id string, value T) error {
	ref, err := c.Doc(ctx, id)
	if err != nil {
		return err
	}
	if tx, ok := TxFromContext(ctx); ok {
		return wrap(c.op("set"), tx.Set(ref, value))
	}
	_, err = ref.Set(ctx, value)
	return wrap(c.op("set"), err)
}

// Create writes the document and fails with a conflict when it exists.
func (c *Collection[T]) Create(ctx context.Context, id string, value T) error {
	ref, err := c.Doc(ctx, id)
	if err != nil {
		return err
	}
	if tx, ok := TxFromContext(ctx); ok {
		return wrap(c.op("create"), tx.Create(ref, value))
	}
	_, err = ref.Create(ctx, value)
	return wrap(c.op("create"), err)
}

// Delete removes the document. Deleting a missing document is not an error.
func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	ref, err := c.Doc(ctx, id)
	if err != nil {
		return err
	}
	if tx, ok := TxFromContext(ctx); ok {
		return wrap(c.op("delete"), tx.Delete(ref))
	}
	_, err = ref.Delete(ctx)
	return wrap(c.op("delete"), err)
}

// Query runs the built query and decodes every result.
func (c *Collection[T]) Query(ctx context.Context, build func(q firestore.Query) firestore.Query) ([]Doc[T], error) {
	coll, err := c.ref(ctx)
	if err != nil {
		return nil, err
	}

	query := coll.Query
	if build != nil {
		query = build(query)
	}

	var iter *firestore.DocumentIterator
	if tx, ok := TxFromContext(ctx); ok {
		iter = tx.Documents(query)
	} else {
		iter = query.Documents(ctx)
	}
	defer iter.Stop()

	var out []Doc[T]
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, wrap(c.op("query"), err)
		}
		var data T
		if err := snap.DataTo(&data); err != nil {
			return nil, fmt.Errorf("%s: decode %s: %w", c.path, snap.Ref.ID, err)
		}
		out = append(out, Doc[T]{ID: snap.Ref.ID, Data: data})
	}
	return out, nil
}

// DeleteAll removes every document in the collection. Used by the wholesale
// replace operations.
func (c *Collection[T]) DeleteAll(ctx context.Context) error {
	coll, err := c.ref(ctx)
	if err != nil {
		return err
	}

	var iter *firestore.DocumentIterator
	tx, inTx := TxFromContext(ctx)
	if inTx {
		iter = tx.Documents(coll.Query)
	} else {
		iter = coll.Documents(ctx)
	}
	defer iter.Stop()

	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			return nil
		}
		if err != nil {
			return wrap(c.op("deleteAll"), err)
		}
		if inTx {
			if err := tx.Delete(snap.Ref); err != nil {
				return wrap(c.op("deleteAll"), err)
			}
		} else if _, err := snap.Ref.Delete(ctx); err != nil {
			return wrap(c.op("deleteAll"), err)
		}
	}
}

func (c *Collection[T]) op(verb string) string {
	return fmt.Sprintf("firestore %s %s", verb, c.path)
}
