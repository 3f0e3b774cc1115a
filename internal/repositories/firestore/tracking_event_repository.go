package firestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/shopward/backoffice/internal/domain"
	pfirestore "github.com/shopward/backoffice/internal/platform/firestore"
)

const trackingEventsCollection = "trackingEvents"

type trackingEventDocument struct {
	EventCode  string         `firestore:"eventCode"`
	StatusText string         `firestore:"statusText,omitempty"`
	Location   string         `firestore:"location,omitempty"`
	EventTime  *time.Time     `firestore:"eventTime,omitempty"`
	Raw        map[string]any `firestore:"raw,omitempty"`
	Position   int            `firestore:"position"`
	CreatedAt  time.Time      `firestore:"createdAt"`
}

// TrackingEventRepository stores carrier events under their order document.
type TrackingEventRepository struct {
	provider *pfirestore.Provider
}

func NewTrackingEventRepository(provider *pfirestore.Provider) (*TrackingEventRepository, error) {
	if provider == nil {
		return nil, errors.New("tracking event repository requires firestore provider")
	}
	return &TrackingEventRepository{provider: provider}, nil
}

func (r *TrackingEventRepository) events(orderID string) *pfirestore.Collection[trackingEventDocument] {
	return pfirestore.NewCollection[trackingEventDocument](r.provider, fmt.Sprintf("%s/%s/%s", ordersCollection, orderID, trackingEventsCollection))
}

// ReplaceAll deletes the stored set and writes the new one. Callers run this
// inside a unit of work so there is no observable empty window.
func (r *TrackingEventRepository) ReplaceAll(ctx context.Context, orderID string, events []domain.TrackingEvent) error {
	coll := r.events(orderID)
	if err := coll.DeleteAll(ctx); err != nil {
		return err
	}
	for i, event := range events {
		doc := trackingEventDocument{
			EventCode:  event.EventCode,
			StatusText: event.StatusText,
			Location:   event.Location,
			EventTime:  event.EventTime,
			Raw:        event.Raw,
			Position:   i,
			CreatedAt:  event.CreatedAt,
		}
		if err := coll.Set(ctx, event.ID, doc); err != nil {
			return err
		}
	}
	return nil
}

func (r *TrackingEventRepository) List(ctx context.Context, orderID string) ([]domain.TrackingEvent, error) {
	docs, err := r.events(orderID).Query(ctx, func(q firestore.Query) firestore.Query {
		return q.OrderBy("position", firestore.Asc)
	})
	if err != nil {
		return nil, err
	}

	out := make([]domain.TrackingEvent, 0, len(docs))
	for _, doc := range docs {
		out = append(out, domain.TrackingEvent{
			ID:         doc.ID,
			OrderID:    orderID,
			EventCode:  doc.Data.EventCode,
			StatusText: doc.Data.StatusText,
			Location:   doc.Data.Location,
			EventTime:  doc.Data.EventTime,
			Raw:        doc.Data.Raw,
			CreatedAt:  doc.Data.CreatedAt,
		})
	}
	return out, nil
}
