package firestore

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/shopward/backoffice/internal/domain"
	pfirestore "github.com/shopward/backoffice/internal/platform/firestore"
	"github.com/shopward/backoffice/internal/platform/pagination"
	"github.com/shopward/backoffice/internal/repositories"
)

const auditLogsCollection = "auditLogs"

type auditLogDocument struct {
	Actor      string         `firestore:"actor"`
	ActorType  string         `firestore:"actorType"`
	Action     string         `firestore:"action"`
	TargetType string         `firestore:"targetType,omitempty"`
	TargetID   string         `firestore:"targetId,omitempty"`
	Severity   string         `firestore:"severity"`
	RequestID  string         `firestore:"requestId,omitempty"`
	Metadata   map[string]any `firestore:"metadata,omitempty"`
	CreatedAt  time.Time      `firestore:"createdAt"`
}

// AuditLogRepository is append-only; entries are never updated or deleted.
type AuditLogRepository struct {
	entries *pfirestore.Collection[auditLogDocument]
}

func NewAuditLogRepository(provider *pfirestore.Provider) (*AuditLogRepository, error) {
	if provider == nil {
		return nil, errors.New("audit log repository requires firestore provider")
	}
	return &AuditLogRepository{
		entries: pfirestore.NewCollection[auditLogDocument](provider, auditLogsCollection),
	}, nil
}

func (r *AuditLogRepository) Append(ctx context.Context, entry domain.AuditLogEntry) error {
	return r.entries.Create(ctx, entry.ID, auditLogDocument{
		Actor:      entry.Actor,
		ActorType:  entry.ActorType,
		Action:     entry.Action,
		TargetType: entry.TargetType,
		TargetID:   entry.TargetID,
		Severity:   entry.Severity,
		RequestID:  entry.RequestID,
		Metadata:   entry.Metadata,
		CreatedAt:  entry.CreatedAt,
	})
}

func (r *AuditLogRepository) List(ctx context.Context, filter repositories.AuditLogFilter) (domain.CursorPage[domain.AuditLogEntry], error) {
	pager := pagination.Normalize(filter.Pagination)
	cursor, err := pagination.DecodeToken(pager.PageToken)
	if err != nil {
		return domain.CursorPage[domain.AuditLogEntry]{}, err
	}

	docs, err := r.entries.Query(ctx, func(q firestore.Query) firestore.Query {
		if filter.TargetType != "" {
			q = q.Where("targetType", "==", filter.TargetType)
		}
		if filter.TargetID != "" {
			q = q.Where("targetId", "==", filter.TargetID)
		}
		if filter.Actor != "" {
			q = q.Where("actor", "==", filter.Actor)
		}
		if filter.Action != "" {
			q = q.Where("action", "==", filter.Action)
		}
		if filter.DateRange.From != nil {
			q = q.Where("createdAt", ">=", *filter.DateRange.From)
		}
		if filter.DateRange.To != nil {
			q = q.Where("createdAt", "<=", *filter.DateRange.To)
		}
		q = q.OrderBy("createdAt", firestore.Desc).
			OrderBy(firestore.DocumentID, firestore.Asc)
		if len(cursor.StartAfter) > 0 {
			q = q.StartAfter(cursor.StartAfter...)
		}
		return q.Limit(pager.PageSize + 1)
	})
	if err != nil {
		return domain.CursorPage[domain.AuditLogEntry]{}, err
	}

	page := domain.CursorPage[domain.AuditLogEntry]{}
	for i, doc := range docs {
		if i == pager.PageSize {
			last := docs[i-1]
			page.NextPageToken = pagination.EncodeToken(pagination.Cursor{
				StartAfter: []any{last.Data.CreatedAt, last.ID},
			})
			break
		}
		page.Items = append(page.Items, doc.Data.toDomain(doc.ID))
	}
	return page, nil
}

func (d auditLogDocument) toDomain(id string) domain.AuditLogEntry {
	return domain.AuditLogEntry{
		ID:         id,
		Actor:      d.Actor,
		ActorType:  d.ActorType,
		Action:     d.Action,
		TargetType: d.TargetType,
		TargetID:   d.TargetID,
		Severity:   d.Severity,
		RequestID:  d.RequestID,
		Metadata:   d.Metadata,
		CreatedAt:  d.CreatedAt,
	}
}
