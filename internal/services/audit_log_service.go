package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/shopward/backoffice/internal/domain"
	"github.com/shopward/backoffice/internal/repositories"
)

const auditLogIDPrefix = "aud_"

// AuditLogServiceDeps bundles collaborators required to construct the audit log service.
type AuditLogServiceDeps struct {
	AuditLogs   repositories.AuditLogRepository
	Clock       func() time.Time
	IDGenerator func() string
	Logger      func(ctx context.Context, event string, fields map[string]any)
}

type auditLogService struct {
	auditLogs repositories.AuditLogRepository
	clock     func() time.Time
	newID     func() string
	logger    func(context.Context, string, map[string]any)
}

// NewAuditLogService wires dependencies into a concrete AuditLogService implementation.
func NewAuditLogService(deps AuditLogServiceDeps) (AuditLogService, error) {
	if deps.AuditLogs == nil {
		return nil, errors.New("audit log service: repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string {
			return ulid.Make().String()
		}
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &auditLogService{
		auditLogs: deps.AuditLogs,
		clock: func() time.Time {
			return clock().UTC()
		},
		newID:  idGen,
		logger: logger,
	}, nil
}

// Record persists one audit entry. Failures are logged and swallowed so the
// primary operation never fails because its trail could not be written.
func (s *auditLogService) Record(ctx context.Context, record AuditLogRecord) {
	action := strings.TrimSpace(record.Action)
	if action == "" {
		return
	}

	occurredAt := record.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = s.clock()
	}

	actorType := strings.TrimSpace(record.ActorType)
	if actorType == "" {
		actorType = "staff"
	}
	severity := strings.TrimSpace(record.Severity)
	if severity == "" {
		severity = "info"
	}

	entry := AuditLogEntry{
		ID:         auditLogIDPrefix + s.newID(),
		Actor:      strings.TrimSpace(record.Actor),
		ActorType:  actorType,
		Action:     action,
		TargetType: strings.TrimSpace(record.TargetType),
		TargetID:   strings.TrimSpace(record.TargetID),
		Severity:   severity,
		RequestID:  strings.TrimSpace(record.RequestID),
		Metadata:   cloneMap(record.Metadata),
		CreatedAt:  occurredAt,
	}

	if err := s.auditLogs.Append(ctx, entry); err != nil {
		s.logger(ctx, "audit.append.failed", map[string]any{
			"action": entry.Action,
			"target": entry.TargetID,
			"error":  err.Error(),
		})
	}
}

func (s *auditLogService) List(ctx context.Context, filter AuditLogFilter) (domain.CursorPage[AuditLogEntry], error) {
	return s.auditLogs.List(ctx, filter)
}
