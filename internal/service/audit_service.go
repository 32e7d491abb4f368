package service

import (
	"context"
	"log/slog"
	"time"

	"go-online-store/internal/event"
	"go-online-store/internal/model"
	"go-online-store/internal/pagination"
)

type auditStore interface {
	Log(ctx context.Context, entry model.AuditEntry) error
	Query(ctx context.Context, q model.AuditQuery, w pagination.Window) ([]model.AuditEntry, pagination.Slice, error)
}

type AuditService struct {
	entries auditStore
}

func NewAuditService(entries auditStore) *AuditService {
	return &AuditService{entries: entries}
}

// Record persists one event as an audit entry.
func (s *AuditService) Record(ctx context.Context, e event.Event) error {
	occurredAt := e.Timestamp
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	return s.entries.Log(ctx, model.AuditEntry{
		Action:     string(e.Type),
		OccurredAt: occurredAt,
		Actor:      e.Actor,
		Resource:   e.Type.Resource(),
		ResourceID: e.ResourceID,
		Payload:    e.Payload,
	})
}

// Consume records events until the channel closes or ctx is cancelled.
func (s *AuditService) Consume(ctx context.Context, events <-chan event.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			if err := s.Record(context.WithoutCancel(ctx), e); err != nil {
				slog.Error("failed to record audit entry", "type", e.Type, "resource_id", e.ResourceID, "error", err)
			}
		}
	}
}

func (s *AuditService) Query(ctx context.Context, q model.AuditQuery, w pagination.Window) ([]model.AuditEntry, pagination.Slice, error) {
	return s.entries.Query(ctx, q, w)
}
