package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"go-online-store/internal/database"
	"go-online-store/internal/model"
	"go-online-store/internal/pagination"
)

type auditRow struct {
	ID         int64     `db:"id"`
	Action     string    `db:"action"`
	OccurredAt time.Time `db:"occurred_at"`
	ActorID    int64     `db:"actor_id"`
	ActorName  string    `db:"actor_name"`
	ActorIP    string    `db:"actor_ip"`
	Resource   string    `db:"resource"`
	ResourceID int64     `db:"resource_id"`
	Payload    string    `db:"payload"`
}

func (row auditRow) entry() model.AuditEntry {
	entry := model.AuditEntry{
		ID:         row.ID,
		Action:     row.Action,
		OccurredAt: row.OccurredAt,
		Actor:      model.AuditActor{UserID: row.ActorID, Username: row.ActorName, IP: row.ActorIP},
		Resource:   row.Resource,
		ResourceID: row.ResourceID,
	}
	if row.Payload != "" {
		var payload any
		if err := json.Unmarshal([]byte(row.Payload), &payload); err == nil {
			entry.Payload = payload
		}
	}
	return entry
}

type AuditRepository struct {
	db *database.DB
}

func NewAuditRepository(db *database.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Log(ctx context.Context, entry model.AuditEntry) error {
	payload := ""
	if entry.Payload != nil {
		raw, err := json.Marshal(entry.Payload)
		if err != nil {
			return fmt.Errorf("marshal audit payload: %w", err)
		}
		payload = string(raw)
	}

	query, args, err := r.db.Builder().
		Insert("audit_entries").
		Columns("action", "occurred_at", "actor_id", "actor_name", "actor_ip", "resource", "resource_id", "payload").
		Values(entry.Action, entry.OccurredAt.UTC(), entry.Actor.UserID, entry.Actor.Username, entry.Actor.IP,
			entry.Resource, entry.ResourceID, payload).
		ToSql()
	if err != nil {
		return fmt.Errorf("build audit insert: %w", err)
	}

	if _, err := r.db.X.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("log audit entry: %w", err)
	}
	return nil
}

func (r *AuditRepository) Query(ctx context.Context, q model.AuditQuery, w pagination.Window) ([]model.AuditEntry, pagination.Slice, error) {
	conds := sq.And{}
	if action := strings.TrimSpace(q.Action); action != "" {
		conds = append(conds, sq.Expr("LOWER(action) = LOWER(?)", action))
	}
	if q.ActorID != 0 {
		conds = append(conds, sq.Eq{"actor_id": q.ActorID})
	}
	if resource := strings.TrimSpace(q.Resource); resource != "" {
		conds = append(conds, sq.Eq{"resource": strings.ToLower(resource)})
	}
	if !q.From.IsZero() {
		conds = append(conds, sq.GtOrEq{"occurred_at": q.From.UTC()})
	}
	if !q.To.IsZero() {
		conds = append(conds, sq.LtOrEq{"occurred_at": q.To.UTC()})
	}

	total := 0
	if w.Counted() {
		query, args, err := r.db.Builder().Select("COUNT(*)").From("audit_entries").Where(conds).ToSql()
		if err != nil {
			return nil, pagination.Slice{}, fmt.Errorf("build audit count: %w", err)
		}
		if err := r.db.X.GetContext(ctx, &total, query, args...); err != nil {
			return nil, pagination.Slice{}, fmt.Errorf("count audit entries: %w", err)
		}
	}

	selectQuery := r.db.Builder().
		Select("id", "action", "occurred_at", "actor_id", "actor_name", "actor_ip", "resource", "resource_id", "payload").
		From("audit_entries").
		Where(conds)
	query, args, err := w.Apply(selectQuery, "id").ToSql()
	if err != nil {
		return nil, pagination.Slice{}, fmt.Errorf("build audit list: %w", err)
	}

	rows := make([]auditRow, 0, w.Limit+1)
	if err := r.db.X.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, pagination.Slice{}, fmt.Errorf("query audit entries: %w", err)
	}

	page, slice := pagination.Collect(w, rows, func(row auditRow) int64 { return row.ID }, total)

	entries := make([]model.AuditEntry, 0, len(page))
	for _, row := range page {
		entries = append(entries, row.entry())
	}

	return entries, slice, nil
}
