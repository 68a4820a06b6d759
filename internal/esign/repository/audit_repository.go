package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/quillsign/quillsign/internal/esign/domain"
	"github.com/quillsign/quillsign/internal/esign/service"
	"github.com/quillsign/quillsign/pkg/fp"
)

// AuditRepository handles audit trail persistence
type AuditRepository struct {
	db *sql.DB
}

// NewAuditRepository creates a new AuditRepository
func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

var _ service.AuditStore = (*AuditRepository)(nil)

// Create inserts a new audit entry
func (r *AuditRepository) Create(ctx context.Context, entry domain.AuditEntry) fp.Result[domain.AuditEntry] {
	query := `
		INSERT INTO qs_audit_trail (
			id, tenant_id, entity_type, entity_id, action, actor_id,
			old_values, new_values, created_at
		) VALUES (:1, :2, :3, :4, :5, :6, :7, :8, :9)`

	oldValues, err := marshalJSONColumn(auditValuesOrNil(entry.OldValues), "old_values")
	if err != nil {
		return fp.Failure[domain.AuditEntry](err)
	}
	newValues, err := marshalJSONColumn(auditValuesOrNil(entry.NewValues), "new_values")
	if err != nil {
		return fp.Failure[domain.AuditEntry](err)
	}

	_, err = r.db.ExecContext(ctx, query,
		entry.ID,
		entry.TenantID,
		entry.EntityType,
		entry.EntityID,
		string(entry.Action),
		uuid.UUID(entry.ActorID).String(),
		oldValues,
		newValues,
		entry.Timestamp,
	)
	if err != nil {
		return fp.Failure[domain.AuditEntry](err)
	}

	return fp.Success(entry)
}

// ListByEntity retrieves audit entries for an entity, newest first
func (r *AuditRepository) ListByEntity(ctx context.Context, tenantID, entityType, entityID string) fp.Result[[]domain.AuditEntry] {
	query := `
		SELECT id, tenant_id, entity_type, entity_id, action, actor_id,
			old_values, new_values, created_at
		FROM qs_audit_trail
		WHERE tenant_id = :1 AND entity_type = :2 AND entity_id = :3
		ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, tenantID, entityType, entityID)
	if err != nil {
		return fp.Failure[[]domain.AuditEntry](err)
	}
	defer rows.Close()

	return MapRows(rows, scanAuditEntry)
}

func scanAuditEntry(rows *sql.Rows) fp.Result[domain.AuditEntry] {
	var entry domain.AuditEntry
	var action, actorIDStr string
	var oldValues, newValues sql.NullString

	err := rows.Scan(
		&entry.ID, &entry.TenantID, &entry.EntityType, &entry.EntityID,
		&action, &actorIDStr, &oldValues, &newValues, &entry.Timestamp,
	)
	if err != nil {
		return fp.Failure[domain.AuditEntry](err)
	}

	actorID, err := parseUUID(actorIDStr, "actor_id")
	if err != nil {
		return fp.Failure[domain.AuditEntry](err)
	}
	entry.ActorID = domain.UserID(actorID)
	entry.Action = domain.AuditAction(action)

	if err := unmarshalJSONColumn(oldValues, "old_values", &entry.OldValues); err != nil {
		return fp.Failure[domain.AuditEntry](err)
	}
	if err := unmarshalJSONColumn(newValues, "new_values", &entry.NewValues); err != nil {
		return fp.Failure[domain.AuditEntry](err)
	}

	return fp.Success(entry)
}

// auditValuesOrNil normalizes an empty change map to nil
func auditValuesOrNil(m map[string]interface{}) interface{} {
	if len(m) == 0 {
		return nil
	}
	return m
}
