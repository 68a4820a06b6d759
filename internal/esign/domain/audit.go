package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of action in the audit trail
type AuditAction string

const (
	AuditActionCreated   AuditAction = "CREATED"
	AuditActionUpdated   AuditAction = "UPDATED"
	AuditActionDeleted   AuditAction = "DELETED"
	AuditActionSent      AuditAction = "SENT"
	AuditActionViewed    AuditAction = "VIEWED"
	AuditActionCompleted AuditAction = "COMPLETED"
	AuditActionDeclined  AuditAction = "DECLINED"
	AuditActionExpired   AuditAction = "EXPIRED"
	AuditActionSigned    AuditAction = "SIGNED"
	AuditActionFieldSet  AuditAction = "FIELD_SET"
)

// AuditEntry represents an immutable audit trail record
type AuditEntry struct {
	ID         string                 `json:"id"`
	TenantID   string                 `json:"tenant_id"`
	EntityType string                 `json:"entity_type"`
	EntityID   string                 `json:"entity_id"`
	Action     AuditAction            `json:"action"`
	ActorID    UserID                 `json:"actor_id"`
	OldValues  map[string]interface{} `json:"old_values,omitempty"`
	NewValues  map[string]interface{} `json:"new_values,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
}

// NewAuditEntry creates a new AuditEntry
func NewAuditEntry(tenantID, entityType, entityID string, action AuditAction, actorID UserID) AuditEntry {
	return AuditEntry{
		ID:         uuid.NewString(),
		TenantID:   tenantID,
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		ActorID:    actorID,
		Timestamp:  time.Now(),
	}
}

// WithChanges returns a copy with old and new values recorded
func (e AuditEntry) WithChanges(oldValues, newValues map[string]interface{}) AuditEntry {
	e.OldValues = oldValues
	e.NewValues = newValues
	return e
}
