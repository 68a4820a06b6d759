package service

import (
	"context"
	"time"

	"github.com/quillsign/quillsign/internal/esign/domain"
	"github.com/quillsign/quillsign/internal/models"
	"github.com/quillsign/quillsign/pkg/fp"
)

// DocumentRef identifies a document across tenants, used by the expiry sweep
type DocumentRef struct {
	TenantID   string
	DocumentID domain.DocumentID
}

// DocumentPage is one page of a tenant's document listing
type DocumentPage struct {
	Documents []domain.Document
	Total     int
}

// DocumentStore is the persistence boundary for the workflow engine. The
// aggregate (document + signers + fields) is the unit of atomicity:
// SaveAggregate writes all three entity sets in one transaction and fails
// with domain.ErrConflict when the stored version has moved underneath the
// caller.
type DocumentStore interface {
	CreateAggregate(ctx context.Context, a domain.Aggregate) fp.Result[domain.Aggregate]
	LoadAggregate(ctx context.Context, tenantID string, id domain.DocumentID) fp.Result[domain.Aggregate]
	SaveAggregate(ctx context.Context, a domain.Aggregate) fp.Result[domain.Aggregate]
	DeleteAggregate(ctx context.Context, tenantID string, id domain.DocumentID) fp.Result[domain.DocumentID]
	ListByTenant(ctx context.Context, tenantID string, params models.PaginationParams, search models.SearchParams) fp.Result[DocumentPage]
	ListExpiredCandidates(ctx context.Context, now time.Time) fp.Result[[]DocumentRef]
}

// AuditStore persists the immutable audit trail
type AuditStore interface {
	Create(ctx context.Context, entry domain.AuditEntry) fp.Result[domain.AuditEntry]
	ListByEntity(ctx context.Context, tenantID, entityType, entityID string) fp.Result[[]domain.AuditEntry]
}
