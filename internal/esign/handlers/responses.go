package handlers

import (
	"time"

	"github.com/quillsign/quillsign/internal/esign/domain"
	"github.com/quillsign/quillsign/pkg/fp"
)

const timestampLayout = "2006-01-02T15:04:05Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func formatTimePtr(t *time.Time) *string {
	return fp.ToPointer(fp.MapOpt(formatTime)(fp.FromPointer(t)))
}

// DocumentResponse represents a document in API responses
type DocumentResponse struct {
	ID                string            `json:"id"`
	Title             string            `json:"title"`
	Description       string            `json:"description,omitempty"`
	AuthorID          string            `json:"author_id"`
	Status            string            `json:"status"`
	Type              string            `json:"type"`
	Key               string            `json:"key,omitempty"`
	SequentialSigning bool              `json:"sequential_signing"`
	EnableWatermark   bool              `json:"enable_watermark"`
	WatermarkText     *string           `json:"watermark_text,omitempty"`
	FileURL           *string           `json:"file_url,omitempty"`
	Extensions        map[string]string `json:"extensions,omitempty"`
	ExtensionsVersion int               `json:"extensions_version"`
	Version           int64             `json:"version"`
	PreparedAt        string            `json:"prepared_at"`
	SentAt            *string           `json:"sent_at,omitempty"`
	ViewedAt          *string           `json:"viewed_at,omitempty"`
	SignedAt          *string           `json:"signed_at,omitempty"`
	DeclinedAt        *string           `json:"declined_at,omitempty"`
	ExpiresAt         *string           `json:"expires_at,omitempty"`
}

// SignerResponse represents a signer in API responses
type SignerResponse struct {
	ID            string  `json:"id"`
	Email         string  `json:"email"`
	Name          string  `json:"name,omitempty"`
	Role          string  `json:"role,omitempty"`
	Order         int     `json:"order"`
	Status        string  `json:"status"`
	Color         *string `json:"color,omitempty"`
	InvitedAt     *string `json:"invited_at,omitempty"`
	ViewedAt      *string `json:"viewed_at,omitempty"`
	CompletedAt   *string `json:"completed_at,omitempty"`
	DeclinedAt    *string `json:"declined_at,omitempty"`
	DeclineReason *string `json:"decline_reason,omitempty"`
}

// FieldResponse represents a document field in API responses
type FieldResponse struct {
	ID          string                   `json:"id"`
	Type        string                   `json:"type"`
	Label       string                   `json:"label"`
	Required    bool                     `json:"required"`
	Geometry    domain.Geometry          `json:"geometry"`
	Value       *string                  `json:"value,omitempty"`
	SignerID    *string                  `json:"signer_id,omitempty"`
	Style       *domain.FieldStyle       `json:"style,omitempty"`
	Rule        *domain.ValidationRule   `json:"rule,omitempty"`
	Conditional *domain.ConditionalLogic `json:"conditional,omitempty"`
	Options     []string                 `json:"options,omitempty"`
}

// AggregateResponse bundles a document with its signers and fields
type AggregateResponse struct {
	Document DocumentResponse `json:"document"`
	Signers  []SignerResponse `json:"signers"`
	Fields   []FieldResponse  `json:"fields"`
}

// ProgressResponse reports how far a document is through signing
type ProgressResponse struct {
	DocumentID      string  `json:"document_id"`
	Status          string  `json:"status"`
	Completed       int     `json:"completed"`
	Total           int     `json:"total"`
	CurrentSignerID *string `json:"current_signer_id,omitempty"`
}

// AuditEntryResponse represents an audit trail record in API responses
type AuditEntryResponse struct {
	ID         string                 `json:"id"`
	EntityType string                 `json:"entity_type"`
	EntityID   string                 `json:"entity_id"`
	Action     string                 `json:"action"`
	ActorID    string                 `json:"actor_id"`
	OldValues  map[string]interface{} `json:"old_values,omitempty"`
	NewValues  map[string]interface{} `json:"new_values,omitempty"`
	Timestamp  string                 `json:"timestamp"`
}

func toDocumentResponse(d domain.Document) DocumentResponse {
	return DocumentResponse{
		ID:                d.ID.String(),
		Title:             d.Title,
		Description:       d.Description,
		AuthorID:          d.AuthorID.String(),
		Status:            string(d.Status),
		Type:              string(d.Type),
		Key:               d.Key,
		SequentialSigning: d.SequentialSigning,
		EnableWatermark:   d.EnableWatermark,
		WatermarkText:     d.WatermarkText,
		FileURL:           d.FileURL,
		Extensions:        d.Extensions,
		ExtensionsVersion: d.ExtensionsVersion,
		Version:           d.Version,
		PreparedAt:        formatTime(d.PreparedAt),
		SentAt:            formatTimePtr(d.SentAt),
		ViewedAt:          formatTimePtr(d.ViewedAt),
		SignedAt:          formatTimePtr(d.SignedAt),
		DeclinedAt:        formatTimePtr(d.DeclinedAt),
		ExpiresAt:         formatTimePtr(d.ExpiresAt),
	}
}

func toSignerResponse(s domain.Signer) SignerResponse {
	return SignerResponse{
		ID:            s.ID.String(),
		Email:         s.Email,
		Name:          s.Name,
		Role:          s.Role,
		Order:         s.Order,
		Status:        string(s.Status),
		Color:         s.Color,
		InvitedAt:     formatTimePtr(s.InvitedAt),
		ViewedAt:      formatTimePtr(s.ViewedAt),
		CompletedAt:   formatTimePtr(s.CompletedAt),
		DeclinedAt:    formatTimePtr(s.DeclinedAt),
		DeclineReason: s.DeclineReason,
	}
}

func toFieldResponse(f domain.DocumentField) FieldResponse {
	resp := FieldResponse{
		ID:          f.ID.String(),
		Type:        string(f.Type),
		Label:       f.Label,
		Required:    f.Required,
		Geometry:    f.Geometry,
		Value:       f.Value,
		Style:       f.Style,
		Rule:        f.Rule,
		Conditional: f.Conditional,
		Options:     f.Options,
	}
	if f.SignerID != nil {
		id := f.SignerID.String()
		resp.SignerID = &id
	}
	return resp
}

func toAggregateResponse(a domain.Aggregate) AggregateResponse {
	resp := AggregateResponse{
		Document: toDocumentResponse(a.Document),
		Signers:  make([]SignerResponse, 0, len(a.Signers)),
		Fields:   make([]FieldResponse, 0, len(a.Fields)),
	}
	for _, s := range a.Signers {
		resp.Signers = append(resp.Signers, toSignerResponse(s))
	}
	for _, f := range a.Fields {
		resp.Fields = append(resp.Fields, toFieldResponse(f))
	}
	return resp
}

func toAuditEntryResponse(e domain.AuditEntry) AuditEntryResponse {
	return AuditEntryResponse{
		ID:         e.ID,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		Action:     string(e.Action),
		ActorID:    e.ActorID.String(),
		OldValues:  e.OldValues,
		NewValues:  e.NewValues,
		Timestamp:  formatTime(e.Timestamp),
	}
}
