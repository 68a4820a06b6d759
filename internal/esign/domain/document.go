package domain

import (
	"time"
)

// Document represents one signable artifact (immutable)
type Document struct {
	ID                DocumentID        `json:"id"`
	TenantID          string            `json:"tenant_id"`
	Title             string            `json:"title"`
	Description       string            `json:"description,omitempty"`
	AuthorID          UserID            `json:"author_id"`
	Status            DocumentStatus    `json:"status"`
	Type              DocumentType      `json:"type"`
	Key               string            `json:"key,omitempty"`
	SequentialSigning bool              `json:"sequential_signing"`
	EnableWatermark   bool              `json:"enable_watermark"`
	WatermarkText     *string           `json:"watermark_text,omitempty"`
	FileURL           *string           `json:"file_url,omitempty"`
	Extensions        map[string]string `json:"extensions,omitempty"`
	ExtensionsVersion int               `json:"extensions_version"`
	Version           int64             `json:"version"`
	PreparedAt        time.Time         `json:"prepared_at"`
	SentAt            *time.Time        `json:"sent_at,omitempty"`
	ViewedAt          *time.Time        `json:"viewed_at,omitempty"`
	SignedAt          *time.Time        `json:"signed_at,omitempty"`
	DeclinedAt        *time.Time        `json:"declined_at,omitempty"`
	ExpiresAt         *time.Time        `json:"expires_at,omitempty"`
}

// MarkSent returns a copy stamped as dispatched to signers
func (d Document) MarkSent(at time.Time) Document {
	d.Status = DocumentStatusSent
	d.SentAt = &at
	return d
}

// MarkViewed returns a copy with the first-view timestamp stamped.
// The stamp is written once; later views leave it untouched.
func (d Document) MarkViewed(at time.Time) Document {
	d.Status = DocumentStatusViewed
	if d.ViewedAt == nil {
		d.ViewedAt = &at
	}
	return d
}

// MarkSigned returns a copy in the terminal signed state
func (d Document) MarkSigned(at time.Time) Document {
	d.Status = DocumentStatusSigned
	d.SignedAt = &at
	return d
}

// MarkDeclined returns a copy in the terminal declined state
func (d Document) MarkDeclined(at time.Time) Document {
	d.Status = DocumentStatusDeclined
	d.DeclinedAt = &at
	return d
}

// MarkExpired returns a copy in the terminal expired state
func (d Document) MarkExpired() Document {
	d.Status = DocumentStatusExpired
	return d
}

// WithFileURL returns a copy with the blob-store URL recorded
func (d Document) WithFileURL(url string) Document {
	d.FileURL = &url
	return d
}

// WithWatermark returns a copy with watermarking enabled
func (d Document) WithWatermark(text string) Document {
	d.EnableWatermark = true
	d.WatermarkText = &text
	return d
}

// IsExpiredAt reports whether the document's deadline has passed
func (d Document) IsExpiredAt(now time.Time) bool {
	return d.ExpiresAt != nil && now.After(*d.ExpiresAt)
}

// NewDocument creates a new Document in the draft state
func NewDocument(tenantID, title string, docType DocumentType, authorID UserID, sequential bool, expiresAt *time.Time) Document {
	return Document{
		ID:                NewDocumentID(),
		TenantID:          tenantID,
		Title:             title,
		AuthorID:          authorID,
		Status:            DocumentStatusPending,
		Type:              docType,
		SequentialSigning: sequential,
		ExtensionsVersion: ExtensionsVersion,
		Version:           1,
		PreparedAt:        time.Now(),
		ExpiresAt:         expiresAt,
	}
}

// Aggregate is the unit of loading, locking and atomic persistence:
// one document together with the signers and fields it owns.
type Aggregate struct {
	Document Document        `json:"document"`
	Signers  []Signer        `json:"signers"`
	Fields   []DocumentField `json:"fields"`
}

// Signer returns the signer with the given ID, if present
func (a *Aggregate) Signer(id SignerID) (Signer, bool) {
	for i := range a.Signers {
		if a.Signers[i].ID == id {
			return a.Signers[i], true
		}
	}
	return Signer{}, false
}

// Field returns the field with the given ID, if present
func (a *Aggregate) Field(id FieldID) (DocumentField, bool) {
	for i := range a.Fields {
		if a.Fields[i].ID == id {
			return a.Fields[i], true
		}
	}
	return DocumentField{}, false
}

// ReplaceSigner swaps in an updated signer by ID
func (a *Aggregate) ReplaceSigner(s Signer) {
	for i := range a.Signers {
		if a.Signers[i].ID == s.ID {
			a.Signers[i] = s
			return
		}
	}
}

// ReplaceField swaps in an updated field by ID
func (a *Aggregate) ReplaceField(f DocumentField) {
	for i := range a.Fields {
		if a.Fields[i].ID == f.ID {
			a.Fields[i] = f
			return
		}
	}
}

// FieldValues collects the current value of every field, keyed by field ID.
// Fields without a value are absent from the map.
func (a *Aggregate) FieldValues() map[FieldID]string {
	values := make(map[FieldID]string, len(a.Fields))
	for i := range a.Fields {
		if a.Fields[i].Value != nil {
			values[a.Fields[i].ID] = *a.Fields[i].Value
		}
	}
	return values
}

// FieldsForSigner returns the fields assigned to the given signer
func (a *Aggregate) FieldsForSigner(id SignerID) []DocumentField {
	var fields []DocumentField
	for i := range a.Fields {
		if a.Fields[i].SignerID != nil && *a.Fields[i].SignerID == id {
			fields = append(fields, a.Fields[i])
		}
	}
	return fields
}
