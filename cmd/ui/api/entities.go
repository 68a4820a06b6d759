package api

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// requestTimeout bounds every API call made by the UI
const requestTimeout = 15 * time.Second

// Document represents a document in API responses
type Document struct {
	ID                string            `json:"id"`
	Title             string            `json:"title"`
	Description       string            `json:"description,omitempty"`
	AuthorID          string            `json:"author_id"`
	Status            string            `json:"status"`
	Type              string            `json:"type"`
	SequentialSigning bool              `json:"sequential_signing"`
	Extensions        map[string]string `json:"extensions,omitempty"`
	Version           int64             `json:"version"`
	PreparedAt        string            `json:"prepared_at"`
	SentAt            *string           `json:"sent_at,omitempty"`
	SignedAt          *string           `json:"signed_at,omitempty"`
	ExpiresAt         *string           `json:"expires_at,omitempty"`
}

// Signer represents a signer in API responses
type Signer struct {
	ID            string  `json:"id"`
	Email         string  `json:"email"`
	Name          string  `json:"name,omitempty"`
	Role          string  `json:"role,omitempty"`
	Order         int     `json:"order"`
	Status        string  `json:"status"`
	CompletedAt   *string `json:"completed_at,omitempty"`
	DeclineReason *string `json:"decline_reason,omitempty"`
}

// Field represents a document field in API responses
type Field struct {
	ID       string   `json:"id"`
	Type     string   `json:"type"`
	Label    string   `json:"label"`
	Required bool     `json:"required"`
	Value    *string  `json:"value,omitempty"`
	SignerID *string  `json:"signer_id,omitempty"`
	Options  []string `json:"options,omitempty"`
}

// Aggregate bundles a document with its signers and fields
type Aggregate struct {
	Document Document `json:"document"`
	Signers  []Signer `json:"signers"`
	Fields   []Field  `json:"fields"`
}

// Progress reports signing progress for a document
type Progress struct {
	DocumentID      string  `json:"document_id"`
	Status          string  `json:"status"`
	Completed       int     `json:"completed"`
	Total           int     `json:"total"`
	CurrentSignerID *string `json:"current_signer_id,omitempty"`
}

// AuditEntry represents an audit record in API responses
type AuditEntry struct {
	ID        string `json:"id"`
	Action    string `json:"action"`
	ActorID   string `json:"actor_id"`
	Timestamp string `json:"timestamp"`
}

// CreateDocumentRequest is the payload for creating a document
type CreateDocumentRequest struct {
	Title             string            `json:"title"`
	Description       string            `json:"description,omitempty"`
	Type              string            `json:"type,omitempty"`
	SequentialSigning bool              `json:"sequential_signing"`
	ExpiresAt         *time.Time        `json:"expires_at,omitempty"`
	Extensions        map[string]string `json:"extensions,omitempty"`
}

// AddSignerRequest is the payload for adding a signer
type AddSignerRequest struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role,omitempty"`
	Order int    `json:"order"`
}

// SetValueRequest is the payload for filling a field
type SetValueRequest struct {
	SignerID string `json:"signer_id,omitempty"`
	Value    string `json:"value"`
}

// decodeData unwraps a successful response payload into dest
func decodeData(resp *Response, dest interface{}) error {
	if !resp.Success {
		return fmt.Errorf("%s", resp.ErrorString())
	}
	if dest == nil || len(resp.Data) == 0 {
		return nil
	}
	return json.Unmarshal(resp.Data, dest)
}

func (c *Client) withTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}

// DocumentList is one page of the server's document listing
type DocumentList struct {
	Data       []Document `json:"data"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
	TotalCount int        `json:"total_count"`
	TotalPages int        `json:"total_pages"`
}

// ListDocuments fetches the first page of documents for the tenant
func (c *Client) ListDocuments() ([]Document, error) {
	ctx, cancel := c.withTimeout()
	defer cancel()

	resp, err := c.Get(ctx, "/api/v1/documents?page=1&page_size=100")
	if err != nil {
		return nil, err
	}
	var list DocumentList
	if err := decodeData(resp, &list); err != nil {
		return nil, err
	}
	return list.Data, nil
}

// GetDocument fetches a document with its signers and fields
func (c *Client) GetDocument(id string) (*Aggregate, error) {
	ctx, cancel := c.withTimeout()
	defer cancel()

	resp, err := c.Get(ctx, "/api/v1/documents/"+id)
	if err != nil {
		return nil, err
	}
	var agg Aggregate
	if err := decodeData(resp, &agg); err != nil {
		return nil, err
	}
	return &agg, nil
}

// CreateDocument creates a new draft document
func (c *Client) CreateDocument(req CreateDocumentRequest) (*Aggregate, error) {
	ctx, cancel := c.withTimeout()
	defer cancel()

	resp, err := c.Post(ctx, "/api/v1/documents", req)
	if err != nil {
		return nil, err
	}
	var agg Aggregate
	if err := decodeData(resp, &agg); err != nil {
		return nil, err
	}
	return &agg, nil
}

// DeleteDocument removes a draft document
func (c *Client) DeleteDocument(id string) error {
	ctx, cancel := c.withTimeout()
	defer cancel()

	resp, err := c.Delete(ctx, "/api/v1/documents/"+id)
	if err != nil {
		return err
	}
	return decodeData(resp, nil)
}

// SendDocument dispatches a document to its signers
func (c *Client) SendDocument(id string) (*Aggregate, error) {
	ctx, cancel := c.withTimeout()
	defer cancel()

	resp, err := c.Post(ctx, "/api/v1/documents/"+id+"/send", nil)
	if err != nil {
		return nil, err
	}
	var agg Aggregate
	if err := decodeData(resp, &agg); err != nil {
		return nil, err
	}
	return &agg, nil
}

// AddSigner adds a signer to a draft document
func (c *Client) AddSigner(documentID string, req AddSignerRequest) (*Aggregate, error) {
	ctx, cancel := c.withTimeout()
	defer cancel()

	resp, err := c.Post(ctx, "/api/v1/documents/"+documentID+"/signers", req)
	if err != nil {
		return nil, err
	}
	var agg Aggregate
	if err := decodeData(resp, &agg); err != nil {
		return nil, err
	}
	return &agg, nil
}

// RecordView marks a signer as having opened the document
func (c *Client) RecordView(documentID, signerID string) (*Aggregate, error) {
	ctx, cancel := c.withTimeout()
	defer cancel()

	resp, err := c.Post(ctx, "/api/v1/documents/"+documentID+"/signers/"+signerID+"/view", nil)
	if err != nil {
		return nil, err
	}
	var agg Aggregate
	if err := decodeData(resp, &agg); err != nil {
		return nil, err
	}
	return &agg, nil
}

// CompleteTurn finishes a signer's part of the workflow
func (c *Client) CompleteTurn(documentID, signerID string) (*Aggregate, error) {
	ctx, cancel := c.withTimeout()
	defer cancel()

	resp, err := c.Post(ctx, "/api/v1/documents/"+documentID+"/signers/"+signerID+"/complete", nil)
	if err != nil {
		return nil, err
	}
	var agg Aggregate
	if err := decodeData(resp, &agg); err != nil {
		return nil, err
	}
	return &agg, nil
}

// Decline refuses to sign on behalf of a signer
func (c *Client) Decline(documentID, signerID, reason string) (*Aggregate, error) {
	ctx, cancel := c.withTimeout()
	defer cancel()

	resp, err := c.Post(ctx, "/api/v1/documents/"+documentID+"/signers/"+signerID+"/decline",
		map[string]string{"reason": reason})
	if err != nil {
		return nil, err
	}
	var agg Aggregate
	if err := decodeData(resp, &agg); err != nil {
		return nil, err
	}
	return &agg, nil
}

// SetFieldValue fills a field as a signer
func (c *Client) SetFieldValue(documentID, fieldID string, req SetValueRequest) (*Aggregate, error) {
	ctx, cancel := c.withTimeout()
	defer cancel()

	resp, err := c.Put(ctx, "/api/v1/documents/"+documentID+"/fields/"+fieldID+"/value", req)
	if err != nil {
		return nil, err
	}
	var agg Aggregate
	if err := decodeData(resp, &agg); err != nil {
		return nil, err
	}
	return &agg, nil
}

// GetProgress fetches signing progress for a document
func (c *Client) GetProgress(id string) (*Progress, error) {
	ctx, cancel := c.withTimeout()
	defer cancel()

	resp, err := c.Get(ctx, "/api/v1/documents/"+id+"/progress")
	if err != nil {
		return nil, err
	}
	var p Progress
	if err := decodeData(resp, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetAudit fetches the audit trail for a document
func (c *Client) GetAudit(id string) ([]AuditEntry, error) {
	ctx, cancel := c.withTimeout()
	defer cancel()

	resp, err := c.Get(ctx, "/api/v1/documents/"+id+"/audit")
	if err != nil {
		return nil, err
	}
	var entries []AuditEntry
	if err := decodeData(resp, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
