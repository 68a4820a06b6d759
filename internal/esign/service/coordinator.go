package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/quillsign/quillsign/internal/esign/domain"
	"github.com/quillsign/quillsign/internal/models"
	"github.com/quillsign/quillsign/internal/notify"
	"github.com/quillsign/quillsign/pkg/fp"
)

// Coordinator is the single entry point for all state-mutating workflow
// operations. It serializes mutations per document with a keyed mutex held
// for the whole load-validate-decide-persist sequence, so two near-
// simultaneous signer actions can never both observe the same starting
// state. No cross-document locks are ever held at the same time.
type Coordinator struct {
	store     DocumentStore
	audit     AuditStore
	notifier  notify.Notifier
	lifecycle *Lifecycle
	registry  *Registry
	logger    *slog.Logger

	mu    sync.Mutex
	locks map[domain.DocumentID]*docLock
}

// docLock is a per-document mutex with a waiter count so the registry entry
// can be dropped once nobody holds or wants the lock.
type docLock struct {
	mu   sync.Mutex
	refs int
}

// NewCoordinator creates a Coordinator
func NewCoordinator(store DocumentStore, audit AuditStore, notifier notify.Notifier, lifecycle *Lifecycle, logger *slog.Logger) *Coordinator {
	if store == nil {
		panic("document store is required")
	}
	if lifecycle == nil {
		lifecycle = NewLifecycle(DeclineAllOrCompleted)
	}
	if notifier == nil {
		notifier = notify.Discard{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		store:     store,
		audit:     audit,
		notifier:  notifier,
		lifecycle: lifecycle,
		registry:  NewRegistry(),
		logger:    logger,
		locks:     make(map[domain.DocumentID]*docLock),
	}
}

// acquire takes the mutex guarding a single document's aggregate, creating
// the registry entry on first use
func (c *Coordinator) acquire(id domain.DocumentID) *docLock {
	c.mu.Lock()
	lock, ok := c.locks[id]
	if !ok {
		lock = &docLock{}
		c.locks[id] = lock
	}
	lock.refs++
	c.mu.Unlock()

	lock.mu.Lock()
	return lock
}

// release unlocks the document mutex and prunes the registry entry once no
// other caller is holding or waiting on it
func (c *Coordinator) release(id domain.DocumentID, lock *docLock) {
	lock.mu.Unlock()

	c.mu.Lock()
	lock.refs--
	if lock.refs == 0 {
		delete(c.locks, id)
	}
	c.mu.Unlock()
}

// mutate runs op inside the document's critical section: load, apply,
// persist. Cancellation before the lock abandons the operation with no
// state change; once the lock is held the persistence write runs to
// completion on a non-cancellable context and the caller's cancellation is
// reported only afterward. The lock is released on every exit path.
func (c *Coordinator) mutate(ctx context.Context, tenantID string, id domain.DocumentID, op func(*domain.Aggregate) ([]domain.Event, error)) fp.Result[domain.Aggregate] {
	return c.mutateWith(ctx, tenantID, id, true, op)
}

// mutateWith is mutate with the lazy-expiry pre-check made optional; the
// expire operation itself must not be preempted by it.
func (c *Coordinator) mutateWith(ctx context.Context, tenantID string, id domain.DocumentID, lazyExpire bool, op func(*domain.Aggregate) ([]domain.Event, error)) fp.Result[domain.Aggregate] {
	if err := ctx.Err(); err != nil {
		return fp.Failure[domain.Aggregate](err)
	}

	lock := c.acquire(id)
	defer c.release(id, lock)

	if err := ctx.Err(); err != nil {
		// Nothing loaded or written yet; safe to abandon.
		return fp.Failure[domain.Aggregate](err)
	}

	loaded := c.store.LoadAggregate(ctx, tenantID, id)
	if fp.IsFailure(loaded) {
		return loaded
	}
	agg := fp.GetValue(loaded)

	// Lazy expiry: a document past its deadline is closed before the
	// requested action is considered, and the action is rejected.
	if lazyExpire && !agg.Document.Status.IsTerminal() && agg.Document.IsExpiredAt(c.lifecycle.now()) {
		events, err := c.lifecycle.Expire(&agg)
		if err == nil {
			if saved := c.persist(ctx, agg, events); fp.IsFailure(saved) {
				return saved
			}
		}
		return fp.Failure[domain.Aggregate](domain.NewWorkflowViolation(
			"non-terminal", string(domain.DocumentStatusExpired), "document has expired"))
	}

	events, err := op(&agg)
	if err != nil {
		return fp.Failure[domain.Aggregate](err)
	}

	saved := c.persist(ctx, agg, events)
	if fp.IsFailure(saved) {
		return saved
	}
	if err := ctx.Err(); err != nil {
		// The write is durable; report the cancellation without undoing it.
		return fp.Failure[domain.Aggregate](err)
	}
	return saved
}

// persist writes the aggregate atomically and then emits events. The write
// uses a non-cancellable context so a mid-flight cancellation can never
// leave the aggregate half-applied.
func (c *Coordinator) persist(ctx context.Context, agg domain.Aggregate, events []domain.Event) fp.Result[domain.Aggregate] {
	agg.Document.Version++
	saved := c.store.SaveAggregate(context.WithoutCancel(ctx), agg)
	if fp.IsFailure(saved) {
		return saved
	}
	for _, event := range events {
		c.notifier.Notify(context.WithoutCancel(ctx), event)
	}
	return saved
}

// CreateDocumentRequest describes a new draft document
type CreateDocumentRequest struct {
	Title             string
	Description       string
	Type              domain.DocumentType
	Key               string
	SequentialSigning bool
	ExpiresAt         *time.Time
	WatermarkText     *string
	Extensions        map[string]string
}

// CreateDocument creates a draft document owned by the author
func (c *Coordinator) CreateDocument(ctx context.Context, tenantID string, authorID domain.UserID, req CreateDocumentRequest) fp.Result[domain.Aggregate] {
	if v := fp.Validate(req.Title, fp.Required("title"), fp.MaxLength("title", 512)); fp.IsFailure(v) {
		return fp.Failure[domain.Aggregate](fp.GetError(v))
	}
	if req.Type == "" {
		req.Type = domain.DocumentTypeOther
	}
	if err := domain.ValidateExtensions(req.Extensions); err != nil {
		return fp.Failure[domain.Aggregate](err)
	}

	doc := domain.NewDocument(tenantID, req.Title, req.Type, authorID, req.SequentialSigning, req.ExpiresAt)
	doc.Description = req.Description
	doc.Key = req.Key
	doc.Extensions = req.Extensions
	if req.WatermarkText != nil {
		doc = doc.WithWatermark(*req.WatermarkText)
	}

	agg := domain.Aggregate{Document: doc}
	created := c.store.CreateAggregate(ctx, agg)
	if fp.IsSuccess(created) {
		c.createAudit(ctx, tenantID, "document", doc.ID.String(), domain.AuditActionCreated, authorID, nil, &doc)
	}
	return created
}

// AddSigner attaches a signer to a pending document
func (c *Coordinator) AddSigner(ctx context.Context, tenantID string, id domain.DocumentID, actorID domain.UserID, email, name, role string, order int, accessCode *string) fp.Result[domain.Aggregate] {
	if v := fp.Validate(email, fp.Required("email"), fp.Email("email")); fp.IsFailure(v) {
		return fp.Failure[domain.Aggregate](fp.GetError(v))
	}
	if v := fp.Validate(order, fp.Positive[int]("order")); fp.IsFailure(v) {
		return fp.Failure[domain.Aggregate](fp.GetError(v))
	}
	var added domain.Signer
	result := c.mutate(ctx, tenantID, id, func(a *domain.Aggregate) ([]domain.Event, error) {
		if a.Document.AuthorID != actorID {
			return nil, domain.NewPermissionError(actorID.String(), "only the author may add signers")
		}
		if a.Document.Status != domain.DocumentStatusPending {
			return nil, domain.NewWorkflowViolation(
				string(domain.DocumentStatusPending), string(a.Document.Status), "signers cannot be added after sending")
		}
		if a.Document.SequentialSigning {
			for i := range a.Signers {
				if a.Signers[i].Order == order {
					return nil, domain.NewDomainError("duplicate signing order: %d", order)
				}
			}
		}
		signer := domain.NewSigner(id, email, name, role, order)
		signer.AccessCode = accessCode
		a.Signers = append(a.Signers, signer)
		added = signer
		return nil, nil
	})
	if fp.IsSuccess(result) {
		c.createAudit(ctx, tenantID, "signer", added.ID.String(), domain.AuditActionCreated, actorID, nil, &added)
	}
	return result
}

// RemoveSigner detaches a signer from a document that has not been sent.
// Removal after sending is always rejected.
func (c *Coordinator) RemoveSigner(ctx context.Context, tenantID string, id domain.DocumentID, actorID domain.UserID, signerID domain.SignerID) fp.Result[domain.Aggregate] {
	result := c.mutate(ctx, tenantID, id, func(a *domain.Aggregate) ([]domain.Event, error) {
		if a.Document.AuthorID != actorID {
			return nil, domain.NewPermissionError(actorID.String(), "only the author may remove signers")
		}
		if a.Document.Status != domain.DocumentStatusPending {
			return nil, domain.ErrSignerLocked
		}
		for i := range a.Signers {
			if a.Signers[i].ID == signerID {
				a.Signers = append(a.Signers[:i], a.Signers[i+1:]...)
				return nil, nil
			}
		}
		return nil, domain.NewNotFoundError("signer", signerID.String())
	})
	if fp.IsSuccess(result) {
		c.createAudit(ctx, tenantID, "signer", signerID.String(), domain.AuditActionDeleted, actorID, nil, nil)
	}
	return result
}

// AddField places a field on a pending document
func (c *Coordinator) AddField(ctx context.Context, tenantID string, id domain.DocumentID, actorID domain.UserID, req AddFieldRequest) fp.Result[domain.Aggregate] {
	var added domain.DocumentField
	result := c.mutate(ctx, tenantID, id, func(a *domain.Aggregate) ([]domain.Event, error) {
		field, err := c.registry.AddField(a, actorID, req)
		if err != nil {
			return nil, err
		}
		added = field
		return nil, nil
	})
	if fp.IsSuccess(result) {
		c.createAudit(ctx, tenantID, "field", added.ID.String(), domain.AuditActionCreated, actorID, nil, &added)
	}
	return result
}

// AttachFile records the blob-store URL of the document's bytes
func (c *Coordinator) AttachFile(ctx context.Context, tenantID string, id domain.DocumentID, actorID domain.UserID, url string) fp.Result[domain.Aggregate] {
	return c.mutate(ctx, tenantID, id, func(a *domain.Aggregate) ([]domain.Event, error) {
		if a.Document.AuthorID != actorID {
			return nil, domain.NewPermissionError(actorID.String(), "only the author may attach the file")
		}
		if a.Document.Status != domain.DocumentStatusPending {
			return nil, domain.NewWorkflowViolation(
				string(domain.DocumentStatusPending), string(a.Document.Status), "file cannot change after sending")
		}
		a.Document = a.Document.WithFileURL(url)
		return nil, nil
	})
}

// Send dispatches the document to its signers
func (c *Coordinator) Send(ctx context.Context, tenantID string, id domain.DocumentID, actorID domain.UserID) fp.Result[domain.Aggregate] {
	result := c.mutate(ctx, tenantID, id, func(a *domain.Aggregate) ([]domain.Event, error) {
		return c.lifecycle.Send(a, actorID)
	})
	if fp.IsSuccess(result) {
		c.createAudit(ctx, tenantID, "document", id.String(), domain.AuditActionSent, actorID, nil, nil)
	}
	return result
}

// verifyAccessCode checks a signer's shared-secret access code. Signers
// without a code are open; signers with one must present it on every action.
func verifyAccessCode(a *domain.Aggregate, signerID domain.SignerID, code string) error {
	signer, ok := a.Signer(signerID)
	if !ok {
		return domain.NewNotFoundError("signer", signerID.String())
	}
	if signer.AccessCode != nil && *signer.AccessCode != code {
		return domain.NewPermissionError(signerID.String(), "invalid access code")
	}
	return nil
}

// RecordView stamps a signer's view of the document. The stamp is an
// idempotent upsert, but it goes through the same critical section so the
// first-view timestamp is written exactly once.
func (c *Coordinator) RecordView(ctx context.Context, tenantID string, id domain.DocumentID, signerID domain.SignerID, accessCode string) fp.Result[domain.Aggregate] {
	result := c.mutate(ctx, tenantID, id, func(a *domain.Aggregate) ([]domain.Event, error) {
		if err := verifyAccessCode(a, signerID, accessCode); err != nil {
			return nil, err
		}
		return c.lifecycle.RecordView(a, signerID)
	})
	if fp.IsSuccess(result) {
		// Signer-initiated actions record the signer's own ID as the actor.
		c.createAudit(ctx, tenantID, "document", id.String(), domain.AuditActionViewed, domain.UserID(signerID), nil, nil)
	}
	return result
}

// SetFieldValue writes a field value on behalf of a signer
func (c *Coordinator) SetFieldValue(ctx context.Context, tenantID string, id domain.DocumentID, signerID domain.SignerID, fieldID domain.FieldID, value, accessCode string) fp.Result[domain.Aggregate] {
	result := c.mutate(ctx, tenantID, id, func(a *domain.Aggregate) ([]domain.Event, error) {
		if err := verifyAccessCode(a, signerID, accessCode); err != nil {
			return nil, err
		}
		_, err := c.registry.SetFieldValue(a, signerID, fieldID, value)
		return nil, err
	})
	if fp.IsSuccess(result) {
		c.createAudit(ctx, tenantID, "field", fieldID.String(), domain.AuditActionFieldSet, domain.UserID(signerID), nil, nil)
	}
	return result
}

// SetFieldValueByAuthor prefills a field value before sending
func (c *Coordinator) SetFieldValueByAuthor(ctx context.Context, tenantID string, id domain.DocumentID, actorID domain.UserID, fieldID domain.FieldID, value string) fp.Result[domain.Aggregate] {
	return c.mutate(ctx, tenantID, id, func(a *domain.Aggregate) ([]domain.Event, error) {
		_, err := c.registry.SetFieldValueByAuthor(a, actorID, fieldID, value)
		return nil, err
	})
}

// CompleteTurn finishes a signer's turn, possibly signing the document
func (c *Coordinator) CompleteTurn(ctx context.Context, tenantID string, id domain.DocumentID, signerID domain.SignerID, accessCode string) fp.Result[domain.Aggregate] {
	result := c.mutate(ctx, tenantID, id, func(a *domain.Aggregate) ([]domain.Event, error) {
		if err := verifyAccessCode(a, signerID, accessCode); err != nil {
			return nil, err
		}
		return c.lifecycle.CompleteTurn(a, signerID)
	})
	if fp.IsSuccess(result) {
		c.createAudit(ctx, tenantID, "signer", signerID.String(), domain.AuditActionCompleted, domain.UserID(signerID), nil, nil)
		if fp.GetValue(result).Document.Status == domain.DocumentStatusSigned {
			c.createAudit(ctx, tenantID, "document", id.String(), domain.AuditActionSigned, domain.UserID(signerID), nil, nil)
		}
	}
	return result
}

// Decline records a signer's refusal to sign
func (c *Coordinator) Decline(ctx context.Context, tenantID string, id domain.DocumentID, signerID domain.SignerID, reason, accessCode string) fp.Result[domain.Aggregate] {
	result := c.mutate(ctx, tenantID, id, func(a *domain.Aggregate) ([]domain.Event, error) {
		if err := verifyAccessCode(a, signerID, accessCode); err != nil {
			return nil, err
		}
		return c.lifecycle.Decline(a, signerID, reason)
	})
	if fp.IsSuccess(result) {
		c.createAudit(ctx, tenantID, "signer", signerID.String(), domain.AuditActionDeclined, domain.UserID(signerID), nil, nil)
	}
	return result
}

// Expire closes a document whose deadline has passed
func (c *Coordinator) Expire(ctx context.Context, tenantID string, id domain.DocumentID) fp.Result[domain.Aggregate] {
	result := c.mutateWith(ctx, tenantID, id, false, func(a *domain.Aggregate) ([]domain.Event, error) {
		if !a.Document.IsExpiredAt(c.lifecycle.now()) {
			return nil, domain.NewWorkflowViolation(
				"past deadline", string(a.Document.Status), "document has not reached its deadline")
		}
		return c.lifecycle.Expire(a)
	})
	if fp.IsSuccess(result) {
		c.createAudit(ctx, tenantID, "document", id.String(), domain.AuditActionExpired, domain.UserID{}, nil, nil)
	}
	return result
}

// DeleteDocument removes a document together with its signers and fields.
// Only the author may delete, and only the workflow owner calls this; the
// engine itself never destroys documents.
func (c *Coordinator) DeleteDocument(ctx context.Context, tenantID string, id domain.DocumentID, actorID domain.UserID) fp.Result[domain.DocumentID] {
	loaded := c.Get(ctx, tenantID, id)
	if fp.IsFailure(loaded) {
		return fp.Failure[domain.DocumentID](fp.GetError(loaded))
	}
	if fp.GetValue(loaded).Document.AuthorID != actorID {
		return fp.Failure[domain.DocumentID](domain.NewPermissionError(actorID.String(), "only the author may delete the document"))
	}

	lock := c.acquire(id)
	defer c.release(id, lock)

	deleted := c.store.DeleteAggregate(context.WithoutCancel(ctx), tenantID, id)
	if fp.IsSuccess(deleted) {
		c.createAudit(ctx, tenantID, "document", id.String(), domain.AuditActionDeleted, actorID, nil, nil)
	}
	return deleted
}

// Get loads a document aggregate without taking the write lock. Callers
// must tolerate an eventually-consistent read while a mutation is in
// flight on the same document.
func (c *Coordinator) Get(ctx context.Context, tenantID string, id domain.DocumentID) fp.Result[domain.Aggregate] {
	return c.store.LoadAggregate(ctx, tenantID, id)
}

// List returns one page of a tenant's documents
func (c *Coordinator) List(ctx context.Context, tenantID string, params models.PaginationParams, search models.SearchParams) fp.Result[DocumentPage] {
	return c.store.ListByTenant(ctx, tenantID, params, search)
}

// Progress reports completed/total signer counts for a document
func (c *Coordinator) Progress(ctx context.Context, tenantID string, id domain.DocumentID) fp.Result[ProgressReport] {
	loaded := c.Get(ctx, tenantID, id)
	if fp.IsFailure(loaded) {
		return fp.Failure[ProgressReport](fp.GetError(loaded))
	}
	agg := fp.GetValue(loaded)
	completed, total := agg.Progress()
	report := ProgressReport{
		DocumentID: id,
		Status:     agg.Document.Status,
		Completed:  completed,
		Total:      total,
	}
	if current := agg.CurrentSigner(); current != nil {
		report.CurrentSignerID = &current.ID
	}
	return fp.Success(report)
}

// ProgressReport summarizes signing progress for a document
type ProgressReport struct {
	DocumentID      domain.DocumentID     `json:"document_id"`
	Status          domain.DocumentStatus `json:"status"`
	Completed       int                   `json:"completed"`
	Total           int                   `json:"total"`
	CurrentSignerID *domain.SignerID      `json:"current_signer_id,omitempty"`
}

// ExpireOverdue sweeps every document past its deadline into the expired
// state. Run periodically; each document is expired through its own
// critical section so the sweep never races a signer action.
func (c *Coordinator) ExpireOverdue(ctx context.Context) error {
	candidates := c.store.ListExpiredCandidates(ctx, c.lifecycle.now())
	if fp.IsFailure(candidates) {
		return fp.GetError(candidates)
	}
	for _, ref := range fp.GetValue(candidates) {
		if err := ctx.Err(); err != nil {
			return err
		}
		result := c.Expire(ctx, ref.TenantID, ref.DocumentID)
		if fp.IsFailure(result) {
			// Another actor may have closed the document between the
			// list and the expiry; skip and keep sweeping.
			c.logger.Warn("expiry sweep skipped document",
				"document_id", ref.DocumentID.String(),
				"error", fp.GetError(result),
			)
		}
	}
	return nil
}

func (c *Coordinator) createAudit(ctx context.Context, tenantID, entityType, entityID string, action domain.AuditAction, actorID domain.UserID, oldVal, newVal interface{}) {
	if c.audit == nil {
		return
	}
	entry := domain.NewAuditEntry(tenantID, entityType, entityID, action, actorID)
	if oldVal != nil || newVal != nil {
		var oldMap, newMap map[string]interface{}
		if oldVal != nil {
			oldMap = map[string]interface{}{"data": oldVal}
		}
		if newVal != nil {
			newMap = map[string]interface{}{"data": newVal}
		}
		entry = entry.WithChanges(oldMap, newMap)
	}
	result := c.audit.Create(context.WithoutCancel(ctx), entry)
	if fp.IsFailure(result) {
		c.logger.Error("audit create failed",
			"entity_type", entityType,
			"entity_id", entityID,
			"error", fp.GetError(result),
		)
	}
}
