package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/quillsign/quillsign/internal/esign/domain"
	"github.com/quillsign/quillsign/internal/models"
	"github.com/quillsign/quillsign/pkg/fp"
)

// memStore is an in-memory DocumentStore with the same optimistic
// versioning semantics as the Oracle repository.
type memStore struct {
	mu   sync.Mutex
	aggs map[domain.DocumentID]domain.Aggregate
}

func newMemStore() *memStore {
	return &memStore{aggs: make(map[domain.DocumentID]domain.Aggregate)}
}

func cloneAggregate(a domain.Aggregate) domain.Aggregate {
	out := a
	out.Signers = append([]domain.Signer(nil), a.Signers...)
	out.Fields = append([]domain.DocumentField(nil), a.Fields...)
	return out
}

func (s *memStore) CreateAggregate(ctx context.Context, a domain.Aggregate) fp.Result[domain.Aggregate] {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aggs[a.Document.ID] = cloneAggregate(a)
	return fp.Success(a)
}

func (s *memStore) LoadAggregate(ctx context.Context, tenantID string, id domain.DocumentID) fp.Result[domain.Aggregate] {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.aggs[id]
	if !ok || a.Document.TenantID != tenantID {
		return fp.Failure[domain.Aggregate](domain.NewNotFoundError("document", id.String()))
	}
	return fp.Success(cloneAggregate(a))
}

func (s *memStore) SaveAggregate(ctx context.Context, a domain.Aggregate) fp.Result[domain.Aggregate] {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.aggs[a.Document.ID]
	if !ok {
		return fp.Failure[domain.Aggregate](domain.NewNotFoundError("document", a.Document.ID.String()))
	}
	if stored.Document.Version != a.Document.Version-1 {
		return fp.Failure[domain.Aggregate](domain.ErrConflict)
	}
	s.aggs[a.Document.ID] = cloneAggregate(a)
	return fp.Success(a)
}

func (s *memStore) DeleteAggregate(ctx context.Context, tenantID string, id domain.DocumentID) fp.Result[domain.DocumentID] {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.aggs[id]
	if !ok || a.Document.TenantID != tenantID {
		return fp.Failure[domain.DocumentID](domain.NewNotFoundError("document", id.String()))
	}
	delete(s.aggs, id)
	return fp.Success(id)
}

func (s *memStore) ListByTenant(ctx context.Context, tenantID string, params models.PaginationParams, search models.SearchParams) fp.Result[DocumentPage] {
	s.mu.Lock()
	defer s.mu.Unlock()
	var docs []domain.Document
	for _, a := range s.aggs {
		if a.Document.TenantID != tenantID {
			continue
		}
		if search.Query != "" && !strings.Contains(strings.ToUpper(a.Document.Title), strings.ToUpper(search.Query)) {
			continue
		}
		docs = append(docs, a.Document)
	}
	total := len(docs)
	offset := params.Offset()
	if offset > total {
		offset = total
	}
	end := offset + params.Limit()
	if end > total {
		end = total
	}
	return fp.Success(DocumentPage{Documents: docs[offset:end], Total: total})
}

func (s *memStore) ListExpiredCandidates(ctx context.Context, now time.Time) fp.Result[[]DocumentRef] {
	s.mu.Lock()
	defer s.mu.Unlock()
	var refs []DocumentRef
	for _, a := range s.aggs {
		if !a.Document.Status.IsTerminal() && a.Document.IsExpiredAt(now) {
			refs = append(refs, DocumentRef{TenantID: a.Document.TenantID, DocumentID: a.Document.ID})
		}
	}
	return fp.Success(refs)
}

// memAudit records audit entries in memory.
type memAudit struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
}

func (s *memAudit) Create(ctx context.Context, entry domain.AuditEntry) fp.Result[domain.AuditEntry] {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return fp.Success(entry)
}

func (s *memAudit) ListByEntity(ctx context.Context, tenantID, entityType, entityID string) fp.Result[[]domain.AuditEntry] {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.AuditEntry
	for _, e := range s.entries {
		if e.TenantID == tenantID && e.EntityType == entityType && e.EntityID == entityID {
			out = append(out, e)
		}
	}
	return fp.Success(out)
}

const testTenant = "tenant_test"

func newTestCoordinator(t *testing.T, policy DeclinePolicy) (*Coordinator, *memStore, *memAudit) {
	t.Helper()
	store := newMemStore()
	audit := &memAudit{}
	coord := NewCoordinator(store, audit, nil, NewLifecycle(policy), nil)
	return coord, store, audit
}

func mustValue[T any](t *testing.T, r fp.Result[T]) T {
	t.Helper()
	if fp.IsFailure(r) {
		t.Fatalf("unexpected failure: %v", fp.GetError(r))
	}
	return fp.GetValue(r)
}

func createDraft(t *testing.T, c *Coordinator, author domain.UserID, sequential bool) domain.Aggregate {
	t.Helper()
	return mustValue(t, c.CreateDocument(context.Background(), testTenant, author, CreateDocumentRequest{
		Title:             "Master Service Agreement",
		Type:              domain.DocumentTypeContract,
		SequentialSigning: sequential,
	}))
}

func addSigner(t *testing.T, c *Coordinator, docID domain.DocumentID, author domain.UserID, email string, order int) domain.SignerID {
	t.Helper()
	agg := mustValue(t, c.AddSigner(context.Background(), testTenant, docID, author, email, "Signer", "", order, nil))
	return agg.Signers[len(agg.Signers)-1].ID
}

func TestCreateDocumentValidation(t *testing.T) {
	coord, _, _ := newTestCoordinator(t, DeclineAllOrCompleted)

	result := coord.CreateDocument(context.Background(), testTenant, domain.NewUserID(), CreateDocumentRequest{})
	var input fp.ValidationErrors
	if !errors.As(fp.GetError(result), &input) {
		t.Fatalf("expected input validation errors, got %v", fp.GetError(result))
	}

	result = coord.CreateDocument(context.Background(), testTenant, domain.NewUserID(), CreateDocumentRequest{
		Title:      "Bad",
		Extensions: map[string]string{"nope": "x"},
	})
	if fp.IsSuccess(result) {
		t.Fatal("unknown extension key must be rejected")
	}
}

func TestCreateDocumentDefaultsType(t *testing.T) {
	coord, _, _ := newTestCoordinator(t, DeclineAllOrCompleted)
	agg := mustValue(t, coord.CreateDocument(context.Background(), testTenant, domain.NewUserID(), CreateDocumentRequest{Title: "Untyped"}))
	if agg.Document.Type != domain.DocumentTypeOther {
		t.Fatalf("type = %s, want OTHER", agg.Document.Type)
	}
	if agg.Document.Status != domain.DocumentStatusPending {
		t.Fatalf("status = %s, want PENDING", agg.Document.Status)
	}
}

func TestAddSignerValidation(t *testing.T) {
	coord, _, _ := newTestCoordinator(t, DeclineAllOrCompleted)
	author := domain.NewUserID()
	agg := createDraft(t, coord, author, true)

	ctx := context.Background()
	if r := coord.AddSigner(ctx, testTenant, agg.Document.ID, author, "not-an-email", "X", "", 1, nil); fp.IsSuccess(r) {
		t.Fatal("bad email must be rejected")
	}
	if r := coord.AddSigner(ctx, testTenant, agg.Document.ID, author, "a@example.com", "X", "", 0, nil); fp.IsSuccess(r) {
		t.Fatal("non-positive order must be rejected")
	}
	addSigner(t, coord, agg.Document.ID, author, "a@example.com", 1)
	if r := coord.AddSigner(ctx, testTenant, agg.Document.ID, author, "b@example.com", "X", "", 1, nil); fp.IsSuccess(r) {
		t.Fatal("duplicate order on a sequential document must be rejected")
	}
	if r := coord.AddSigner(ctx, testTenant, agg.Document.ID, domain.NewUserID(), "c@example.com", "X", "", 2, nil); fp.IsSuccess(r) {
		t.Fatal("only the author may add signers")
	}
}

func TestSequentialSigningHappyPath(t *testing.T) {
	coord, _, audit := newTestCoordinator(t, DeclineAllOrCompleted)
	author := domain.NewUserID()
	ctx := context.Background()

	agg := createDraft(t, coord, author, true)
	docID := agg.Document.ID
	first := addSigner(t, coord, docID, author, "first@example.com", 1)
	second := addSigner(t, coord, docID, author, "second@example.com", 2)

	fieldAgg := mustValue(t, coord.AddField(ctx, testTenant, docID, author, AddFieldRequest{
		Type:     domain.FieldTypeSignature,
		Label:    "Signature",
		Required: true,
		Geometry: domain.Geometry{Page: 1, X: 0.1, Y: 0.8, Width: 0.3, Height: 0.05},
		SignerID: &first,
	}))
	fieldID := fieldAgg.Fields[0].ID

	mustValue(t, coord.Send(ctx, testTenant, docID, author))
	mustValue(t, coord.RecordView(ctx, testTenant, docID, first, ""))
	mustValue(t, coord.SetFieldValue(ctx, testTenant, docID, first, fieldID, "First Signer", ""))
	mustValue(t, coord.CompleteTurn(ctx, testTenant, docID, first, ""))

	report := mustValue(t, coord.Progress(ctx, testTenant, docID))
	if report.Completed != 1 || report.Total != 2 {
		t.Fatalf("progress = %d/%d, want 1/2", report.Completed, report.Total)
	}
	if report.CurrentSignerID == nil || *report.CurrentSignerID != second {
		t.Fatalf("turn must be with the second signer, got %v", report.CurrentSignerID)
	}

	final := mustValue(t, coord.CompleteTurn(ctx, testTenant, docID, second, ""))
	if final.Document.Status != domain.DocumentStatusSigned {
		t.Fatalf("status = %s, want SIGNED", final.Document.Status)
	}

	trail := mustValue(t, audit.ListByEntity(ctx, testTenant, "document", docID.String()))
	if len(trail) == 0 {
		t.Fatal("document actions must leave an audit trail")
	}
}

func TestOutOfTurnCompletionRejected(t *testing.T) {
	coord, _, _ := newTestCoordinator(t, DeclineAllOrCompleted)
	author := domain.NewUserID()
	ctx := context.Background()

	agg := createDraft(t, coord, author, true)
	docID := agg.Document.ID
	addSigner(t, coord, docID, author, "first@example.com", 1)
	second := addSigner(t, coord, docID, author, "second@example.com", 2)
	mustValue(t, coord.Send(ctx, testTenant, docID, author))

	result := coord.CompleteTurn(ctx, testTenant, docID, second, "")
	var violation *domain.WorkflowViolation
	if !errors.As(fp.GetError(result), &violation) {
		t.Fatalf("expected workflow violation, got %v", fp.GetError(result))
	}
}

func TestConcurrentDoubleCompletion(t *testing.T) {
	coord, _, _ := newTestCoordinator(t, DeclineAllOrCompleted)
	author := domain.NewUserID()
	ctx := context.Background()

	agg := createDraft(t, coord, author, false)
	docID := agg.Document.ID
	signerID := addSigner(t, coord, docID, author, "only@example.com", 1)
	mustValue(t, coord.Send(ctx, testTenant, docID, author))

	var wg sync.WaitGroup
	results := make([]fp.Result[domain.Aggregate], 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = coord.CompleteTurn(ctx, testTenant, docID, signerID, "")
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, r := range results {
		if fp.IsSuccess(r) {
			successes++
		}
	}
	if successes != 1 {
		t.Fatalf("exactly one completion must win, got %d", successes)
	}
	final := mustValue(t, coord.Get(ctx, testTenant, docID))
	if final.Document.Status != domain.DocumentStatusSigned {
		t.Fatalf("status = %s, want SIGNED", final.Document.Status)
	}
}

func TestRemoveSignerLockedAfterSend(t *testing.T) {
	coord, _, _ := newTestCoordinator(t, DeclineAllOrCompleted)
	author := domain.NewUserID()
	ctx := context.Background()

	agg := createDraft(t, coord, author, false)
	docID := agg.Document.ID
	signerID := addSigner(t, coord, docID, author, "a@example.com", 1)
	mustValue(t, coord.Send(ctx, testTenant, docID, author))

	result := coord.RemoveSigner(ctx, testTenant, docID, author, signerID)
	if !errors.Is(fp.GetError(result), domain.ErrSignerLocked) {
		t.Fatalf("expected signer lock error, got %v", fp.GetError(result))
	}
}

func TestAddFieldRejectsBadPlacement(t *testing.T) {
	coord, _, _ := newTestCoordinator(t, DeclineAllOrCompleted)
	author := domain.NewUserID()
	ctx := context.Background()
	agg := createDraft(t, coord, author, false)

	result := coord.AddField(ctx, testTenant, agg.Document.ID, author, AddFieldRequest{
		Type:     domain.FieldTypeText,
		Geometry: domain.Geometry{Page: 1, X: 0.9, Y: 0.9, Width: 0.3, Height: 0.3},
	})
	if fp.IsSuccess(result) {
		t.Fatal("out-of-bounds geometry must be rejected")
	}

	strayID := domain.NewSignerID()
	result = coord.AddField(ctx, testTenant, agg.Document.ID, author, AddFieldRequest{
		Type:     domain.FieldTypeText,
		Geometry: domain.Geometry{Page: 1, X: 0.1, Y: 0.1, Width: 0.1, Height: 0.1},
		SignerID: &strayID,
	})
	if fp.IsSuccess(result) {
		t.Fatal("a field cannot be assigned to a signer from another document")
	}
}

func TestSetFieldValuePermissions(t *testing.T) {
	coord, _, _ := newTestCoordinator(t, DeclineAllOrCompleted)
	author := domain.NewUserID()
	ctx := context.Background()

	agg := createDraft(t, coord, author, false)
	docID := agg.Document.ID
	owner := addSigner(t, coord, docID, author, "owner@example.com", 1)
	other := addSigner(t, coord, docID, author, "other@example.com", 2)

	fieldAgg := mustValue(t, coord.AddField(ctx, testTenant, docID, author, AddFieldRequest{
		Type:     domain.FieldTypeText,
		Label:    "Owner only",
		Geometry: domain.Geometry{Page: 1, X: 0.1, Y: 0.1, Width: 0.2, Height: 0.05},
		SignerID: &owner,
	}))
	fieldID := fieldAgg.Fields[0].ID

	// Author prefill works while the document is a draft.
	mustValue(t, coord.SetFieldValueByAuthor(ctx, testTenant, docID, author, fieldID, "prefilled"))

	mustValue(t, coord.Send(ctx, testTenant, docID, author))

	result := coord.SetFieldValue(ctx, testTenant, docID, other, fieldID, "hijack", "")
	var perm *domain.PermissionError
	if !errors.As(fp.GetError(result), &perm) {
		t.Fatalf("expected permission error, got %v", fp.GetError(result))
	}

	mustValue(t, coord.SetFieldValue(ctx, testTenant, docID, owner, fieldID, "mine", ""))

	// Author writes are closed once the document is in flight.
	if r := coord.SetFieldValueByAuthor(ctx, testTenant, docID, author, fieldID, "late"); fp.IsSuccess(r) {
		t.Fatal("author prefill must be rejected after sending")
	}
}

func TestSignerActionsRecordSignerAsAuditActor(t *testing.T) {
	coord, _, audit := newTestCoordinator(t, DeclineAllOrCompleted)
	author := domain.NewUserID()
	ctx := context.Background()

	agg := createDraft(t, coord, author, true)
	docID := agg.Document.ID
	signerID := addSigner(t, coord, docID, author, "a@example.com", 1)
	mustValue(t, coord.Send(ctx, testTenant, docID, author))
	mustValue(t, coord.CompleteTurn(ctx, testTenant, docID, signerID, ""))

	trail := mustValue(t, audit.ListByEntity(ctx, testTenant, "signer", signerID.String()))
	completed := false
	for _, e := range trail {
		if e.Action == domain.AuditActionCompleted {
			completed = true
			if e.ActorID != domain.UserID(signerID) {
				t.Fatalf("completion actor = %s, want the acting signer %s", e.ActorID, signerID)
			}
		}
	}
	if !completed {
		t.Fatal("completion must leave an audit entry")
	}
}

func TestDocumentLockRegistryPruned(t *testing.T) {
	coord, _, _ := newTestCoordinator(t, DeclineAllOrCompleted)
	author := domain.NewUserID()
	ctx := context.Background()

	agg := createDraft(t, coord, author, true)
	docID := agg.Document.ID
	addSigner(t, coord, docID, author, "a@example.com", 1)
	mustValue(t, coord.DeleteDocument(ctx, testTenant, docID, author))

	coord.mu.Lock()
	entries := len(coord.locks)
	coord.mu.Unlock()
	if entries != 0 {
		t.Fatalf("lock registry holds %d entries while idle, want 0", entries)
	}
}

func TestAccessCodeEnforced(t *testing.T) {
	coord, _, _ := newTestCoordinator(t, DeclineAllOrCompleted)
	author := domain.NewUserID()
	ctx := context.Background()

	agg := createDraft(t, coord, author, false)
	docID := agg.Document.ID
	code := "1987"
	guarded := mustValue(t, coord.AddSigner(ctx, testTenant, docID, author, "guarded@example.com", "Guarded", "", 1, &code))
	signerID := guarded.Signers[0].ID
	mustValue(t, coord.Send(ctx, testTenant, docID, author))

	if r := coord.RecordView(ctx, testTenant, docID, signerID, ""); fp.IsSuccess(r) {
		t.Fatal("a missing access code must be rejected")
	}
	result := coord.CompleteTurn(ctx, testTenant, docID, signerID, "wrong")
	var perm *domain.PermissionError
	if !errors.As(fp.GetError(result), &perm) {
		t.Fatalf("expected permission error, got %v", fp.GetError(result))
	}

	mustValue(t, coord.RecordView(ctx, testTenant, docID, signerID, code))
	final := mustValue(t, coord.CompleteTurn(ctx, testTenant, docID, signerID, code))
	if final.Document.Status != domain.DocumentStatusSigned {
		t.Fatalf("status = %s, want SIGNED", final.Document.Status)
	}
}

func TestLazyExpiryClosesDocument(t *testing.T) {
	coord, _, _ := newTestCoordinator(t, DeclineAllOrCompleted)
	author := domain.NewUserID()
	ctx := context.Background()

	past := time.Now().Add(-time.Hour)
	agg := mustValue(t, coord.CreateDocument(ctx, testTenant, author, CreateDocumentRequest{
		Title:     "Stale Offer",
		ExpiresAt: &past,
	}))
	docID := agg.Document.ID

	result := coord.AddSigner(ctx, testTenant, docID, author, "a@example.com", "A", "", 1, nil)
	if fp.IsSuccess(result) {
		t.Fatal("actions on an expired document must be rejected")
	}

	final := mustValue(t, coord.Get(ctx, testTenant, docID))
	if final.Document.Status != domain.DocumentStatusExpired {
		t.Fatalf("status = %s, want EXPIRED", final.Document.Status)
	}
}

func TestExpireOverdueSweep(t *testing.T) {
	coord, _, _ := newTestCoordinator(t, DeclineAllOrCompleted)
	author := domain.NewUserID()
	ctx := context.Background()

	past := time.Now().Add(-time.Minute)
	stale := mustValue(t, coord.CreateDocument(ctx, testTenant, author, CreateDocumentRequest{Title: "Stale", ExpiresAt: &past}))
	fresh := mustValue(t, coord.CreateDocument(ctx, testTenant, author, CreateDocumentRequest{Title: "Fresh"}))

	if err := coord.ExpireOverdue(ctx); err != nil {
		t.Fatalf("sweep: %v", err)
	}

	staleAgg := mustValue(t, coord.Get(ctx, testTenant, stale.Document.ID))
	if staleAgg.Document.Status != domain.DocumentStatusExpired {
		t.Fatalf("stale document status = %s, want EXPIRED", staleAgg.Document.Status)
	}
	freshAgg := mustValue(t, coord.Get(ctx, testTenant, fresh.Document.ID))
	if freshAgg.Document.Status != domain.DocumentStatusPending {
		t.Fatalf("fresh document status = %s, want PENDING", freshAgg.Document.Status)
	}
}

func TestDeleteDocumentAuthorOnly(t *testing.T) {
	coord, store, _ := newTestCoordinator(t, DeclineAllOrCompleted)
	author := domain.NewUserID()
	ctx := context.Background()

	agg := createDraft(t, coord, author, false)
	docID := agg.Document.ID

	result := coord.DeleteDocument(ctx, testTenant, docID, domain.NewUserID())
	var perm *domain.PermissionError
	if !errors.As(fp.GetError(result), &perm) {
		t.Fatalf("expected permission error, got %v", fp.GetError(result))
	}

	mustValue(t, coord.DeleteDocument(ctx, testTenant, docID, author))
	if fp.IsSuccess(store.LoadAggregate(ctx, testTenant, docID)) {
		t.Fatal("document must be gone after deletion")
	}
}

func TestTenantIsolation(t *testing.T) {
	coord, _, _ := newTestCoordinator(t, DeclineAllOrCompleted)
	author := domain.NewUserID()
	ctx := context.Background()

	agg := createDraft(t, coord, author, false)
	result := coord.Get(ctx, "other_tenant", agg.Document.ID)
	var notFound *domain.NotFoundError
	if !errors.As(fp.GetError(result), &notFound) {
		t.Fatalf("cross-tenant reads must look like a missing document, got %v", fp.GetError(result))
	}
}

func TestVersionAdvancesPerMutation(t *testing.T) {
	coord, _, _ := newTestCoordinator(t, DeclineAllOrCompleted)
	author := domain.NewUserID()
	ctx := context.Background()

	agg := createDraft(t, coord, author, false)
	docID := agg.Document.ID
	startVersion := agg.Document.Version

	addSigner(t, coord, docID, author, "a@example.com", 1)
	mustValue(t, coord.Send(ctx, testTenant, docID, author))

	final := mustValue(t, coord.Get(ctx, testTenant, docID))
	if final.Document.Version != startVersion+2 {
		t.Fatalf("version = %d, want %d", final.Document.Version, startVersion+2)
	}
}

func TestListPaginatesAndFilters(t *testing.T) {
	coord, _, _ := newTestCoordinator(t, DeclineAllOrCompleted)
	author := domain.NewUserID()
	ctx := context.Background()

	titles := []string{"Alpha Lease", "Beta Lease", "Gamma NDA"}
	for _, title := range titles {
		mustValue(t, coord.CreateDocument(ctx, testTenant, author, CreateDocumentRequest{Title: title}))
	}

	page := mustValue(t, coord.List(ctx, testTenant, models.PaginationParams{Page: 1, PageSize: 2}, models.SearchParams{}))
	if page.Total != 3 || len(page.Documents) != 2 {
		t.Fatalf("page 1 = %d of %d, want 2 of 3", len(page.Documents), page.Total)
	}
	page = mustValue(t, coord.List(ctx, testTenant, models.PaginationParams{Page: 2, PageSize: 2}, models.SearchParams{}))
	if len(page.Documents) != 1 {
		t.Fatalf("page 2 = %d documents, want 1", len(page.Documents))
	}

	page = mustValue(t, coord.List(ctx, testTenant, models.PaginationParams{Page: 1, PageSize: 10}, models.SearchParams{Query: "lease"}))
	if page.Total != 2 {
		t.Fatalf("search total = %d, want 2", page.Total)
	}
}

func TestCancelledContextAbandonsMutation(t *testing.T) {
	coord, _, _ := newTestCoordinator(t, DeclineAllOrCompleted)
	author := domain.NewUserID()
	agg := createDraft(t, coord, author, false)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result := coord.AddSigner(ctx, testTenant, agg.Document.ID, author, "a@example.com", "A", "", 1, nil)
	if !errors.Is(fp.GetError(result), context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", fp.GetError(result))
	}

	final := mustValue(t, coord.Get(context.Background(), testTenant, agg.Document.ID))
	if len(final.Signers) != 0 {
		t.Fatal("a cancelled mutation must leave no state change")
	}
}
