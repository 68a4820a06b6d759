package service

import (
	"errors"
	"testing"
	"time"

	"github.com/quillsign/quillsign/internal/esign/domain"
)

func draftAggregate(sequential bool, signerCount int) (domain.Aggregate, domain.UserID) {
	author := domain.NewUserID()
	doc := domain.NewDocument("t1", "Agreement", domain.DocumentTypeAgreement, author, sequential, nil)
	agg := domain.Aggregate{Document: doc}
	for i := 1; i <= signerCount; i++ {
		agg.Signers = append(agg.Signers, domain.NewSigner(doc.ID, "signer@example.com", "Signer", "", i))
	}
	return agg, author
}

func sentAggregate(t *testing.T, l *Lifecycle, sequential bool, signerCount int) domain.Aggregate {
	t.Helper()
	agg, author := draftAggregate(sequential, signerCount)
	if _, err := l.Send(&agg, author); err != nil {
		t.Fatalf("send: %v", err)
	}
	return agg
}

func TestSendRequiresAuthor(t *testing.T) {
	l := NewLifecycle(DeclineAllOrCompleted)
	agg, _ := draftAggregate(true, 1)
	_, err := l.Send(&agg, domain.NewUserID())
	var perm *domain.PermissionError
	if !errors.As(err, &perm) {
		t.Fatalf("expected permission error, got %v", err)
	}
}

func TestSendRequiresSigners(t *testing.T) {
	l := NewLifecycle(DeclineAllOrCompleted)
	agg, author := draftAggregate(true, 0)
	_, err := l.Send(&agg, author)
	var violation *domain.WorkflowViolation
	if !errors.As(err, &violation) {
		t.Fatalf("expected workflow violation, got %v", err)
	}
}

func TestSendRejectsBrokenOrder(t *testing.T) {
	l := NewLifecycle(DeclineAllOrCompleted)
	agg, author := draftAggregate(true, 2)
	agg.Signers[1].Order = 5
	if _, err := l.Send(&agg, author); err == nil {
		t.Fatal("gapped signing order must fail the send")
	}
}

func TestSendInvitesEverySigner(t *testing.T) {
	l := NewLifecycle(DeclineAllOrCompleted)
	agg := sentAggregate(t, l, true, 3)
	if agg.Document.Status != domain.DocumentStatusSent {
		t.Fatalf("status = %s, want SENT", agg.Document.Status)
	}
	for _, s := range agg.Signers {
		if s.Status != domain.SignerStatusInvited || s.InvitedAt == nil {
			t.Fatalf("signer not invited: %#v", s)
		}
	}
}

func TestDeclineBeforeSendClosesDocument(t *testing.T) {
	l := NewLifecycle(DeclineAllOrCompleted)
	agg, _ := draftAggregate(true, 1)
	if _, err := l.Decline(&agg, agg.Signers[0].ID, "changed my mind"); err != nil {
		t.Fatalf("decline on a pending document: %v", err)
	}
	if agg.Document.Status != domain.DocumentStatusDeclined {
		t.Fatalf("status = %s, want DECLINED", agg.Document.Status)
	}
	if !domain.DocumentStatusPending.CanTransitionTo(domain.DocumentStatusDeclined) {
		t.Fatal("transition map must admit the decline the lifecycle just performed")
	}
}

func TestSendTwiceRejected(t *testing.T) {
	l := NewLifecycle(DeclineAllOrCompleted)
	agg, author := draftAggregate(true, 1)
	if _, err := l.Send(&agg, author); err != nil {
		t.Fatalf("first send: %v", err)
	}
	if _, err := l.Send(&agg, author); err == nil {
		t.Fatal("second send must be rejected")
	}
}

func TestSequentialCompletionOrder(t *testing.T) {
	l := NewLifecycle(DeclineAllOrCompleted)
	agg := sentAggregate(t, l, true, 2)
	first, second := agg.Signers[0].ID, agg.Signers[1].ID

	if _, err := l.CompleteTurn(&agg, second); err == nil {
		t.Fatal("second signer must not complete before the first")
	}

	if _, err := l.CompleteTurn(&agg, first); err != nil {
		t.Fatalf("first completion: %v", err)
	}
	if agg.Document.Status == domain.DocumentStatusSigned {
		t.Fatal("document signed before all signers completed")
	}

	if _, err := l.CompleteTurn(&agg, second); err != nil {
		t.Fatalf("second completion: %v", err)
	}
	if agg.Document.Status != domain.DocumentStatusSigned {
		t.Fatalf("status = %s, want SIGNED", agg.Document.Status)
	}
	if agg.Document.SignedAt == nil {
		t.Fatal("signed timestamp missing")
	}
}

func TestCompleteTurnTwiceRejected(t *testing.T) {
	l := NewLifecycle(DeclineAllOrCompleted)
	agg := sentAggregate(t, l, false, 2)
	id := agg.Signers[0].ID
	if _, err := l.CompleteTurn(&agg, id); err != nil {
		t.Fatalf("first completion: %v", err)
	}
	if _, err := l.CompleteTurn(&agg, id); err == nil {
		t.Fatal("repeat completion must be rejected")
	}
}

func TestCompleteTurnBlockedByUnfilledField(t *testing.T) {
	l := NewLifecycle(DeclineAllOrCompleted)
	agg := sentAggregate(t, l, false, 1)
	signerID := agg.Signers[0].ID
	field := domain.NewDocumentField(agg.Document.ID, domain.FieldTypeSignature, "Sign here", true,
		domain.Geometry{Page: 1, X: 0.1, Y: 0.8, Width: 0.3, Height: 0.05}, &signerID)
	agg.Fields = append(agg.Fields, field)

	_, err := l.CompleteTurn(&agg, signerID)
	var findings domain.FieldValidationErrors
	if !errors.As(err, &findings) || !findings.HasBlocking() {
		t.Fatalf("expected blocking validation findings, got %v", err)
	}

	agg.ReplaceField(field.WithValue("Jane Hancock"))
	if _, err := l.CompleteTurn(&agg, signerID); err != nil {
		t.Fatalf("completion after filling: %v", err)
	}
}

func TestSequentialDeclineClosesDocument(t *testing.T) {
	l := NewLifecycle(DeclineAllOrCompleted)
	agg := sentAggregate(t, l, true, 2)

	if _, err := l.Decline(&agg, agg.Signers[0].ID, "terms unacceptable"); err != nil {
		t.Fatalf("decline: %v", err)
	}
	if agg.Document.Status != domain.DocumentStatusDeclined {
		t.Fatalf("sequential decline must close the document, got %s", agg.Document.Status)
	}
	if agg.Signers[1].Status != domain.SignerStatusInvited {
		t.Fatalf("later signer's status must be untouched, got %s", agg.Signers[1].Status)
	}
}

func TestParallelDeclineAllOrCompleted(t *testing.T) {
	l := NewLifecycle(DeclineAllOrCompleted)
	agg := sentAggregate(t, l, false, 2)

	if _, err := l.Decline(&agg, agg.Signers[0].ID, "no"); err != nil {
		t.Fatalf("decline: %v", err)
	}
	if agg.Document.Status.IsTerminal() {
		t.Fatalf("document must stay open while a signer remains, got %s", agg.Document.Status)
	}

	if _, err := l.CompleteTurn(&agg, agg.Signers[1].ID); err != nil {
		t.Fatalf("completion: %v", err)
	}
	if agg.Document.Status != domain.DocumentStatusDeclined {
		t.Fatalf("last completion must settle the declined document, got %s", agg.Document.Status)
	}
}

func TestParallelDeclineImmediately(t *testing.T) {
	l := NewLifecycle(DeclineImmediately)
	agg := sentAggregate(t, l, false, 2)

	if _, err := l.Decline(&agg, agg.Signers[0].ID, "no"); err != nil {
		t.Fatalf("decline: %v", err)
	}
	if agg.Document.Status != domain.DocumentStatusDeclined {
		t.Fatalf("first decline must close the document, got %s", agg.Document.Status)
	}
}

func TestDeclineThenDeclineFinishesDocument(t *testing.T) {
	l := NewLifecycle(DeclineAllOrCompleted)
	agg := sentAggregate(t, l, false, 2)

	if _, err := l.Decline(&agg, agg.Signers[0].ID, "no"); err != nil {
		t.Fatalf("first decline: %v", err)
	}
	if _, err := l.Decline(&agg, agg.Signers[1].ID, "also no"); err != nil {
		t.Fatalf("second decline: %v", err)
	}
	if agg.Document.Status != domain.DocumentStatusDeclined {
		t.Fatalf("all signers finished with a decline, got %s", agg.Document.Status)
	}
}

func TestRecordViewIdempotent(t *testing.T) {
	l := NewLifecycle(DeclineAllOrCompleted)
	stamp := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return stamp }
	agg := sentAggregate(t, l, false, 1)
	id := agg.Signers[0].ID

	if _, err := l.RecordView(&agg, id); err != nil {
		t.Fatalf("first view: %v", err)
	}
	l.now = func() time.Time { return stamp.Add(time.Hour) }
	if _, err := l.RecordView(&agg, id); err != nil {
		t.Fatalf("repeat view: %v", err)
	}
	signer, _ := agg.Signer(id)
	if signer.ViewedAt == nil || !signer.ViewedAt.Equal(stamp) {
		t.Fatalf("first view stamp must win, got %v", signer.ViewedAt)
	}
	if agg.Document.ViewedAt == nil || !agg.Document.ViewedAt.Equal(stamp) {
		t.Fatalf("document first view stamp must win, got %v", agg.Document.ViewedAt)
	}
}

func TestRecordViewBeforeSendRejected(t *testing.T) {
	l := NewLifecycle(DeclineAllOrCompleted)
	agg, _ := draftAggregate(false, 1)
	if _, err := l.RecordView(&agg, agg.Signers[0].ID); err == nil {
		t.Fatal("viewing a draft must be rejected")
	}
}

func TestExpireClosesOpenDocument(t *testing.T) {
	l := NewLifecycle(DeclineAllOrCompleted)
	agg := sentAggregate(t, l, false, 1)
	if _, err := l.Expire(&agg); err != nil {
		t.Fatalf("expire: %v", err)
	}
	if agg.Document.Status != domain.DocumentStatusExpired {
		t.Fatalf("status = %s, want EXPIRED", agg.Document.Status)
	}
	if _, err := l.Expire(&agg); err == nil {
		t.Fatal("expiring a terminal document must be rejected")
	}
}
