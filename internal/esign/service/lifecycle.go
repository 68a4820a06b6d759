package service

import (
	"time"

	"github.com/quillsign/quillsign/internal/esign/domain"
)

// DeclinePolicy decides when a decline on a non-sequential document turns
// the whole document DECLINED.
type DeclinePolicy string

const (
	// DeclineAllOrCompleted marks the document declined only once every
	// remaining signer has completed or declined and at least one declined.
	DeclineAllOrCompleted DeclinePolicy = "ALL_OR_COMPLETED"

	// DeclineImmediately marks the document declined on the first decline.
	DeclineImmediately DeclinePolicy = "IMMEDIATELY"
)

// Lifecycle owns the document state machine: it sequences signer turns,
// decides when a document becomes fully signed, declined or expired, and
// rejects out-of-order actions. It operates on in-memory aggregates; the
// Coordinator is responsible for loading, locking and persisting them.
type Lifecycle struct {
	policy DeclinePolicy
	now    func() time.Time
}

// NewLifecycle creates a Lifecycle with the given decline policy
func NewLifecycle(policy DeclinePolicy) *Lifecycle {
	if policy == "" {
		policy = DeclineAllOrCompleted
	}
	return &Lifecycle{policy: policy, now: time.Now}
}

// Send dispatches a pending document to its signers. Only the author may
// send; the document needs at least one signer and, when sequential, a
// contiguous unique order starting at 1.
func (l *Lifecycle) Send(a *domain.Aggregate, actorID domain.UserID) ([]domain.Event, error) {
	doc := a.Document
	if doc.AuthorID != actorID {
		return nil, domain.NewPermissionError(actorID.String(), "only the author may send the document")
	}
	if doc.Status != domain.DocumentStatusPending {
		return nil, domain.NewWorkflowViolation(
			string(domain.DocumentStatusPending), string(doc.Status), "document already sent")
	}
	if len(a.Signers) == 0 {
		return nil, domain.NewWorkflowViolation(
			string(domain.DocumentStatusPending), string(doc.Status), "document has no signers")
	}
	if err := a.ValidateSigningOrder(); err != nil {
		return nil, err
	}

	at := l.now()
	a.Document = doc.MarkSent(at)
	for i := range a.Signers {
		a.Signers[i] = a.Signers[i].Invite(at)
	}
	return []domain.Event{domain.NewEvent(domain.EventSent, doc.ID, nil)}, nil
}

// RecordView stamps that a signer has opened the document. The signer's
// first view and the document's first view are stamped once; repeat views
// are idempotent.
func (l *Lifecycle) RecordView(a *domain.Aggregate, signerID domain.SignerID) ([]domain.Event, error) {
	doc := a.Document
	if doc.Status != domain.DocumentStatusSent && doc.Status != domain.DocumentStatusViewed {
		return nil, domain.NewWorkflowViolation(
			string(domain.DocumentStatusSent), string(doc.Status), "document is not open for viewing")
	}
	signer, ok := a.Signer(signerID)
	if !ok {
		return nil, domain.NewNotFoundError("signer", signerID.String())
	}

	at := l.now()
	a.ReplaceSigner(signer.MarkViewed(at))
	a.Document = doc.MarkViewed(at)
	return []domain.Event{domain.NewEvent(domain.EventViewed, doc.ID, &signerID)}, nil
}

// CompleteTurn records that a signer has finished their fields. It requires
// every active required field owned by the signer to validate, and, on
// sequential documents, that it is this signer's turn. The last completion
// transitions the document to SIGNED.
func (l *Lifecycle) CompleteTurn(a *domain.Aggregate, signerID domain.SignerID) ([]domain.Event, error) {
	doc := a.Document
	if !doc.Status.IsSignable() {
		return nil, domain.NewWorkflowViolation(
			string(domain.DocumentStatusViewed), string(doc.Status), "document is not open for signing")
	}
	signer, ok := a.Signer(signerID)
	if !ok {
		return nil, domain.NewNotFoundError("signer", signerID.String())
	}
	if signer.Status == domain.SignerStatusCompleted {
		return nil, domain.NewWorkflowViolation(
			string(domain.SignerStatusViewed), string(signer.Status), "already completed")
	}
	if signer.Status == domain.SignerStatusDeclined {
		return nil, domain.NewWorkflowViolation(
			string(domain.SignerStatusViewed), string(signer.Status), "signer has declined")
	}
	if doc.SequentialSigning {
		current := a.CurrentSigner()
		if current == nil || current.ID != signerID {
			expected := "none"
			if current != nil {
				expected = current.ID.String()
			}
			return nil, domain.NewWorkflowViolation(expected, signerID.String(), "not your turn")
		}
	}

	findings := domain.ValidateSignerFields(a, signerID)
	if findings.HasBlocking() {
		return nil, findings
	}

	at := l.now()
	// A completion implies the signer has seen the document; stamp the
	// view before completing so the status sequence stays forward-only.
	a.ReplaceSigner(signer.MarkViewed(at))
	signer, _ = a.Signer(signerID)
	a.ReplaceSigner(signer.Complete(at))
	a.Document = doc.MarkViewed(at)

	events := []domain.Event{domain.NewEvent(domain.EventCompleted, doc.ID, &signerID)}
	if a.AllSignersCompleted() {
		a.Document = a.Document.MarkSigned(at)
		events = append(events, domain.NewEvent(domain.EventSigned, doc.ID, nil))
	} else if a.AllSignersFinished() && a.AnySignerDeclined() {
		// The last completion can close out a document that already carries
		// a decline from another signer.
		a.Document = a.Document.MarkDeclined(at)
		events = append(events, domain.NewEvent(domain.EventDeclined, doc.ID, nil))
	}
	return events, nil
}

// Decline records a signer's refusal. On sequential documents the whole
// document is declined immediately; on parallel documents the configured
// DeclinePolicy decides. Later signers' statuses are left untouched.
func (l *Lifecycle) Decline(a *domain.Aggregate, signerID domain.SignerID, reason string) ([]domain.Event, error) {
	doc := a.Document
	if doc.Status.IsTerminal() {
		return nil, domain.NewWorkflowViolation(
			string(domain.DocumentStatusViewed), string(doc.Status), "document is closed")
	}
	signer, ok := a.Signer(signerID)
	if !ok {
		return nil, domain.NewNotFoundError("signer", signerID.String())
	}
	if signer.Status.IsTerminal() {
		return nil, domain.NewWorkflowViolation(
			string(domain.SignerStatusViewed), string(signer.Status), "signer already finished")
	}

	at := l.now()
	a.ReplaceSigner(signer.Decline(at, reason))
	events := []domain.Event{domain.NewEvent(domain.EventDeclined, doc.ID, &signerID)}

	declineDocument := doc.SequentialSigning ||
		l.policy == DeclineImmediately ||
		(a.AllSignersFinished() && a.AnySignerDeclined())
	if declineDocument {
		a.Document = doc.MarkDeclined(at)
	}
	return events, nil
}

// Expire moves a non-terminal document past its deadline into the terminal
// expired state. Terminal documents are left untouched.
func (l *Lifecycle) Expire(a *domain.Aggregate) ([]domain.Event, error) {
	doc := a.Document
	if doc.Status.IsTerminal() {
		return nil, domain.NewWorkflowViolation(
			"non-terminal", string(doc.Status), "document is closed")
	}
	a.Document = doc.MarkExpired()
	return []domain.Event{domain.NewEvent(domain.EventExpired, doc.ID, nil)}, nil
}
