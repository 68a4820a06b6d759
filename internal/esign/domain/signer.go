package domain

import (
	"sort"
	"time"
)

// Signer represents one party who must act on a document (immutable)
type Signer struct {
	ID            SignerID     `json:"id"`
	DocumentID    DocumentID   `json:"document_id"`
	Email         string       `json:"email"`
	Name          string       `json:"name,omitempty"`
	Role          string       `json:"role,omitempty"`
	Order         int          `json:"order"`
	Status        SignerStatus `json:"status"`
	AccessCode    *string      `json:"access_code,omitempty"`
	Color         *string      `json:"color,omitempty"`
	InvitedAt     *time.Time   `json:"invited_at,omitempty"`
	ViewedAt      *time.Time   `json:"viewed_at,omitempty"`
	CompletedAt   *time.Time   `json:"completed_at,omitempty"`
	NotifiedAt    *time.Time   `json:"notified_at,omitempty"`
	DeclinedAt    *time.Time   `json:"declined_at,omitempty"`
	DeclineReason *string      `json:"decline_reason,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
}

// Invite marks the signer as invited
func (s Signer) Invite(at time.Time) Signer {
	s.Status = SignerStatusInvited
	s.InvitedAt = &at
	return s
}

// MarkViewed marks the signer as having opened the document.
// The first view stamps viewedAt; later views are no-ops on the stamp.
func (s Signer) MarkViewed(at time.Time) Signer {
	if s.Status.CanAdvanceTo(SignerStatusViewed) {
		s.Status = SignerStatusViewed
	}
	if s.ViewedAt == nil {
		s.ViewedAt = &at
	}
	return s
}

// Complete marks the signer's turn as finished
func (s Signer) Complete(at time.Time) Signer {
	s.Status = SignerStatusCompleted
	s.CompletedAt = &at
	return s
}

// Decline marks the signer as having refused to sign
func (s Signer) Decline(at time.Time, reason string) Signer {
	s.Status = SignerStatusDeclined
	s.DeclinedAt = &at
	s.DeclineReason = &reason
	return s
}

// MarkNotified stamps the last notification time
func (s Signer) MarkNotified(at time.Time) Signer {
	s.NotifiedAt = &at
	return s
}

// NewSigner creates a new Signer in the not-yet-invited state
func NewSigner(documentID DocumentID, email, name, role string, order int) Signer {
	return Signer{
		ID:         NewSignerID(),
		DocumentID: documentID,
		Email:      email,
		Name:       name,
		Role:       role,
		Order:      order,
		Status:     SignerStatusPending,
		CreatedAt:  time.Now(),
	}
}

// CurrentSigner returns the signer entitled to act next: the lowest-order
// signer that is not yet completed or declined. For parallel documents there
// is no turn and nil is returned.
func (a *Aggregate) CurrentSigner() *Signer {
	if !a.Document.SequentialSigning {
		return nil
	}
	var current *Signer
	for i := range a.Signers {
		s := &a.Signers[i]
		if s.Status.IsTerminal() {
			continue
		}
		if current == nil || s.Order < current.Order {
			current = s
		}
	}
	return current
}

// CanAct reports whether the given signer may take a mutating action now.
// On sequential documents only the current signer may act; on parallel
// documents any signer who has not yet finished may act.
func (a *Aggregate) CanAct(id SignerID) bool {
	signer, ok := a.Signer(id)
	if !ok || signer.Status.IsTerminal() {
		return false
	}
	if !a.Document.SequentialSigning {
		return true
	}
	current := a.CurrentSigner()
	return current != nil && current.ID == id
}

// Progress reports how many signers have completed out of the total
func (a *Aggregate) Progress() (completed, total int) {
	for i := range a.Signers {
		if a.Signers[i].Status == SignerStatusCompleted {
			completed++
		}
	}
	return completed, len(a.Signers)
}

// AllSignersCompleted checks that every signer has completed
func (a *Aggregate) AllSignersCompleted() bool {
	if len(a.Signers) == 0 {
		return false
	}
	for i := range a.Signers {
		if a.Signers[i].Status != SignerStatusCompleted {
			return false
		}
	}
	return true
}

// AllSignersFinished checks that every signer has either completed or declined
func (a *Aggregate) AllSignersFinished() bool {
	for i := range a.Signers {
		if !a.Signers[i].Status.IsTerminal() {
			return false
		}
	}
	return len(a.Signers) > 0
}

// AnySignerDeclined checks whether at least one signer has declined
func (a *Aggregate) AnySignerDeclined() bool {
	for i := range a.Signers {
		if a.Signers[i].Status == SignerStatusDeclined {
			return true
		}
	}
	return false
}

// ValidateSigningOrder checks that, for a sequential document, the signers'
// order values form a contiguous unique sequence starting at 1. Parallel
// documents have no ordering requirement.
func (a *Aggregate) ValidateSigningOrder() error {
	if !a.Document.SequentialSigning {
		return nil
	}
	orders := make([]int, 0, len(a.Signers))
	seen := make(map[int]bool, len(a.Signers))
	for i := range a.Signers {
		o := a.Signers[i].Order
		if o < 1 {
			return NewDomainError("signing order must be >= 1, got %d", o)
		}
		if seen[o] {
			return NewDomainError("duplicate signing order: %d", o)
		}
		seen[o] = true
		orders = append(orders, o)
	}
	sort.Ints(orders)
	for i, o := range orders {
		if o != i+1 {
			return NewDomainError("signing order must be contiguous starting at 1, missing order %d", i+1)
		}
	}
	return nil
}
