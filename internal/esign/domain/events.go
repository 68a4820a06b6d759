package domain

import (
	"time"
)

// EventType identifies a workflow event emitted to the notifier
type EventType string

const (
	EventSent      EventType = "SENT"
	EventViewed    EventType = "VIEWED"
	EventCompleted EventType = "COMPLETED"
	EventDeclined  EventType = "DECLINED"
	EventExpired   EventType = "EXPIRED"
	EventSigned    EventType = "SIGNED"
)

// Event tags a workflow transition with the document and, where relevant,
// the signer that caused it. Delivery is fire-and-forget: a failed
// notification never rolls back the transition it describes.
type Event struct {
	Type       EventType  `json:"type"`
	DocumentID DocumentID `json:"document_id"`
	SignerID   *SignerID  `json:"signer_id,omitempty"`
	OccurredAt time.Time  `json:"occurred_at"`
}

// NewEvent creates an Event stamped with the current time
func NewEvent(eventType EventType, documentID DocumentID, signerID *SignerID) Event {
	return Event{
		Type:       eventType,
		DocumentID: documentID,
		SignerID:   signerID,
		OccurredAt: time.Now(),
	}
}
