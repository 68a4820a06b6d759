// Package notify delivers workflow events to interested parties. Delivery
// is fire-and-forget from the engine's perspective: a failed notification
// is logged and never rolls back the transition it describes.
package notify

import (
	"context"
	"log/slog"

	"github.com/quillsign/quillsign/internal/esign/domain"
)

// Notifier receives workflow events tagged with document and signer IDs
type Notifier interface {
	Notify(ctx context.Context, event domain.Event)
}

// SlogNotifier emits events to structured logs. It stands in for an email
// or webhook dispatcher behind the same interface.
type SlogNotifier struct {
	logger *slog.Logger
}

// NewSlogNotifier creates a SlogNotifier
func NewSlogNotifier(logger *slog.Logger) *SlogNotifier {
	if logger == nil {
		panic("logger is required")
	}
	return &SlogNotifier{logger: logger}
}

// Notify logs the event
func (n *SlogNotifier) Notify(_ context.Context, event domain.Event) {
	args := []any{
		"event", string(event.Type),
		"document_id", event.DocumentID.String(),
		"occurred_at", event.OccurredAt,
	}
	if event.SignerID != nil {
		args = append(args, "signer_id", event.SignerID.String())
	}
	n.logger.Info("workflow event", args...)
}

// Discard drops all events; used in tests
type Discard struct{}

// Notify does nothing
func (Discard) Notify(context.Context, domain.Event) {}
