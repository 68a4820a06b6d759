package domain

import (
	"testing"
	"time"
)

func TestDocumentStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to DocumentStatus
		want     bool
	}{
		{DocumentStatusPending, DocumentStatusSent, true},
		{DocumentStatusPending, DocumentStatusDeclined, true},
		{DocumentStatusPending, DocumentStatusExpired, true},
		{DocumentStatusPending, DocumentStatusSigned, false},
		{DocumentStatusSent, DocumentStatusViewed, true},
		{DocumentStatusSent, DocumentStatusDeclined, true},
		{DocumentStatusSent, DocumentStatusPending, false},
		{DocumentStatusViewed, DocumentStatusSigned, true},
		{DocumentStatusViewed, DocumentStatusViewed, true},
		{DocumentStatusSigned, DocumentStatusViewed, false},
		{DocumentStatusDeclined, DocumentStatusSent, false},
		{DocumentStatusExpired, DocumentStatusSent, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.want {
			t.Errorf("%s -> %s = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestDocumentStatusTerminal(t *testing.T) {
	for _, s := range []DocumentStatus{DocumentStatusSigned, DocumentStatusDeclined, DocumentStatusExpired} {
		if !s.IsTerminal() {
			t.Errorf("%s must be terminal", s)
		}
	}
	for _, s := range []DocumentStatus{DocumentStatusPending, DocumentStatusSent, DocumentStatusViewed} {
		if s.IsTerminal() {
			t.Errorf("%s must not be terminal", s)
		}
	}
}

func TestSignerStatusForwardOnly(t *testing.T) {
	if !SignerStatusPending.CanAdvanceTo(SignerStatusInvited) {
		t.Error("pending -> invited must be allowed")
	}
	if !SignerStatusInvited.CanAdvanceTo(SignerStatusCompleted) {
		t.Error("invited -> completed must be allowed")
	}
	if SignerStatusViewed.CanAdvanceTo(SignerStatusInvited) {
		t.Error("viewed -> invited moves backwards")
	}
	if SignerStatusCompleted.CanAdvanceTo(SignerStatusDeclined) {
		t.Error("completed is terminal")
	}
	if SignerStatusDeclined.CanAdvanceTo(SignerStatusCompleted) {
		t.Error("declined is terminal")
	}
}

func TestGeometryInBounds(t *testing.T) {
	cases := []struct {
		name string
		g    Geometry
		want bool
	}{
		{"fits", Geometry{Page: 1, X: 0.1, Y: 0.1, Width: 0.3, Height: 0.1}, true},
		{"fills page", Geometry{Page: 1, X: 0, Y: 0, Width: 1, Height: 1}, true},
		{"overflows right", Geometry{Page: 1, X: 0.9, Y: 0.1, Width: 0.2, Height: 0.1}, false},
		{"overflows bottom", Geometry{Page: 1, X: 0.1, Y: 0.95, Width: 0.1, Height: 0.1}, false},
		{"negative origin", Geometry{Page: 1, X: -0.1, Y: 0.1, Width: 0.1, Height: 0.1}, false},
		{"zero width", Geometry{Page: 1, X: 0.1, Y: 0.1, Width: 0, Height: 0.1}, false},
		{"page zero", Geometry{Page: 0, X: 0.1, Y: 0.1, Width: 0.1, Height: 0.1}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.g.InBounds(); got != tc.want {
				t.Fatalf("InBounds = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestValidateExtensions(t *testing.T) {
	if err := ValidateExtensions(map[string]string{"department": "legal", "locale": "en-US"}); err != nil {
		t.Fatalf("known keys rejected: %v", err)
	}
	if err := ValidateExtensions(nil); err != nil {
		t.Fatalf("nil extensions rejected: %v", err)
	}
	if err := ValidateExtensions(map[string]string{"favorite_color": "blue"}); err == nil {
		t.Fatal("unknown key must be rejected")
	}
}

func TestMarkViewedStampsOnce(t *testing.T) {
	doc := NewDocument("t1", "Lease", DocumentTypeContract, NewUserID(), false, nil)
	doc = doc.MarkSent(time.Now())

	first := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	later := first.Add(time.Hour)
	doc = doc.MarkViewed(first)
	doc = doc.MarkViewed(later)
	if doc.ViewedAt == nil || !doc.ViewedAt.Equal(first) {
		t.Fatalf("first view stamp must win, got %v", doc.ViewedAt)
	}
}

func TestSignerMarkViewedKeepsFirstStamp(t *testing.T) {
	s := NewSigner(NewDocumentID(), "a@example.com", "A", "", 1)
	first := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	s = s.MarkViewed(first)
	s = s.MarkViewed(first.Add(time.Minute))
	if s.ViewedAt == nil || !s.ViewedAt.Equal(first) {
		t.Fatalf("first view stamp must win, got %v", s.ViewedAt)
	}
	if s.Status != SignerStatusViewed {
		t.Fatalf("status = %s, want VIEWED", s.Status)
	}
}

func TestIsExpiredAt(t *testing.T) {
	deadline := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	doc := NewDocument("t1", "Offer", DocumentTypeOther, NewUserID(), false, &deadline)
	if doc.IsExpiredAt(deadline.Add(-time.Second)) {
		t.Error("not yet expired before deadline")
	}
	if !doc.IsExpiredAt(deadline.Add(time.Second)) {
		t.Error("expired after deadline")
	}
	open := NewDocument("t1", "Open", DocumentTypeOther, NewUserID(), false, nil)
	if open.IsExpiredAt(time.Now()) {
		t.Error("document without deadline never expires")
	}
}
