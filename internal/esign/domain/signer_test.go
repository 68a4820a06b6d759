package domain

import (
	"testing"
	"time"
)

func sequentialAggregate(orders ...int) Aggregate {
	doc := NewDocument("t1", "MSA", DocumentTypeContract, NewUserID(), true, nil)
	agg := Aggregate{Document: doc}
	for _, o := range orders {
		agg.Signers = append(agg.Signers, NewSigner(doc.ID, "s@example.com", "S", "", o))
	}
	return agg
}

func TestCurrentSignerFollowsOrder(t *testing.T) {
	agg := sequentialAggregate(2, 1, 3)

	current := agg.CurrentSigner()
	if current == nil || current.Order != 1 {
		t.Fatalf("expected order-1 signer first, got %#v", current)
	}

	agg.ReplaceSigner(current.Complete(time.Now()))
	current = agg.CurrentSigner()
	if current == nil || current.Order != 2 {
		t.Fatalf("expected order-2 signer after completion, got %#v", current)
	}

	agg.ReplaceSigner(current.Decline(time.Now(), "no thanks"))
	current = agg.CurrentSigner()
	if current == nil || current.Order != 3 {
		t.Fatalf("a decline must pass the turn onward, got %#v", current)
	}
}

func TestCurrentSignerNilForParallel(t *testing.T) {
	doc := NewDocument("t1", "NDA", DocumentTypeNDA, NewUserID(), false, nil)
	agg := Aggregate{Document: doc, Signers: []Signer{NewSigner(doc.ID, "a@example.com", "A", "", 1)}}
	if agg.CurrentSigner() != nil {
		t.Fatal("parallel documents have no turn")
	}
}

func TestCanAct(t *testing.T) {
	agg := sequentialAggregate(1, 2)
	first, second := agg.Signers[0].ID, agg.Signers[1].ID

	if !agg.CanAct(first) {
		t.Error("current signer must be able to act")
	}
	if agg.CanAct(second) {
		t.Error("out-of-turn signer must not act on a sequential document")
	}

	agg.ReplaceSigner(agg.Signers[0].Complete(time.Now()))
	if agg.CanAct(first) {
		t.Error("completed signer must not act again")
	}
	if !agg.CanAct(second) {
		t.Error("turn must have passed to the second signer")
	}

	agg.Document.SequentialSigning = false
	if !agg.CanAct(second) {
		t.Error("any unfinished signer may act on a parallel document")
	}
}

func TestProgressCounts(t *testing.T) {
	agg := sequentialAggregate(1, 2, 3)
	agg.ReplaceSigner(agg.Signers[0].Complete(time.Now()))
	agg.ReplaceSigner(agg.Signers[2].Decline(time.Now(), "nope"))

	completed, total := agg.Progress()
	if completed != 1 || total != 3 {
		t.Fatalf("progress = %d/%d, want 1/3", completed, total)
	}
	if agg.AllSignersCompleted() {
		t.Error("not all signers completed")
	}
	if agg.AllSignersFinished() {
		t.Error("one signer is still open")
	}
	if !agg.AnySignerDeclined() {
		t.Error("a decline was recorded")
	}
}

func TestAllSignersCompletedEmptyRoster(t *testing.T) {
	agg := Aggregate{Document: NewDocument("t1", "Empty", DocumentTypeOther, NewUserID(), false, nil)}
	if agg.AllSignersCompleted() {
		t.Fatal("an empty roster is never complete")
	}
	if agg.AllSignersFinished() {
		t.Fatal("an empty roster is never finished")
	}
}

func TestValidateSigningOrder(t *testing.T) {
	cases := []struct {
		name   string
		orders []int
		wantOK bool
	}{
		{"contiguous from one", []int{1, 2, 3}, true},
		{"contiguous unsorted", []int{3, 1, 2}, true},
		{"single signer", []int{1}, true},
		{"gap", []int{1, 3}, false},
		{"duplicate", []int{1, 1}, false},
		{"starts at zero", []int{0, 1}, false},
		{"starts at two", []int{2, 3}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			agg := sequentialAggregate(tc.orders...)
			err := agg.ValidateSigningOrder()
			if tc.wantOK && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tc.wantOK && err == nil {
				t.Fatal("expected an ordering error")
			}
		})
	}
}

func TestParallelOrderUnconstrained(t *testing.T) {
	doc := NewDocument("t1", "NDA", DocumentTypeNDA, NewUserID(), false, nil)
	agg := Aggregate{Document: doc, Signers: []Signer{
		NewSigner(doc.ID, "a@example.com", "A", "", 7),
		NewSigner(doc.ID, "b@example.com", "B", "", 7),
	}}
	if err := agg.ValidateSigningOrder(); err != nil {
		t.Fatalf("parallel documents have no ordering requirement: %v", err)
	}
}
