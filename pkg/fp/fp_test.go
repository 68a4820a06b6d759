package fp

import (
	"errors"
	"strings"
	"testing"
)

func TestResultBasics(t *testing.T) {
	ok := Success(42)
	if !IsSuccess(ok) || GetValue(ok) != 42 {
		t.Fatalf("success lost its value: %v", ok)
	}
	if GetError(ok) != nil {
		t.Fatal("success has no error")
	}

	boom := errors.New("boom")
	bad := Failure[int](boom)
	if !IsFailure(bad) || !errors.Is(GetError(bad), boom) {
		t.Fatalf("failure lost its error: %v", bad)
	}
	if GetValue(bad) != 0 {
		t.Fatal("failed result must yield the zero value")
	}
	if GetOrElse(7)(bad) != 7 {
		t.Fatal("GetOrElse must fall back on failure")
	}
}

func TestMapAndFlatMap(t *testing.T) {
	double := Map(func(n int) int { return n * 2 })
	if GetValue(double(Success(21))) != 42 {
		t.Fatal("map on success")
	}
	if !IsFailure(double(Failure[int](errors.New("x")))) {
		t.Fatal("map must pass failures through")
	}

	half := FlatMap(func(n int) Result[int] {
		if n%2 != 0 {
			return Failure[int](errors.New("odd"))
		}
		return Success(n / 2)
	})
	if GetValue(half(Success(10))) != 5 {
		t.Fatal("flatmap on success")
	}
	if !IsFailure(half(Success(3))) {
		t.Fatal("flatmap must surface the inner failure")
	}
}

func TestSequence(t *testing.T) {
	all := Sequence([]Result[int]{Success(1), Success(2), Success(3)})
	if !IsSuccess(all) || len(GetValue(all)) != 3 {
		t.Fatalf("sequence of successes: %v", all)
	}
	mixed := Sequence([]Result[int]{Success(1), Failure[int](errors.New("x"))})
	if !IsFailure(mixed) {
		t.Fatal("one failure must fail the sequence")
	}
}

func TestTryCatch(t *testing.T) {
	ok := TryCatch(func() int { return 5 })
	if GetValue(ok) != 5 {
		t.Fatal("non-panicking function succeeds")
	}
	caught := TryCatch(func() int { panic("kaboom") })
	if !IsFailure(caught) || !strings.Contains(GetError(caught).Error(), "kaboom") {
		t.Fatalf("panic must become a failure: %v", GetError(caught))
	}
}

func TestOptionBasics(t *testing.T) {
	some := Some(3)
	if !IsSome(some) || GetOrElseOpt(0)(some) != 3 {
		t.Fatal("some lost its value")
	}
	none := None[int]()
	if !IsNone(none) || GetOrElseOpt(9)(none) != 9 {
		t.Fatal("none must fall back")
	}

	var p *int
	if !IsNone(FromPointer(p)) {
		t.Fatal("nil pointer is none")
	}
	v := 8
	opt := FromPointer(&v)
	if !IsSome(opt) {
		t.Fatal("non-nil pointer is some")
	}
	if got := ToPointer(opt); got == nil || *got != 8 {
		t.Fatalf("round trip through pointer: %v", got)
	}
}

func TestOptionResultBridge(t *testing.T) {
	missing := errors.New("missing")
	r := FromOption[int](missing)(None[int]())
	if !errors.Is(GetError(r), missing) {
		t.Fatalf("none must map onto the given error, got %v", GetError(r))
	}
	if GetValue(FromOption[int](missing)(Some(4))) != 4 {
		t.Fatal("some must map onto a success")
	}
	if !IsNone(ToOption(Failure[int](missing))) {
		t.Fatal("failure must map onto none")
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	r := Validate("", Required("name"), MinLength("name", 3))
	var ve ValidationErrors
	if !errors.As(GetError(r), &ve) || len(ve) != 2 {
		t.Fatalf("expected both findings, got %v", GetError(r))
	}

	ok := Validate("alice", Required("name"), MinLength("name", 3), MaxLength("name", 10))
	if !IsSuccess(ok) {
		t.Fatalf("valid value rejected: %v", GetError(ok))
	}
}

func TestValidators(t *testing.T) {
	if err := Email("email")("a@b.co"); err != nil {
		t.Errorf("valid email rejected: %v", err)
	}
	if err := Email("email")("nope"); err == nil {
		t.Error("invalid email accepted")
	}
	if err := Positive[int]("n")(0); err == nil {
		t.Error("zero is not positive")
	}
	if err := NonNegative[float64]("n")(-0.1); err == nil {
		t.Error("negative accepted")
	}
	if err := Range[int]("n", 1, 5)(6); err == nil {
		t.Error("out-of-range accepted")
	}
	if err := OneOf("color", "red", "green")("blue"); err == nil {
		t.Error("unlisted value accepted")
	}
}

func TestPipeline(t *testing.T) {
	result := NewPipeline(4).
		Map(func(n int) int { return n * 3 }).
		Filter(func(n int) bool { return n > 10 }, "too small").
		Tap(func(int) {}).
		Result()
	if GetValue(result) != 12 {
		t.Fatalf("pipeline value = %d", GetValue(result))
	}

	failed := NewPipeline(1).
		Filter(func(n int) bool { return n > 10 }, "too small").
		Map(func(n int) int { return n * 100 }).
		Result()
	if !IsFailure(failed) {
		t.Fatal("filter failure must short-circuit the pipeline")
	}
	if NewPipeline(0).Filter(func(int) bool { return false }, "no").UnwrapOr(-1) != -1 {
		t.Fatal("UnwrapOr must fall back on failure")
	}
}

func TestPipe(t *testing.T) {
	trim := func(s string) Result[string] { return Success(strings.TrimSpace(s)) }
	nonEmpty := func(s string) Result[string] {
		if s == "" {
			return Failure[string](errors.New("empty"))
		}
		return Success(s)
	}
	if GetValue(Pipe("  hi  ", trim, nonEmpty)) != "hi" {
		t.Fatal("pipe on success")
	}
	if !IsFailure(Pipe("   ", trim, nonEmpty)) {
		t.Fatal("pipe must stop on the first failure")
	}
}
