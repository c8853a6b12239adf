package fn

import (
	"context"
	"errors"
	"strconv"
	"sync/atomic"
	"testing"
	"time"
)

func TestOkAndErr(t *testing.T) {
	r := Ok(42)
	if !r.IsOk() || r.IsErr() {
		t.Fatal("Ok should be ok")
	}
	v, err := r.Unwrap()
	if v != 42 || err != nil {
		t.Fatal("wrong unwrap")
	}

	e := Err[int](errors.New("fail"))
	if e.IsOk() || !e.IsErr() {
		t.Fatal("Err should be err")
	}
}

func TestErrf(t *testing.T) {
	_, err := Errf[string]("code %d", 404).Unwrap()
	if err == nil || err.Error() != "code 404" {
		t.Fatal("Errf wrong message")
	}
}

func TestUnwrapOr(t *testing.T) {
	if Ok(1).UnwrapOr(9) != 1 {
		t.Fatal("should return value")
	}
	if Err[int](errors.New("x")).UnwrapOr(9) != 9 {
		t.Fatal("should return fallback")
	}
}

func TestFromPair(t *testing.T) {
	if v, _ := FromPair(strconv.Atoi("42")).Unwrap(); v != 42 {
		t.Fatal("FromPair failed")
	}
	if FromPair(strconv.Atoi("nope")).IsOk() {
		t.Fatal("FromPair should fail")
	}
}

func TestThen(t *testing.T) {
	parse := Func(func(_ context.Context, s string) (int, error) { return strconv.Atoi(s) })
	double := Stage[int, int](func(_ context.Context, v int) Result[int] { return Ok(v * 2) })
	p := Then(parse, double)

	if v, err := p(context.Background(), "21").Unwrap(); err != nil || v != 42 {
		t.Fatalf("expected 42, got %d %v", v, err)
	}
}

func TestThenShortCircuits(t *testing.T) {
	called := false
	fail := Stage[int, int](func(_ context.Context, _ int) Result[int] { return Err[int](errors.New("fail")) })
	track := Stage[int, int](func(_ context.Context, v int) Result[int] {
		called = true
		return Ok(v)
	})
	r := Then(fail, track)(context.Background(), 1)
	if r.IsOk() {
		t.Fatal("Then should short-circuit on error")
	}
	if called {
		t.Fatal("second stage should not be called after error")
	}
}

func TestTapStage(t *testing.T) {
	var seen int
	tap := TapStage(func(_ context.Context, v int) { seen = v })
	if v, _ := tap(context.Background(), 5).Unwrap(); v != 5 || seen != 5 {
		t.Fatal("TapStage should pass through and observe")
	}
}

func TestTracedStage(t *testing.T) {
	boom := errors.New("boom")
	ok := TracedStage("ok", Stage[int, int](func(_ context.Context, v int) Result[int] { return Ok(v) }))
	bad := TracedStage("bad", Stage[int, int](func(_ context.Context, _ int) Result[int] { return Err[int](boom) }))

	if ok(context.Background(), 1).IsErr() {
		t.Fatal("traced ok stage failed")
	}
	if _, err := bad(context.Background(), 1).Unwrap(); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestFanOutOrderAndConcurrency(t *testing.T) {
	var running atomic.Int32
	var peak atomic.Int32
	slow := func(v int) func() int {
		return func() int {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			running.Add(-1)
			return v
		}
	}
	out := FanOut(slow(1), slow(2))
	if len(out) != 2 || out[0] != 1 || out[1] != 2 {
		t.Fatalf("unexpected order %v", out)
	}
	if peak.Load() != 2 {
		t.Fatalf("expected both functions to run concurrently, peak %d", peak.Load())
	}
}

func TestFanOutEmpty(t *testing.T) {
	if out := FanOut[int](); len(out) != 0 {
		t.Fatal("FanOut with no functions should return empty")
	}
}
