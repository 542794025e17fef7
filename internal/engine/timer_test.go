package engine

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func waitFor[T any](t *testing.T, ch <-chan T, what string) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
		panic("unreachable")
	}
}

// advanceUntil steps the fake clock until the signal channel fires.
func advanceUntil(t *testing.T, fc *clockwork.FakeClock, step time.Duration, signal <-chan struct{}, what string) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		fc.Advance(step)
		select {
		case <-signal:
			return
		case <-deadline:
			t.Fatalf("timed out waiting for %s", what)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestTimerTicksWholeSecondsThenExpiresOnce(t *testing.T) {
	fc := clockwork.NewFakeClock()
	tm := NewTimerManager(fc, time.Second)

	ticks := make(chan int, 16)
	expired := make(chan struct{}, 16)
	tm.Start("g1", 3*time.Second, func(s int) { ticks <- s }, func() { expired <- struct{}{} })
	fc.BlockUntil(1)

	fc.Advance(time.Second)
	if got := waitFor(t, ticks, "first tick"); got != 2 {
		t.Errorf("first tick = %d, want 2", got)
	}
	fc.Advance(time.Second)
	if got := waitFor(t, ticks, "second tick"); got != 1 {
		t.Errorf("second tick = %d, want 1", got)
	}
	fc.Advance(time.Second)
	waitFor(t, expired, "expiry")

	if n := tm.ActiveTimers(); n != 0 {
		t.Errorf("ActiveTimers after expiry = %d, want 0", n)
	}

	// The countdown goroutine has returned; further time does nothing.
	fc.Advance(10 * time.Second)
	select {
	case <-expired:
		t.Error("timer expired twice")
	case s := <-ticks:
		t.Errorf("unexpected tick %d after expiry", s)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestTimerCancelSuppressesExpiry(t *testing.T) {
	fc := clockwork.NewFakeClock()
	tm := NewTimerManager(fc, time.Second)

	expired := make(chan struct{}, 1)
	tm.Start("g1", 2*time.Second, func(int) {}, func() { expired <- struct{}{} })
	fc.BlockUntil(1)

	tm.Cancel("g1")
	if n := tm.ActiveTimers(); n != 0 {
		t.Fatalf("ActiveTimers after cancel = %d, want 0", n)
	}

	fc.Advance(10 * time.Second)
	select {
	case <-expired:
		t.Error("cancelled timer expired")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestTimerCancelIsIdempotent(t *testing.T) {
	fc := clockwork.NewFakeClock()
	tm := NewTimerManager(fc, time.Second)

	tm.Cancel("never-started")

	tm.Start("g1", time.Second, func(int) {}, func() {})
	fc.BlockUntil(1)
	tm.Cancel("g1")
	tm.Cancel("g1")

	if n := tm.ActiveTimers(); n != 0 {
		t.Errorf("ActiveTimers = %d, want 0", n)
	}
}

func TestTimerStartReplacesExisting(t *testing.T) {
	fc := clockwork.NewFakeClock()
	tm := NewTimerManager(fc, time.Second)

	firstExpired := make(chan struct{}, 1)
	secondExpired := make(chan struct{}, 1)

	tm.Start("g1", time.Second, func(int) {}, func() { firstExpired <- struct{}{} })
	fc.BlockUntil(1)
	tm.Start("g1", 2*time.Second, func(int) {}, func() { secondExpired <- struct{}{} })

	if n := tm.ActiveTimers(); n != 1 {
		t.Fatalf("ActiveTimers after replace = %d, want 1", n)
	}

	advanceUntil(t, fc, time.Second, secondExpired, "replacement timer expiry")

	select {
	case <-firstExpired:
		t.Error("replaced timer expired")
	default:
	}
}

func TestTimersForDifferentGamesAreIndependent(t *testing.T) {
	fc := clockwork.NewFakeClock()
	tm := NewTimerManager(fc, time.Second)

	expiredA := make(chan struct{}, 1)
	expiredB := make(chan struct{}, 1)

	tm.Start("game-a", time.Second, func(int) {}, func() { expiredA <- struct{}{} })
	fc.BlockUntil(1)
	tm.Start("game-b", 5*time.Second, func(int) {}, func() { expiredB <- struct{}{} })

	if n := tm.ActiveTimers(); n != 2 {
		t.Fatalf("ActiveTimers = %d, want 2", n)
	}

	advanceUntil(t, fc, time.Second, expiredA, "game-a expiry")

	select {
	case <-expiredB:
		t.Error("game-b expired with game-a")
	default:
	}

	advanceUntil(t, fc, time.Second, expiredB, "game-b expiry")
}
