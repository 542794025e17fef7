package engine

import (
	"math"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// TimerManager arms at most one live countdown per game. Starting a timer
// for a pin that already has one cancels the old timer first, and Cancel is
// safe to call when nothing is armed. Each countdown emits onTick at a fixed
// cadence with the whole seconds remaining, then fires onExpire exactly once
// when it reaches zero.
type TimerManager struct {
	clock clockwork.Clock
	tick  time.Duration

	mu     sync.Mutex
	timers map[string]*roundTimer
}

type roundTimer struct {
	stopOnce sync.Once
	stopCh   chan struct{}
}

func (rt *roundTimer) stop() {
	rt.stopOnce.Do(func() {
		close(rt.stopCh)
	})
}

func NewTimerManager(clock clockwork.Clock, tickInterval time.Duration) *TimerManager {
	return &TimerManager{
		clock:  clock,
		tick:   tickInterval,
		timers: make(map[string]*roundTimer),
	}
}

// Start arms a countdown for the pin, replacing any existing one.
func (tm *TimerManager) Start(pin string, duration time.Duration, onTick func(secondsRemaining int), onExpire func()) {
	rt := &roundTimer{stopCh: make(chan struct{})}

	tm.mu.Lock()
	if existing, ok := tm.timers[pin]; ok {
		existing.stop()
		log.Debug().Str("pin", pin).Msg("replaced existing timer")
	}
	tm.timers[pin] = rt
	tm.mu.Unlock()

	go tm.run(pin, rt, duration, onTick, onExpire)

	log.Debug().Str("pin", pin).Dur("duration", duration).Msg("timer armed")
}

// Cancel disarms the pin's countdown if one is live. Idempotent.
func (tm *TimerManager) Cancel(pin string) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if rt, ok := tm.timers[pin]; ok {
		rt.stop()
		delete(tm.timers, pin)
		log.Debug().Str("pin", pin).Msg("timer cancelled")
	}
}

// ActiveTimers returns the number of live countdowns.
func (tm *TimerManager) ActiveTimers() int {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	return len(tm.timers)
}

func (tm *TimerManager) run(pin string, rt *roundTimer, duration time.Duration, onTick func(int), onExpire func()) {
	deadline := tm.clock.Now().Add(duration)
	ticker := tm.clock.NewTicker(tm.tick)
	defer ticker.Stop()

	for {
		select {
		case <-rt.stopCh:
			return
		case <-ticker.Chan():
			select {
			case <-rt.stopCh:
				return
			default:
			}

			remaining := deadline.Sub(tm.clock.Now())
			if remaining > 0 {
				onTick(int(math.Ceil(remaining.Seconds())))
				continue
			}

			// Fire only if we are still the registered timer for this pin;
			// a Cancel or replacing Start that won the race suppresses us.
			if !tm.removeIfCurrent(pin, rt) {
				return
			}
			onExpire()
			return
		}
	}
}

func (tm *TimerManager) removeIfCurrent(pin string, rt *roundTimer) bool {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if tm.timers[pin] != rt {
		return false
	}
	delete(tm.timers, pin)
	return true
}
