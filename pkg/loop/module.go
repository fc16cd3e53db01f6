// Package loop is the single frame-update goroutine that all gameplay state
// lives on. Work finished elsewhere is posted back onto it and runs on a
// later tick, never inside the call that started it.
package loop

import (
	"context"
	"sort"
	"time"

	"github.com/sasha-s/go-deadlock"
)

// Guards against a callback that keeps re-posting itself forever.
const maxFlushTicks = 10000

type timer struct {
	at time.Duration
	fn func()
}

type Loop struct {
	mutex   deadlock.Mutex
	pending []func()
	wake    chan struct{}

	// Everything below is only touched on the loop goroutine.
	now    time.Duration
	timers []timer
}

func New() *Loop {
	return &Loop{
		wake: make(chan struct{}, 1),
	}
}

// Post queues fn for the next tick. It is safe to call from any goroutine.
func (l *Loop) Post(fn func()) {
	l.mutex.Lock()
	l.pending = append(l.pending, fn)
	l.mutex.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// After runs fn once the logical clock has advanced by d. Timers with the
// same deadline fire in the order they were scheduled.
func (l *Loop) After(d time.Duration, fn func()) {
	at := l.now + d
	i := sort.Search(len(l.timers), func(i int) bool {
		return l.timers[i].at > at
	})
	l.timers = append(l.timers, timer{})
	copy(l.timers[i+1:], l.timers[i:])
	l.timers[i] = timer{at: at, fn: fn}
}

// Now is the logical time, the sum of every dt passed to Tick.
func (l *Loop) Now() time.Duration {
	return l.now
}

func (l *Loop) Pending() int {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return len(l.pending)
}

// Timers is the number of After callbacks that have not fired yet.
func (l *Loop) Timers() int {
	return len(l.timers)
}

// Tick runs everything posted before the call, advances the clock by dt and
// fires due timers. Work posted while the tick runs waits for the next one.
// It returns the number of callbacks that ran.
func (l *Loop) Tick(dt time.Duration) int {
	l.mutex.Lock()
	batch := l.pending
	l.pending = nil
	l.mutex.Unlock()

	for _, fn := range batch {
		fn()
	}

	l.now += dt
	ran := len(batch)
	for len(l.timers) > 0 && l.timers[0].at <= l.now {
		next := l.timers[0]
		l.timers = l.timers[1:]
		next.fn()
		ran++
	}

	return ran
}

// Flush ticks without advancing the clock until nothing is left to run.
func (l *Loop) Flush() {
	for i := 0; i < maxFlushTicks; i++ {
		if l.Tick(0) == 0 && l.Pending() == 0 {
			return
		}
	}
}

// Run ticks every frame until ctx is done. Posted work also wakes the loop
// early so completions are not held back a whole frame.
func (l *Loop) Run(ctx context.Context, frame time.Duration) error {
	ticker := time.NewTicker(frame)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			l.Tick(now.Sub(last))
			last = now
		case <-l.wake:
			l.Tick(0)
		}
	}
}
