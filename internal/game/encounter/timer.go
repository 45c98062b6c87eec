package encounter

import (
	"sync"
	"time"
)

// RoundTimer advances an encounter on a fixed cadence, resolving one round
// per interval until the encounter ends or the timer is stopped. It is
// safe for concurrent use.
type RoundTimer struct {
	mu      sync.Mutex
	stop    chan struct{}
	done    chan struct{}
	stopped bool
}

// StartRoundTimer starts driving loop, calling onRound (if non-nil) with
// each round's result from the timer goroutine.
//
// Precondition: interval > 0; loop must not be nil.
// Postcondition: rounds resolve every interval until the encounter ends or
// Stop is called.
func StartRoundTimer(loop *Loop, interval time.Duration, onRound func(RoundResult)) *RoundTimer {
	rt := &RoundTimer{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go func() {
		defer close(rt.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-rt.stop:
				return
			case <-ticker.C:
				res := loop.ProcessRound()
				if onRound != nil {
					onRound(res)
				}
				if res.GameEnded {
					return
				}
			}
		}
	}()
	return rt
}

// Stop halts the cadence. Safe to call multiple times; rounds already in
// flight still complete.
func (rt *RoundTimer) Stop() {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.stopped {
		return
	}
	rt.stopped = true
	close(rt.stop)
}

// Done is closed once the timer goroutine has exited, either because the
// encounter ended or Stop was called.
func (rt *RoundTimer) Done() <-chan struct{} { return rt.done }
