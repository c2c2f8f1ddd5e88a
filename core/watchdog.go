package core

import (
	"sync"
	"sync/atomic"
	"time"
)

// DefaultWatchdogTimeout is the fixed job watchdog duration.
const DefaultWatchdogTimeout = 2 * time.Second

// Watchdog recovers the hardware when a dispatched job never signals
// completion.
//
// Exactly one of the interrupt path and the expiry path completes a
// given job. Both race through a compare-and-swap claim on a flag
// created fresh per armed job; whichever claims first proceeds and the
// other is a no-op.
type Watchdog struct {
	timeout time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	claimed *atomic.Bool
}

// NewWatchdog creates a watchdog with the given timeout; zero selects
// DefaultWatchdogTimeout.
func NewWatchdog(timeout time.Duration) *Watchdog {
	if timeout == 0 {
		timeout = DefaultWatchdogTimeout
	}
	return &Watchdog{timeout: timeout}
}

// Arm schedules expire after the watchdog timeout. The expiry callback
// runs only if it wins the completion claim.
func (w *Watchdog) Arm(expire func()) {
	w.mu.Lock()
	defer w.mu.Unlock()

	claimed := new(atomic.Bool)
	w.claimed = claimed

	w.timer = time.AfterFunc(w.timeout, func() {
		if !claimed.CompareAndSwap(false, true) {
			return
		}
		expire()
	})
}

// Cancel stops the pending expiry and reports whether the caller won
// the completion claim. A false return means the watchdog (or an
// earlier cancel) already owns the job's completion.
func (w *Watchdog) Cancel() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.claimed == nil {
		return false
	}

	won := w.claimed.CompareAndSwap(false, true)
	w.timer.Stop()

	return won
}
