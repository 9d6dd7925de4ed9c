package application

import (
	"sync/atomic"
	"time"

	"github.com/felixgeelhaar/careslot/internal/shared/clock"
)

const (
	handleArmed int32 = iota
	handleFired
	handleCanceled
)

// Handle identifies one armed expiry callback.
type Handle struct {
	state atomic.Int32
	timer clock.Timer
}

// Fired reports whether the callback ran.
func (h *Handle) Fired() bool {
	return h != nil && h.state.Load() == handleFired
}

// ExpirationScheduler arranges one-shot callbacks at an expiry instant.
type ExpirationScheduler struct {
	clock clock.Clock
}

// NewExpirationScheduler creates a scheduler driven by clk.
func NewExpirationScheduler(clk clock.Clock) *ExpirationScheduler {
	if clk == nil {
		clk = clock.System{}
	}
	return &ExpirationScheduler{clock: clk}
}

// Arm schedules fn for expiresAt. An instant at or before now still fires,
// asynchronously, as soon as the clock lets it. fn runs at most once.
func (s *ExpirationScheduler) Arm(expiresAt time.Time, fn func()) *Handle {
	h := &Handle{}
	delay := expiresAt.Sub(s.clock.Now())
	if delay < 0 {
		delay = 0
	}
	h.timer = s.clock.AfterFunc(delay, func() {
		if h.state.CompareAndSwap(handleArmed, handleFired) {
			fn()
		}
	})
	return h
}

// Cancel stops h. Canceling a nil, fired or canceled handle is a no-op.
func (s *ExpirationScheduler) Cancel(h *Handle) {
	if h == nil {
		return
	}
	if h.state.CompareAndSwap(handleArmed, handleCanceled) {
		h.timer.Stop()
	}
}
