package reconcile

import (
	"time"

	"github.com/SaltyPakoda/computer-eyes/internal/model"
)

// highlightLock pins the displayed state to the user's most recent
// request until the rig provably arrives there. Rigs implement
// transitions as a "previous-state exit loop" followed by a
// "next-state entry loop", briefly re-reporting the old state after a
// new one was requested; trusting every event verbatim makes the
// selection flicker back and forth.
type highlightLock struct {
	target       model.FaceState
	mode         model.LockMode
	expiresAt    time.Time
	firstReached time.Time // zero until the target bucket is first observed
}

// observe applies one classified rig report to the lock. It returns
// the state to display and whether the lock survives.
func (l *highlightLock) observe(seen model.FaceState, now time.Time, stability time.Duration) (model.FaceState, bool) {
	if !now.Before(l.expiresAt) {
		// Safety valve: a missed confirmation event must not pin the
		// selection forever.
		return seen, false
	}
	if seen == l.target {
		if l.firstReached.IsZero() {
			l.firstReached = now
		}
		switch l.mode {
		case model.LockReach:
			return seen, false
		case model.LockStable:
			if now.Sub(l.firstReached) >= stability {
				return seen, false
			}
		}
		return l.target, true
	}
	switch l.mode {
	case model.LockStable:
		// Bounced out of the target; dwell time restarts.
		l.firstReached = time.Time{}
	case model.LockLeave:
		if !l.firstReached.IsZero() {
			// The transient completed and the rig moved on.
			return seen, false
		}
	}
	return l.target, true
}
