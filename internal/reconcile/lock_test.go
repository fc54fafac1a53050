package reconcile

import (
	"testing"
	"time"

	"github.com/SaltyPakoda/computer-eyes/internal/model"
)

func TestLockReachClearsOnFirstObservation(t *testing.T) {
	now := time.Now()
	l := &highlightLock{target: model.StatePeek, mode: model.LockReach, expiresAt: now.Add(8 * time.Second)}

	display, keep := l.observe(model.StateBase, now, 650*time.Millisecond)
	if display != model.StatePeek || !keep {
		t.Fatalf("lock should hold before reach: display=%q keep=%v", display, keep)
	}
	display, keep = l.observe(model.StatePeek, now.Add(time.Second), 650*time.Millisecond)
	if display != model.StatePeek || keep {
		t.Fatalf("reach lock should clear on first target observation: display=%q keep=%v", display, keep)
	}
}

func TestLockStableRequiresContinuousDwell(t *testing.T) {
	now := time.Now()
	window := 650 * time.Millisecond
	l := &highlightLock{target: model.StateThink, mode: model.LockStable, expiresAt: now.Add(8 * time.Second)}

	if _, keep := l.observe(model.StateThink, now, window); !keep {
		t.Fatalf("dwell not satisfied yet; lock must hold")
	}
	// A bounce out of the target restarts the dwell clock.
	if display, keep := l.observe(model.StateBase, now.Add(300*time.Millisecond), window); !keep || display != model.StateThink {
		t.Fatalf("bounce must not clear a stable lock: display=%q keep=%v", display, keep)
	}
	if _, keep := l.observe(model.StateThink, now.Add(400*time.Millisecond), window); !keep {
		t.Fatalf("dwell restarted; lock must hold")
	}
	// 650ms after the restart, not after the first reach.
	if _, keep := l.observe(model.StateThink, now.Add(700*time.Millisecond), window); !keep {
		t.Fatalf("dwell measured from the restart; lock must still hold")
	}
	if _, keep := l.observe(model.StateThink, now.Add(1100*time.Millisecond), window); keep {
		t.Fatalf("lock should have cleared after continuous dwell")
	}
}

func TestLockLeaveClearsOnlyAfterReach(t *testing.T) {
	now := time.Now()
	l := &highlightLock{target: model.StateWink, mode: model.LockLeave, expiresAt: now.Add(8 * time.Second)}

	// Departure before the target was ever reached keeps the lock.
	if display, keep := l.observe(model.StateBase, now, 0); !keep || display != model.StateWink {
		t.Fatalf("leave lock cleared before reach: display=%q keep=%v", display, keep)
	}
	if _, keep := l.observe(model.StateWink, now.Add(100*time.Millisecond), 0); !keep {
		t.Fatalf("leave lock must survive while in target")
	}
	display, keep := l.observe(model.StateBase, now.Add(200*time.Millisecond), 0)
	if keep || display != model.StateBase {
		t.Fatalf("leave lock must clear on first departure after reach: display=%q keep=%v", display, keep)
	}
}

func TestLockExpiryClearsUnconditionally(t *testing.T) {
	now := time.Now()
	l := &highlightLock{target: model.StateThink, mode: model.LockStable, expiresAt: now.Add(time.Second)}
	display, keep := l.observe(model.StateBase, now.Add(time.Second), 650*time.Millisecond)
	if keep || display != model.StateBase {
		t.Fatalf("expired lock must clear: display=%q keep=%v", display, keep)
	}
}
