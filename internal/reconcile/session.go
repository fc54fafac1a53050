// Package reconcile arbitrates between what the user asked for and
// what the rig is actually doing, so the displayed selection never
// flickers or contradicts user intent.
package reconcile

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/SaltyPakoda/computer-eyes/internal/classify"
	"github.com/SaltyPakoda/computer-eyes/internal/config"
	"github.com/SaltyPakoda/computer-eyes/internal/model"
	"github.com/SaltyPakoda/computer-eyes/internal/rig"
)

// Session owns the panel-side state for one rig instance chain: the
// highlight lock, pending and deferred requests, the retry schedule,
// and the crash-recovery cooldown. All of it is single-owner state;
// the UI event loop is the only caller, so no locking is needed.
type Session struct {
	cfg     config.Config
	factory rig.Factory

	inst   rig.Rig
	setter rig.Setter

	loaded       bool
	lock         *highlightLock
	pending      string // last user-intended value, survives recovery
	deferred     string // replayed once the rig finishes loading
	replay       string // replayed once a transient auto-return lands on Base
	retry        *retrySchedule
	rigState     model.FaceState // last bucket the rig itself reported
	display      model.FaceState
	rawLabel     string
	lastErr      string
	notice       string
	lastRecovery time.Time
	foreignInput bool
}

// retrySchedule is the single outstanding retry. attempts counts
// setter calls already made for this target.
type retrySchedule struct {
	target   string
	attempts int
	nextAt   time.Time
}

// Snapshot is everything the UI renders. The radio highlight is driven
// exclusively by Display.
type Snapshot struct {
	Display  model.FaceState
	RawLabel string
	Loaded   bool
	ErrText  string
	Notice   string
}

func NewSession(cfg config.Config, factory rig.Factory) (*Session, error) {
	s := &Session{
		cfg:      cfg,
		factory:  factory,
		rigState: model.StateBase,
		display:  model.StateBase,
	}
	if err := s.attach(); err != nil {
		return nil, err
	}
	return s, nil
}

// attach creates a fresh instance and negotiates its input-setting
// capability once. A negotiation failure leaves the instance usable
// for display; requests surface the failure.
func (s *Session) attach() error {
	inst, err := s.factory()
	if err != nil {
		return fmt.Errorf("create rig: %w", err)
	}
	s.inst = inst
	s.loaded = false
	setter, err := rig.ResolveSetter(inst)
	if err != nil {
		s.setter = nil
		s.fail(model.ErrCodeUnsupportedAPI, err)
		return nil
	}
	s.setter = setter
	return nil
}

// Events exposes the current instance's stream. The channel changes
// after a crash recovery; callers re-fetch when it closes.
func (s *Session) Events() <-chan rig.Event {
	if s.inst == nil {
		return nil
	}
	return s.inst.Events()
}

func (s *Session) Close() {
	if s.inst != nil {
		s.inst.Destroy()
	}
}

func (s *Session) Resize(width, height int) {
	if s.inst != nil {
		s.inst.Resize(width, height)
	}
}

func (s *Session) SetBackground(color string) error {
	if s.inst == nil {
		return nil
	}
	return s.inst.SetBackground(color)
}

func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		Display:  s.display,
		RawLabel: s.rawLabel,
		Loaded:   s.loaded,
		ErrText:  s.lastErr,
		Notice:   s.notice,
	}
}

// HandleEvent routes one rig event. Events are processed in delivery
// order; the session never reorders them.
func (s *Session) HandleEvent(ev rig.Event, now time.Time) {
	switch ev.Kind {
	case rig.EventReady:
		s.loadMachine()
	case rig.EventLoaded:
		s.loaded = true
		if s.deferred != "" {
			value := s.deferred
			s.deferred = ""
			s.push(value, now)
		}
	case rig.EventStateEntered, rig.EventTransition:
		s.observeRaw(classify.StateName(ev.Payload), now)
	case rig.EventInputChanged:
		if ev.InputName != s.cfg.InputName {
			if !s.foreignInput {
				s.foreignInput = true
				s.notice = fmt.Sprintf("ignoring foreign input %q", ev.InputName)
			}
			return
		}
		// The rig echoes the requested value back; the machine has not
		// entered it yet, so the echo must not advance lock progress.
		s.rawLabel = ev.Value
		if s.lock == nil {
			s.display = classify.State(ev.Value)
		}
	case rig.EventLoadError:
		s.fail(model.ErrCodeLoadFailed, ev.Err)
	case rig.EventMachineError:
		s.fail(model.ErrCodeMachineFailed, ev.Err)
	case rig.EventFault:
		s.recoverFromFault(ev.Err, now)
	}
}

func (s *Session) loadMachine() {
	machine := s.cfg.MachineName
	if names := s.inst.Manifest(); len(names) > 0 && !slices.Contains(names, machine) {
		s.notice = fmt.Sprintf("machine %q not in manifest; using %q", machine, names[0])
		machine = names[0]
	}
	if err := s.inst.LoadMachine(machine); err != nil {
		s.fail(model.ErrCodeMachineFailed, err)
	}
}

// observeRaw runs the lock algorithm against one rig-reported state.
func (s *Session) observeRaw(raw string, now time.Time) {
	s.rawLabel = raw
	seen := classify.State(raw)
	s.rigState = seen
	if s.lock != nil {
		display, keep := s.lock.observe(seen, now, s.cfg.StabilityWindow)
		if !keep {
			s.lock = nil
		}
		s.display = display
	} else {
		s.display = seen
	}
	if seen == model.StateBase && s.replay != "" {
		value := s.replay
		s.replay = ""
		s.push(value, now)
	}
}

// Request dispatches a user-initiated selection. It always supersedes
// outstanding scheduled work (retry, replay) and replaces the prior
// lock.
func (s *Session) Request(value string, now time.Time) {
	s.retry = nil
	s.replay = ""
	s.pending = value
	target := classify.State(value)
	mode := model.LockStable
	if target.Transient() {
		mode = model.LockLeave
	}
	s.lock = &highlightLock{
		target:    target,
		mode:      mode,
		expiresAt: now.Add(s.cfg.LockExpiry),
	}
	s.display = target
	if s.rigState.Transient() && target != s.rigState {
		// The rig is mid transient auto-return; don't fight its own
		// scheduled trip back to Base, replay once it lands there.
		s.replay = value
		return
	}
	s.push(value, now)
}

func (s *Session) push(value string, now time.Time) {
	if !s.loaded {
		// Not-ready is not an error; the request replays after load.
		s.deferred = value
		return
	}
	s.attemptSet(value, now, 0)
}

func (s *Session) attemptSet(value string, now time.Time, attemptsMade int) {
	if s.setter == nil {
		s.fail(model.ErrCodeUnsupportedAPI, rig.ErrUnsupported)
		return
	}
	err := s.setter(s.cfg.InputName, value)
	switch {
	case err == nil:
		s.retry = nil
		s.lastErr = ""
		// Optimistic local echo; the confirming event stream may lag.
		s.rawLabel = value
		if s.lock != nil {
			s.display = s.lock.target
		} else {
			s.display = classify.State(value)
		}
	case rig.IsFault(err):
		s.recoverFromFault(err, now)
	case errors.Is(err, rig.ErrRejected):
		made := attemptsMade + 1
		if made >= s.cfg.RetryMaxAttempts {
			s.retry = nil
			s.fail(model.ErrCodeInputRejected, fmt.Errorf(
				"input %q rejected after %d attempts (accepted inputs: %s): %w",
				value, made, strings.Join(s.inst.Inputs(), ", "), err))
			return
		}
		s.retry = &retrySchedule{
			target:   value,
			attempts: made,
			nextAt:   now.Add(s.backoff(made)),
		}
	case errors.Is(err, rig.ErrNotReady):
		s.deferred = value
	default:
		s.fail(model.ErrCodeMachineFailed, err)
	}
}

// backoff grows geometrically per attempt already made, capped at the
// configured per-attempt maximum.
func (s *Session) backoff(attemptsMade int) time.Duration {
	d := s.cfg.RetryBase
	for i := 1; i < attemptsMade; i++ {
		d *= 2
		if d >= s.cfg.RetryMaxDelay {
			return s.cfg.RetryMaxDelay
		}
	}
	if d > s.cfg.RetryMaxDelay {
		return s.cfg.RetryMaxDelay
	}
	return d
}

// Tick fires due work (retry, lock expiry, stable dwell completion)
// and returns the next deadline, zero when nothing is scheduled.
func (s *Session) Tick(now time.Time) time.Time {
	if s.lock != nil {
		switch {
		case !now.Before(s.lock.expiresAt):
			s.lock = nil
			s.display = s.rigState
		case s.lock.mode == model.LockStable && !s.lock.firstReached.IsZero() &&
			s.rigState == s.lock.target &&
			now.Sub(s.lock.firstReached) >= s.cfg.StabilityWindow:
			// The rig settled in the target between events.
			s.lock = nil
			s.display = s.rigState
		}
	}
	if s.retry != nil && !now.Before(s.retry.nextAt) {
		r := *s.retry
		s.retry = nil
		s.attemptSet(r.target, now, r.attempts)
	}
	return s.nextDeadline()
}

func (s *Session) nextDeadline() time.Time {
	var next time.Time
	earlier := func(t time.Time) {
		if !t.IsZero() && (next.IsZero() || t.Before(next)) {
			next = t
		}
	}
	if s.lock != nil {
		earlier(s.lock.expiresAt)
		if s.lock.mode == model.LockStable && !s.lock.firstReached.IsZero() && s.rigState == s.lock.target {
			earlier(s.lock.firstReached.Add(s.cfg.StabilityWindow))
		}
	}
	if s.retry != nil {
		earlier(s.retry.nextAt)
	}
	return next
}

// recoverFromFault handles the rig's fatal memory-access failure:
// outside the cooldown the instance is torn down and recreated and the
// last user-intended state re-requested after load; inside the
// cooldown only an error is surfaced, to avoid a crash-reload-crash
// loop.
func (s *Session) recoverFromFault(err error, now time.Time) {
	s.retry = nil
	s.replay = ""
	if !s.lastRecovery.IsZero() && now.Sub(s.lastRecovery) < s.cfg.RecoveryCooldown {
		s.fail(model.ErrCodeRigFault, fmt.Errorf("recovery suppressed inside cooldown: %w", err))
		return
	}
	s.lastRecovery = now
	s.deferred = ""
	if s.inst != nil {
		s.inst.Destroy()
	}
	s.lock = nil
	s.loaded = false
	if aerr := s.attach(); aerr != nil {
		s.fail(model.ErrCodeRigFault, fmt.Errorf("reinitialize after fault: %w", aerr))
		return
	}
	if s.pending != "" {
		s.deferred = s.pending
	}
	s.notice = "rig reinitialized after fault"
}

// fail converts an error into the visible diagnostic string; nothing
// propagates past the session boundary.
func (s *Session) fail(code string, err error) {
	if err == nil {
		s.lastErr = code
		return
	}
	s.lastErr = fmt.Sprintf("%s: %v", code, err)
}
