package rig

import (
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SimOptions tunes the scripted runtime.
type SimOptions struct {
	MachineName   string
	InputName     string
	LoadDelay     time.Duration // ready -> loaded
	PhaseDelay    time.Duration // per transition loop phase
	TransientHold time.Duration // dwell before a transient state auto-returns
	EventBuffer   int
}

func (o SimOptions) withDefaults() SimOptions {
	if o.MachineName == "" {
		o.MachineName = "EyesMachine"
	}
	if o.InputName == "" {
		o.InputName = "eyeState"
	}
	if o.LoadDelay <= 0 {
		o.LoadDelay = 300 * time.Millisecond
	}
	if o.PhaseDelay <= 0 {
		o.PhaseDelay = 120 * time.Millisecond
	}
	if o.TransientHold <= 0 {
		o.TransientHold = 900 * time.Millisecond
	}
	if o.EventBuffer <= 0 {
		o.EventBuffer = 64
	}
	return o
}

var simColorPattern = regexp.MustCompile(`^#?[0-9a-fA-F]{6}$`)

// Sim is an in-process scripted runtime. It plays the same noisy
// transition traffic a real vector runtime produces: an exit loop for
// the previous state, an entry loop for the next, transient rejection
// while a transition is in flight, and auto-return to Base from
// transient states. It exists so the panel runs end to end without the
// vendor runtime, and so integration-style tests have a believable
// counterpart.
type Sim struct {
	opts SimOptions

	mu         sync.Mutex
	events     chan Event
	timers     []*time.Timer
	active     string
	curTitle   string
	loaded     bool
	busy       bool
	faultArmed bool
	destroyed  bool
	background string
}

// Compile-time check: the sim exposes the current setter shape.
var _ stringInputSetter = (*Sim)(nil)

func NewSim(opts SimOptions) *Sim {
	opts = opts.withDefaults()
	return &Sim{
		opts:   opts,
		events: make(chan Event, opts.EventBuffer),
	}
}

// Start brings the runtime up: ready fires immediately, loaded after
// the configured load delay, then the boot animation plays and
// auto-returns to Base.
func (s *Sim) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emitLocked(Event{Kind: EventReady})
}

func (s *Sim) Manifest() []string {
	return []string{s.opts.MachineName}
}

func (s *Sim) LoadMachine(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return fmt.Errorf("load machine %q: instance destroyed", name)
	}
	if name != s.opts.MachineName {
		return fmt.Errorf("load machine %q: not in manifest", name)
	}
	s.active = name
	s.afterLocked(s.opts.LoadDelay, func() {
		s.loaded = true
		s.emitLocked(Event{Kind: EventLoaded})
		s.playLocked("Boot")
	})
	return nil
}

func (s *Sim) Inputs() []string {
	return []string{s.opts.InputName}
}

func (s *Sim) ActiveMachine() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *Sim) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded && !s.destroyed
}

func (s *Sim) Resize(width, height int) {}

func (s *Sim) SetBackground(color string) error {
	if !simColorPattern.MatchString(color) {
		return fmt.Errorf("set background: invalid color %q", color)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.background = color
	return nil
}

func (s *Sim) Events() <-chan Event {
	return s.events
}

func (s *Sim) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return
	}
	s.destroyed = true
	for _, t := range s.timers {
		t.Stop()
	}
	s.timers = nil
	close(s.events)
}

// ArmFault makes the next input-setting call fail with the runtime's
// fatal memory-access signature.
func (s *Sim) ArmFault() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faultArmed = true
}

// SetStringInput is the negotiated setter shape. It returns false
// while the machine is mid-transition, matching the vendor runtime's
// transient rejection behavior.
func (s *Sim) SetStringInput(machine, input, value string) bool {
	s.mu.Lock()
	if s.faultArmed {
		s.faultArmed = false
		s.mu.Unlock()
		panic(faultSignature + " at input " + input)
	}
	defer s.mu.Unlock()
	if s.destroyed || !s.loaded {
		return false
	}
	if machine != s.active || input != s.opts.InputName {
		return false
	}
	if s.busy {
		return false
	}
	s.emitLocked(Event{Kind: EventInputChanged, InputName: input, Value: value})
	s.playLocked(value)
	return true
}

// playLocked schedules the transition traffic toward title: the exit
// loop of the previous state, the entry loop and settled state of the
// next, and, for transient states, the auto-return to Base.
func (s *Sim) playLocked(title string) {
	s.busy = true
	prev := s.curTitle
	step := s.opts.PhaseDelay
	at := time.Duration(0)

	s.emitLocked(Event{Kind: EventTransition, Payload: title + "_Loop_In"})
	if prev != "" && prev != title {
		s.enterAtLocked(at, prev+"_Loop_Out")
		at += step
	}
	s.enterAtLocked(at, title+"_Loop_In")
	at += step
	s.enterAtLocked(at, title)
	final := title

	if transientTitle(title) {
		at += s.opts.TransientHold
		s.enterAtLocked(at, title+"_Loop_Out")
		at += step
		s.enterAtLocked(at, "Base")
		final = "Base"
	}

	done := final
	s.afterLocked(at, func() {
		s.curTitle = done
		s.busy = false
	})
}

func (s *Sim) enterAtLocked(d time.Duration, raw string) {
	s.afterLocked(d, func() {
		s.emitLocked(Event{Kind: EventStateEntered, Payload: raw})
	})
}

// afterLocked schedules fn under the sim lock; fired timers re-check
// destroyed so nothing emits after Destroy.
func (s *Sim) afterLocked(d time.Duration, fn func()) {
	var t *time.Timer
	t = time.AfterFunc(d, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.destroyed {
			return
		}
		fn()
	})
	s.timers = append(s.timers, t)
}

func (s *Sim) emitLocked(ev Event) {
	if s.destroyed {
		return
	}
	ev.EventID = uuid.NewString()
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	select {
	case s.events <- ev:
	default:
		// Receiver stalled; drop rather than wedge the runtime.
	}
}

func transientTitle(title string) bool {
	return title == "Boot" || title == "Wink"
}
