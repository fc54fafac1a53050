// Package rig abstracts the vendor animation state-machine runtime
// that renders the eyes. The panel consumes it only through this
// contract; the real runtime lives outside the process.
package rig

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrNotReady    = errors.New("rig not ready")
	ErrRejected    = errors.New("input rejected")
	ErrUnsupported = errors.New("no supported input setter")
	ErrFault       = errors.New("rig fault")
)

// faultSignature is the low-level failure the runtime raises when its
// linear memory is corrupted mid-request.
const faultSignature = "memory access out of bounds"

// IsFault reports whether err carries the fatal memory-access
// signature that requires a full runtime reinitialization.
func IsFault(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrFault) {
		return true
	}
	return strings.Contains(err.Error(), faultSignature)
}

// EventKind enumerates the lifecycle and state-machine events a
// runtime instance delivers.
type EventKind string

const (
	EventReady        EventKind = "ready"
	EventLoaded       EventKind = "loaded"
	EventStateEntered EventKind = "state_entered"
	EventTransition   EventKind = "transition"
	EventInputChanged EventKind = "input_changed"
	EventLoadError    EventKind = "load_error"
	EventMachineError EventKind = "machine_error"
	EventFault        EventKind = "fault"
)

// Event is one runtime notification. Payload carries the raw state for
// state_entered/transition; its shape varies by runtime build (see
// classify.StateName). Events are delivered strictly in the order the
// runtime produced them.
type Event struct {
	EventID   string
	Kind      EventKind
	Payload   any
	InputName string
	Value     string
	Err       error
	At        time.Time
}

// Rig is the slice of the runtime this panel drives. Input setting is
// deliberately absent: setter shape varies across runtime builds and
// is negotiated once per instance via ResolveSetter.
type Rig interface {
	// Manifest lists the state-machine identifiers in the loaded asset.
	Manifest() []string
	// LoadMachine starts the named state machine.
	LoadMachine(name string) error
	// Inputs lists the input names accepted by the active machine.
	Inputs() []string
	ActiveMachine() string
	Running() bool
	Resize(width, height int)
	SetBackground(color string) error
	// Events returns the instance's ordered event stream. The channel
	// is closed when the instance is destroyed.
	Events() <-chan Event
	Destroy()
}

// Factory creates a fresh runtime instance. Used at startup and again
// on crash recovery.
type Factory func() (Rig, error)
