package model

// FaceState is the normalized animation state shown in the panel.
type FaceState string

const (
	StateBase  FaceState = "base"
	StateBoot  FaceState = "boot"
	StatePeek  FaceState = "peek"
	StateThink FaceState = "think"
	StateReply FaceState = "reply"
	StateWink  FaceState = "wink"
	StateError FaceState = "error"
)

// AllStates returns the selectable states in display order.
func AllStates() []FaceState {
	return []FaceState{
		StateBase,
		StateBoot,
		StatePeek,
		StateThink,
		StateReply,
		StateWink,
		StateError,
	}
}

// Transient reports whether the rig plays this state once and returns
// to Base on its own.
func (s FaceState) Transient() bool {
	return s == StateBoot || s == StateWink
}

// Title is the label rendered on the selector and the value pushed to
// the rig input.
func (s FaceState) Title() string {
	switch s {
	case StateBase:
		return "Base"
	case StateBoot:
		return "Boot"
	case StatePeek:
		return "Peek"
	case StateThink:
		return "Think"
	case StateReply:
		return "Reply"
	case StateWink:
		return "Wink"
	case StateError:
		return "Error"
	}
	return string(s)
}

// LockMode selects the unlock policy of a highlight lock.
type LockMode string

const (
	// LockReach clears the instant the target bucket is observed once.
	LockReach LockMode = "reach"
	// LockStable clears only after the rig has continuously reported
	// the target bucket for the configured stability window.
	LockStable LockMode = "stable"
	// LockLeave clears on the first report outside the target bucket
	// after the target has been reached at least once.
	LockLeave LockMode = "leave"
)

// Error codes surfaced in the debug panel.
const (
	ErrCodeNotReady       = "E_NOT_READY"
	ErrCodeInputRejected  = "E_INPUT_REJECTED"
	ErrCodeUnsupportedAPI = "E_UNSUPPORTED_API"
	ErrCodeRigFault       = "E_RIG_FAULT"
	ErrCodeLoadFailed     = "E_LOAD_FAILED"
	ErrCodeMachineFailed  = "E_MACHINE_FAILED"
)
