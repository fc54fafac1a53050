package classify

import (
	"strings"

	"github.com/SaltyPakoda/computer-eyes/internal/model"
)

// rules are evaluated in order; the first substring match wins. The
// rig represents "thinking" as a sequence of internal load loops, so
// both "loading" and "load" bucket into Think.
var rules = []struct {
	substr string
	state  model.FaceState
}{
	{"boot", model.StateBoot},
	{"peek", model.StatePeek},
	{"loading", model.StateThink},
	{"load", model.StateThink},
	{"think", model.StateThink},
	{"reply", model.StateReply},
	{"wink", model.StateWink},
	{"error", model.StateError},
}

// State buckets a raw machine state name into the panel vocabulary.
// Pure and total: matching is case-insensitive, and anything
// unmatched, including empty or malformed input, is Base.
func State(raw string) model.FaceState {
	name := strings.ToLower(strings.TrimSpace(raw))
	if name == "" {
		return model.StateBase
	}
	for _, r := range rules {
		if strings.Contains(name, r.substr) {
			return r.state
		}
	}
	return model.StateBase
}
