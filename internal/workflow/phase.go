package workflow

import "fmt"

// Phase is the lifecycle stage of the text or image half of a request.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseDone
	PhaseFailed
)

var phaseNames = [...]string{
	PhaseIdle:    "idle",
	PhaseLoading: "loading",
	PhaseDone:    "done",
	PhaseFailed:  "failed",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return fmt.Sprintf("Phase(%d)", int(p))
	}
	return phaseNames[p]
}

// Settled reports whether the phase will not change again within its request.
func (p Phase) Settled() bool {
	return p == PhaseDone || p == PhaseFailed
}

func (p Phase) MarshalText() ([]byte, error) {
	if p < 0 || int(p) >= len(phaseNames) {
		return nil, fmt.Errorf("workflow: invalid phase %d", int(p))
	}
	return []byte(phaseNames[p]), nil
}

func (p *Phase) UnmarshalText(text []byte) error {
	for i, name := range phaseNames {
		if name == string(text) {
			*p = Phase(i)
			return nil
		}
	}
	return fmt.Errorf("workflow: unknown phase %q", text)
}
