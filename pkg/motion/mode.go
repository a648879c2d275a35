package motion

import "fmt"

// Mode is the active driving mode.
type Mode int

// Modes.
const (
	Stop Mode = iota
	ForwardFast
	ForwardSlow
	BackwardSlow
	ArcLeft
	ArcRight
	SpinLeft
	SpinRight
)

var modeNames = [...]string{"STOP", "F_FAST", "F_SLOW", "B_SLOW", "ARC_L", "ARC_R", "SPIN_L", "SPIN_R"}

// String returns the status name of the mode.
func (m Mode) String() string {
	if m >= 0 && int(m) < len(modeNames) {
		return modeNames[m]
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Letter returns the single letter used in structured status.
func (m Mode) Letter() byte {
	switch m {
	case ForwardFast, ForwardSlow, ArcLeft, ArcRight:
		return 'F'
	case BackwardSlow:
		return 'B'
	case SpinLeft:
		return 'L'
	case SpinRight:
		return 'R'
	}
	return 'S'
}

// Moving reports whether the mode actuates any motor.
func (m Mode) Moving() bool {
	return m != Stop
}
