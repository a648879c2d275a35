package joystick

import (
	"github.com/robotalks/buggy.go/pkg/l0/comm"
	"github.com/robotalks/buggy.go/pkg/proto"
)

// AxisMax is the absolute value of a fully deflected axis.
const AxisMax = 32767

// Mapping translates stick positions into drive commands.
type Mapping struct {
	// MaxSpeed is the speed of a fully deflected stick.
	MaxSpeed int
	// Deadzone is the absolute axis value below which the stick is centered.
	Deadzone int
	// Arc enables AL/AR when both axes are deflected.
	Arc bool
}

// Stick is the position of the driving stick, Y positive forward.
type Stick struct {
	X int
	Y int
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func (m Mapping) speed(val int) int {
	s := abs(val) * m.MaxSpeed / AxisMax
	if s > 255 {
		s = 255
	}
	return s
}

// Line returns the protocol line for the stick position.
func (m Mapping) Line(s Stick) string {
	x, y := s.X, s.Y
	if abs(x) <= m.Deadzone {
		x = 0
	}
	if abs(y) <= m.Deadzone {
		y = 0
	}
	switch {
	case x == 0 && y == 0:
		return string(proto.OpStop)
	case m.Arc && x != 0 && y > 0:
		op := proto.OpArcRight
		if x < 0 {
			op = proto.OpArcLeft
		}
		return comm.CompactLine(string(op), m.speed(y))
	case abs(y) >= abs(x):
		op := proto.OpForward
		if y < 0 {
			op = proto.OpBackward
		}
		return comm.CompactLine(string(op), m.speed(y))
	default:
		op := proto.OpRight
		if x < 0 {
			op = proto.OpLeft
		}
		return comm.CompactLine(string(op), m.speed(x))
	}
}

// Buttons.
const (
	ButtonStop  = 0
	ButtonPing  = 1
	ButtonSweep = 2
	ButtonAim   = 3
)

// ButtonLine returns the line sent when a button is pressed.
func ButtonLine(index int, sweeping bool) string {
	switch index {
	case ButtonStop:
		return string(proto.OpStop)
	case ButtonPing:
		return string(proto.OpPing)
	case ButtonSweep:
		if sweeping {
			return comm.ArgLine(string(proto.OpSweep), "OFF")
		}
		return comm.ArgLine(string(proto.OpSweep), "ON")
	case ButtonAim:
		return comm.CompactLine(string(proto.OpAim), proto.DefaultAim)
	}
	return ""
}
