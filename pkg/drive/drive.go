// Package drive translates per-side direction and intensity into the
// shift-register image and global enable duty of a 4-motor H-bridge shield.
package drive

import (
	"fmt"
)

// Direction is the logical rotation of a side or motor.
type Direction int8

// Directions.
const (
	Reverse Direction = -1
	Neutral Direction = 0
	Forward Direction = 1
)

// Inverted returns the opposite rotation, Neutral stays Neutral.
func (d Direction) Inverted() Direction {
	return -d
}

func (d Direction) String() string {
	switch d {
	case Reverse:
		return "reverse"
	case Neutral:
		return "neutral"
	case Forward:
		return "forward"
	}
	return fmt.Sprintf("Direction(%d)", int8(d))
}

// SideOutput is the requested actuation of one side.
type SideOutput struct {
	Dir       Direction
	Intensity uint8
}

// Side selects the left or right motor pair.
type Side int

// Sides.
const (
	Left Side = iota
	Right
)

// Motor describes how one motor is wired to the shift register.
type Motor struct {
	// A and B are register bit positions of the H-bridge inputs.
	A, B uint8
	// Reversed flips the physical rotation of the motor.
	Reversed bool
}

// Wiring lists the motors as front-left, rear-left, rear-right, front-right.
// Motors 0 and 1 drive the left side, 2 and 3 the right side.
type Wiring [4]Motor

// DefaultWiring is the 74HC595/L293D motor shield mapping.
var DefaultWiring = Wiring{
	{A: 2, B: 3},
	{A: 1, B: 4, Reversed: true},
	{A: 5, B: 7},
	{A: 0, B: 6, Reversed: true},
}

// Validate checks every bit is used at most once.
func (w Wiring) Validate() error {
	var used byte
	for n, m := range w {
		for _, bit := range []uint8{m.A, m.B} {
			if bit > 7 {
				return fmt.Errorf("motor %d: bit %d out of range", n, bit)
			}
			if used&(1<<bit) != 0 {
				return fmt.Errorf("motor %d: bit %d already used", n, bit)
			}
			used |= 1 << bit
		}
	}
	return nil
}

// motors returns the motor indices of a side.
func (s Side) motors() [2]int {
	if s == Left {
		return [2]int{0, 1}
	}
	return [2]int{2, 3}
}

// Bits returns the register bits for the motor in the logical direction.
func (m Motor) Bits(dir Direction) byte {
	if m.Reversed {
		dir = dir.Inverted()
	}
	switch dir {
	case Forward:
		return 1 << m.A
	case Reverse:
		return 1 << m.B
	}
	return 0
}

// Image builds the register image for both sides.
func (w Wiring) Image(left, right Direction) byte {
	var img byte
	for _, n := range Left.motors() {
		img |= w[n].Bits(left)
	}
	for _, n := range Right.motors() {
		img |= w[n].Bits(right)
	}
	return img
}

// Dir decodes the logical direction of the motor from a register image.
// Both inputs high reads as Neutral.
func (m Motor) Dir(img byte) Direction {
	a, b := img&(1<<m.A) != 0, img&(1<<m.B) != 0
	var dir Direction
	switch {
	case a && !b:
		dir = Forward
	case b && !a:
		dir = Reverse
	}
	if m.Reversed {
		dir = dir.Inverted()
	}
	return dir
}

// Sides decodes side directions from a register image using the front
// motor of each side.
func (w Wiring) Sides(img byte) (left, right Direction) {
	return w[Left.motors()[0]].Dir(img), w[Right.motors()[1]].Dir(img)
}
