package drive

import (
	"fmt"

	"github.com/golang/glog"
)

// ShiftRegister latches a full 8-bit image onto the H-bridge inputs.
type ShiftRegister interface {
	Latch(byte) error
}

// EnableLine drives the global speed line shared by all motors.
type EnableLine interface {
	SetDuty(uint8) error
}

// Output commits side outputs to hardware.
type Output struct {
	Wiring Wiring
	// Digital makes any nonzero intensity full enable.
	Digital bool

	reg    ShiftRegister
	enable EnableLine

	image     byte
	duty      uint8
	committed bool
}

// NewOutput creates an Output with DefaultWiring.
func NewOutput(reg ShiftRegister, enable EnableLine) *Output {
	return &Output{Wiring: DefaultWiring, reg: reg, enable: enable}
}

// Apply sets directions of both sides and the global intensity.
// The register is latched only when the image changes.
func (o *Output) Apply(left, right SideOutput, global uint8) error {
	duty := global
	if o.Digital && duty > 0 {
		duty = 255
	}
	if !o.committed || duty != o.duty {
		if err := o.enable.SetDuty(duty); err != nil {
			return fmt.Errorf("enable duty %d: %w", duty, err)
		}
		o.duty = duty
	}
	img := o.Wiring.Image(left.Dir, right.Dir)
	if o.committed && img == o.image {
		return nil
	}
	if err := o.reg.Latch(img); err != nil {
		return fmt.Errorf("latch %08b: %w", img, err)
	}
	glog.V(3).Infof("drive: latch %08b duty %d", img, duty)
	o.image, o.committed = img, true
	return nil
}

// Release puts all motors in neutral and disables the enable line.
func (o *Output) Release() error {
	o.committed = false
	return o.Apply(SideOutput{}, SideOutput{}, 0)
}

// Image returns the last committed register image.
func (o *Output) Image() byte {
	return o.image
}

// Duty returns the last applied enable duty.
func (o *Output) Duty() uint8 {
	return o.duty
}
