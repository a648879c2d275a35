//go:build tinygo && (rp2040 || rp2350)

package mcu

import (
	"machine"

	tinygopwm "github.com/ralvarezdev/tinygo-pwm"
)

// ShiftRegister bit-bangs a 74HC595, MSB first.
type ShiftRegister struct {
	DataPin, ClockPin, LatchPin machine.Pin
}

// NewShiftRegister configures the pins.
func NewShiftRegister(data, clock, latch machine.Pin) *ShiftRegister {
	for _, pin := range []machine.Pin{data, clock, latch} {
		pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
		pin.Low()
	}
	return &ShiftRegister{DataPin: data, ClockPin: clock, LatchPin: latch}
}

// Latch implements drive.ShiftRegister.
func (r *ShiftRegister) Latch(img byte) error {
	r.LatchPin.Low()
	for bit := 7; bit >= 0; bit-- {
		r.DataPin.Set(img&(1<<uint(bit)) != 0)
		r.ClockPin.High()
		r.ClockPin.Low()
	}
	r.LatchPin.High()
	return nil
}

// DigitalEnable drives the enable line fully on or off. The shield's
// output enable is active low.
type DigitalEnable struct {
	Pin machine.Pin
}

// NewDigitalEnable configures the pin with outputs disabled.
func NewDigitalEnable(pin machine.Pin) *DigitalEnable {
	pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	pin.High()
	return &DigitalEnable{Pin: pin}
}

// SetDuty implements drive.EnableLine.
func (e *DigitalEnable) SetDuty(duty uint8) error {
	e.Pin.Set(duty == 0)
	return nil
}

// PWMEnable modulates the active low enable line.
type PWMEnable struct {
	pwm     tinygopwm.PWM
	channel uint8
	period  uint32
}

// NewPWMEnable configures the PWM at frequency Hz on the pin.
func NewPWMEnable(pwm tinygopwm.PWM, pin machine.Pin, frequency uint32) (*PWMEnable, error) {
	if frequency == 0 {
		return nil, codeError(ErrorCodeBuggyZeroFrequency)
	}
	period := uint32(1e9 / uint64(frequency))
	if err := pwm.Configure(machine.PWMConfig{Period: uint64(period)}); err != nil {
		return nil, codeError(ErrorCodeBuggyFailedToConfigurePWM)
	}
	channel, err := pwm.Channel(pin)
	if err != nil {
		return nil, codeError(ErrorCodeBuggyFailedToGetPWMChannel)
	}
	e := &PWMEnable{pwm: pwm, channel: channel, period: period}
	return e, e.SetDuty(0)
}

// SetDuty implements drive.EnableLine.
func (e *PWMEnable) SetDuty(duty uint8) error {
	low := uint32(255-duty) * (e.period / 255)
	tinygopwm.SetDuty(e.pwm, e.channel, low, e.period)
	return nil
}
