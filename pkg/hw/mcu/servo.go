//go:build tinygo && (rp2040 || rp2350)

package mcu

import (
	"machine"

	tinygopwm "github.com/ralvarezdev/tinygo-pwm"
)

// Servo pulse widths in ns.
const (
	ServoFrequency   = 50
	ServoMinPulse    = 544000
	ServoMaxPulse    = 2400000
	servoPeriodNanos = 1e9 / ServoFrequency
)

// Servo is a hobby servo on a PWM channel. Detached means no pulses.
type Servo struct {
	pwm      tinygopwm.PWM
	channel  uint8
	minPulse uint32
	maxPulse uint32
	attached bool
	pulse    uint32
}

// NewServo configures the PWM for servo pulses on the pin.
func NewServo(pwm tinygopwm.PWM, pin machine.Pin) (*Servo, error) {
	if err := pwm.Configure(machine.PWMConfig{Period: servoPeriodNanos}); err != nil {
		return nil, codeError(ErrorCodeBuggyFailedToConfigurePWM)
	}
	channel, err := pwm.Channel(pin)
	if err != nil {
		return nil, codeError(ErrorCodeBuggyFailedToGetPWMChannel)
	}
	s := &Servo{pwm: pwm, channel: channel, minPulse: ServoMinPulse, maxPulse: ServoMaxPulse}
	s.pulse = s.pulseOf(90)
	return s, nil
}

func (s *Servo) pulseOf(deg int) uint32 {
	return s.minPulse + uint32(deg)*(s.maxPulse-s.minPulse)/180
}

// Attach implements servo.Actuator.
func (s *Servo) Attach() error {
	s.attached = true
	tinygopwm.SetDuty(s.pwm, s.channel, s.pulse, servoPeriodNanos)
	return nil
}

// Detach implements servo.Actuator.
func (s *Servo) Detach() error {
	s.attached = false
	tinygopwm.SetDuty(s.pwm, s.channel, 0, servoPeriodNanos)
	return nil
}

// Write implements servo.Actuator.
func (s *Servo) Write(deg int) error {
	if deg < 0 || deg > 180 {
		return codeError(ErrorCodeBuggyInvalidPulseWidth)
	}
	s.pulse = s.pulseOf(deg)
	if s.attached {
		tinygopwm.SetDuty(s.pwm, s.channel, s.pulse, servoPeriodNanos)
	}
	return nil
}
