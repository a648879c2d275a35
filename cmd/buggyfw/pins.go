//go:build tinygo && (rp2040 || rp2350)

package main

import "machine"

const (
	PIN_SHIFT_DATA  = machine.GP2
	PIN_SHIFT_CLOCK = machine.GP3
	PIN_SHIFT_LATCH = machine.GP4
	PIN_ENABLE      = machine.GP6
	PIN_SERVO       = machine.GP10
	PIN_TRIGGER     = machine.GP14
	PIN_ECHO        = machine.GP15

	ENABLE_PWM_FREQUENCY = 1000
	BAUD_RATE            = 115200
)

var (
	pwmEnable = machine.PWM3
	pwmServo  = machine.PWM5
)
