//go:build tinygo && (rp2040 || rp2350)

package mcu

import (
	"machine"
	"time"

	"github.com/robotalks/buggy.go/pkg/ranging"
)

// Echo drives an HC-SR04 style sensor by polling the echo pin. Ping
// blocks at most the timeout.
type Echo struct {
	Trigger, Echo machine.Pin
}

// NewEcho configures the pins.
func NewEcho(trigger, echo machine.Pin) *Echo {
	trigger.Configure(machine.PinConfig{Mode: machine.PinOutput})
	trigger.Low()
	echo.Configure(machine.PinConfig{Mode: machine.PinInput})
	return &Echo{Trigger: trigger, Echo: echo}
}

// Ping implements ranging.Echo.
func (e *Echo) Ping(timeout time.Duration) (time.Duration, error) {
	if e.Echo.Get() {
		return 0, codeError(ErrorCodeBuggyEchoStuckHigh)
	}
	e.Trigger.High()
	time.Sleep(10 * time.Microsecond)
	e.Trigger.Low()

	return ranging.MeasurePulse(e.Echo.Get, timeout, nil)
}
