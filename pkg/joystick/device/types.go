// Package device reads joystick events from the operating system.
package device

import "io"

// Event is a change of one axis or button.
type Event interface {
	// IsInit is true for the synthetic events reporting the initial state
	// right after the device is opened.
	IsInit() bool
	Index() int
}

// AxisEvent reports an axis position in [-32767, 32767].
type AxisEvent interface {
	Event
	Value() int
}

// ButtonEvent reports a button state.
type ButtonEvent interface {
	Event
	Pressed() bool
}

// Device is an opened joystick.
type Device interface {
	io.Closer
	Index() int
	Name() string
	AxisCount() int
	ButtonCount() int
	// ReadEvent blocks until the next event. Unknown event types return
	// a plain Event.
	ReadEvent() (Event, error)
}
