//go:build tinygo && (rp2040 || rp2350)

// Package mcu drives the buggy hardware from a microcontroller: the
// 74HC595 motor shield, the aiming servo and the ultrasonic sensor.
package mcu

import (
	"strconv"

	tinygoerrors "github.com/ralvarezdev/tinygo-errors"
)

// ErrorCodeBuggyStartNumber is the starting number of buggy error codes.
const ErrorCodeBuggyStartNumber uint16 = 5400

const (
	ErrorCodeBuggyFailedToConfigurePWM tinygoerrors.ErrorCode = tinygoerrors.ErrorCode(iota + ErrorCodeBuggyStartNumber)
	ErrorCodeBuggyFailedToGetPWMChannel
	ErrorCodeBuggyZeroFrequency
	ErrorCodeBuggyEchoStuckHigh
	ErrorCodeBuggyInvalidPulseWidth
)

// Error carries an error code through error returns.
type Error struct {
	Code tinygoerrors.ErrorCode
}

func (e Error) Error() string {
	return "buggy hw error " + strconv.Itoa(int(e.Code))
}

func codeError(code tinygoerrors.ErrorCode) error {
	return Error{Code: code}
}
