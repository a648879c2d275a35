package comm

import (
	"errors"
	"fmt"
)

var (
	// ErrNotReady indicates the link is not running or already closed.
	ErrNotReady = errors.New("not ready")
	// ErrNoReply indicates no reply received from peer.
	// This happens when a reply is received for a latter request, and all
	// previous requests fail with this error.
	ErrNoReply = errors.New("no reply")
	// ErrLineTooLong is returned when sending a line over MaxLineLen.
	ErrLineTooLong = errors.New("line too long")
)

// ReplyError wraps an unexpected reply line.
type ReplyError struct {
	Line string
}

// Error implements error.
func (e *ReplyError) Error() string {
	return fmt.Sprintf("unexpected reply %q", e.Line)
}
