//go:build tinygo && (rp2040 || rp2350)

package mcu

import (
	"machine"
	"time"
)

// UART is the blocking byte stream of a link over a hardware UART. Read
// yields to other goroutines while no byte is buffered.
type UART struct {
	*machine.UART
	Poll time.Duration
}

// NewUART configures the UART at the baud rate.
func NewUART(uart *machine.UART, baudRate uint32) *UART {
	uart.Configure(machine.UARTConfig{BaudRate: baudRate})
	return &UART{UART: uart, Poll: time.Millisecond}
}

// Read implements io.Reader.
func (u *UART) Read(buf []byte) (int, error) {
	for u.Buffered() == 0 {
		time.Sleep(u.Poll)
	}
	return u.UART.Read(buf)
}
