//go:build linux

package device

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"syscall"
	"unsafe"
)

// MaxIndex bounds the device scan of DetectAndOpen.
const MaxIndex = 32

// Path is the device node of joystick index.
func Path(index int) string {
	return fmt.Sprintf("/dev/input/js%d", index)
}

type jsDevice struct {
	file    *os.File
	index   int
	name    string
	axes    uint8
	buttons uint8
}

// Open opens the device with specified index.
func Open(index int) (Device, error) {
	f, err := os.OpenFile(Path(index), os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	d := &jsDevice{file: f, index: index}
	if err := d.query(); err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", Path(index), err)
	}
	return d, nil
}

// DetectAndOpen opens the first device from startIndex which exists.
// It returns nil without error when none is found.
func DetectAndOpen(startIndex int) (Device, error) {
	for index := startIndex; index < MaxIndex; index++ {
		d, err := Open(index)
		if os.IsNotExist(err) {
			continue
		}
		return d, err
	}
	return nil, nil
}

func (d *jsDevice) query() error {
	if errno := d.ioctl(iocGAXES, unsafe.Pointer(&d.axes)); errno != 0 {
		return errno
	}
	if errno := d.ioctl(iocGBUTTONS, unsafe.Pointer(&d.buttons)); errno != 0 {
		return errno
	}
	var buf [256]byte
	if errno := d.ioctl(iocGNAME, unsafe.Pointer(&buf)); errno != 0 {
		return errno
	}
	if n := bytes.IndexByte(buf[:], 0); n >= 0 {
		d.name = string(buf[:n])
	} else {
		d.name = string(buf[:])
	}
	return nil
}

func (d *jsDevice) Close() error     { return d.file.Close() }
func (d *jsDevice) Index() int       { return d.index }
func (d *jsDevice) Name() string     { return d.name }
func (d *jsDevice) AxisCount() int   { return int(d.axes) }
func (d *jsDevice) ButtonCount() int { return int(d.buttons) }

// ReadEvent implements Device. A js_event is 8 bytes: time u32,
// value s16, type u8, number u8, little endian.
func (d *jsDevice) ReadEvent() (Event, error) {
	var buf [8]byte
	if _, err := io.ReadFull(d.file, buf[:]); err != nil {
		return nil, err
	}
	ev := rawEvent{
		value:  int16(binary.LittleEndian.Uint16(buf[4:6])),
		kind:   buf[6],
		number: buf[7],
	}
	switch ev.kind &^ evINIT {
	case evBUTTON:
		return buttonEvent{ev}, nil
	case evAXIS:
		return axisEvent{ev}, nil
	}
	return ev, nil
}

type rawEvent struct {
	value  int16
	kind   uint8
	number uint8
}

func (e rawEvent) IsInit() bool { return e.kind&evINIT != 0 }
func (e rawEvent) Index() int   { return int(e.number) }

type axisEvent struct{ rawEvent }

func (e axisEvent) Value() int { return int(e.value) }

type buttonEvent struct{ rawEvent }

func (e buttonEvent) Pressed() bool { return e.value != 0 }

const (
	iocGAXES    uint = 0x80016a11
	iocGBUTTONS uint = 0x80016a12
	iocGNAME    uint = 0x80ff6a13

	evBUTTON uint8 = 0x01
	evAXIS   uint8 = 0x02
	evINIT   uint8 = 0x80
)

func (d *jsDevice) ioctl(req uint, ptr unsafe.Pointer) syscall.Errno {
	_, _, errno := syscall.Syscall(syscall.SYS_IOCTL, d.file.Fd(), uintptr(req), uintptr(ptr))
	return errno
}
