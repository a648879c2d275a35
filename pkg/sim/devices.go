// Package sim simulates the buggy hardware: the motor shield, the aiming
// servo and the ultrasonic sensor on a chassis moving in a world of walls.
package sim

import (
	"errors"
	"sync"
	"time"

	"github.com/robotalks/buggy.go/pkg/ranging"
)

// ErrInjected is returned by devices with fault injection enabled.
var ErrInjected = errors.New("injected fault")

// Register records the latched shift register images.
type Register struct {
	lock    sync.Mutex
	fail    bool
	image   byte
	latches int
}

// Latch implements drive.ShiftRegister.
func (r *Register) Latch(img byte) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.fail {
		return ErrInjected
	}
	r.image = img
	r.latches++
	return nil
}

// InjectFault makes subsequent latches fail.
func (r *Register) InjectFault(fail bool) {
	r.lock.Lock()
	r.fail = fail
	r.lock.Unlock()
}

// Image returns the latched image.
func (r *Register) Image() byte {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.image
}

// Latches counts the latch operations.
func (r *Register) Latches() int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.latches
}

// Enable is the global enable line.
type Enable struct {
	lock sync.Mutex
	duty uint8
}

// SetDuty implements drive.EnableLine.
func (e *Enable) SetDuty(duty uint8) error {
	e.lock.Lock()
	e.duty = duty
	e.lock.Unlock()
	return nil
}

// Duty returns the current duty.
func (e *Enable) Duty() uint8 {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.duty
}

// Servo is the aiming servo. It reaches the written angle immediately.
type Servo struct {
	lock     sync.Mutex
	attached bool
	angle    int
	writes   int
}

// NewServo creates a Servo at the angle.
func NewServo(angle int) *Servo {
	return &Servo{angle: angle}
}

// Attach implements servo.Actuator.
func (s *Servo) Attach() error {
	s.lock.Lock()
	s.attached = true
	s.lock.Unlock()
	return nil
}

// Detach implements servo.Actuator.
func (s *Servo) Detach() error {
	s.lock.Lock()
	s.attached = false
	s.lock.Unlock()
	return nil
}

// Write implements servo.Actuator. Writes while detached are ignored.
func (s *Servo) Write(deg int) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.attached {
		s.angle = deg
		s.writes++
	}
	return nil
}

// Angle returns the horn angle.
func (s *Servo) Angle() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.angle
}

// Attached reports whether the servo is driven.
func (s *Servo) Attached() bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.attached
}

// Writes counts the effective writes.
func (s *Servo) Writes() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.writes
}

// Sonar casts the sensor beam from the chassis into the world.
type Sonar struct {
	Chassis *Chassis
	Servo   *Servo
	World   *World
}

// Ping implements ranging.Echo.
func (s *Sonar) Ping(timeout time.Duration) (time.Duration, error) {
	pose := s.Chassis.Pose()
	// servo at 90 points straight ahead, lower angles to the right.
	dir := pose.Orientation.AddDegrees(float64(s.Servo.Angle() - 90))
	cm, ok := s.World.Cast(pose.Pos2D, dir)
	if !ok {
		return 0, ranging.ErrNoEcho
	}
	rt := time.Duration(cm * ranging.MicrosPerCM * float64(time.Microsecond))
	if rt > timeout {
		return 0, ranging.ErrNoEcho
	}
	return rt, nil
}

// World is a set of walls.
type World struct {
	Walls []Segment
}

// WallAhead creates a world with a single wide wall at distance cm in
// front of the origin facing along X.
func WallAhead(cm float64) *World {
	return &World{Walls: []Segment{{A: Pos2D{X: cm, Y: -1000}, B: Pos2D{X: cm, Y: 1000}}}}
}

// Cast returns the distance to the nearest wall hit by the ray.
func (w *World) Cast(origin Pos2D, dir Angle) (float64, bool) {
	var (
		best float64
		hit  bool
	)
	for _, seg := range w.Walls {
		if d, ok := seg.Cast(origin, dir); ok && (!hit || d < best) {
			best, hit = d, true
		}
	}
	return best, hit
}
