// Package ranging measures obstacle distance with an ultrasonic echo
// sensor and runs the debounced safety stop.
package ranging

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang/glog"
)

// ErrNoEcho is returned by an Echo when the wait timed out.
var ErrNoEcho = errors.New("no echo")

// MicrosPerCM is the echo round trip time per centimeter.
const MicrosPerCM = 58

// Echo triggers one pulse and waits, at most timeout, for its round trip.
type Echo interface {
	Ping(timeout time.Duration) (time.Duration, error)
}

// SettleGate reports whether the sensor aim is stable.
type SettleGate interface {
	IsSettled(now time.Time) bool
}

// Reading is one distance measurement attempt.
type Reading struct {
	CM    float64
	Valid bool
	At    time.Time
}

// String formats the distance with one decimal or NA.
func (r Reading) String() string {
	if !r.Valid {
		return "NA"
	}
	return strconv.FormatFloat(r.CM, 'f', 1, 64)
}

// Config defines measurement timing and validity.
type Config struct {
	Cooldown    time.Duration
	EchoTimeout time.Duration
	MinCM       float64
	MaxCM       float64
}

// DefaultConfig returns the HC-SR04 defaults.
func DefaultConfig() Config {
	return Config{
		Cooldown:    40 * time.Millisecond,
		EchoTimeout: 30 * time.Millisecond,
		MinCM:       3,
		MaxCM:       300,
	}
}

// Sensor performs on-demand measurements.
type Sensor struct {
	cfg  Config
	echo Echo
	gate SettleGate

	last        Reading
	lastAttempt time.Time
	pings       int
}

// NewSensor creates a Sensor. gate may be nil when the sensor is fixed.
func NewSensor(cfg Config, echo Echo, gate SettleGate) *Sensor {
	return &Sensor{cfg: cfg, echo: echo, gate: gate}
}

// Measure returns a fresh reading, or the cached one within the cooldown.
// An unsettled aim yields an invalid reading and restarts the cooldown.
func (s *Sensor) Measure(now time.Time) Reading {
	if !s.lastAttempt.IsZero() && now.Sub(s.lastAttempt) < s.cfg.Cooldown {
		return s.last
	}
	s.lastAttempt = now
	if s.gate != nil && !s.gate.IsSettled(now) {
		s.last = Reading{At: now}
		return s.last
	}
	s.pings++
	rt, err := s.echo.Ping(s.cfg.EchoTimeout)
	if err != nil || rt <= 0 || rt > s.cfg.EchoTimeout {
		if err != nil && err != ErrNoEcho {
			glog.Warningf("ranging: echo: %v", err)
		}
		s.last = Reading{At: now}
		return s.last
	}
	s.last = s.Convert(rt)
	s.last.At = now
	return s.last
}

// Convert turns a round trip time into a validated reading.
func (s *Sensor) Convert(rt time.Duration) Reading {
	cm := float64(rt) / float64(time.Microsecond) / MicrosPerCM
	if cm < s.cfg.MinCM || cm > s.cfg.MaxCM {
		return Reading{}
	}
	return Reading{CM: cm, Valid: true}
}

// Last returns the most recent reading.
func (s *Sensor) Last() Reading {
	return s.last
}

// Pings counts physical pulses triggered.
func (s *Sensor) Pings() int {
	return s.pings
}
