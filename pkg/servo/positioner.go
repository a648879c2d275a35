// Package servo aims the range sensor and gates measurements on settle.
package servo

import (
	"fmt"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/buggy.go/pkg/framework"
)

// Angle limits.
const (
	MinAngle = 0
	MaxAngle = 180
)

// Actuator is the hobby servo output.
type Actuator interface {
	Attach() error
	Detach() error
	Write(deg int) error
}

// Config defines positioner timing and policy.
type Config struct {
	// Settle is the dwell after a move before the aim is trusted.
	Settle time.Duration
	// DetachWhenIdle stops driving the servo once settled.
	DetachWhenIdle bool
	// Initial is the aim assumed at boot.
	Initial int

	SweepMin   int
	SweepMax   int
	SweepStep  int
	SweepDwell time.Duration
}

// DefaultConfig returns the bench defaults.
func DefaultConfig() Config {
	return Config{
		Settle:         100 * time.Millisecond,
		DetachWhenIdle: true,
		Initial:        90,
		SweepMin:       45,
		SweepMax:       135,
		SweepStep:      15,
		SweepDwell:     200 * time.Millisecond,
	}
}

// Clamp limits deg to the servo range.
func Clamp(deg int) int {
	if deg < MinAngle {
		return MinAngle
	}
	if deg > MaxAngle {
		return MaxAngle
	}
	return deg
}

// Positioner owns the aim of the sensor servo.
type Positioner struct {
	cfg Config
	act Actuator

	target   int
	current  int
	lastMove time.Time
	attached bool

	sweeping bool
	sweepDir int
}

// NewPositioner creates a detached Positioner at the initial aim.
func NewPositioner(cfg Config, act Actuator) *Positioner {
	if cfg.SweepStep <= 0 {
		cfg.SweepStep = 1
	}
	aim := Clamp(cfg.Initial)
	return &Positioner{cfg: cfg, act: act, target: aim, current: aim}
}

// SetTarget aims at deg after clamping and cancels any sweep.
// Nothing happens when the clamped target is unchanged.
func (p *Positioner) SetTarget(deg int, now time.Time) error {
	deg = Clamp(deg)
	if deg == p.target {
		return nil
	}
	p.sweeping = false
	return p.move(deg, now)
}

// Home writes the initial aim unconditionally, attaching the actuator.
func (p *Positioner) Home(now time.Time) error {
	p.sweeping = false
	return p.move(Clamp(p.cfg.Initial), now)
}

func (p *Positioner) move(deg int, now time.Time) error {
	p.target = deg
	if !p.attached {
		if err := p.act.Attach(); err != nil {
			return fmt.Errorf("servo attach: %w", err)
		}
		p.attached = true
	}
	if err := p.act.Write(deg); err != nil {
		return fmt.Errorf("servo write %d: %w", deg, err)
	}
	p.current, p.lastMove = deg, now
	glog.V(3).Infof("servo: aim %d", deg)
	return nil
}

// Target returns the commanded aim.
func (p *Positioner) Target() int {
	return p.target
}

// Current returns the aim last written to the actuator.
func (p *Positioner) Current() int {
	return p.current
}

// Attached reports whether the actuator is driven.
func (p *Positioner) Attached() bool {
	return p.attached
}

// IsSettled reports the aim has held for the settle time.
// A positioner that never moved is settled.
func (p *Positioner) IsSettled(now time.Time) bool {
	if p.current != p.target {
		return false
	}
	return p.lastMove.IsZero() || now.Sub(p.lastMove) >= p.cfg.Settle
}

// StartSweep scans between SweepMin and SweepMax.
func (p *Positioner) StartSweep() {
	if !p.sweeping {
		p.sweeping, p.sweepDir = true, 1
	}
}

// StopSweep holds the current aim.
func (p *Positioner) StopSweep(now time.Time) error {
	p.sweeping = false
	return p.idle(now)
}

// Sweeping reports an active sweep.
func (p *Positioner) Sweeping() bool {
	return p.sweeping
}

// Tick advances a sweep and applies the idle policy.
func (p *Positioner) Tick(now time.Time) error {
	if p.sweeping && p.IsSettled(now) &&
		(p.lastMove.IsZero() || now.Sub(p.lastMove) >= p.cfg.SweepDwell) {
		return p.move(p.nextSweepStep(), now)
	}
	return p.idle(now)
}

func (p *Positioner) nextSweepStep() int {
	lo, hi := Clamp(p.cfg.SweepMin), Clamp(p.cfg.SweepMax)
	if p.current < lo || p.current > hi {
		return lo
	}
	next := p.current + p.sweepDir*p.cfg.SweepStep
	if next > hi || next < lo {
		p.sweepDir = -p.sweepDir
		next = p.current + p.sweepDir*p.cfg.SweepStep
	}
	if next > hi {
		next = hi
	} else if next < lo {
		next = lo
	}
	return next
}

func (p *Positioner) idle(now time.Time) error {
	if p.sweeping || !p.cfg.DetachWhenIdle || !p.attached || !p.IsSettled(now) {
		return nil
	}
	p.attached = false
	if err := p.act.Detach(); err != nil {
		return fmt.Errorf("servo detach: %w", err)
	}
	return nil
}

// Control implements fx.Controller.
func (p *Positioner) Control(cc fx.ControlContext) error {
	return p.Tick(cc.Time())
}
