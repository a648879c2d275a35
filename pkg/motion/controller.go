// Package motion implements the driving mode state machine.
//
// Only one hardware enable line exists for all motors, so a side that should
// run at the slow tier while the line drives at the fast tier is time-sliced:
// active for PulseOn, neutral for PulseOff, on a phase shared by both sides.
package motion

import (
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/buggy.go/pkg/drive"
	fx "github.com/robotalks/buggy.go/pkg/framework"
)

// Config defines the speed tiers and pulse timing.
type Config struct {
	Fast     uint8
	Slow     uint8
	PulseOn  time.Duration
	PulseOff time.Duration
}

// DefaultConfig returns the tiers of the stock shield.
func DefaultConfig() Config {
	return Config{
		Fast:     230,
		Slow:     150,
		PulseOn:  40 * time.Millisecond,
		PulseOff: 15 * time.Millisecond,
	}
}

// Driver is the hardware output the controller applies to.
type Driver interface {
	Apply(left, right drive.SideOutput, global uint8) error
	Release() error
}

// Plan is the canonical actuation of a mode, before override and pulsing.
type Plan struct {
	Left, Right drive.SideOutput
	Global      uint8
}

// Controller owns the driving mode and the speed override.
type Controller struct {
	cfg Config
	out Driver

	mode        Mode
	override    uint8
	hasOverride bool

	pulseStart time.Time
	plan       Plan
	applied    Plan
}

// NewController creates a Controller in Stop.
func NewController(cfg Config, out Driver) *Controller {
	return &Controller{cfg: cfg, out: out}
}

// Config returns the tiers in use.
func (c *Controller) Config() Config {
	return c.cfg
}

// PlanFor returns the canonical actuation of a mode.
func (c *Controller) PlanFor(m Mode) Plan {
	fast, slow := c.cfg.Fast, c.cfg.Slow
	side := func(dir drive.Direction, intensity uint8) drive.SideOutput {
		return drive.SideOutput{Dir: dir, Intensity: intensity}
	}
	switch m {
	case ForwardFast:
		return Plan{side(drive.Forward, fast), side(drive.Forward, fast), fast}
	case ForwardSlow:
		return Plan{side(drive.Forward, slow), side(drive.Forward, slow), slow}
	case BackwardSlow:
		return Plan{side(drive.Reverse, slow), side(drive.Reverse, slow), slow}
	case ArcLeft:
		return Plan{side(drive.Forward, slow), side(drive.Forward, fast), fast}
	case ArcRight:
		return Plan{side(drive.Forward, fast), side(drive.Forward, slow), fast}
	case SpinLeft:
		return Plan{side(drive.Reverse, slow), side(drive.Forward, slow), slow}
	case SpinRight:
		return Plan{side(drive.Forward, slow), side(drive.Reverse, slow), slow}
	}
	return Plan{}
}

// SetMode switches the mode. The pulse phase is never reset.
func (c *Controller) SetMode(m Mode) {
	if c.mode == m {
		return
	}
	glog.V(2).Infof("motion: %s -> %s", c.mode, m)
	c.mode = m
}

// Mode returns the active mode.
func (c *Controller) Mode() Mode {
	return c.mode
}

// SetSpeedOverride replaces the global intensity of every mode except Stop.
func (c *Controller) SetSpeedOverride(n uint8) {
	c.override, c.hasOverride = n, true
}

// ClearSpeedOverride returns to tier-driven global intensity.
func (c *Controller) ClearSpeedOverride() {
	c.override, c.hasOverride = 0, false
}

// SpeedOverride returns the override and whether it is set.
func (c *Controller) SpeedOverride() (uint8, bool) {
	return c.override, c.hasOverride
}

// Stop forces Stop, clears the override and releases the drive at once
// so the halt does not wait for the next Tick.
func (c *Controller) Stop() error {
	c.SetMode(Stop)
	c.ClearSpeedOverride()
	c.plan, c.applied = Plan{}, Plan{}
	return c.out.Release()
}

// Intensities returns the requested per-side tiers computed by the last Tick.
// Pulsing is not reflected.
func (c *Controller) Intensities() (left, right uint8) {
	return c.plan.Left.Intensity, c.plan.Right.Intensity
}

// GlobalIntensity returns the intensity of the enable line.
func (c *Controller) GlobalIntensity() uint8 {
	if c.mode == Stop {
		return 0
	}
	if c.hasOverride {
		return c.override
	}
	return c.PlanFor(c.mode).Global
}

// Applied returns the actuation committed by the last Tick, pulsing included.
func (c *Controller) Applied() Plan {
	return c.applied
}

// Tick recomputes and applies the output. It must run at least every 20ms.
func (c *Controller) Tick(now time.Time) error {
	plan := c.PlanFor(c.mode)
	plan.Global = c.GlobalIntensity()
	c.plan = plan

	period := c.cfg.PulseOn + c.cfg.PulseOff
	if c.pulseStart.IsZero() || now.Before(c.pulseStart) {
		c.pulseStart = now
	}
	phase := now.Sub(c.pulseStart)
	if phase >= period {
		c.pulseStart, phase = now, 0
	}
	pulseOn := phase < c.cfg.PulseOn

	applied := plan
	applied.Left = c.gate(plan.Left, plan.Global, pulseOn)
	applied.Right = c.gate(plan.Right, plan.Global, pulseOn)
	if err := c.out.Apply(applied.Left, applied.Right, applied.Global); err != nil {
		var errs fx.AggregatedError
		errs.Add(err, c.out.Release())
		c.applied = Plan{}
		return errs.Aggregate()
	}
	c.applied = applied
	return nil
}

func (c *Controller) gate(s drive.SideOutput, global uint8, pulseOn bool) drive.SideOutput {
	if s.Dir == drive.Neutral || pulseOn {
		return s
	}
	if s.Intensity <= c.cfg.Slow && global == c.cfg.Fast {
		s.Dir = drive.Neutral
	}
	return s
}

// Control implements fx.Controller.
func (c *Controller) Control(cc fx.ControlContext) error {
	return c.Tick(cc.Time())
}
