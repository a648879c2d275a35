package sim

import (
	"math"
	"sync"
	"time"

	"github.com/robotalks/buggy.go/pkg/drive"
	fx "github.com/robotalks/buggy.go/pkg/framework"
)

// Chassis estimates the pose of a skid steer chassis from the latched
// motor image and the enable duty.
type Chassis struct {
	Wiring drive.Wiring
	// MaxSpeed is the side speed at full duty in cm/s.
	MaxSpeed float64
	// Track is the distance between the sides in cm.
	Track float64

	reg    *Register
	enable *Enable

	lock  sync.Mutex
	state motionState
	pose  Pose2D
}

// motionState is the constant side speeds since a start pose.
type motionState struct {
	startPose Pose2D
	startTime time.Time
	left      float64
	right     float64
}

// NewChassis creates a Chassis observing the register and enable line.
func NewChassis(reg *Register, enable *Enable) *Chassis {
	return &Chassis{
		Wiring:   drive.DefaultWiring,
		MaxSpeed: 60,
		Track:    14,
		reg:      reg,
		enable:   enable,
	}
}

// Pose returns the estimated pose at the last advance.
func (c *Chassis) Pose() Pose2D {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.pose
}

// Place moves the chassis to the pose, for setting up scenes.
func (c *Chassis) Place(pose Pose2D, now time.Time) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.pose = pose
	c.state = motionState{startPose: pose, startTime: now, left: c.state.left, right: c.state.right}
}

// Advance estimates the pose at now and restarts the motion state when
// the outputs changed.
func (c *Chassis) Advance(now time.Time) Pose2D {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.state.startTime.IsZero() {
		c.state.startTime, c.state.startPose = now, c.pose
	}
	c.pose = c.state.estimate(now, c.Track)

	ldir, rdir := c.Wiring.Sides(c.reg.Image())
	speed := c.MaxSpeed * float64(c.enable.Duty()) / 255
	left, right := float64(ldir)*speed, float64(rdir)*speed
	if left != c.state.left || right != c.state.right {
		c.state = motionState{startPose: c.pose, startTime: now, left: left, right: right}
	}
	return c.pose
}

// Control implements fx.Controller.
func (c *Chassis) Control(cc fx.ControlContext) error {
	c.Advance(cc.Time())
	return nil
}

func (s motionState) estimate(now time.Time, track float64) Pose2D {
	pose := s.startPose
	secs := now.Sub(s.startTime).Seconds()
	if secs <= 0 {
		return pose
	}
	v := (s.left + s.right) / 2
	w := (s.right - s.left) / track
	if w == 0 {
		pose.Pos2D.OffsetBy(pose.Orientation.Project(v * secs))
		return pose
	}
	th0 := float64(pose.Orientation)
	th1 := th0 + w*secs
	pose.X += v / w * (math.Sin(th1) - math.Sin(th0))
	pose.Y -= v / w * (math.Cos(th1) - math.Cos(th0))
	pose.Orientation = pose.Orientation.AddRadians(w * secs)
	return pose
}

// Bench bundles the simulated devices of one buggy.
type Bench struct {
	Register *Register
	Enable   *Enable
	Servo    *Servo
	Chassis  *Chassis
	Sonar    *Sonar
}

// NewBench creates the devices in the world, with the servo at aim.
func NewBench(world *World, aim int) *Bench {
	b := &Bench{
		Register: &Register{},
		Enable:   &Enable{},
		Servo:    NewServo(aim),
	}
	b.Chassis = NewChassis(b.Register, b.Enable)
	b.Sonar = &Sonar{Chassis: b.Chassis, Servo: b.Servo, World: world}
	return b
}
