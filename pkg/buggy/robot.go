// Package buggy composes the firmware components into a robot attached to
// a control loop.
package buggy

import (
	"context"
	"fmt"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/buggy.go/pkg/config"
	"github.com/robotalks/buggy.go/pkg/drive"
	fx "github.com/robotalks/buggy.go/pkg/framework"
	"github.com/robotalks/buggy.go/pkg/l0/comm"
	"github.com/robotalks/buggy.go/pkg/motion"
	"github.com/robotalks/buggy.go/pkg/proto"
	"github.com/robotalks/buggy.go/pkg/ranging"
	"github.com/robotalks/buggy.go/pkg/servo"
	"github.com/robotalks/buggy.go/pkg/status"
	"github.com/robotalks/buggy.go/pkg/watchdog"
)

// Hardware is the set of device drivers the robot actuates.
type Hardware struct {
	Register drive.ShiftRegister
	Enable   drive.EnableLine
	Servo    servo.Actuator
	Echo     ranging.Echo
}

func (h Hardware) validate() error {
	switch {
	case h.Register == nil:
		return fmt.Errorf("missing shift register")
	case h.Enable == nil:
		return fmt.Errorf("missing enable line")
	case h.Servo == nil:
		return fmt.Errorf("missing servo")
	case h.Echo == nil:
		return fmt.Errorf("missing echo sensor")
	}
	return nil
}

// Robot owns the components of one buggy.
type Robot struct {
	Profile config.Profile

	Output     *drive.Output
	Motion     *motion.Controller
	Aim        *servo.Positioner
	Sensor     *ranging.Sensor
	Safety     *ranging.SafetyMonitor
	Watchdog   *watchdog.Watchdog
	Status     *status.Reporter
	Dispatcher *proto.Dispatcher

	links Links
}

// New creates a Robot from the profile.
func New(p config.Profile, version string, hw Hardware) (*Robot, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := hw.validate(); err != nil {
		return nil, err
	}
	r := &Robot{Profile: p}
	r.Output = drive.NewOutput(hw.Register, hw.Enable)
	r.Output.Digital = p.DigitalEnable
	r.Motion = motion.NewController(p.Motion(), r.Output)
	r.Aim = servo.NewPositioner(p.Servo(), hw.Servo)
	r.Sensor = ranging.NewSensor(p.Ranging(), hw.Echo, r.Aim)
	r.Status = status.NewReporter(p.Status(version), status.Sources{
		Motion: r.Motion,
		Range:  r.Sensor,
		Aim:    r.Aim,
	})
	r.Status.AddSink(&r.links)
	r.Safety = ranging.NewSafetyMonitor(p.Monitor(), r.Sensor, r.Motion, r.Status)
	r.Status.SetThresholdSource(r.Safety)
	r.Watchdog = watchdog.New(p.Watchdog(), r.Motion, r.Status)
	r.Dispatcher = proto.NewDispatcher(p.Tiers(), proto.Targets{
		Motion:   r.Motion,
		Aim:      r.Aim,
		Ranger:   r.Sensor,
		Safety:   r.Safety,
		Liveness: r.Watchdog,
		Reporter: r.Status,
	})
	r.Dispatcher.Parser().DefaultSpeed = p.DefaultSpeed
	return r, nil
}

// AddToLoop implements fx.LoopAdder. The boot banner is emitted and the
// drive released in the first iteration.
func (r *Robot) AddToLoop(l *fx.Loop) {
	l.AddController(fx.PrLvComm, r.Dispatcher)
	l.AddController(fx.PrLvSafety, r.Watchdog)
	l.AddController(fx.PrLvAcuate, r.Motion, r.Aim)
	l.AddController(fx.PrLvMonitor, r.Safety)
	l.AddController(fx.PrLvPostProc, r.Status)
	l.PreRunAt(fx.PrLvComm, fx.ControlFunc(r.boot))
}

func (r *Robot) boot(cc fx.ControlContext) error {
	now := cc.Time()
	r.Status.Boot(now)
	glog.Infof("buggy: boot profile %s", r.Profile.Name)
	var errs fx.AggregatedError
	errs.Add(r.Output.Release())
	errs.Add(r.Aim.Home(now))
	return errs.Aggregate()
}

// Input assembles lines received from one source and posts each
// completed line into the loop. Every source needs its own Input.
type Input struct {
	lc     fx.LoopControl
	parser comm.Parser
}

// NewInput creates an Input posting to the loop.
func NewInput(lc fx.LoopControl) *Input {
	return &Input{lc: lc}
}

// Write consumes received bytes. A partial line stays buffered until
// the rest arrives from the same source.
func (in *Input) Write(data []byte) {
	posted := false
	in.parser.ParseBytes(data, func(line string) {
		in.lc.PostMessage(&proto.LineMessage{Line: line})
		posted = true
	})
	if posted {
		in.lc.TriggerNext()
	}
}

// InputLine posts a complete payload, e.g. an MQTT command, into the
// loop. It never joins a line buffered by another source.
func InputLine(lc fx.LoopControl, line string) {
	NewInput(lc).Write([]byte(line + comm.Terminator))
}

// Attach connects a link to the robot: lines received are posted to the
// loop, status lines are written back. It returns the func detaching it.
func (r *Robot) Attach(lc fx.LoopControl, link *comm.Link) func() {
	in := NewInput(lc)
	link.Handler = comm.HandleBytesFunc(func(_ context.Context, data []byte) {
		in.Write(data)
	})
	return r.links.Add(link)
}

// Links returns the attached links.
func (r *Robot) Links() *Links {
	return &r.links
}

// Snapshot is a point in time view of the robot state.
type Snapshot struct {
	Mode      motion.Mode
	Left      uint8
	Right     uint8
	Global    uint8
	Aim       int
	Sweeping  bool
	Range     ranging.Reading
	Threshold int
	Latched   bool
}

// Snapshot reads the current state. It must be called from the loop or
// while the loop is not running.
func (r *Robot) Snapshot() Snapshot {
	s := Snapshot{
		Mode:      r.Motion.Mode(),
		Global:    r.Motion.GlobalIntensity(),
		Aim:       r.Aim.Current(),
		Sweeping:  r.Aim.Sweeping(),
		Range:     r.Sensor.Last(),
		Threshold: r.Safety.Threshold(),
		Latched:   r.Watchdog.Latched(),
	}
	s.Left, s.Right = r.Motion.Intensities()
	return s
}

// Clock advances a fixed step per call, for driving the loop in
// simulations faster than real time.
type Clock struct {
	Now  time.Time
	Step time.Duration
}

// Tick returns the current time and advances it.
func (c *Clock) Tick() time.Time {
	now := c.Now
	c.Now = c.Now.Add(c.Step)
	return now
}
