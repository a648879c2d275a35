package proto

import (
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/buggy.go/pkg/framework"
	"github.com/robotalks/buggy.go/pkg/l0/comm"
	"github.com/robotalks/buggy.go/pkg/motion"
	"github.com/robotalks/buggy.go/pkg/ranging"
)

// Motion is the motion controller as seen by the dispatcher.
type Motion interface {
	SetMode(motion.Mode)
	SetSpeedOverride(uint8)
	ClearSpeedOverride()
	Stop() error
}

// Aim is the servo positioner as seen by the dispatcher.
type Aim interface {
	SetTarget(deg int, now time.Time) error
	StartSweep()
	StopSweep(now time.Time) error
	IsSettled(now time.Time) bool
}

// Ranger measures distance on demand.
type Ranger interface {
	Measure(now time.Time) ranging.Reading
}

// Safety configures the safety monitor.
type Safety interface {
	SetThreshold(cm int)
}

// Liveness is the watchdog as seen by the dispatcher.
type Liveness interface {
	Feed(now time.Time)
	Kick(now time.Time) bool
}

// Reporter emits replies and status.
type Reporter interface {
	Stat(now time.Time)
	Query(now time.Time)
	Dist(r ranging.Reading, now time.Time)
	Help(now time.Time)
	SetVerbose(on bool)
}

// Targets groups the components commands are routed to.
type Targets struct {
	Motion   Motion
	Aim      Aim
	Ranger   Ranger
	Safety   Safety
	Liveness Liveness
	Reporter Reporter
}

// LineMessage carries one complete line into the loop. Lines are
// assembled per source before posting so input from different links
// never interleaves within a line.
type LineMessage struct {
	Line string
}

// NewMessage implements fx.Message.
func (m *LineMessage) NewMessage() fx.Message {
	return &LineMessage{}
}

// Dispatcher assembles lines and executes commands.
type Dispatcher struct {
	parser  *Parser
	targets Targets
	slow    uint8
	lines   comm.Parser
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(tiers Tiers, targets Targets) *Dispatcher {
	return &Dispatcher{parser: NewParser(tiers), targets: targets, slow: tiers.Slow}
}

// Parser returns the command parser.
func (d *Dispatcher) Parser() *Parser {
	return d.parser
}

// FeedByte accumulates one byte and dispatches a completed line.
func (d *Dispatcher) FeedByte(b byte, now time.Time) error {
	if pr := d.lines.Parse(b); pr.Ready {
		return d.Dispatch(pr.Line, now)
	}
	return nil
}

// Feed accumulates bytes of a single source.
func (d *Dispatcher) Feed(data []byte, now time.Time) error {
	var errs fx.AggregatedError
	for _, b := range data {
		errs.Add(d.FeedByte(b, now))
	}
	return errs.Aggregate()
}

// Dispatch executes one line. Unknown lines are ignored.
func (d *Dispatcher) Dispatch(line string, now time.Time) error {
	cmd, ok := d.parser.Parse(line)
	if !ok {
		glog.V(2).Infof("proto: ignore %q", line)
		return nil
	}
	glog.V(3).Infof("proto: %q => %+v", line, cmd)
	return d.Execute(cmd, now)
}

// Execute routes a command.
func (d *Dispatcher) Execute(cmd Command, now time.Time) error {
	t := d.targets
	if cmd.Op.IsMove() {
		// Stop always goes through, even when the watchdog is latched.
		if allowed := t.Liveness.Kick(now); !allowed && cmd.Op != OpStop {
			glog.V(2).Infof("proto: watchdog latched, drop %s", cmd.Op)
			return nil
		}
	}
	switch cmd.Op {
	case OpStop:
		return t.Motion.Stop()
	case OpForward:
		if uint8(cmd.Arg) <= d.slow {
			d.move(motion.ForwardSlow, cmd)
		} else {
			d.move(motion.ForwardFast, cmd)
		}
	case OpBackward:
		d.move(motion.BackwardSlow, cmd)
	case OpLeft:
		d.move(motion.SpinLeft, cmd)
	case OpRight:
		d.move(motion.SpinRight, cmd)
	case OpArcLeft:
		d.arc(motion.ArcLeft, cmd)
	case OpArcRight:
		d.arc(motion.ArcRight, cmd)
	case OpAim:
		var errs fx.AggregatedError
		errs.Add(t.Aim.StopSweep(now), t.Aim.SetTarget(cmd.Arg, now))
		return errs.Aggregate()
	case OpThreshold:
		t.Safety.SetThreshold(cmd.Arg)
	case OpQuery:
		t.Reporter.Query(now)
	case OpHelp:
		t.Reporter.Help(now)
	case OpStat:
		t.Reporter.Stat(now)
	case OpPing:
		var r ranging.Reading
		if t.Aim.IsSettled(now) {
			r = t.Ranger.Measure(now)
		}
		t.Reporter.Dist(r, now)
	case OpVerbose:
		t.Reporter.SetVerbose(cmd.Arg != 0)
	case OpHeartbeat:
		t.Liveness.Feed(now)
	case OpSweep:
		if cmd.Arg != 0 {
			t.Aim.StartSweep()
			return nil
		}
		return t.Aim.StopSweep(now)
	}
	return nil
}

func (d *Dispatcher) move(m motion.Mode, cmd Command) {
	d.targets.Motion.SetMode(m)
	d.targets.Motion.SetSpeedOverride(uint8(cmd.Arg))
}

func (d *Dispatcher) arc(m motion.Mode, cmd Command) {
	d.targets.Motion.SetMode(m)
	if cmd.HasArg {
		d.targets.Motion.SetSpeedOverride(uint8(cmd.Arg))
	} else {
		d.targets.Motion.ClearSpeedOverride()
	}
}

// Control implements fx.Controller. It drains all input received before
// this iteration.
func (d *Dispatcher) Control(cc fx.ControlContext) error {
	var errs fx.AggregatedError
	now := cc.Time()
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mc fx.MessageProcessingContext) {
		if msg, ok := mc.CurrentMessage().(*LineMessage); ok {
			errs.Add(d.Dispatch(msg.Line, now))
			mc.MessageTaken()
		}
	}))
	return errs.Aggregate()
}
