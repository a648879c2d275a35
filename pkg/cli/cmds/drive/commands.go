package drive

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/buggy.go/pkg/cli/sh"
	"github.com/robotalks/buggy.go/pkg/l0/comm"
	"github.com/robotalks/buggy.go/pkg/proto"
	"github.com/robotalks/buggy.go/pkg/status"
)

// Line builds the protocol line of a command with optional numeric
// argument args[0] bounded by [0, max].
func Line(op proto.Op, args []string, max int) (string, error) {
	if len(args) == 0 {
		return string(op), nil
	}
	val, err := strconv.Atoi(args[0])
	if err != nil {
		return "", fmt.Errorf("Invalid %s argument: %v", op, err)
	}
	if val < 0 || val > max {
		return "", fmt.Errorf("%s argument %d out of range [0, %d]", op, val, max)
	}
	return comm.CompactLine(string(op), val), nil
}

// Switch builds OP,ON|OFF.
func Switch(op proto.Op, args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("ON or OFF required")
	}
	switch arg := strings.ToUpper(args[0]); arg {
	case "ON", "OFF":
		return comm.ArgLine(string(op), arg), nil
	}
	return "", fmt.Errorf("Invalid %s argument %q", op, args[0])
}

func moveCmd(name, alias string, op proto.Op) ishell.Cmd {
	return ishell.Cmd{
		Name:    name,
		Aliases: []string{alias},
		Help:    "[SPEED(0-255)]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			line, err := Line(op, c.Args, 255)
			if err != nil {
				c.Err(err)
				return
			}
			sh.Send(c, line)
		}),
	}
}

func switchCmd(name string, op proto.Op) ishell.Cmd {
	return ishell.Cmd{
		Name: name,
		Help: "ON|OFF",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			line, err := Switch(op, c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			sh.Send(c, line)
		}),
	}
}

var (
	// ForwardCmd drives forward.
	ForwardCmd = moveCmd("forward", "f", proto.OpForward)
	// BackwardCmd drives backward.
	BackwardCmd = moveCmd("backward", "b", proto.OpBackward)
	// LeftCmd spins left.
	LeftCmd = moveCmd("left", "l", proto.OpLeft)
	// RightCmd spins right.
	RightCmd = moveCmd("right", "r", proto.OpRight)
	// ArcLeftCmd arcs left.
	ArcLeftCmd = moveCmd("arc.left", "al", proto.OpArcLeft)
	// ArcRightCmd arcs right.
	ArcRightCmd = moveCmd("arc.right", "ar", proto.OpArcRight)

	// StopCmd stops motion.
	StopCmd = ishell.Cmd{
		Name:    "stop",
		Aliases: []string{"s"},
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.Send(c, string(proto.OpStop))
		}),
	}

	// AimCmd points the sensor.
	AimCmd = ishell.Cmd{
		Name:    "aim",
		Aliases: []string{"p"},
		Help:    "DEGREES(0-180)",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("DEGREES required"))
				return
			}
			line, err := Line(proto.OpAim, c.Args, 180)
			if err != nil {
				c.Err(err)
				return
			}
			sh.Send(c, line)
		}),
	}

	// ThresholdCmd sets the safety stop distance.
	ThresholdCmd = ishell.Cmd{
		Name:    "threshold",
		Aliases: []string{"t"},
		Help:    "CM, 0 disables",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("CM required"))
				return
			}
			line, err := Line(proto.OpThreshold, c.Args, 400)
			if err != nil {
				c.Err(err)
				return
			}
			sh.Send(c, line)
		}),
	}

	// PingCmd measures distance.
	PingCmd = ishell.Cmd{
		Name: "ping",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.DoCommand(c, string(proto.OpPing), comm.MatchPrefix(status.PrefixDist+","))
		}),
	}

	// QueryCmd queries the structured status.
	QueryCmd = ishell.Cmd{
		Name:    "query",
		Aliases: []string{"q"},
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.DoCommand(c, string(proto.OpQuery), comm.MatchPrefix(status.PrefixULS+" "))
		}),
	}

	// StatCmd requests one STAT line.
	StatCmd = ishell.Cmd{
		Name: "stat",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.DoCommand(c, string(proto.OpStat), comm.MatchPrefix(status.PrefixStat+","))
		}),
	}

	// FirmwareHelpCmd lists firmware commands.
	FirmwareHelpCmd = ishell.Cmd{
		Name: "commands",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.DoCommand(c, string(proto.OpHelp), comm.MatchPrefix("CMD:"))
		}),
	}

	// VerboseCmd toggles periodic status.
	VerboseCmd = switchCmd("verbose", proto.OpVerbose)
	// SweepCmd toggles sensor sweep.
	SweepCmd = switchCmd("sweep", proto.OpSweep)
)

func init() {
	sh.AddCmds(
		&ForwardCmd,
		&BackwardCmd,
		&LeftCmd,
		&RightCmd,
		&ArcLeftCmd,
		&ArcRightCmd,
		&StopCmd,
		&AimCmd,
		&ThresholdCmd,
		&PingCmd,
		&QueryCmd,
		&StatCmd,
		&FirmwareHelpCmd,
		&VerboseCmd,
		&SweepCmd,
	)
}
