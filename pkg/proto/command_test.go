package proto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	p := NewParser(Tiers{Fast: 230, Slow: 150})
	testCases := []struct {
		line string
		cmd  Command
		ok   bool
	}{
		{"S", Command{Op: OpStop}, true},
		{"STOP", Command{Op: OpStop}, true},
		{"F", Command{Op: OpForward, Arg: DefaultSpeed}, true},
		{"F200", Command{Op: OpForward, Arg: 200, HasArg: true}, true},
		{"F,200", Command{Op: OpForward, Arg: 200, HasArg: true}, true},
		{"F999", Command{Op: OpForward, Arg: 255, HasArg: true}, true},
		{"F-5", Command{Op: OpForward, Arg: 0, HasArg: true}, true},
		{"Fxyz", Command{Op: OpForward, Arg: DefaultSpeed}, true},
		{"F99999999999999999999", Command{Op: OpForward, Arg: 255, HasArg: true}, true},
		{"F,FAST", Command{Op: OpForward, Arg: 230, HasArg: true}, true},
		{"F,SLOW", Command{Op: OpForward, Arg: 150, HasArg: true}, true},
		{"B,SLOW", Command{Op: OpBackward, Arg: 150, HasArg: true}, true},
		{"L,SLOW", Command{Op: OpLeft, Arg: 150, HasArg: true}, true},
		{"R,FAST", Command{Op: OpRight, Arg: 230, HasArg: true}, true},
		{"SPINL", Command{Op: OpLeft, Arg: DefaultSpeed}, true},
		{"SPINR", Command{Op: OpRight, Arg: DefaultSpeed}, true},
		{"AL", Command{Op: OpArcLeft}, true},
		{"AR180", Command{Op: OpArcRight, Arg: 180, HasArg: true}, true},
		{"P", Command{Op: OpAim, Arg: DefaultAim}, true},
		{"P200", Command{Op: OpAim, Arg: 180, HasArg: true}, true},
		{"SERVO,45", Command{Op: OpAim, Arg: 45, HasArg: true}, true},
		{"T30", Command{Op: OpThreshold, Arg: 30, HasArg: true}, true},
		{"T-3", Command{Op: OpThreshold, Arg: 0, HasArg: true}, true},
		{"T", Command{Op: OpThreshold}, true},
		{"Q", Command{Op: OpQuery}, true},
		{"H", Command{Op: OpHelp}, true},
		{"PING", Command{Op: OpPing}, true},
		{"STAT?", Command{Op: OpStat}, true},
		{"HB", Command{Op: OpHeartbeat}, true},
		{"VERBOSE,ON", Command{Op: OpVerbose, Arg: 1, HasArg: true}, true},
		{"VERBOSE,OFF", Command{Op: OpVerbose, HasArg: true}, true},
		{"SWEEP,ON", Command{Op: OpSweep, Arg: 1, HasArg: true}, true},
		{"s", Command{}, false},
		{"STAT", Command{}, false},
		{"SX", Command{}, false},
		{"VERBOSE", Command{}, false},
		{"XYZ", Command{}, false},
		{"", Command{}, false},
	}
	for _, tc := range testCases {
		t.Run(tc.line, func(t *testing.T) {
			cmd, ok := p.Parse(tc.line)
			require.Equal(t, tc.ok, ok)
			require.Equal(t, tc.cmd, cmd)
		})
	}
}

func TestNormalize(t *testing.T) {
	p := NewParser(Tiers{Fast: 200, Slow: 120})
	require.Equal(t, "F200", p.Normalize("F,FAST"))
	require.Equal(t, "B120", p.Normalize("B,SLOW"))
	require.Equal(t, "P10", p.Normalize("SERVO,10"))
	require.Equal(t, "F50", p.Normalize("F50"))
}

func TestIsMove(t *testing.T) {
	for _, op := range []Op{OpStop, OpForward, OpBackward, OpLeft, OpRight, OpArcLeft, OpArcRight} {
		require.True(t, op.IsMove(), string(op))
	}
	for _, op := range []Op{OpPing, OpQuery, OpStat, OpHeartbeat, OpAim, OpThreshold, OpSweep} {
		require.False(t, op.IsMove(), string(op))
	}
}
