// Package proto parses the line protocol and routes commands to the
// robot components.
package proto

import (
	"strconv"
	"strings"
)

// Op is a canonical command.
type Op string

// Canonical ops.
const (
	OpStop      Op = "S"
	OpForward   Op = "F"
	OpBackward  Op = "B"
	OpLeft      Op = "L"
	OpRight     Op = "R"
	OpArcLeft   Op = "AL"
	OpArcRight  Op = "AR"
	OpAim       Op = "P"
	OpThreshold Op = "T"
	OpQuery     Op = "Q"
	OpHelp      Op = "H"
	OpPing      Op = "PING"
	OpStat      Op = "STAT?"
	OpVerbose   Op = "VERBOSE"
	OpHeartbeat Op = "HB"
	OpSweep     Op = "SWEEP"
)

// IsMove reports whether the op expresses operator intent to move.
func (o Op) IsMove() bool {
	switch o {
	case OpStop, OpForward, OpBackward, OpLeft, OpRight, OpArcLeft, OpArcRight:
		return true
	}
	return false
}

// Command is a parsed canonical command.
type Command struct {
	Op Op
	// Arg is the clamped argument, or the default when HasArg is false.
	// Switch commands use 1 for ON and 0 for OFF.
	Arg    int
	HasArg bool
}

// Defaults of lenient numeric arguments.
const (
	DefaultSpeed     = 160
	DefaultAim       = 90
	DefaultThreshold = 0
)

// Tiers are the speeds legacy aliases translate to.
type Tiers struct {
	Fast uint8
	Slow uint8
}

// Parser normalizes aliases and parses canonical lines.
type Parser struct {
	DefaultSpeed int
	aliases      map[string]string
}

// NewParser creates a Parser with the legacy alias table for tiers.
func NewParser(tiers Tiers) *Parser {
	fast, slow := strconv.Itoa(int(tiers.Fast)), strconv.Itoa(int(tiers.Slow))
	return &Parser{
		DefaultSpeed: DefaultSpeed,
		aliases: map[string]string{
			"STOP":   "S",
			"SPINL":  "L",
			"SPINR":  "R",
			"F,FAST": "F" + fast,
			"F,SLOW": "F" + slow,
			"B,FAST": "B" + fast,
			"B,SLOW": "B" + slow,
			"L,FAST": "L" + fast,
			"L,SLOW": "L" + slow,
			"R,FAST": "R" + fast,
			"R,SLOW": "R" + slow,
		},
	}
}

// Normalize maps a legacy line onto its canonical form.
func (p *Parser) Normalize(line string) string {
	if canonical, ok := p.aliases[line]; ok {
		return canonical
	}
	if deg := strings.TrimPrefix(line, "SERVO,"); deg != line {
		return string(OpAim) + deg
	}
	return line
}

// Parse parses a trimmed line. Unknown lines return false.
func (p *Parser) Parse(line string) (Command, bool) {
	line = p.Normalize(line)
	switch Op(line) {
	case OpStop, OpQuery, OpHelp, OpPing, OpStat, OpHeartbeat:
		return Command{Op: Op(line)}, true
	}
	if op, on, ok := parseSwitch(line, OpVerbose, OpSweep); ok {
		arg := 0
		if on {
			arg = 1
		}
		return Command{Op: op, Arg: arg, HasArg: true}, true
	}
	for _, op := range []Op{OpArcLeft, OpArcRight} {
		if arg := strings.TrimPrefix(line, string(op)); arg != line {
			n, ok := parseArg(arg)
			return Command{Op: op, Arg: clamp(n, 0, 255), HasArg: ok}, true
		}
	}
	if len(line) == 0 {
		return Command{}, false
	}
	op, arg := Op(line[:1]), line[1:]
	n, ok := parseArg(arg)
	switch op {
	case OpForward, OpBackward, OpLeft, OpRight:
		if !ok {
			n = p.DefaultSpeed
		}
		return Command{Op: op, Arg: clamp(n, 0, 255), HasArg: ok}, true
	case OpAim:
		if !ok {
			n = DefaultAim
		}
		return Command{Op: op, Arg: clamp(n, 0, 180), HasArg: ok}, true
	case OpThreshold:
		if !ok {
			n = DefaultThreshold
		}
		if n < 0 {
			n = 0
		}
		return Command{Op: op, Arg: n, HasArg: ok}, true
	}
	return Command{}, false
}

func parseSwitch(line string, ops ...Op) (Op, bool, bool) {
	for _, op := range ops {
		switch line {
		case string(op) + ",ON":
			return op, true, true
		case string(op) + ",OFF":
			return op, false, true
		}
	}
	return "", false, false
}

// parseArg reads a leading integer, tolerating one leading comma.
// Trailing garbage is ignored. It returns false when no digits are found.
func parseArg(s string) (int, bool) {
	s = strings.TrimSpace(strings.TrimPrefix(s, ","))
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		// out of range, saturate
		if s[0] == '-' {
			return -1 << 31, true
		}
		return 1<<31 - 1, true
	}
	return n, true
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
