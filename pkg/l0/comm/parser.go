package comm

import "strings"

// MaxLineLen is the maximum number of bytes kept for one line.
const MaxLineLen = 63

// ParseState is the state of the line parser.
type ParseState int

const (
	// StateIdle means no bytes of a line received yet.
	StateIdle ParseState = iota
	// StateReceiving means a line is being accumulated.
	StateReceiving
	// StateOverflow means the line exceeded MaxLineLen and further
	// bytes are dropped until the terminator.
	StateOverflow
)

// ParseResult indicates the result after one parsing step.
type ParseResult struct {
	State ParseState
	// Line is the trimmed line when Ready.
	Line  string
	Ready bool
}

// Parser assembles lines from bytes.
type Parser struct {
	buf     [MaxLineLen]byte
	n       int
	state   ParseState
	dropped int
}

// State gets the current state.
func (p *Parser) State() ParseState {
	return p.state
}

// Dropped returns the number of bytes dropped by overflow so far.
func (p *Parser) Dropped() int {
	return p.dropped
}

// Reset discards the partial line.
func (p *Parser) Reset() {
	p.n, p.state = 0, StateIdle
}

// Parse consumes one byte.
func (p *Parser) Parse(b byte) (pr ParseResult) {
	switch b {
	case '\r', '\n':
		if p.n > 0 {
			if line := strings.TrimSpace(string(p.buf[:p.n])); line != "" {
				pr.Line, pr.Ready = line, true
			}
		}
		p.Reset()
	default:
		if p.n < len(p.buf) {
			p.buf[p.n] = b
			p.n++
			p.state = StateReceiving
		} else {
			p.dropped++
			p.state = StateOverflow
		}
	}
	pr.State = p.state
	return
}

// ParseBytes consumes bytes and calls fn for every completed line.
func (p *Parser) ParseBytes(data []byte, fn func(string)) {
	for _, b := range data {
		if pr := p.Parse(b); pr.Ready {
			fn(pr.Line)
		}
	}
}
