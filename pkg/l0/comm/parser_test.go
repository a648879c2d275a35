package comm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type parserTestSequence struct {
	in     string
	expect []string
	state  ParseState
}

type parserTestSequenceBuilder struct {
	seq []parserTestSequence
}

func parserTestSequences() *parserTestSequenceBuilder {
	return &parserTestSequenceBuilder{}
}

func (b *parserTestSequenceBuilder) on(in string) *parserTestSequenceBuilder {
	b.seq = append(b.seq, parserTestSequence{in: in, state: StateIdle})
	return b
}

func (b *parserTestSequenceBuilder) lines(lines ...string) *parserTestSequenceBuilder {
	b.seq[len(b.seq)-1].expect = lines
	return b
}

func (b *parserTestSequenceBuilder) receiving() *parserTestSequenceBuilder {
	b.seq[len(b.seq)-1].state = StateReceiving
	return b
}

func (b *parserTestSequenceBuilder) overflow() *parserTestSequenceBuilder {
	b.seq[len(b.seq)-1].state = StateOverflow
	return b
}

func (b *parserTestSequenceBuilder) build() []parserTestSequence {
	return b.seq
}

func TestParser(t *testing.T) {
	long := strings.Repeat("x", MaxLineLen)
	testCases := []struct {
		name string
		seq  []parserTestSequence
	}{
		{
			name: "single line",
			seq:  parserTestSequences().on("F200\n").lines("F200").build(),
		},
		{
			name: "crlf and blank lines",
			seq:  parserTestSequences().on("S\r\n\r\n\nHB\r").lines("S", "HB").build(),
		},
		{
			name: "split across chunks",
			seq: parserTestSequences().
				on("VERB").receiving().
				on("OSE,O").receiving().
				on("N\n").lines("VERBOSE,ON").
				build(),
		},
		{
			name: "trim spaces",
			seq:  parserTestSequences().on("  P90 \n   \n").lines("P90").build(),
		},
		{
			name: "overflow drops excess",
			seq: parserTestSequences().
				on(long).receiving().
				on("yyy").overflow().
				on("\nQ\n").lines(long, "Q").
				build(),
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var p Parser
			for _, s := range tc.seq {
				var got []string
				p.ParseBytes([]byte(s.in), func(line string) {
					got = append(got, line)
				})
				require.Equal(t, s.expect, got, "input %q", s.in)
				require.Equal(t, s.state, p.State(), "input %q", s.in)
			}
		})
	}
}

func TestParserDropped(t *testing.T) {
	var p Parser
	p.ParseBytes([]byte(strings.Repeat("a", MaxLineLen+5)), func(string) {})
	require.Equal(t, 5, p.Dropped())
}

func TestLineHelpers(t *testing.T) {
	require.Equal(t, "F200", CompactLine("F", 200))
	require.Equal(t, "SWEEP,ON", ArgLine("SWEEP", "ON"))
	require.True(t, HasPrefix("DIST,12.0", "DIST"))
	require.True(t, HasPrefix("STAT mode=S", "STAT"))
	require.True(t, HasPrefix("PING", "PING"))
	require.False(t, HasPrefix("STATUS", "STAT"))

	var sb strings.Builder
	_, err := WriteLine(&sb, "HB")
	require.NoError(t, err)
	require.Equal(t, "HB\n", sb.String())
	_, err = WriteLine(&sb, strings.Repeat("x", MaxLineLen+1))
	require.ErrorIs(t, err, ErrLineTooLong)
}
