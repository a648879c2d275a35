package comm

import (
	"io"
	"strconv"
	"strings"
)

// Terminator ends every outbound line.
const Terminator = "\n"

// WriteLine writes line with the terminator in one Write.
func WriteLine(w io.Writer, line string) (int, error) {
	if len(line) > MaxLineLen {
		return 0, ErrLineTooLong
	}
	return io.WriteString(w, line+Terminator)
}

// CompactLine builds a compact command like "F200" or "P90".
func CompactLine(op string, arg int) string {
	return op + strconv.Itoa(arg)
}

// ArgLine builds a comma separated command like "VERBOSE,ON".
func ArgLine(op string, args ...string) string {
	return strings.Join(append([]string{op}, args...), ",")
}

// HasPrefix reports whether line starts with the token prefix followed by
// a separator or the end of line.
func HasPrefix(line, prefix string) bool {
	if !strings.HasPrefix(line, prefix) {
		return false
	}
	if len(line) == len(prefix) {
		return true
	}
	switch line[len(prefix)] {
	case ',', ' ':
		return true
	}
	return false
}
