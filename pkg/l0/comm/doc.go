// Package comm provides L0 line protocol support.
package comm

// L0 protocol is communicated between the buggy firmware and the host
// controller as newline terminated ASCII lines in both directions.
//
// Lines are bounded (MaxLineLen). Bytes beyond the bound are dropped until
// the terminator so a garbled line never grows unbounded. CR and LF both
// terminate a line and empty lines are ignored, which makes CRLF terminals
// work without special casing.
//
// There is no framing beyond lines and no checksum. Unknown or malformed
// lines are discarded by the receiver.
//
// Producer: firmware (replies, STAT, EVENT, BOOT)
// Consumer: host controller (commands, HB)
