package at

import (
	"bytes"
)

// ScanLine extracts one complete line from the head of data.
//
// A line ends at LF; the terminator and a trailing CR are not part of the
// token, so both CRLF and bare LF framing work. advance reports how many
// bytes the caller must discard and is 0 when no complete line is buffered
// yet. An empty token with a nonzero advance is a blank spacer line.
//
// ScanLine assumes "No Echo" mode (ATE0). With echo enabled, the echoed
// command text would come back as a line of its own and be misclassified.
func ScanLine(data []byte) (advance int, token []byte) {
	i := bytes.IndexByte(data, '\n')
	if i < 0 {
		return 0, nil
	}
	return i + 1, dropCR(data[:i])
}

func dropCR(data []byte) []byte {
	if len(data) > 0 && data[len(data)-1] == '\r' {
		return data[:len(data)-1]
	}
	return data
}
