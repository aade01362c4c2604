package at

import (
	"strconv"
	"strings"
)

const (
	// Terminal Control
	CRLF = "\r\n"

	// Final result codes
	OK       = "OK"
	ERROR    = "ERROR"
	CmeError = "+CME ERROR:"
)

// Kind identifies the role of one complete line within a command exchange.
type Kind int

const (
	KindNone  Kind = iota // blank spacer line
	KindOK                // final result, command succeeded
	KindError             // final result, command failed
	KindData              // response data belonging to the active command
	KindURC               // unsolicited result code
)

// Classify identifies the nature of one line received from the module.
//
// expect is the data-line prefix the active command answers with (see
// ResponsePrefix); pass the empty string when no command is in flight or the
// command has no extended form. Final results are recognized first. Extended
// ("+NAME:") lines are response data only when they carry the expected
// prefix; any other extended line is unsolicited. Plain lines are response
// data, because commands such as AT+GMM answer with bare text.
func Classify(line, expect string) Kind {
	switch {
	case line == "":
		return KindNone
	case line == OK:
		return KindOK
	case line == ERROR, strings.HasPrefix(line, CmeError):
		return KindError
	case strings.HasPrefix(line, "+"):
		if expect != "" && strings.HasPrefix(line, expect) {
			return KindData
		}
		return KindURC
	default:
		return KindData
	}
}

// ErrorCode extracts the numeric code from an extended error final result
// such as "+CME ERROR: 100". ok is false for a plain ERROR line or any line
// without a parsable code.
func ErrorCode(line string) (code int, ok bool) {
	rest, found := strings.CutPrefix(line, CmeError)
	if !found {
		return 0, false
	}
	code, err := strconv.Atoi(strings.TrimSpace(rest))
	if err != nil {
		return 0, false
	}
	return code, true
}

// ResponsePrefix derives the data-line prefix a command's responses carry.
// Extended commands answer with lines tagged by their own name, so
// "AT+UWSSC=1" yields "+UWSSC:". Basic commands such as "ATI" answer
// free-form and yield the empty prefix.
func ResponsePrefix(cmd string) string {
	upper := strings.ToUpper(strings.TrimSpace(cmd))
	rest, found := strings.CutPrefix(upper, "AT")
	if !found || !strings.HasPrefix(rest, "+") {
		return ""
	}
	if i := strings.IndexAny(rest, "=?"); i >= 0 {
		rest = rest[:i]
	}
	return rest + ":"
}
