package ucx

import (
	"time"
)

// Command exchange states. A nil transaction on the Client is the idle
// state; terminal is absorbing: once entered, the status and collected
// lines are immutable.
type txState int

const (
	stateSent txState = iota
	stateCollecting
	stateTerminal
)

// transaction is one request/response exchange between Begin and End. It is
// owned by the goroutine holding the command slot and is never shared.
type transaction struct {
	command  string
	expect   string
	deadline time.Time
	state    txState
	lines    []string
	read     int   // NextLine cursor into lines
	status   error // nil means OK once terminal
}

func (t *transaction) terminal() bool {
	return t.state == stateTerminal
}

// finish records the terminal status. The first terminal status wins; later
// calls are ignored.
func (t *transaction) finish(status error) {
	if t.state == stateTerminal {
		return
	}
	t.state = stateTerminal
	t.status = status
}
