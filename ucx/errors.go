package ucx

import (
	"errors"
	"fmt"
)

var (
	// ErrNoDialer is returned when a Client is constructed without a Dialer.
	//
	// This indicates a configuration error. A Dialer is required in order to
	// establish a connection to the module.
	ErrNoDialer = errors.New("no dialer configured")

	// ErrInvalidConfig is returned for configuration values the engine
	// cannot work with, such as negative buffer sizes.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrNotConnected is returned when the dialer produced no usable port.
	ErrNotConnected = errors.New("transport not connected")

	// ErrClosed is returned for any operation on a Client after Close.
	//
	// Closing is the only way to abort an in-flight command: the command
	// completes with this error instead of a device status.
	ErrClosed = errors.New("client closed")

	// ErrBusy is returned by Begin when another command still holds the
	// instance after the caller's timeout budget is spent. Commands are
	// strictly half-duplex; there is no pipelining.
	ErrBusy = errors.New("command in flight")

	// ErrNoCommand is returned by NextLine and End when no command is in
	// flight on the instance.
	ErrNoCommand = errors.New("no command in flight")

	// ErrTimeout is returned when the final result line does not arrive
	// within the effective timeout, measured from the moment the request
	// was written.
	ErrTimeout = errors.New("command timed out")

	// ErrBufferOverflow is returned when the receive buffer fills without a
	// line terminator, or an unsolicited line exceeds the URC capacity. The
	// pending bytes are discarded; a truncated line is never delivered.
	ErrBufferOverflow = errors.New("receive buffer overflow")

	// ErrTransportWrite wraps write failures while sending a command. The
	// command is over but the instance stays usable for the next one.
	ErrTransportWrite = errors.New("transport write failed")

	// ErrLoopRunning is returned by Loop when the URC pump is already
	// running on another goroutine.
	ErrLoopRunning = errors.New("loop already running")
)

// DeviceError is the terminal status of a command the device rejected. Code
// carries the numeric value of an extended "+CME ERROR: <n>" final result,
// passed through uninterpreted; it is zero for a plain ERROR line. Line
// preserves the raw final result text.
type DeviceError struct {
	Code int
	Line string
}

func (e *DeviceError) Error() string {
	if e.Line != "" {
		return fmt.Sprintf("device error: %s", e.Line)
	}
	return "device error"
}
