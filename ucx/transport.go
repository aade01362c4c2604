package ucx

import (
	"context"
	"io"
	"time"
)

//go:generate go tool mockgen -destination=mock_transport.go -package=ucx github.com/u-blox/ucxclient-go/ucx Port,Dialer

// Port is one half-duplex byte channel to a u-connectXpress module.
//
// Read must not block: it drains whatever the transport has ready and
// returns (0, nil) when nothing is pending. Write attempts to send all of p;
// a short write without an error is treated as a fault by the engine.
// Available is an advisory lower bound on the bytes the next Read would
// return; adapters that cannot know (serial ports, for one) report 0 and the
// engine discovers data by reading.
type Port interface {
	io.ReadWriteCloser
	Available() int
}

// Dialer opens a Port to a module.
//
// Dialer abstracts how the connection is created (a local serial port, a
// ucxbridge endpoint, or a test double) and is used during Open only. Once a
// Port is obtained, the Dialer is no longer needed.
type Dialer interface {
	// Dial creates and returns a connected Port. It may perform blocking
	// operations and should respect cancellation and deadlines provided by
	// the context.
	Dial(ctx context.Context) (Port, error)
}

// Clock supplies the time primitives the engine polls with. Now feeds
// timeout accounting only, never display. Sleep is the engine's sole
// suspension point: in the cooperative scheduling model this is where
// control returns to the surrounding loop so the transport can make
// progress, and tests substitute a virtual clock here to pin down timing
// behavior exactly.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type systemClock struct{}

func (systemClock) Now() time.Time        { return time.Now() }
func (systemClock) Sleep(d time.Duration) { time.Sleep(d) }
