// Package ucx drives the AT command protocol of u-blox u-connectXpress
// modules over a raw byte transport: it turns the asynchronous, chunked
// receive stream into synchronous request/response exchanges while
// forwarding unsolicited result codes (URCs) that the module may emit at any
// time, including in the middle of a response.
package ucx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/u-blox/ucxclient-go/at"
)

// Client is one logical connection to a module: the transport handle, the
// receive buffer, the callback registrations and the single in-flight
// command. Construct it with Open.
//
// Methods are safe for concurrent use, but commands are strictly
// half-duplex: Begin claims the instance until the matching End, and the
// goroutine that called Begin is the one that must walk the response via
// NextLine/End. Other goroutines contending for Begin wait up to their own
// timeout budget and then fail with ErrBusy.
type Client struct {
	config Config
	port   Port
	clock  Clock

	// slot serializes command exchanges and all transport reads. Held from
	// a successful Begin until the matching End, and briefly by the URC
	// pump while idle.
	slot chan struct{}

	// cur is the in-flight exchange. Its fields are owned by the slot
	// holder; the pointer itself is atomic so misuse is detected instead of
	// tearing.
	cur atomic.Pointer[transaction]

	// rx is owned by whoever holds slot.
	rx *lineBuffer

	closed      atomic.Bool
	loopRunning atomic.Bool

	cbMu       sync.RWMutex
	urcHandler URCHandler
	log        *zap.Logger

	errMu   sync.Mutex
	lastErr string
}

// Open dials the transport and returns a ready Client. The engine keeps no
// state across connections; everything is initialized fresh here and
// released by Close. A failed dial leaves nothing behind.
func Open(ctx context.Context, config Config) (*Client, error) {
	config.setDefaults()
	if err := config.validate(); err != nil {
		return nil, err
	}
	port, err := config.Dialer.Dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("dial transport: %w", err)
	}
	if port == nil {
		return nil, ErrNotConnected
	}
	c := &Client{
		config: config,
		port:   port,
		clock:  config.Clock,
		slot:   make(chan struct{}, 1),
		rx:     newLineBuffer(config.RxBufferSize),
		log:    config.Logger,
	}
	c.log.Info("client open",
		zap.Duration("timeout", config.Timeout),
		zap.Duration("poll_interval", config.PollInterval),
		zap.Int("rx_buffer", config.RxBufferSize))
	return c, nil
}

// OpenSerial opens a local serial port with 8N1 framing and default engine
// settings.
func OpenSerial(ctx context.Context, portName string, baudRate int) (*Client, error) {
	return Open(ctx, Config{
		Dialer: &SerialDialer{PortName: portName, BaudRate: baudRate},
	})
}

// Begin formats and writes one command, claiming the instance until End.
//
// Input left over from earlier traffic is drained and classified first, so
// a new command never inherits bytes from a previous one. A deadline on ctx
// overrides the configured Timeout for this command; the deadline then
// bounds the wait for the instance and the response both. Without one, the
// wait for the instance gets one Timeout and the response another, measured
// from the write.
//
// On a write failure the instance is released immediately and the error
// wraps ErrTransportWrite; the client stays usable for the next command.
func (c *Client) Begin(ctx context.Context, command string, args ...any) error {
	if c.closed.Load() {
		return c.fail(ErrClosed)
	}
	wire, err := at.Format(command, args...)
	if err != nil {
		return c.fail(err)
	}

	deadline, override := ctx.Deadline()
	if !override {
		deadline = c.clock.Now().Add(c.config.Timeout)
	}
	if err := c.acquire(ctx, deadline); err != nil {
		return c.fail(err)
	}
	if c.closed.Load() { // closed while waiting for the slot
		c.release()
		return c.fail(ErrClosed)
	}

	// Whatever arrived since the last exchange is unsolicited territory.
	if err := c.drainPort(); err != nil {
		c.release()
		return c.fail(fmt.Errorf("transport read failed: %w", err))
	}
	if err := c.processIdle(); err != nil {
		c.logger().Warn("discarded stale input", zap.Error(err))
	}

	c.logger().Debug("tx", zap.String("command", command))
	if err := c.writeAll(wire); err != nil {
		c.release()
		return c.fail(fmt.Errorf("%w: %v", ErrTransportWrite, err))
	}

	txDeadline := deadline
	if !override {
		txDeadline = c.clock.Now().Add(c.config.Timeout)
	}
	c.cur.Store(&transaction{
		command:  command,
		expect:   at.ResponsePrefix(command),
		deadline: txDeadline,
		state:    stateSent,
	})
	return nil
}

// NextLine returns the next response data line, driving the engine until one
// arrives, the command completes, or the budget runs out. io.EOF reports a
// completed command regardless of its status; End returns that status.
// Unsolicited lines encountered on the way are dispatched, never returned
// here.
func (c *Client) NextLine() (string, error) {
	tx := c.cur.Load()
	if tx == nil {
		if c.closed.Load() {
			return "", c.fail(ErrClosed)
		}
		return "", c.fail(ErrNoCommand)
	}
	if tx.read == len(tx.lines) && !tx.terminal() {
		c.collect(tx, func() bool { return tx.read < len(tx.lines) })
	}
	if tx.read < len(tx.lines) {
		line := tx.lines[tx.read]
		tx.read++
		return line, nil
	}
	return "", io.EOF
}

// End completes the in-flight command: it drives the engine to the final
// result, a timeout, or a fault, releases the instance and returns the
// response lines in arrival order together with the terminal status. The
// status is nil for OK, a *DeviceError for a device-reported failure,
// ErrTimeout, ErrBufferOverflow, or a wrapped transport error. Lines
// collected before a failure are returned alongside it.
//
// Input past the final result stays buffered for the next pump; a trailing
// URC is delivered by ProcessURCs or Loop after End returns, not during it.
func (c *Client) End() ([]string, error) {
	tx := c.cur.Swap(nil)
	if tx == nil {
		if c.closed.Load() {
			return nil, c.fail(ErrClosed)
		}
		return nil, c.fail(ErrNoCommand)
	}
	c.collect(tx, func() bool { return false })
	c.release()

	lines := tx.lines
	if err := tx.status; err != nil {
		switch {
		case errors.Is(err, ErrTimeout):
			c.logger().Warn("command timed out", zap.String("command", tx.command))
		case errors.Is(err, ErrBufferOverflow):
			c.logger().Error("command overflowed receive buffer", zap.String("command", tx.command))
		default:
			c.logger().Debug("command failed", zap.String("command", tx.command), zap.Error(err))
		}
		return lines, c.fail(err)
	}
	c.logger().Debug("command ok", zap.String("command", tx.command), zap.Int("lines", len(lines)))
	return lines, nil
}

// Execute runs one complete exchange: Begin, collect every response line,
// End.
func (c *Client) Execute(ctx context.Context, command string, args ...any) ([]string, error) {
	if err := c.Begin(ctx, command, args...); err != nil {
		return nil, err
	}
	return c.End()
}

// ProcessURCs drains pending input and dispatches any unsolicited lines.
// This is the pump for cooperative single-threaded schedulers and the
// delivery path for URCs arriving between commands. While a command is in
// flight it does nothing; the read/classify loop already dispatches inline.
func (c *Client) ProcessURCs() error {
	if c.closed.Load() {
		return c.fail(ErrClosed)
	}
	select {
	case c.slot <- struct{}{}:
	default:
		return nil // command in flight owns the stream
	}
	defer c.release()
	if c.closed.Load() {
		return c.fail(ErrClosed)
	}
	if err := c.drainPort(); err != nil {
		return c.fail(fmt.Errorf("transport read failed: %w", err))
	}
	if err := c.processIdle(); err != nil {
		return c.fail(err)
	}
	return nil
}

// Loop runs the URC pump until ctx is done or the client closes, yielding
// one poll interval between rounds. Use it with the multi-threaded model:
// commands run on their own goroutines while Loop keeps unsolicited traffic
// flowing between them. Only one Loop may run per client. A clean Close
// stops the loop with a nil error.
func (c *Client) Loop(ctx context.Context) error {
	if c.closed.Load() {
		return c.fail(ErrClosed)
	}
	if !c.loopRunning.CompareAndSwap(false, true) {
		return ErrLoopRunning
	}
	defer c.loopRunning.Store(false)
	c.logger().Debug("urc pump started")
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.ProcessURCs(); err != nil {
			if errors.Is(err, ErrClosed) {
				return nil
			}
			if !errors.Is(err, ErrBufferOverflow) {
				return err
			}
			c.logger().Warn("urc pump", zap.Error(err))
		}
		c.clock.Sleep(c.config.PollInterval)
	}
}

// SetURCHandler registers the receiver for unsolicited result codes. A nil
// handler restores the default, which drops them. Safe to call at any time,
// including mid-command.
func (c *Client) SetURCHandler(h URCHandler) {
	c.cbMu.Lock()
	c.urcHandler = h
	c.cbMu.Unlock()
}

// SetLogger replaces the engine's diagnostic logger. nil restores the nop
// logger.
func (c *Client) SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	c.cbMu.Lock()
	c.log = l
	c.cbMu.Unlock()
}

// LastError returns the text of the most recent failure on this instance,
// or the empty string. The text survives until the next failure overwrites
// it.
func (c *Client) LastError() string {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return c.lastErr
}

// Close releases the transport and clears the handler registrations. It is
// idempotent: the first call wins, later calls return nil without touching
// the port. Closing is a hard stop; an in-flight command observes the
// closed flag and completes with ErrClosed, and every later use of the
// client reports ErrClosed.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.logger().Info("client closed")
	c.cbMu.Lock()
	c.urcHandler = nil
	c.cbMu.Unlock()
	if err := c.port.Close(); err != nil {
		return c.fail(fmt.Errorf("close transport: %w", err))
	}
	return nil
}

// acquire claims the command slot, retrying at lockRetryInterval until the
// deadline. The wait never outlives the caller's budget: past the deadline
// the answer is a definite ErrBusy.
func (c *Client) acquire(ctx context.Context, deadline time.Time) error {
	for {
		select {
		case c.slot <- struct{}{}:
			return nil
		default:
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !c.clock.Now().Before(deadline) {
			return ErrBusy
		}
		c.clock.Sleep(lockRetryInterval)
	}
}

func (c *Client) release() {
	<-c.slot
}

// collect drives the read/classify loop until the exchange is terminal or
// stop reports true. Buffered lines are always classified before the
// deadline check, so a final result that arrived in time beats a
// concurrently expiring timeout.
func (c *Client) collect(tx *transaction, stop func() bool) {
	for {
		if c.closed.Load() {
			tx.finish(ErrClosed)
			return
		}
		if err := c.drainPort(); err != nil {
			c.processResponse(tx)
			tx.finish(fmt.Errorf("transport read failed: %w", err))
			return
		}
		if c.rx.buffered() > 0 {
			if tx.state == stateSent {
				tx.state = stateCollecting
			}
			c.processResponse(tx)
		}
		if tx.terminal() || stop() {
			return
		}
		if c.rx.full() {
			c.rx.reset()
			tx.finish(ErrBufferOverflow)
			return
		}
		if !c.clock.Now().Before(tx.deadline) {
			tx.finish(ErrTimeout)
			return
		}
		c.clock.Sleep(c.config.PollInterval)
	}
}

// processResponse classifies buffered lines for the active exchange until
// the final result or the buffer runs dry. Lines beyond the final result
// stay buffered; they belong to whatever comes next. URC lines completed in
// the same drain as the final result are dispatched first, in stream order.
func (c *Client) processResponse(tx *transaction) {
	for !tx.terminal() {
		line, ok := c.rx.next()
		if !ok {
			return
		}
		switch at.Classify(line, tx.expect) {
		case at.KindNone:
			// spacer between lines
		case at.KindOK:
			tx.finish(nil)
		case at.KindError:
			code, _ := at.ErrorCode(line)
			tx.finish(&DeviceError{Code: code, Line: line})
		case at.KindData:
			c.logger().Debug("rx", zap.String("line", line))
			tx.lines = append(tx.lines, line)
		case at.KindURC:
			if err := c.handleURC(line); err != nil {
				tx.finish(err)
			}
		}
	}
}

// processIdle classifies buffered lines while no command is active. Stray
// final results (answers nobody is waiting for) are dropped; everything
// else is unsolicited.
func (c *Client) processIdle() error {
	var firstErr error
	for {
		line, ok := c.rx.next()
		if !ok {
			break
		}
		switch at.Classify(line, "") {
		case at.KindNone:
		case at.KindOK, at.KindError:
			c.logger().Debug("stray final result dropped", zap.String("line", line))
		default:
			if err := c.handleURC(line); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	if c.rx.full() {
		c.rx.reset()
		if firstErr == nil {
			firstErr = ErrBufferOverflow
		}
	}
	return firstErr
}

// drainPort moves whatever the transport has ready into the receive buffer,
// up to remaining capacity. It never sleeps: one read always runs, further
// reads only while the port reports more pending.
func (c *Client) drainPort() error {
	for {
		space := c.rx.space()
		if len(space) == 0 {
			return nil
		}
		n, err := c.port.Read(space)
		if n > 0 {
			c.rx.grow(n)
		}
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		if n < len(space) && c.port.Available() == 0 {
			return nil
		}
	}
}

// writeAll sends the whole request. A short write without an error from the
// port is still a failure here.
func (c *Client) writeAll(p []byte) error {
	n, err := c.port.Write(p)
	if err != nil {
		return err
	}
	if n < len(p) {
		return fmt.Errorf("short write: %d of %d bytes", n, len(p))
	}
	return nil
}

// fail records err as the instance's last error and passes it through.
func (c *Client) fail(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if len(msg) > lastErrorLimit {
		msg = msg[:lastErrorLimit]
	}
	c.errMu.Lock()
	c.lastErr = msg
	c.errMu.Unlock()
	return err
}

func (c *Client) logger() *zap.Logger {
	c.cbMu.RLock()
	defer c.cbMu.RUnlock()
	return c.log
}
