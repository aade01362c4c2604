package ucx

import (
	"io"
	"sync"
	"time"
)

// TestPort is a scripted, non-blocking Port for tests. SendData queues bytes
// the engine will read, as if the module had sent them; writes are captured
// for assertions. Exported so packages built on the engine can test their
// command layers without hardware.
type TestPort struct {
	mu         sync.Mutex
	rx         []byte
	writes     []byte
	readErr    error
	writeErr   error
	closed     bool
	closeCount int
}

// NewTestPort creates a new test port.
func NewTestPort() *TestPort {
	return &TestPort{}
}

// SendData queues data for subsequent reads. This simulates receiving bytes
// from the module; chunk boundaries are invisible to the reader, matching a
// real byte stream.
func (p *TestPort) SendData(data string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rx = append(p.rx, data...)
}

// FailReads makes every following Read return err.
func (p *TestPort) FailReads(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.readErr = err
}

// FailWrites makes every following Write return err. Pass nil to heal.
func (p *TestPort) FailWrites(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.writeErr = err
}

// Writes returns everything written so far.
func (p *TestPort) Writes() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return string(p.writes)
}

// CloseCount reports how many times Close ran.
func (p *TestPort) CloseCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closeCount
}

func (p *TestPort) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.readErr != nil {
		return 0, p.readErr
	}
	if p.closed {
		return 0, io.ErrClosedPipe
	}
	n := copy(b, p.rx)
	p.rx = p.rx[n:]
	return n, nil
}

func (p *TestPort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.writeErr != nil {
		return 0, p.writeErr
	}
	if p.closed {
		return 0, io.ErrClosedPipe
	}
	p.writes = append(p.writes, b...)
	return len(b), nil
}

func (p *TestPort) Available() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.rx)
}

func (p *TestPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.closeCount++
	return nil
}

// TestClock is a virtual Clock: Sleep advances time instead of waiting, and
// an optional hook observes each advance so a test can feed a TestPort at
// chosen instants. Timing behavior becomes exact and instant.
type TestClock struct {
	mu      sync.Mutex
	start   time.Time
	now     time.Time
	onSleep func(d time.Duration)
}

// NewTestClock creates a clock starting at a fixed arbitrary instant.
func NewTestClock() *TestClock {
	start := time.Unix(1000, 0)
	return &TestClock{start: start, now: start}
}

// OnSleep registers a hook called after every Sleep advance, from the
// sleeping goroutine.
func (c *TestClock) OnSleep(f func(d time.Duration)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onSleep = f
}

// Advance moves virtual time without a sleep.
func (c *TestClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Elapsed reports how much virtual time has passed since construction.
func (c *TestClock) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now.Sub(c.start)
}

func (c *TestClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *TestClock) Sleep(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	hook := c.onSleep
	c.mu.Unlock()
	if hook != nil {
		hook(d)
	}
}
