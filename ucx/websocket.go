package ucx

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/gorilla/websocket"
)

// WebSocketDialer connects to a ucxbridge endpoint, which relays a remote
// serial port over binary WebSocket messages.
type WebSocketDialer struct {
	// URL of the bridge endpoint, for example "ws://host:8765/serial".
	URL string
}

func (d *WebSocketDialer) Dial(ctx context.Context) (Port, error) {
	if d.URL == "" {
		return nil, fmt.Errorf("%w: websocket url required", ErrInvalidConfig)
	}
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, d.URL, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %s)", d.URL, err, resp.Status)
		}
		return nil, fmt.Errorf("dial %s: %w", d.URL, err)
	}
	p := &webSocketPort{
		conn:     conn,
		incoming: make(chan []byte, 32),
		done:     make(chan struct{}),
	}
	go p.readPump()
	return p, nil
}

// webSocketPort turns the message-oriented connection into the byte stream
// the engine expects. A pump goroutine moves messages into a buffered
// channel; Read drains the channel without blocking and keeps the tail of a
// partially consumed message. Available counts those buffered bytes, which
// lets the engine drain a burst of messages in one pass.
type webSocketPort struct {
	conn     *websocket.Conn
	incoming chan []byte
	done     chan struct{}

	mu       sync.Mutex
	pending  []byte
	buffered int
	readErr  error
	closed   bool
}

func (p *webSocketPort) readPump() {
	for {
		_, msg, err := p.conn.ReadMessage()
		if err != nil {
			p.mu.Lock()
			p.readErr = err
			p.mu.Unlock()
			close(p.incoming)
			return
		}
		if len(msg) == 0 {
			continue
		}
		p.mu.Lock()
		p.buffered += len(msg)
		p.mu.Unlock()
		select {
		case p.incoming <- msg:
		case <-p.done:
			return
		}
	}
}

func (p *webSocketPort) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, net.ErrClosed
	}
	if len(p.pending) == 0 {
		select {
		case msg, ok := <-p.incoming:
			if !ok {
				if p.readErr != nil {
					return 0, p.readErr
				}
				return 0, net.ErrClosed
			}
			p.pending = msg
		default:
			return 0, nil
		}
	}
	n := copy(b, p.pending)
	p.pending = p.pending[n:]
	p.buffered -= n
	return n, nil
}

// Write sends one binary message per call. The engine is the only writer
// (the command slot serializes it), which satisfies the one-concurrent-
// writer rule of the underlying connection.
func (p *webSocketPort) Write(b []byte) (int, error) {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return 0, net.ErrClosed
	}
	if err := p.conn.WriteMessage(websocket.BinaryMessage, b); err != nil {
		return 0, err
	}
	return len(b), nil
}

func (p *webSocketPort) Available() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buffered
}

func (p *webSocketPort) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()
	close(p.done)
	return p.conn.Close()
}
