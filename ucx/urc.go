package ucx

import (
	"go.uber.org/zap"
)

// URCHandler receives unsolicited result codes, one complete line per call,
// in stream arrival order.
//
// HandleURC runs on the goroutine driving the engine, inline with the
// read/classify loop, so it must return promptly; a slow handler stalls
// response collection. It must not call back into the Client synchronously
// (the instance is held for the duration of the dispatch); hand follow-up
// commands to another goroutine instead. A panicking handler is contained
// and logged, and the engine carries on.
type URCHandler interface {
	HandleURC(line string)
}

// URCHandlerFunc adapts a plain function to the URCHandler interface.
type URCHandlerFunc func(line string)

func (f URCHandlerFunc) HandleURC(line string) { f(line) }

// handleURC enforces the URC capacity bound and dispatches one line.
func (c *Client) handleURC(line string) error {
	if len(line) > c.config.URCBufferSize {
		c.logger().Error("urc exceeds buffer capacity",
			zap.Int("length", len(line)),
			zap.Int("capacity", c.config.URCBufferSize))
		return ErrBufferOverflow
	}
	c.dispatchURC(line)
	return nil
}

// dispatchURC forwards one unsolicited line to the registered handler.
// Without a handler the line is dropped; unset handlers are a caller choice,
// not a backlog to retain.
func (c *Client) dispatchURC(line string) {
	c.cbMu.RLock()
	handler := c.urcHandler
	c.cbMu.RUnlock()
	if handler == nil {
		c.logger().Debug("urc dropped, no handler", zap.String("line", line))
		return
	}
	defer func() {
		if r := recover(); r != nil {
			c.logger().Error("urc handler panicked",
				zap.Any("panic", r),
				zap.String("line", line))
		}
	}()
	c.logger().Debug("urc", zap.String("line", line))
	handler.HandleURC(line)
}
