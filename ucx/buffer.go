package ucx

import (
	"github.com/u-blox/ucxclient-go/at"
)

// lineBuffer accumulates raw transport bytes and hands out complete lines.
// Capacity is fixed at construction and never grows; a full buffer with no
// line terminator in it is the overflow condition the engine must report.
type lineBuffer struct {
	buf []byte
	n   int
}

func newLineBuffer(capacity int) *lineBuffer {
	return &lineBuffer{buf: make([]byte, capacity)}
}

// space returns the writable tail for the next transport read. Empty when
// the buffer is full.
func (b *lineBuffer) space() []byte {
	return b.buf[b.n:]
}

// grow marks count bytes of space as filled.
func (b *lineBuffer) grow(count int) {
	b.n += count
}

// next extracts the oldest complete line, compacting the remainder to the
// front. ok is false when no complete line is buffered.
func (b *lineBuffer) next() (line string, ok bool) {
	advance, token := at.ScanLine(b.buf[:b.n])
	if advance == 0 {
		return "", false
	}
	line = string(token)
	b.n = copy(b.buf, b.buf[advance:b.n])
	return line, true
}

func (b *lineBuffer) buffered() int {
	return b.n
}

func (b *lineBuffer) full() bool {
	return b.n == len(b.buf)
}

// reset discards everything buffered.
func (b *lineBuffer) reset() {
	b.n = 0
}
