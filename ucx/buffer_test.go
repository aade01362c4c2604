package ucx

import "testing"

func feed(t *testing.T, b *lineBuffer, data string) {
	t.Helper()
	space := b.space()
	if len(space) < len(data) {
		t.Fatalf("no room to feed %d bytes, %d free", len(data), len(space))
	}
	copy(space, data)
	b.grow(len(data))
}

func TestLineBuffer(t *testing.T) {
	t.Run("Hands out complete lines in order", func(t *testing.T) {
		b := newLineBuffer(64)
		feed(t, b, "+UEWLU: 0\r\nOK\r\n")

		line, ok := b.next()
		if !ok || line != "+UEWLU: 0" {
			t.Fatalf("unexpected first line (%q, %v)", line, ok)
		}
		line, ok = b.next()
		if !ok || line != "OK" {
			t.Fatalf("unexpected second line (%q, %v)", line, ok)
		}
		if _, ok := b.next(); ok {
			t.Error("expected no further lines")
		}
	})

	t.Run("Partial line stays buffered until completed", func(t *testing.T) {
		b := newLineBuffer(64)
		feed(t, b, "+UUDPD")
		if _, ok := b.next(); ok {
			t.Fatal("incomplete line must not be handed out")
		}
		if got := b.buffered(); got != 6 {
			t.Fatalf("expected 6 bytes held, got %d", got)
		}

		feed(t, b, ": 1\r\n")
		line, ok := b.next()
		if !ok || line != "+UUDPD: 1" {
			t.Errorf("unexpected completed line (%q, %v)", line, ok)
		}
	})

	t.Run("Compaction preserves the remainder", func(t *testing.T) {
		b := newLineBuffer(16)
		feed(t, b, "AB\r\nCD")
		if line, ok := b.next(); !ok || line != "AB" {
			t.Fatalf("unexpected line (%q, %v)", line, ok)
		}
		if got := b.buffered(); got != 2 {
			t.Fatalf("expected 2 bytes after compaction, got %d", got)
		}
		feed(t, b, "\r\n")
		if line, ok := b.next(); !ok || line != "CD" {
			t.Errorf("remainder corrupted, got (%q, %v)", line, ok)
		}
	})

	t.Run("Bare LF terminates a line", func(t *testing.T) {
		b := newLineBuffer(16)
		feed(t, b, "OK\n")
		if line, ok := b.next(); !ok || line != "OK" {
			t.Errorf("unexpected line (%q, %v)", line, ok)
		}
	})

	t.Run("Full without a terminator, reset empties", func(t *testing.T) {
		b := newLineBuffer(8)
		feed(t, b, "abcdefgh")
		if !b.full() {
			t.Fatal("expected the buffer full")
		}
		if len(b.space()) != 0 {
			t.Fatal("expected no writable space")
		}
		if _, ok := b.next(); ok {
			t.Fatal("a full buffer without a terminator holds no line")
		}

		b.reset()
		if b.full() || b.buffered() != 0 {
			t.Error("reset must empty the buffer")
		}
		feed(t, b, "OK\r\n")
		if line, ok := b.next(); !ok || line != "OK" {
			t.Errorf("buffer unusable after reset, got (%q, %v)", line, ok)
		}
	})
}
