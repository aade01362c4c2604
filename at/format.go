package at

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidCommand is returned by Format for command text or arguments that
// cannot be placed on the wire as-is.
var ErrInvalidCommand = errors.New("invalid AT command")

// Format serializes a command and its arguments into wire bytes, terminated
// with CR. Arguments are joined with "=" and "," the way extended commands
// expect: strings are quoted with backslash escapes for '"' and '\', bools
// become 0/1, byte slices are hex encoded, integers print in decimal.
//
//	Format("AT+UWSC", 0, 2, "my ssid")  ->  AT+UWSC=0,2,"my ssid"<CR>
//
// The command text itself must be plain printable ASCII with no embedded CR
// or LF; anything else reports ErrInvalidCommand before touching the wire.
func Format(cmd string, args ...any) ([]byte, error) {
	cmd = strings.TrimSpace(cmd)
	if cmd == "" {
		return nil, fmt.Errorf("%w: empty command", ErrInvalidCommand)
	}
	for _, r := range cmd {
		if r < 0x20 || r > 0x7e {
			return nil, fmt.Errorf("%w: unprintable byte in %q", ErrInvalidCommand, cmd)
		}
	}

	var b strings.Builder
	b.WriteString(cmd)
	for i, arg := range args {
		if i == 0 {
			b.WriteByte('=')
		} else {
			b.WriteByte(',')
		}
		if err := writeArg(&b, arg); err != nil {
			return nil, err
		}
	}
	b.WriteByte('\r')
	return []byte(b.String()), nil
}

func writeArg(b *strings.Builder, arg any) error {
	switch v := arg.(type) {
	case string:
		b.WriteByte('"')
		for i := 0; i < len(v); i++ {
			if v[i] == '"' || v[i] == '\\' {
				b.WriteByte('\\')
			}
			b.WriteByte(v[i])
		}
		b.WriteByte('"')
	case int:
		b.WriteString(strconv.Itoa(v))
	case int64:
		b.WriteString(strconv.FormatInt(v, 10))
	case uint:
		b.WriteString(strconv.FormatUint(uint64(v), 10))
	case uint64:
		b.WriteString(strconv.FormatUint(v, 10))
	case bool:
		if v {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	case []byte:
		b.WriteString(hex.EncodeToString(v))
	default:
		return fmt.Errorf("%w: unsupported argument type %T", ErrInvalidCommand, arg)
	}
	return nil
}
