package at

import (
	"strings"
)

// Params splits the payload of a response or URC line into its
// comma-separated fields, honoring quoted strings. prefix, when non-empty,
// is stripped first:
//
//	Params(`+UWSSC: 1,"my ssid",-60`, "+UWSSC:")  ->  [`1`, `"my ssid"`, `-60`]
//
// Fields keep their quotes; use Unquote to take them off.
func Params(line, prefix string) []string {
	s := strings.TrimSpace(strings.TrimPrefix(line, prefix))
	if s == "" {
		return nil
	}

	var (
		fields []string
		field  strings.Builder
		quoted bool
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quoted && c == '\\' && i+1 < len(s):
			field.WriteByte(c)
			i++
			field.WriteByte(s[i])
		case c == '"':
			quoted = !quoted
			field.WriteByte(c)
		case c == ',' && !quoted:
			fields = append(fields, strings.TrimSpace(field.String()))
			field.Reset()
		default:
			field.WriteByte(c)
		}
	}
	return append(fields, strings.TrimSpace(field.String()))
}

// Unquote removes the surrounding quotes from a string field and undoes the
// backslash escapes Format applies. Unquoted input passes through untouched.
func Unquote(s string) string {
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return s
	}
	s = s[1 : len(s)-1]
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
