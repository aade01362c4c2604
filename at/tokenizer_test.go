package at_test

import (
	"testing"

	"github.com/u-blox/ucxclient-go/at"
)

func TestScanLine(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "Simple command response",
			input:    "+UWSSC: 1,\"office\",-60\r\nOK\r\n",
			expected: []string{"+UWSSC: 1,\"office\",-60", "OK"},
		},
		{
			name:     "Extended error response",
			input:    "+CME ERROR: 10\r\n",
			expected: []string{"+CME ERROR: 10"},
		},
		{
			name:     "Free-form identification response",
			input:    "NINA-W152\r\n02.00\r\nOK\r\n",
			expected: []string{"NINA-W152", "02.00", "OK"},
		},
		{
			name:     "URC mixed into a response",
			input:    "+UEWLU: 0\r\n+UWSSC: 2,\"lab\",-71\r\nOK\r\n",
			expected: []string{"+UEWLU: 0", "+UWSSC: 2,\"lab\",-71", "OK"},
		},
		{
			name:     "Blank spacer lines survive as empty tokens",
			input:    "\r\n\r\nOK\r\n",
			expected: []string{"", "", "OK"},
		},
		{
			name:     "Bare LF framing",
			input:    "+UEWLD: 0\nOK\n",
			expected: []string{"+UEWLD: 0", "OK"},
		},
		{
			name:     "Incomplete tail stays buffered",
			input:    "OK\r\n+UEWLU: 0",
			expected: []string{"OK"},
		},
		{
			name:     "No terminator yields nothing",
			input:    "+UWSSC: 1,\"off",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tokens []string
			data := []byte(tt.input)
			for {
				advance, token := at.ScanLine(data)
				if advance == 0 {
					break
				}
				tokens = append(tokens, string(token))
				data = data[advance:]
			}

			if len(tokens) != len(tt.expected) {
				t.Fatalf("Expected %d tokens, got %d.\nExpected: %v\nGot: %v",
					len(tt.expected), len(tokens), tt.expected, tokens)
			}
			for i, expected := range tt.expected {
				if tokens[i] != expected {
					t.Errorf("Token %d: expected %q, got %q", i, expected, tokens[i])
				}
			}
		})
	}
}

func TestScanLineAdvanceCoversTerminator(t *testing.T) {
	advance, token := at.ScanLine([]byte("OK\r\nrest"))
	if advance != 4 {
		t.Errorf("Expected advance 4, got %d", advance)
	}
	if string(token) != "OK" {
		t.Errorf("Expected token %q, got %q", "OK", string(token))
	}
}
