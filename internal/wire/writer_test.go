package wire_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/eternalApril/starlight/internal/wire"
)

func TestEncoder_Write(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected string
	}{
		{
			name:     "Simple",
			input:    []string{"OK"},
			expected: "OK\r\n",
		},
		{
			name:     "Empty line",
			input:    []string{""},
			expected: "\r\n",
		},
		{
			name:     "Several lines",
			input:    []string{"1", "(nil)", "five ten"},
			expected: "1\r\n(nil)\r\nfive ten\r\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			enc := wire.NewEncoder(&buf)

			for _, line := range tt.input {
				if err := enc.Write(line); err != nil {
					t.Fatalf("Write() failed: %v", err)
				}
			}

			if buf.Len() != 0 {
				t.Errorf("Write() sent %q before Flush()", buf.String())
			}

			if err := enc.Flush(); err != nil {
				t.Fatalf("Flush() failed: %v", err)
			}

			if buf.String() != tt.expected {
				t.Errorf("Write() got = %q, want %q", buf.String(), tt.expected)
			}
		})
	}
}

func TestEncoder_WriteError(t *testing.T) {
	errWriter := &errorWriter{}
	enc := wire.NewEncoder(errWriter)

	err := enc.Write("test")
	if err != nil {
		t.Fatalf("Write() failed: %v", err)
	}

	err = enc.Flush()
	if err == nil {
		t.Error("Expected error from Flush(), but got nil")
	}
}

type errorWriter struct{}

func (e *errorWriter) Write(_ []byte) (n int, err error) {
	return 0, io.ErrClosedPipe
}
