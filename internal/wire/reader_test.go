package wire_test

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/eternalApril/starlight/internal/wire"
)

func TestRead(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "LF terminated",
			input: "SET foo bar\nGET foo\n",
			want:  []string{"SET foo bar", "GET foo"},
		},
		{
			name:  "CRLF terminated",
			input: "SET foo bar\r\nGET foo\r\n",
			want:  []string{"SET foo bar", "GET foo"},
		},
		{
			name:  "Empty lines kept",
			input: "\r\nDBSIZE\r\n\n",
			want:  []string{"", "DBSIZE", ""},
		},
		{
			name:  "Unterminated last line",
			input: "GET foo\r\nbye",
			want:  []string{"GET foo", "bye"},
		},
		{
			name:  "No input",
			input: "",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := wire.NewDecoder(strings.NewReader(tt.input), 0)

			var got []string
			for {
				line, err := r.Read()
				if err == io.EOF {
					break
				}
				if err != nil {
					t.Fatalf("Read() unexpected error %v", err)
				}
				got = append(got, line)
			}

			if len(got) != len(tt.want) {
				t.Fatalf("Read() got %q, want %q", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Read() line %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestReadLineTooLong(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		max     int
		wantErr error
	}{
		{"Exactly max", "abcd\r\n", 4, nil},
		{"One over max", "abcde\r\n", 4, wire.ErrLineTooLong},
		{"Longer than reader buffer", strings.Repeat("x", 10000) + "\n", 8192, wire.ErrLineTooLong},
		{"Long but allowed", strings.Repeat("x", 10000) + "\n", 20000, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := wire.NewDecoder(strings.NewReader(tt.input), tt.max)

			_, err := r.Read()
			if tt.wantErr == nil && err != nil {
				t.Errorf("Read() unexpected error %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Read() expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}
