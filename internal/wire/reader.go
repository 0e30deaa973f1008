package wire

import (
	"bufio"
	"bytes"
	"errors"
	"io"
)

var (
	ErrLineTooLong = errors.New("line exceeds maximum length")
)

// DefaultMaxLineLength is used when NewDecoder receives a non-positive limit
const DefaultMaxLineLength = 8192

// Decoder splits a byte stream into lines terminated by LF or CRLF
type Decoder struct {
	rd      *bufio.Reader
	maxLine int
}

func NewDecoder(rd io.Reader, maxLine int) *Decoder {
	if maxLine <= 0 {
		maxLine = DefaultMaxLineLength
	}
	return &Decoder{rd: bufio.NewReader(rd), maxLine: maxLine}
}

// Read returns the next line without its terminator.
// A final unterminated line is returned before io.EOF
func (d *Decoder) Read() (string, error) {
	var line []byte

	for {
		chunk, err := d.rd.ReadSlice('\n')
		line = append(line, chunk...)

		// the terminator is not part of the limit
		if len(line) > d.maxLine+2 {
			return "", ErrLineTooLong
		}

		if err == nil {
			break
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if errors.Is(err, io.EOF) && len(line) > 0 {
			break
		}
		return "", err
	}

	line = bytes.TrimSuffix(line, []byte{'\n'})
	line = bytes.TrimSuffix(line, []byte{'\r'})

	if len(line) > d.maxLine {
		return "", ErrLineTooLong
	}

	return string(line), nil
}

// Buffered returns the number of bytes that can be read from the current buffer
func (d *Decoder) Buffered() int {
	return d.rd.Buffered()
}
