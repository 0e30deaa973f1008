package wire

import (
	"bufio"
	"io"
)

const lineEnding = "\r\n"

// Encoder writes response lines into an output stream
type Encoder struct {
	writer *bufio.Writer
}

// NewEncoder initializes an Encoder with a buffered writer
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{
		writer: bufio.NewWriter(w)}
}

// Write appends line and its terminator to the buffer. Call Flush to send it
func (e *Encoder) Write(line string) error {
	if _, err := e.writer.WriteString(line); err != nil {
		return err
	}
	_, err := e.writer.WriteString(lineEnding)
	return err
}

// Flush sends all buffered lines
func (e *Encoder) Flush() error {
	return e.writer.Flush()
}
