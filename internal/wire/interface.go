package wire

// Reader yields request lines without their terminators
type Reader interface {
	Read() (string, error)
}

// Writer buffers response lines until Flush
type Writer interface {
	Write(line string) error
	Flush() error
}

var (
	_ Reader = (*Decoder)(nil)
	_ Writer = (*Encoder)(nil)
)
