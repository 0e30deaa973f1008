package server

import (
	"net"
	"sync"

	"github.com/eternalApril/starlight/internal/wire"
)

// Peer represents a connected client.
// It wraps a network connection and provides synchronized methods for reading and writing lines
type Peer struct {
	conn   net.Conn
	reader *wire.Decoder
	writer *wire.Encoder
	mu     sync.Mutex
}

// NewPeer initializes a new client peer from a network connection.
// Lines longer than maxLine bytes are rejected by ReadLine
func NewPeer(conn net.Conn, maxLine int) *Peer {
	return &Peer{
		conn:   conn,
		reader: wire.NewDecoder(conn, maxLine),
		writer: wire.NewEncoder(conn),
	}
}

// Send writes one response line to the client buffer.
// This method is thread-safe and can be called from multiple goroutines
func (p *Peer) Send(line string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.writer.Write(line)
}

// ReadLine reads the next request line from the client's input stream
func (p *Peer) ReadLine() (string, error) {
	return p.reader.Read()
}

// Close terminates the underlying network connection
func (p *Peer) Close() error {
	return p.conn.Close()
}

// Flush sends all buffered data to the client
func (p *Peer) Flush() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.writer.Flush()
}

// InputBuffered returns the number of bytes that can be read from the current buffer
func (p *Peer) InputBuffered() int {
	return p.reader.Buffered()
}

// RemoteAddr returns the client address
func (p *Peer) RemoteAddr() string {
	return p.conn.RemoteAddr().String()
}
