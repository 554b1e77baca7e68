//go:build unix
// +build unix

package reactor

import (
	"bytes"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/fzft/lineserve/log"
)

// ConnState tracks where a connection is in its single request/response
// cycle. Closing is terminal; there is no way back from Writing to Reading.
type ConnState uint8

const (
	StateReading ConnState = iota
	StateWriting
	StateClosing
)

func (s ConnState) String() string {
	switch s {
	case StateReading:
		return "reading"
	case StateWriting:
		return "writing"
	case StateClosing:
		return "closing"
	default:
		return "unknown"
	}
}

// socket is the raw I/O surface of a connection. Tests substitute a scripted
// implementation to exercise partial reads and writes deterministically.
type socket interface {
	Read(p []byte) (n int, err error)
	Write(p []byte) (n int, err error)
	Close() error
}

// fdSocket is the production socket: non-blocking syscalls on a real fd.
type fdSocket struct {
	fd     int
	closed bool
}

func (s *fdSocket) Read(p []byte) (int, error) {
	return unix.Read(s.fd, p)
}

func (s *fdSocket) Write(p []byte) (int, error) {
	return unix.Write(s.fd, p)
}

func (s *fdSocket) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return unix.Close(s.fd)
}

// Conn is one accepted client. The buffer has fixed capacity; read is the
// cursor of bytes received so far, written the cursor of bytes already sent.
// Invariant after every handler call: 0 <= written <= read <= cap.
type Conn struct {
	sock socket
	fd   int
	ip   string

	state      ConnState
	buf        []byte
	read       int
	written    int
	terminator byte

	handler Handler
}

func newConn(sock socket, fd int, ip string, bufferCap int) *Conn {
	return &Conn{
		sock:       sock,
		fd:         fd,
		ip:         ip,
		state:      StateReading,
		buf:        make([]byte, bufferCap),
		terminator: '\n',
	}
}

func (c *Conn) Fd() int {
	return c.fd
}

func (c *Conn) Ip() string {
	return c.ip
}

func (c *Conn) State() ConnState {
	return c.state
}

func (c *Conn) Close() error {
	c.state = StateClosing
	return c.sock.Close()
}

// handleReadable performs exactly one non-blocking receive. It reports
// whether the connection is still alive; a dead verdict means the caller
// must remove it from the table.
func (c *Conn) handleReadable() bool {
	if c.state != StateReading {
		// Spurious readiness, e.g. POLLHUP while mid-write. Nothing to do.
		return c.state != StateClosing
	}

	n, err := c.sock.Read(c.buf[c.read:])
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return true
		}
		log.Logger.Debug("read error", zap.Int("fd", c.fd), zap.Error(err))
		c.state = StateClosing
		return false
	}
	if n == 0 {
		// Zero-length read: the peer closed its end.
		c.state = StateClosing
		return false
	}

	c.read += n
	if bytes.IndexByte(c.buf[:c.read], c.terminator) >= 0 || c.read == len(c.buf) {
		// A full buffer without terminator forces the transition too,
		// truncating the request. See the buffer sizing note in DESIGN.md.
		c.enterWriting()
	}
	return true
}

// enterWriting hands the accumulated request to the protocol handler and
// stages its reply for transmission. Replies longer than the buffer are
// clamped to its capacity.
func (c *Conn) enterWriting() {
	if c.handler != nil {
		reply := c.handler.Serve(c.buf[:c.read])
		n := copy(c.buf, reply)
		if n < len(reply) {
			log.Logger.Warn("reply truncated to buffer capacity",
				zap.Int("fd", c.fd), zap.Int("reply", len(reply)), zap.Int("cap", len(c.buf)))
		}
		c.read = n
	}
	c.written = 0
	c.state = StateWriting
}

// handleWritable performs exactly one non-blocking send of the pending
// slice. Once the reply is fully flushed the connection transitions to
// Closing and the verdict is dead, so the sweep removes it.
func (c *Conn) handleWritable() bool {
	if c.state != StateWriting {
		return c.state != StateClosing
	}

	n, err := c.sock.Write(c.buf[c.written:c.read])
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return true
		}
		log.Logger.Debug("write error", zap.Int("fd", c.fd), zap.Error(err))
		c.state = StateClosing
		return false
	}

	c.written += n
	if c.written == c.read {
		c.state = StateClosing
		return false
	}
	return true
}
