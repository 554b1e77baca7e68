//go:build unix
// +build unix

package reactor

import (
	"errors"
	"os"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/fzft/lineserve/log"
)

// EventLoop drives the whole server from one thread: poll every registered
// descriptor, accept what is pending on the listener, dispatch ready
// connections by state, then sweep out the dead ones. All socket calls made
// from here are non-blocking; the poll call is the only place the thread
// parks.
type EventLoop struct {
	ln        *Listener
	table     *connTable
	handler   Handler
	bufferCap int
	maxConns  int
}

func NewEventLoop(ln *Listener, handler Handler, cfg Config) *EventLoop {
	return &EventLoop{
		ln:        ln,
		table:     newConnTable(ln.Fd()),
		handler:   handler,
		bufferCap: cfg.BufferCap,
		maxConns:  cfg.MaxConns,
	}
}

// NumConns is the number of live connections.
func (l *EventLoop) NumConns() int {
	return l.table.size()
}

// RunOnce performs a single poll cycle, blocking at most timeoutMs waiting
// for readiness. A timeout with nothing ready is a normal outcome; it is
// what lets Run reassess its shutdown predicate. A poll failure other than
// EINTR is server-fatal and returned.
func (l *EventLoop) RunOnce(timeoutMs int) error {
	n, err := unix.Poll(l.table.pfds, timeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return nil
		}
		return os.NewSyscallError("poll", err)
	}
	if n == 0 {
		return nil
	}

	// The listener is always serviced before existing connections.
	if l.table.pfds[0].Revents&readEvents != 0 {
		l.acceptPending()
	}

	var dead []int
	for i := 0; i < l.table.size(); i++ {
		re := l.table.revents(i)
		if re == 0 {
			continue
		}
		c := l.table.conns[i]

		alive := true
		if re&unix.POLLNVAL != 0 {
			log.Logger.Warn("invalid descriptor in poll set", zap.Int("fd", c.fd))
			alive = false
		} else {
			switch c.State() {
			case StateReading:
				// Errors and hangups are funneled through the read
				// handler, whose syscall reports them precisely.
				alive = c.handleReadable()
				if alive && c.State() == StateWriting {
					l.table.setInterest(i, true)
				}
			case StateWriting:
				alive = c.handleWritable()
			default:
				alive = false
			}
		}
		if !alive {
			dead = append(dead, i)
		}
	}

	// Sweep from the highest index down so earlier removals do not shift
	// the indices still pending removal.
	for j := len(dead) - 1; j >= 0; j-- {
		l.table.remove(dead[j])
	}

	return nil
}

// acceptPending drains the accept queue. Several connections may have
// become ready behind a single readiness event, so keep accepting until
// the socket reports would-block.
func (l *EventLoop) acceptPending() {
	for {
		c, err := l.ln.Accept(l.bufferCap)
		if err != nil {
			if IsWouldBlock(err) {
				return
			}
			if errors.Is(err, unix.EINTR) || errors.Is(err, unix.ECONNABORTED) {
				continue
			}
			// Per-accept failures (e.g. fd exhaustion) do not take the
			// server down; the listener stays registered.
			log.Logger.Warn("accept failed", zap.Error(err))
			return
		}

		if l.table.size() >= l.maxConns {
			log.Logger.Warn("rejecting connection",
				zap.String("ip", c.Ip()), zap.Error(ErrTooManyConns))
			c.Close()
			continue
		}

		c.handler = l.handler
		l.table.register(c)
	}
}

// Run repeats RunOnce until shouldStop reports true, then tears everything
// down. This is the only unbounded loop in the core.
func (l *EventLoop) Run(timeoutMs int, shouldStop func() bool) error {
	defer l.Close()
	for !shouldStop() {
		if err := l.RunOnce(timeoutMs); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the listener and every remaining connection.
func (l *EventLoop) Close() {
	l.ln.Close()
	if err := l.table.closeAll(); err != nil {
		log.Logger.Debug("failed to close connections", zap.Error(err))
	}
}
