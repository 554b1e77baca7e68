//go:build unix
// +build unix

package reactor

import (
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/fzft/lineserve/log"
)

const (
	readEvents  = unix.POLLIN | unix.POLLPRI
	writeEvents = unix.POLLOUT
)

// connTable owns the live connections and the pollfd registrations the
// poller consumes. The two slices move in lockstep: pfds[0] is always the
// listening socket, and conns[i] corresponds to pfds[i+1]. Every mutation
// touches both slices at matched positions or readiness results would map
// to the wrong connection.
type connTable struct {
	pfds  []unix.PollFd
	conns []*Conn
}

func newConnTable(listenFd int) *connTable {
	return &connTable{
		pfds: []unix.PollFd{{Fd: int32(listenFd), Events: readEvents}},
	}
}

// size is the number of live connections, the listener excluded.
func (t *connTable) size() int {
	return len(t.conns)
}

// register appends conn with read interest.
func (t *connTable) register(c *Conn) {
	t.conns = append(t.conns, c)
	t.pfds = append(t.pfds, unix.PollFd{Fd: int32(c.fd), Events: readEvents})
}

// setInterest switches the registration of connection i between read and
// write readiness, following the Reading -> Writing transition.
func (t *connTable) setInterest(i int, writable bool) {
	if writable {
		t.pfds[i+1].Events = writeEvents
	} else {
		t.pfds[i+1].Events = readEvents
	}
}

// revents returns the readiness results the last poll reported for
// connection i.
func (t *connTable) revents(i int) int16 {
	return t.pfds[i+1].Revents
}

// remove closes connection i's socket and drops it from both slices. Only
// the sweep step calls this, never a dispatch in flight, so indices stay
// valid for the whole readiness pass.
func (t *connTable) remove(i int) {
	c := t.conns[i]
	if err := c.Close(); err != nil {
		log.Logger.Debug("failed to close connection", zap.Int("fd", c.fd), zap.Error(err))
	}
	t.conns = append(t.conns[:i], t.conns[i+1:]...)
	j := i + 1
	t.pfds = append(t.pfds[:j], t.pfds[j+1:]...)
}

// closeAll tears down every remaining connection at shutdown.
func (t *connTable) closeAll() error {
	var errs MultiError
	for _, c := range t.conns {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close fd: %d error: %v", c.fd, err))
		}
	}
	t.conns = nil
	t.pfds = t.pfds[:1]
	if len(errs) > 0 {
		return errs
	}
	return nil
}
