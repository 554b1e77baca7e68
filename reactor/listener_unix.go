//go:build unix
// +build unix

package reactor

import (
	"errors"
	"fmt"
	"net"
	"os"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/fzft/lineserve/log"
)

// Listener owns the bound, listening, non-blocking server socket. It is
// created once at startup and closed once at shutdown.
type Listener struct {
	fd   int
	addr string
	port int
	once sync.Once
}

// Listen opens a non-blocking IPv4 stream socket with SO_REUSEADDR, binds it
// to addr:port and starts listening. Any failure here is server-fatal: the
// caller cannot run without a listening socket.
func Listen(addr string, port, backlog int) (*Listener, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, unix.IPPROTO_TCP)
	if err != nil {
		return nil, os.NewSyscallError("socket", err)
	}

	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return nil, os.NewSyscallError("setnonblock", err)
	}

	// SO_REUSEADDR so a restart does not trip over sockets in TIME_WAIT.
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return nil, os.NewSyscallError("setsockopt", err)
	}

	sa := &unix.SockaddrInet4{Port: port}
	if addr != "" {
		ip := net.ParseIP(addr).To4()
		if ip == nil {
			unix.Close(fd)
			return nil, fmt.Errorf("bind address %q is not a valid IPv4 address", addr)
		}
		copy(sa.Addr[:], ip)
	}

	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("bind %s:%d: %w", addr, port, err)
	}

	if err := unix.Listen(fd, backlog); err != nil {
		unix.Close(fd)
		return nil, os.NewSyscallError("listen", err)
	}

	ln := &Listener{fd: fd, addr: addr, port: port}

	// When asked for port 0 the kernel picked one, read it back.
	if port == 0 {
		bound, err := unix.Getsockname(fd)
		if err != nil {
			unix.Close(fd)
			return nil, os.NewSyscallError("getsockname", err)
		}
		if sa4, ok := bound.(*unix.SockaddrInet4); ok {
			ln.port = sa4.Port
		}
	}

	return ln, nil
}

// Accept takes one pending connection off the queue in non-blocking mode.
// When nothing is pending it returns an error satisfying
// errors.Is(err, unix.EAGAIN) — a normal outcome, not a failure.
func (ln *Listener) Accept(bufferCap int) (*Conn, error) {
	connFd, sa, err := unix.Accept(ln.fd)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return nil, err
		}
		return nil, fmt.Errorf("accept error: %w", err)
	}

	if err := unix.SetNonblock(connFd, true); err != nil {
		unix.Close(connFd)
		return nil, fmt.Errorf("set nonblock error for fd %d: %w", connFd, err)
	}

	var ip string
	switch addr := sa.(type) {
	case *unix.SockaddrInet4:
		ip = net.IPv4(addr.Addr[0], addr.Addr[1], addr.Addr[2], addr.Addr[3]).String()
	case *unix.SockaddrInet6:
		ip = net.IP(addr.Addr[:]).String()
	}

	log.Logger.Debug("new connection", zap.Int("fd", connFd), zap.String("ip", ip))

	return newConn(&fdSocket{fd: connFd}, connFd, ip, bufferCap), nil
}

// IsWouldBlock reports whether err means "no connection pending right now".
func IsWouldBlock(err error) bool {
	return errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK)
}

func (ln *Listener) Fd() int {
	return ln.fd
}

func (ln *Listener) Port() int {
	return ln.port
}

func (ln *Listener) Addr() string {
	if ln.addr == "" {
		return fmt.Sprintf("0.0.0.0:%d", ln.port)
	}
	return fmt.Sprintf("%s:%d", ln.addr, ln.port)
}

// Close releases the socket. Closing twice is a no-op.
func (ln *Listener) Close() {
	ln.once.Do(func() {
		if err := unix.Close(ln.fd); err != nil {
			log.Logger.Debug("failed to close listener", zap.Error(err))
		}
	})
}
