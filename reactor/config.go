package reactor

import "fmt"

const (
	DefaultBacklog       = 128
	DefaultBufferCap     = 4096
	DefaultPollTimeoutMs = 1000
	DefaultMaxConns      = 1024
)

// Config carries the scalar knobs of the server. The zero value is not
// usable; call Validate to fill in defaults and reject nonsense.
type Config struct {
	BindAddr string // IPv4 address to bind, empty means all interfaces
	Port     int

	BufferCap     int // per-connection buffer capacity in bytes
	Backlog       int // listen(2) backlog
	PollTimeoutMs int // upper bound one poll call may block
	MaxConns      int // accepts beyond this are closed immediately, 0 = default
}

func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.BufferCap < 0 {
		return fmt.Errorf("buffer capacity %d must be positive", c.BufferCap)
	}
	if c.BufferCap == 0 {
		c.BufferCap = DefaultBufferCap
	}
	if c.Backlog <= 0 {
		c.Backlog = DefaultBacklog
	}
	if c.PollTimeoutMs <= 0 {
		c.PollTimeoutMs = DefaultPollTimeoutMs
	}
	if c.MaxConns <= 0 {
		c.MaxConns = DefaultMaxConns
	}
	return nil
}
