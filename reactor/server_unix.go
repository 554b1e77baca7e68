//go:build unix
// +build unix

package reactor

import (
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/fzft/lineserve/log"
)

// Server ties the listener, the event loop and process signals together.
type Server struct {
	cfg     Config
	handler Handler
}

func NewServer(cfg Config) *Server {
	return &Server{cfg: cfg}
}

// SetHandler installs the protocol layer. Without one the server echoes.
func (s *Server) SetHandler(handler Handler) {
	s.handler = handler
}

// Run binds, listens and drives the event loop until SIGINT, SIGTERM or
// SIGQUIT arrives. A bind or listen failure is returned immediately so the
// process can fail fast; the shutdown predicate is re-evaluated every poll
// timeout.
func (s *Server) Run() error {
	if err := s.cfg.Validate(); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer signal.Stop(sigCh)

	ln, err := Listen(s.cfg.BindAddr, s.cfg.Port, s.cfg.Backlog)
	if err != nil {
		log.Logger.Error("listen error", zap.Error(err))
		return err
	}

	if s.handler == nil {
		s.handler = Echo{}
	}

	loop := NewEventLoop(ln, s.handler, s.cfg)

	log.Logger.Info("listening on", zap.String("addr", ln.Addr()))
	err = loop.Run(s.cfg.PollTimeoutMs, func() bool {
		select {
		case sig := <-sigCh:
			log.Logger.Info("signal received", zap.String("signal", sig.String()))
			return true
		default:
			return false
		}
	})

	log.Logger.Info("shutting down server")
	return err
}
