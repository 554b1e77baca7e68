package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/fzft/lineserve/cli"
	"github.com/fzft/lineserve/log"
	"github.com/fzft/lineserve/reactor"
)

func main() {
	var (
		bindAddr    = flag.String("bind", "", "IPv4 address to bind, empty for all interfaces")
		port        = flag.Int("port", 8080, "port to listen on")
		bufferCap   = flag.Int("buffer", reactor.DefaultBufferCap, "per-connection buffer capacity in bytes")
		pollTimeout = flag.Int("poll-timeout", reactor.DefaultPollTimeoutMs, "poll timeout in milliseconds")
		maxConns    = flag.Int("max-conns", reactor.DefaultMaxConns, "maximum concurrent connections")
		logFile     = flag.String("logfile", "", "write logs to this file with rotation instead of stderr")
		connect     = flag.String("connect", "", "run as an interactive client against host:port")
		version     = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *version {
		fmt.Println(BuildIDRaw())
		return
	}

	if *logFile != "" {
		if err := log.InitFileLogger(*logFile); err != nil {
			fmt.Fprintln(os.Stderr, "failed to init logger:", err)
			os.Exit(1)
		}
	} else {
		if err := log.InitLogger(); err != nil {
			fmt.Fprintln(os.Stderr, "failed to init logger:", err)
			os.Exit(1)
		}
	}

	if *connect != "" {
		if err := cli.Run(*connect); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	s := reactor.NewServer(reactor.Config{
		BindAddr:      *bindAddr,
		Port:          *port,
		BufferCap:     *bufferCap,
		PollTimeoutMs: *pollTimeout,
		MaxConns:      *maxConns,
	})
	if err := s.Run(); err != nil {
		os.Exit(1)
	}
}
