// Package cli implements the interactive line client: it sends one line per
// prompt and prints the reply line. The server handles a single
// request/response cycle per connection, so every exchange dials afresh.
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/peterh/liner"
)

const historyFile = ".lineserve_history"

// Run loops prompt -> dial -> send -> print reply until EOF or an I/O
// failure. When stdin is not a terminal (piped input) the prompt and
// history are skipped and lines are consumed as-is.
func Run(addr string) error {
	// Probe the address once up front so a typo fails fast instead of on
	// the first exchange.
	probe, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("connect %s: %w", addr, err)
	}
	probe.Close()

	if !isatty.IsTerminal(os.Stdin.Fd()) {
		return runPiped(addr)
	}

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	histPath := historyPath()
	if f, err := os.Open(histPath); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	prompt := addr + "> "
	for {
		input, err := line.Prompt(prompt)
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if strings.TrimSpace(input) == "" {
			continue
		}
		line.AppendHistory(input)

		reply, err := exchange(addr, input)
		if err != nil {
			return err
		}
		fmt.Print(reply)
	}
}

func runPiped(addr string) error {
	in := bufio.NewScanner(os.Stdin)
	for in.Scan() {
		reply, err := exchange(addr, in.Text())
		if err != nil {
			return err
		}
		fmt.Print(reply)
	}
	return in.Err()
}

// exchange dials, sends one line and reads back one terminator-delimited
// reply. The server closes the connection after replying, so a clean EOF
// after a complete line is expected.
func exchange(addr, input string) (string, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("connect %s: %w", addr, err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte(input + "\n")); err != nil {
		return "", fmt.Errorf("send: %w", err)
	}
	reply, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && reply != "") {
		return "", fmt.Errorf("receive: %w", err)
	}
	return reply, nil
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return historyFile
	}
	return filepath.Join(home, historyFile)
}
