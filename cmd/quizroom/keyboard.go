package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/abrezinsky/quizroom/internal/logger"
)

// ANSI escape codes
const (
	reset  = "\033[0m"
	bold   = "\033[1m"
	red    = "\033[31m"
	green  = "\033[32m"
	yellow = "\033[33m"
	cyan   = "\033[36m"
)

const ctrlC = 0x03

// keyboard maps single key presses on the server console to actions
type keyboard struct {
	log     logger.Logger
	out     io.Writer
	open    func(url string) error
	homeURL string
	quit    context.CancelFunc
}

// println writes a line that renders correctly in raw terminal mode
func (k *keyboard) println(color, format string, args ...any) {
	fmt.Fprintf(k.out, "%s%s%s\r\n", color, fmt.Sprintf(format, args...), reset)
}

func (k *keyboard) printHelp() {
	fmt.Fprintf(k.out, "\r\n%s%s  Keyboard shortcuts:%s\r\n", bold, green, reset)
	for _, line := range [][2]string{
		{"o", "Open the scoreboard of the active game in the browser"},
		{"h", "Toggle HTTP request logging"},
		{"l", "Cycle log level (debug → info → warn → error)"},
		{"q", "Quit server"},
		{"?", "Show this help"},
	} {
		fmt.Fprintf(k.out, "    %s%s%s      - %s\r\n", cyan, line[0], reset, line[1])
	}
	fmt.Fprint(k.out, "\r\n")
}

// handleKey runs the action bound to key. It returns false once the
// server should stop.
func (k *keyboard) handleKey(key byte) bool {
	if key == ctrlC {
		key = 'q'
	}
	switch strings.ToLower(string(key)) {
	case "o":
		k.println(cyan, "Opening %s ...", k.homeURL)
		if err := k.open(k.homeURL); err != nil {
			k.println(red, "Error opening browser: %v", err)
		}
	case "h":
		if k.log.IsHTTPLoggingEnabled() {
			k.log.DisableHTTPLogging()
			k.println(yellow, "HTTP logging disabled")
		} else {
			k.log.EnableHTTPLogging()
			k.println(green, "HTTP logging enabled")
		}
	case "l":
		next := logger.NextLevel(k.log.GetLevel())
		k.log.SetLevel(next)
		k.println(green, "Log level: %s%s", yellow, strings.ToLower(next.String()))
	case "q":
		k.println(yellow, "Shutting down server...")
		k.quit()
		return false
	case "?":
		k.printHelp()
	}
	return true
}

// listen reads key presses from the terminal in raw mode until ctx is
// done or the operator quits. It does nothing when stdin is not a terminal.
func (k *keyboard) listen(ctx context.Context, in *os.File) {
	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		k.log.Debug("Keyboard shortcuts unavailable: stdin is not a terminal")
		return
	}
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		k.log.Warn("Keyboard shortcuts unavailable", "error", err)
		return
	}
	defer term.Restore(fd, oldState)

	keys := make(chan byte)
	go func() {
		buf := make([]byte, 1)
		for {
			n, err := in.Read(buf)
			if err != nil {
				close(keys)
				return
			}
			if n == 0 {
				continue
			}
			select {
			case keys <- buf[0]:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case key, ok := <-keys:
			if !ok || !k.handleKey(key) {
				return
			}
		}
	}
}
