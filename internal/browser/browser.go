// Package browser opens pages of the running server in the desktop browser.
package browser

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
)

// Commander starts external commands (replaced in tests)
type Commander interface {
	Start(name string, args ...string) error
}

// ExecCommander starts real processes
type ExecCommander struct{}

// Start launches the command without waiting for it
func (ExecCommander) Start(name string, args ...string) error {
	return exec.Command(name, args...).Start()
}

// Launcher opens URLs with the platform's browser command
type Launcher struct {
	cmd  Commander
	goos string
}

// New returns a Launcher for the current platform
func New() *Launcher {
	return &Launcher{cmd: ExecCommander{}, goos: runtime.GOOS}
}

// NewWithCommander returns a Launcher using cmd as if running on goos
func NewWithCommander(cmd Commander, goos string) *Launcher {
	return &Launcher{cmd: cmd, goos: goos}
}

// Open opens an absolute http(s) URL
func (l *Launcher) Open(target string) error {
	u, err := url.Parse(target)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("not an http URL: %q", target)
	}

	name, args, err := command(l.goos, u.String())
	if err != nil {
		return err
	}
	if err := l.cmd.Start(name, args...); err != nil {
		return fmt.Errorf("start %s: %w", name, err)
	}
	return nil
}

func command(goos, target string) (string, []string, error) {
	switch goos {
	case "linux", "freebsd", "openbsd", "netbsd":
		return "xdg-open", []string{target}, nil
	case "darwin":
		return "open", []string{target}, nil
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", target}, nil
	}
	return "", nil, fmt.Errorf("unsupported platform: %s", goos)
}
