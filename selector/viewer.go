package selector

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"
)

// DefaultViewerCommand shows the images in a feh window
const DefaultViewerCommand = "feh -."

// terminateGrace is how long a viewer gets to exit after SIGTERM
const terminateGrace = 2 * time.Second

// ErrEmptyCommand is returned when the viewer command has no program
var ErrEmptyCommand = errors.New("empty viewer command")

// Handle is a running viewer
type Handle interface {
	// Terminate stops the viewer and waits for it to exit. It is safe to call
	// more than once.
	Terminate() error
}

// Launcher starts a viewer showing the given files
type Launcher interface {
	Launch(paths []string) (Handle, error)
}

// ExecLauncher runs an external program with the paths appended to its
// arguments. The viewer never reads from our stdin so the prompt keeps the
// terminal.
type ExecLauncher struct {
	Command string
	Stdout  io.Writer
	Stderr  io.Writer
}

// NewExecLauncher returns a launcher for command that shares our stdout and stderr
func NewExecLauncher(command string) *ExecLauncher {
	return &ExecLauncher{Command: command, Stdout: os.Stdout, Stderr: os.Stderr}
}

// Launch starts the viewer without waiting for it
func (l *ExecLauncher) Launch(paths []string) (Handle, error) {
	fields := strings.Fields(l.Command)
	if len(fields) == 0 {
		return nil, ErrEmptyCommand
	}

	args := append(fields[1:len(fields):len(fields)], paths...)
	cmd := exec.Command(fields[0], args...)
	cmd.Stdin = nil
	cmd.Stdout = l.Stdout
	cmd.Stderr = l.Stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start viewer %q: %w", fields[0], err)
	}

	handle := &processHandle{cmd: cmd, done: make(chan struct{})}
	go handle.wait()
	return handle, nil
}

type processHandle struct {
	cmd  *exec.Cmd
	done chan struct{}
	once sync.Once
	err  error
}

// wait reaps the process so it never lingers as a zombie
func (h *processHandle) wait() {
	h.cmd.Wait()
	close(h.done)
}

func (h *processHandle) Terminate() error {
	h.once.Do(func() {
		select {
		case <-h.done:
			return
		default:
		}

		if err := h.cmd.Process.Signal(syscall.SIGTERM); err != nil {
			h.err = h.kill()
			return
		}

		select {
		case <-h.done:
		case <-time.After(terminateGrace):
			h.err = h.kill()
		}
	})
	return h.err
}

func (h *processHandle) kill() error {
	if err := h.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("failed to kill viewer: %w", err)
	}
	<-h.done
	return nil
}
