// Package selector asks the user which images of a duplicate cluster to keep
// while an external viewer shows them.
package selector

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"imagededup/logging"
	"imagededup/signalhandler"
)

// ErrViewerFailed is returned when the viewer is required but cannot start
var ErrViewerFailed = errors.New("could not launch viewer")

// Options controls the viewer behaviour
type Options struct {
	ViewerRequired bool // fail instead of warning when the viewer cannot start
}

// Selector shows a cluster in the viewer and reads the user's choice
type Selector struct {
	launcher Launcher
	in       *bufio.Reader
	out      io.Writer
	options  Options
}

// New creates a selector reading answers from in and writing prompts to out
func New(launcher Launcher, in io.Reader, out io.Writer, options Options) *Selector {
	return &Selector{
		launcher: launcher,
		in:       bufio.NewReader(in),
		out:      out,
		options:  options,
	}
}

// Select returns the non-empty subset of members to keep, or ErrCancelled.
// The viewer is terminated before Select returns.
func (s *Selector) Select(ctx context.Context, members []string) ([]string, error) {
	if len(members) == 0 {
		return nil, errors.New("nothing to select from")
	}

	handle, err := s.launcher.Launch(members)
	if err != nil {
		if s.options.ViewerRequired {
			return nil, fmt.Errorf("%w: %v", ErrViewerFailed, err)
		}
		logging.LogWarning("Could not launch viewer: %v", err)
	}
	if handle != nil {
		unregister := signalhandler.RegisterCleanup(func() { handle.Terminate() })
		defer func() {
			unregister()
			if err := handle.Terminate(); err != nil {
				logging.LogWarning("Could not stop viewer: %v", err)
			}
		}()
	}

	for i, member := range members {
		fmt.Fprintf(s.out, "  %d: %s\n", i+1, member)
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		fmt.Fprint(s.out, Prompt)

		line, readErr := s.in.ReadString('\n')
		if readErr != nil && line == "" {
			if errors.Is(readErr, io.EOF) {
				fmt.Fprintln(s.out)
				return nil, ErrCancelled
			}
			return nil, fmt.Errorf("failed to read response: %w", readErr)
		}

		kept, err := ParseResponse(line, members)
		if errors.Is(err, ErrInvalidResponse) {
			fmt.Fprintf(s.out, "Invalid response %q, enter numbers between 1 and %d separated by commas\n",
				strings.TrimRight(line, "\r\n"), len(members))
			continue
		}
		if err != nil {
			return nil, err
		}

		logging.DebugLog("Keeping %v", kept)
		return kept, nil
	}
}
