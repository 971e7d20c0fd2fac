// Package deleter removes the files chosen for deletion after an optional
// confirmation.
package deleter

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"imagededup/logging"

	"github.com/spf13/afero"
)

// ConfirmPrompt asks for the go-ahead before removing anything
const ConfirmPrompt = "Ok to delete? [Y/n] "

// Outcome of one path
const (
	OutcomeDeleted = "deleted"
	OutcomeFailed  = "failed"
	OutcomeDryRun  = "dry-run"
)

// Options controls confirmation and dry-run behaviour
type Options struct {
	DryRun    bool // print paths instead of removing them
	AssumeYes bool // skip the confirmation prompt
}

// PathResult records what happened to a single path
type PathResult struct {
	Path    string
	Outcome string
	Err     error
}

// Result summarizes a deletion pass
type Result struct {
	Deleted int
	Failed  int
	Aborted bool
	Paths   []PathResult
}

// Executor removes files through an afero filesystem
type Executor struct {
	fs      afero.Fs
	in      *bufio.Reader
	out     io.Writer
	options Options
}

// New creates an executor reading the confirmation from in and writing to out
func New(fs afero.Fs, in io.Reader, out io.Writer, options Options) *Executor {
	return &Executor{
		fs:      fs,
		in:      bufio.NewReader(in),
		out:     out,
		options: options,
	}
}

// Execute confirms and removes paths in order. A failed removal is reported
// and the remaining paths are still processed.
func (e *Executor) Execute(paths []string) Result {
	var result Result
	if len(paths) == 0 {
		return result
	}

	if !e.options.AssumeYes && !e.confirm(paths) {
		result.Aborted = true
		return result
	}

	for _, path := range paths {
		if e.options.DryRun {
			fmt.Fprintln(e.out, path)
			result.Paths = append(result.Paths, PathResult{Path: path, Outcome: OutcomeDryRun})
			continue
		}

		if err := e.fs.Remove(path); err != nil {
			logging.LogWarning("Could not delete %s: %v", path, err)
			result.Failed++
			result.Paths = append(result.Paths, PathResult{Path: path, Outcome: OutcomeFailed, Err: err})
			continue
		}

		logging.DebugLog("Deleted %s", path)
		result.Deleted++
		result.Paths = append(result.Paths, PathResult{Path: path, Outcome: OutcomeDeleted})
	}

	return result
}

// confirm lists the paths and reports whether the user agreed
func (e *Executor) confirm(paths []string) bool {
	fmt.Fprintln(e.out, "About to delete:")
	for _, path := range paths {
		fmt.Fprintln(e.out, path)
	}
	fmt.Fprint(e.out, ConfirmPrompt)

	line, err := e.in.ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(e.out)
		if errors.Is(err, io.EOF) {
			logging.LogWarning("No answer, nothing deleted")
		} else {
			logging.LogWarning("Could not read answer, nothing deleted: %v", err)
		}
		return false
	}

	answer := strings.TrimSpace(line)
	if strings.HasPrefix(answer, "n") || strings.HasPrefix(answer, "N") {
		logging.LogInfo("Nothing deleted")
		return false
	}
	return true
}
