package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"imagededup/config"
	"imagededup/imageprocessor"
	"imagededup/logging"
	"imagededup/matcher"
	"imagededup/selector"
	"imagededup/signalhandler"
	"imagededup/utils"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// streams holds everything a run touches outside the process
type streams struct {
	fs       afero.Fs
	in       io.Reader
	out      io.Writer
	errOut   io.Writer
	launcher func(command string) selector.Launcher
}

func defaultStreams() streams {
	return streams{
		fs:     afero.NewOsFs(),
		in:     os.Stdin,
		out:    os.Stdout,
		errOut: os.Stderr,
		launcher: func(command string) selector.Launcher {
			return selector.NewExecLauncher(command)
		},
	}
}

// NewRootCommand creates the imagededup command
func NewRootCommand() *cobra.Command {
	return newRootCommand(defaultStreams())
}

func newRootCommand(s streams) *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "imagededup [flags] <paths...>",
		Short: "Find and remove near-duplicate images",
		Long: fmt.Sprintf(`Compares every image found in the given files and directories with a perceptual
fingerprint, groups similar images around the oldest copy and asks which ones to keep
while a viewer shows them. Files that are not kept are deleted after confirmation.

Directories are searched for files with these extensions:
  %s`, strings.Join(imageprocessor.GetSupportedExtensions(), " ")),
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags(), configFile)
			if err != nil {
				return utils.WrapExitError(utils.ExitCommandError, "invalid configuration", err)
			}

			r := &runner{cfg: cfg, streams: s, in: bufio.NewReader(s.in)}
			return r.run(cmd.Context(), args)
		},
	}

	cmd.SetOut(s.out)
	cmd.SetErr(s.errOut)

	flags := cmd.Flags()
	flags.Float64P("threshold", "t", config.DefaultThreshold, "similarity threshold, pairs at or below this distance are duplicates")
	flags.Float64P("auto-threshold", "a", 0, "delete duplicates at or below this distance without asking (disabled unless given)")
	flags.BoolP("auto-delete-all", "A", false, "keep only the oldest image of every group without asking")
	flags.BoolP("list", "l", false, "print the pairs of duplicates instead of resolving them")
	flags.BoolP("pairs", "p", false, "show duplicates one pair at a time instead of in groups")
	flags.StringP("viewer-command", "c", config.DefaultViewerCommand, "command used to show duplicates, file names are appended")
	flags.Bool("viewer-required", false, "fail when the viewer cannot be started")
	flags.BoolP("force", "f", false, "process every file found in directories regardless of extension")
	flags.BoolP("quiet", "q", false, "suppress warnings")
	flags.BoolP("dry-run", "d", false, "print the files that would be deleted instead of deleting them")
	flags.BoolP("yes", "y", false, "delete without asking for confirmation")
	flags.String("hasher", config.DefaultHasher,
		fmt.Sprintf("fingerprint algorithm (%s)", strings.Join(imageprocessor.ComparatorNames(), ", ")))
	flags.Int("workers", signalhandler.GetOptimalProcs(), "number of images fingerprinted in parallel")
	flags.String("format", config.DefaultFormat,
		fmt.Sprintf("listing format (%s)", strings.Join(matcher.ValidFormats, "|")))
	flags.Bool("journal", false, "record the run in a sqlite journal")
	flags.String("journal-path", "", "journal location (default next to the executable)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-file", "", "also write logs to this file")
	flags.StringVar(&configFile, "config", "", "config file (default $HOME/.imagededup/config.yaml)")

	return cmd
}

// Execute runs the command line and returns the process exit code
func Execute() int {
	err := NewRootCommand().Execute()
	if err != nil {
		logging.LogError("%v", err)
	}
	return utils.GetExitCode(err)
}
