package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"imagededup/config"
	"imagededup/database"
	"imagededup/deleter"
	"imagededup/imageprocessor"
	"imagededup/logging"
	"imagededup/matcher"
	"imagededup/resolver"
	"imagededup/scanner"
	"imagededup/selector"
	"imagededup/signalhandler"
	"imagededup/types"
	"imagededup/utils"
)

// runner executes one invocation of the pipeline
type runner struct {
	cfg     *config.Config
	streams streams
	in      *bufio.Reader // shared by the prompt and the confirmation
}

func (r *runner) run(ctx context.Context, paths []string) (err error) {
	cfg := r.cfg

	if !matcher.IsValidFormat(cfg.Format) {
		return utils.NewExitError(utils.ExitCommandError,
			fmt.Sprintf("invalid format %q: must be one of %v", cfg.Format, matcher.ValidFormats))
	}

	if err := logging.SetupLogger(logging.Options{
		Level: cfg.Logging.Level,
		File:  cfg.Logging.File,
		Quiet: cfg.Quiet,
		Out:   r.streams.errOut,
	}); err != nil {
		return utils.WrapExitError(utils.ExitCommandError, "failed to set up logging", err)
	}
	defer logging.CloseLogger()

	comparator, err := imageprocessor.NewComparator(cfg.Hasher)
	if err != nil {
		return utils.WrapExitError(utils.ExitCommandError, "invalid hasher", err)
	}
	if closer, ok := comparator.(io.Closer); ok {
		defer closer.Close()
	}

	stopSignals := signalhandler.SetupHandler()
	defer stopSignals()

	journal, err := openJournal(ctx, cfg, paths)
	if err != nil {
		return utils.WrapExitError(utils.ExitCommandError, "failed to open journal", err)
	}
	status := database.StatusFailed
	defer func() {
		if jerr := journal.finish(status); jerr != nil && err == nil {
			err = utils.WrapExitError(utils.ExitCommandError, "failed to update journal", jerr)
		}
	}()

	images, stats, err := scanner.ScanAndFingerprint(ctx, r.streams.fs, comparator, scanner.ScanOptions{
		Paths:        paths,
		Force:        cfg.Force,
		Workers:      cfg.Workers,
		ShowProgress: !cfg.Quiet,
		ProgressOut:  r.streams.errOut,
	})
	if err != nil {
		if errors.Is(err, scanner.ErrPathNotFound) {
			return utils.NewExitError(utils.ExitCommandError, err.Error())
		}
		if errors.Is(err, context.Canceled) {
			status = database.StatusCancelled
			return utils.WrapExitError(utils.ExitFailure, "interrupted", err)
		}
		return utils.WrapExitError(utils.ExitCommandError, "failed to scan images", err)
	}
	if err := journal.recordImages(stats); err != nil {
		return utils.WrapExitError(utils.ExitCommandError, "failed to update journal", err)
	}

	pairs := matcher.FindPairs(images, comparator, cfg.Threshold)
	if err := journal.recordPairs(pairs); err != nil {
		return utils.WrapExitError(utils.ExitCommandError, "failed to update journal", err)
	}

	if cfg.List {
		if err := matcher.WritePairs(r.streams.out, pairs, cfg.Format); err != nil {
			return utils.WrapExitError(utils.ExitCommandError, "failed to write pairs", err)
		}
		status = database.StatusListed
		return nil
	}

	if len(pairs) == 0 {
		logging.LogInfo("No duplicates found among %d images", len(images))
	}

	deletions, err := r.resolve(ctx, pairs)
	if err != nil {
		switch {
		case errors.Is(err, selector.ErrCancelled), errors.Is(err, context.Canceled):
			status = database.StatusCancelled
			return utils.WrapExitError(utils.ExitFailure, "nothing deleted", err)
		default:
			return utils.WrapExitError(utils.ExitCommandError, "failed to resolve duplicates", err)
		}
	}

	executor := deleter.New(r.streams.fs, r.in, r.streams.out, deleter.Options{
		DryRun:    cfg.DryRun,
		AssumeYes: cfg.Yes,
	})
	result := executor.Execute(deletions.Paths())

	if err := journal.recordDeletions(result); err != nil {
		return utils.WrapExitError(utils.ExitCommandError, "failed to update journal", err)
	}

	status = database.StatusCompleted
	if result.Aborted {
		status = database.StatusAborted
	} else if !cfg.DryRun && deletions.Len() > 0 {
		logging.LogInfo("Deleted %d files (%d failed)", result.Deleted, result.Failed)
	}

	return nil
}

// resolve turns the pairs into the set of files to delete
func (r *runner) resolve(ctx context.Context, pairs []types.Pair) (*resolver.DeletionSet, error) {
	cfg := r.cfg

	opts := resolver.Options{
		AutoDeleteAll: cfg.AutoDeleteAll,
		PairsOnly:     cfg.Pairs,
	}
	if cfg.AutoThreshold != nil {
		opts.AutoThreshold = *cfg.AutoThreshold
		opts.AutoThresholdEnabled = true
	}

	sel := selector.New(r.streams.launcher(cfg.Viewer.Command), r.in, r.streams.out, selector.Options{
		ViewerRequired: cfg.Viewer.Required,
	})

	return resolver.Resolve(ctx, pairs, sel, opts)
}
