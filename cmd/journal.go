package cmd

import (
	"context"

	"imagededup/config"
	"imagededup/database"
	"imagededup/deleter"
	"imagededup/logging"
	"imagededup/scanner"
	"imagededup/types"
)

// runJournal records one run. A nil *runJournal records nothing.
type runJournal struct {
	ctx     context.Context
	journal *database.Journal
	runID   string
}

func openJournal(ctx context.Context, cfg *config.Config, paths []string) (*runJournal, error) {
	if !cfg.Journal.Enabled {
		return nil, nil
	}

	journal, err := database.InitDatabase(cfg.Journal.Path)
	if err != nil {
		return nil, err
	}

	mode := "cluster"
	switch {
	case cfg.List:
		mode = "list"
	case cfg.Pairs:
		mode = "pairs"
	}

	runID, err := journal.StartRun(ctx, database.RunInfo{
		Paths:         paths,
		Hasher:        cfg.Hasher,
		Threshold:     cfg.Threshold,
		AutoThreshold: cfg.AutoThreshold,
		AutoDeleteAll: cfg.AutoDeleteAll,
		Mode:          mode,
		DryRun:        cfg.DryRun,
	})
	if err != nil {
		journal.Close()
		return nil, err
	}

	logging.DebugLog("Journaling run %s to %s", runID, cfg.Journal.Path)
	return &runJournal{ctx: ctx, journal: journal, runID: runID}, nil
}

func (j *runJournal) recordImages(stats scanner.FingerprintStats) error {
	if j == nil {
		return nil
	}
	return j.journal.RecordImages(j.ctx, j.runID, stats.Total, stats.Failed)
}

func (j *runJournal) recordPairs(pairs []types.Pair) error {
	if j == nil {
		return nil
	}
	return j.journal.RecordPairs(j.ctx, j.runID, pairs)
}

func (j *runJournal) recordDeletions(result deleter.Result) error {
	if j == nil {
		return nil
	}
	for _, path := range result.Paths {
		if err := j.journal.RecordDeletion(j.ctx, j.runID, path.Path, path.Outcome, path.Err); err != nil {
			return err
		}
	}
	return nil
}

// finish stores the final status and closes the journal
func (j *runJournal) finish(status string) error {
	if j == nil {
		return nil
	}
	defer j.journal.Close()
	// the run context may already be cancelled
	return j.journal.FinishRun(context.Background(), j.runID, status)
}
