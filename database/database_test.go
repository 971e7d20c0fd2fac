package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"imagededup/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	journal, err := InitDatabase(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { journal.Close() })
	return journal
}

func TestJournalRunLifecycle(t *testing.T) {
	ctx := context.Background()
	journal := openTestJournal(t)

	auto := 0.05
	runID, err := journal.StartRun(ctx, RunInfo{
		Paths:         []string{"/photos", "/extra/a.jpg"},
		Hasher:        "phash",
		Threshold:     0.3,
		AutoThreshold: &auto,
		Mode:          "cluster",
	})
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	run, err := journal.GetRun(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, run.Status)
	assert.Equal(t, []string{"/photos", "/extra/a.jpg"}, run.Paths)
	assert.Nil(t, run.FinishedAt)

	require.NoError(t, journal.RecordImages(ctx, runID, 12, 1))

	pairs := []types.Pair{
		{A: "/photos/b.jpg", B: "/photos/c.jpg", Distance: 0.05},
		{A: "/photos/a.jpg", B: "/photos/b.jpg", Distance: 0.1},
	}
	require.NoError(t, journal.RecordPairs(ctx, runID, pairs))

	require.NoError(t, journal.RecordDeletion(ctx, runID, "/photos/c.jpg", "deleted", nil))
	require.NoError(t, journal.RecordDeletion(ctx, runID, "/photos/b.jpg", "failed", errors.New("permission denied")))
	require.NoError(t, journal.FinishRun(ctx, runID, StatusCompleted))

	run, err = journal.GetRun(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, run.Status)
	assert.Equal(t, 12, run.Images)
	assert.Equal(t, 1, run.FingerprintFailures)
	require.NotNil(t, run.FinishedAt)

	stored, err := journal.GetRunPairs(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, pairs, stored)

	stats, err := journal.DeletionStats(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"deleted": 1, "failed": 1}, stats)
}

func TestJournalRunsAreIndependent(t *testing.T) {
	ctx := context.Background()
	journal := openTestJournal(t)

	first, err := journal.StartRun(ctx, RunInfo{Paths: []string{"/a"}, Hasher: "phash", Mode: "list"})
	require.NoError(t, err)
	second, err := journal.StartRun(ctx, RunInfo{Paths: []string{"/b"}, Hasher: "icon", Mode: "pairs"})
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	require.NoError(t, journal.RecordPairs(ctx, first, []types.Pair{{A: "/a/1.jpg", B: "/a/2.jpg"}}))

	pairs, err := journal.GetRunPairs(ctx, second)
	require.NoError(t, err)
	assert.Empty(t, pairs)
}

func TestFinishUnknownRun(t *testing.T) {
	journal := openTestJournal(t)
	assert.Error(t, journal.FinishRun(context.Background(), "missing", StatusCompleted))
}

func TestInitDatabaseIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")

	first, err := InitDatabase(path)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := InitDatabase(path)
	require.NoError(t, err)
	require.NoError(t, second.Close())
}
