package resolver

import (
	"context"
	"errors"
	"testing"

	"imagededup/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errCancelled = errors.New("cancelled")

// scriptedSelector replays answers and records every cluster it was shown.
// A nil answer keeps the anchor only.
type scriptedSelector struct {
	answers [][]string
	err     error
	calls   [][]string
}

func (s *scriptedSelector) Select(_ context.Context, members []string) ([]string, error) {
	s.calls = append(s.calls, append([]string(nil), members...))
	if s.err != nil {
		return nil, s.err
	}
	if len(s.answers) == 0 {
		return members[:1], nil
	}
	answer := s.answers[0]
	s.answers = s.answers[1:]
	if answer == nil {
		return members[:1], nil
	}
	return answer, nil
}

// examplePairs is A(t=1), B(t=2), C(t=3) with d(A,B)=0.1, d(A,C)=0.2, d(B,C)=0.05
func examplePairs() []types.Pair {
	return []types.Pair{
		{A: "B", B: "C", Distance: 0.05},
		{A: "A", B: "B", Distance: 0.1},
		{A: "A", B: "C", Distance: 0.2},
	}
}

func TestResolve_ClustersInDistanceOrder(t *testing.T) {
	selector := &scriptedSelector{}

	deletions, err := Resolve(context.Background(), examplePairs(), selector, Options{})
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"B", "C"}, {"A", "B"}}, selector.calls)
	assert.Equal(t, []string{"C", "B"}, deletions.Paths())
}

func TestResolve_AutoThresholdIsInclusive(t *testing.T) {
	selector := &scriptedSelector{}

	deletions, err := Resolve(context.Background(), examplePairs(), selector, Options{
		AutoThreshold:        0.1,
		AutoThresholdEnabled: true,
	})
	require.NoError(t, err)

	assert.Empty(t, selector.calls)
	assert.Equal(t, []string{"C", "B"}, deletions.Paths())
}

func TestResolve_AutoThresholdJustBelowPrompts(t *testing.T) {
	selector := &scriptedSelector{}

	deletions, err := Resolve(context.Background(), examplePairs(), selector, Options{
		AutoThreshold:        0.099,
		AutoThresholdEnabled: true,
	})
	require.NoError(t, err)

	// C is auto-deleted, so A's cluster only offers B
	assert.Equal(t, [][]string{{"A", "B"}}, selector.calls)
	assert.Equal(t, []string{"C", "B"}, deletions.Paths())
}

func TestResolve_AutoThresholdIgnoredUnlessEnabled(t *testing.T) {
	selector := &scriptedSelector{}

	_, err := Resolve(context.Background(), examplePairs(), selector, Options{AutoThreshold: 1})
	require.NoError(t, err)
	assert.Len(t, selector.calls, 2)
}

func TestResolve_AutoDeleteAll(t *testing.T) {
	selector := &scriptedSelector{}

	deletions, err := Resolve(context.Background(), examplePairs(), selector, Options{AutoDeleteAll: true})
	require.NoError(t, err)

	assert.Empty(t, selector.calls)
	assert.Equal(t, []string{"C", "B"}, deletions.Paths())
}

func TestResolve_ClusterMembersFollowDistance(t *testing.T) {
	pairs := []types.Pair{
		{A: "A", B: "B", Distance: 0.1},
		{A: "A", B: "D", Distance: 0.15},
		{A: "A", B: "C", Distance: 0.2},
	}
	selector := &scriptedSelector{answers: [][]string{{"A", "D"}}}

	deletions, err := Resolve(context.Background(), pairs, selector, Options{})
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"A", "B", "D", "C"}}, selector.calls)
	assert.Equal(t, []string{"B", "C"}, deletions.Paths())
}

func TestResolve_KeepAllDeletesNothing(t *testing.T) {
	selector := &scriptedSelector{answers: [][]string{{"B", "C"}, {"A", "B", "C"}}}

	deletions, err := Resolve(context.Background(), examplePairs(), selector, Options{})
	require.NoError(t, err)

	// C was kept, so it is still offered in A's cluster
	assert.Equal(t, [][]string{{"B", "C"}, {"A", "B", "C"}}, selector.calls)
	assert.Zero(t, deletions.Len())
}

func TestResolve_SkipsPairsWithDeletedAnchor(t *testing.T) {
	pairs := []types.Pair{
		{A: "A", B: "B", Distance: 0.05},
		{A: "B", B: "C", Distance: 0.1},
	}
	selector := &scriptedSelector{}

	deletions, err := Resolve(context.Background(), pairs, selector, Options{})
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"A", "B"}}, selector.calls)
	assert.Equal(t, []string{"B"}, deletions.Paths())
}

func TestResolve_CancellationProducesNoDeletions(t *testing.T) {
	selector := &scriptedSelector{err: errCancelled}

	deletions, err := Resolve(context.Background(), examplePairs(), selector, Options{})
	assert.ErrorIs(t, err, errCancelled)
	assert.Nil(t, deletions)
}

func TestResolve_CancellationAfterFirstCluster(t *testing.T) {
	selector := &cancelSecond{}

	deletions, err := Resolve(context.Background(), examplePairs(), selector, Options{})
	assert.ErrorIs(t, err, errCancelled)
	assert.Nil(t, deletions)
}

type cancelSecond struct{ calls int }

func (c *cancelSecond) Select(_ context.Context, members []string) ([]string, error) {
	c.calls++
	if c.calls > 1 {
		return nil, errCancelled
	}
	return members[:1], nil
}

func TestResolve_EmptySelectionIsAnError(t *testing.T) {
	selector := &scriptedSelector{answers: [][]string{{"not-a-member"}}}

	_, err := Resolve(context.Background(), examplePairs(), selector, Options{})
	assert.ErrorIs(t, err, ErrEmptySelection)
}

func TestResolve_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Resolve(ctx, examplePairs(), &scriptedSelector{}, Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResolve_NoPairs(t *testing.T) {
	deletions, err := Resolve(context.Background(), nil, &scriptedSelector{}, Options{})
	require.NoError(t, err)
	assert.Zero(t, deletions.Len())
}

func TestResolve_PairsOnly(t *testing.T) {
	selector := &scriptedSelector{}

	deletions, err := Resolve(context.Background(), examplePairs(), selector, Options{PairsOnly: true})
	require.NoError(t, err)

	// (A,C) is skipped because C is already marked
	assert.Equal(t, [][]string{{"B", "C"}, {"A", "B"}}, selector.calls)
	assert.Equal(t, []string{"C", "B"}, deletions.Paths())
}

func TestResolve_PairsOnlyKeepBoth(t *testing.T) {
	selector := &scriptedSelector{answers: [][]string{{"B", "C"}, {"A", "B"}, {"A"}}}

	deletions, err := Resolve(context.Background(), examplePairs(), selector, Options{PairsOnly: true})
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"B", "C"}, {"A", "B"}, {"A", "C"}}, selector.calls)
	assert.Equal(t, []string{"C"}, deletions.Paths())
}

func TestResolve_PairsOnlyAutoDeletion(t *testing.T) {
	selector := &scriptedSelector{}

	deletions, err := Resolve(context.Background(), examplePairs(), selector, Options{
		PairsOnly:            true,
		AutoThreshold:        0.05,
		AutoThresholdEnabled: true,
	})
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"A", "B"}}, selector.calls)
	assert.Equal(t, []string{"C", "B"}, deletions.Paths())

	selector = &scriptedSelector{}
	deletions, err = Resolve(context.Background(), examplePairs(), selector, Options{PairsOnly: true, AutoDeleteAll: true})
	require.NoError(t, err)
	assert.Empty(t, selector.calls)
	assert.Equal(t, []string{"C", "B"}, deletions.Paths())
}

func TestDeletionSet(t *testing.T) {
	set := NewDeletionSet()

	assert.True(t, set.Add("b"))
	assert.True(t, set.Add("a"))
	assert.False(t, set.Add("b"))

	assert.True(t, set.Contains("a"))
	assert.False(t, set.Contains("c"))
	assert.Equal(t, 2, set.Len())
	assert.Equal(t, []string{"b", "a"}, set.Paths())

	// Paths returns a copy
	paths := set.Paths()
	paths[0] = "mutated"
	assert.Equal(t, []string{"b", "a"}, set.Paths())
}
