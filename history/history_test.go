package history_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statewalker/vcs-sub011/history"
	"github.com/statewalker/vcs-sub011/plumbing"
	"github.com/statewalker/vcs-sub011/plumbing/object"
	"github.com/statewalker/vcs-sub011/storage"
	"github.com/statewalker/vcs-sub011/storage/memory"
)

func newStore() *object.Store {
	return object.NewStore(storage.NewObjectStore(memory.NewStore(), 0, 0))
}

func mustCommit(t *testing.T, s *object.Store, when time.Time, message string, parents ...object.Commit) *object.Commit {
	t.Helper()
	ctx := context.Background()

	var hashes []plumbing.Hash
	for _, p := range parents {
		hashes = append(hashes, p.Hash)
	}

	c := &object.Commit{
		TreeHash:     object.EmptyTreeHash,
		ParentHashes: hashes,
		Author:       object.Signature{Name: "tester", Email: "t@example.com", When: when},
		Committer:    object.Signature{Name: "tester", Email: "t@example.com", When: when},
		Message:      message,
	}
	id, err := s.StoreCommit(ctx, c)
	require.NoError(t, err)
	c.Hash = id
	return c
}

// buildLine builds a straight-line history: root -> a -> b -> c, with
// strictly increasing commit times.
func buildLine(t *testing.T, s *object.Store) (root, a, b, c *object.Commit) {
	t.Helper()
	base := time.Unix(1700000000, 0).UTC()
	root = mustCommit(t, s, base, "root")
	a = mustCommit(t, s, base.Add(time.Hour), "a", *root)
	b = mustCommit(t, s, base.Add(2*time.Hour), "b", *a)
	c = mustCommit(t, s, base.Add(3*time.Hour), "c", *b)
	return
}

func TestPreorderIterVisitsEachCommitOnce(t *testing.T) {
	ctx := context.Background()
	s := newStore()
	_, _, _, c := buildLine(t, s)

	var msgs []string
	it := history.NewPreorderIter(ctx, s, c, nil)
	require.NoError(t, history.ForEach(it, func(commit *object.Commit) error {
		msgs = append(msgs, commit.Message)
		return nil
	}))

	assert.Equal(t, []string{"c", "b", "a", "root"}, msgs)
}

func TestDateOrderIterNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := newStore()
	_, _, _, c := buildLine(t, s)

	var msgs []string
	it := history.NewDateOrderIter(ctx, s, c, nil)
	require.NoError(t, history.ForEach(it, func(commit *object.Commit) error {
		msgs = append(msgs, commit.Message)
		return nil
	}))

	assert.Equal(t, []string{"c", "b", "a", "root"}, msgs)
}

func TestIsAncestor(t *testing.T) {
	ctx := context.Background()
	s := newStore()
	root, a, _, c := buildLine(t, s)

	ok, err := history.IsAncestor(ctx, s, c, root.Hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = history.IsAncestor(ctx, s, root, c.Hash)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = history.IsAncestor(ctx, s, a, a.Hash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFindMergeBaseStraightLine(t *testing.T) {
	ctx := context.Background()
	s := newStore()
	_, a, b, c := buildLine(t, s)

	bases, err := history.FindMergeBase(ctx, s, b, c)
	require.NoError(t, err)
	require.Len(t, bases, 1)
	assert.Equal(t, b.Hash, bases[0].Hash)

	bases, err = history.FindMergeBase(ctx, s, a, c)
	require.NoError(t, err)
	require.Len(t, bases, 1)
	assert.Equal(t, a.Hash, bases[0].Hash)
}

func TestFindMergeBaseDiverged(t *testing.T) {
	ctx := context.Background()
	s := newStore()
	base := time.Unix(1700000000, 0).UTC()

	root := mustCommit(t, s, base, "root")
	left := mustCommit(t, s, base.Add(time.Hour), "left", *root)
	right := mustCommit(t, s, base.Add(time.Hour), "right", *root)

	bases, err := history.FindMergeBase(ctx, s, left, right)
	require.NoError(t, err)
	require.Len(t, bases, 1)
	assert.Equal(t, root.Hash, bases[0].Hash)
}

func TestCollectReachableObjectsIncludesCommitAndTree(t *testing.T) {
	ctx := context.Background()
	s := newStore()
	root, _, _, c := buildLine(t, s)

	set, err := history.CollectReachableObjects(ctx, s, []plumbing.Hash{c.Hash}, nil)
	require.NoError(t, err)

	assert.True(t, set[c.Hash])
	assert.True(t, set[root.Hash])
	assert.True(t, set[object.EmptyTreeHash])
}

func TestCollectReachableObjectsStopsAtHaves(t *testing.T) {
	ctx := context.Background()
	s := newStore()
	root, a, b, c := buildLine(t, s)

	haves := map[plumbing.Hash]bool{a.Hash: true}
	set, err := history.CollectReachableObjects(ctx, s, []plumbing.Hash{c.Hash}, haves)
	require.NoError(t, err)

	assert.True(t, set[c.Hash])
	assert.True(t, set[b.Hash])
	assert.False(t, set[a.Hash])
	assert.False(t, set[root.Hash])
}
