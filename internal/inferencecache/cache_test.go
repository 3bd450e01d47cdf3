package inferencecache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janpfeifer/alphago9/internal/board"
)

func flatPolicy(size int, peak board.Coord) []float32 {
	p := make([]float32, board.NumMoves(size))
	p[peak] = 1
	return p
}

// TestCacheSymmetryInvariance checks spec.md's "Cache symmetry invariance" testable property:
// inserting under one inference symmetry and querying under another reports a miss until that
// second symmetry is itself merged in.
func TestCacheSymmetryInvariance(t *testing.T) {
	size := 9
	p := board.NewPosition(size, 7.5)
	require.NoError(t, p.PlayMove(board.NewCoord(size, 2, 3), board.Black, nil))

	canonicalSym, cacheHash, ok := CanonicalSymmetry(p)
	require.True(t, ok)
	key := BuildKey(p, cacheHash)

	cache := NewCache(4, 1000)

	peak := board.NewCoord(size, 4, 4)
	out := &Output{Policy: flatPolicy(size, peak), Value: 0.2, ModelName: "m1"}
	cache.Merge(key, canonicalSym, board.Identity, out, size)

	var got Output
	assert.True(t, cache.TryGet(key, canonicalSym, board.Identity, &got, size))
	assert.False(t, cache.TryGet(key, canonicalSym, board.Rot90, &got, size))

	out2 := &Output{Policy: flatPolicy(size, peak), Value: 0.3, ModelName: "m1"}
	cache.Merge(key, canonicalSym, board.Rot90, out2, size)

	assert.True(t, cache.TryGet(key, canonicalSym, board.Rot90, &got, size))
}

// TestCacheMergeAveragesValue checks that merging a second symmetry's result running-averages
// the cached value rather than overwriting it.
func TestCacheMergeAveragesValue(t *testing.T) {
	size := 9
	p := board.NewPosition(size, 7.5)
	require.NoError(t, p.PlayMove(board.NewCoord(size, 2, 3), board.Black, nil))
	canonicalSym, cacheHash, ok := CanonicalSymmetry(p)
	require.True(t, ok)
	key := BuildKey(p, cacheHash)

	cache := NewCache(1, 10)
	peak := board.NewCoord(size, 0, 0)

	out1 := &Output{Policy: flatPolicy(size, peak), Value: 1.0}
	cache.Merge(key, canonicalSym, board.Identity, out1, size)

	out2 := &Output{Policy: flatPolicy(size, peak), Value: 0.0}
	cache.Merge(key, canonicalSym, board.Rot90, out2, size)

	assert.InDelta(t, 0.5, out2.Value, 1e-6)
}

// TestEstimateCapacityScalesWithBudget checks larger budgets yield more entries and smaller
// policies fit more entries per MiB.
func TestEstimateCapacityScalesWithBudget(t *testing.T) {
	small := EstimateCapacity(64, 82)
	large := EstimateCapacity(256, 82)
	assert.Greater(t, large, small)

	biggerPolicy := EstimateCapacity(64, 362)
	assert.Greater(t, small, biggerPolicy)
}

// TestCanonicalSymmetryAgreesAcrossEquivalentPositions checks that two positions which are
// dihedral-symmetric to each other resolve to the same cache key.
func TestCanonicalSymmetryAgreesAcrossEquivalentPositions(t *testing.T) {
	size := 9
	p1 := board.NewPosition(size, 7.5)
	require.NoError(t, p1.PlayMove(board.NewCoord(size, 2, 3), board.Black, nil))

	p2 := board.NewPosition(size, 7.5)
	// (2,3) rotated 90 degrees on a 9x9 board lands at (3, 6). A point off both diagonals and
	// both center lines is used, since a position fixed by some symmetry has no canonical one.
	require.NoError(t, p2.PlayMove(board.NewCoord(size, 3, 6), board.Black, nil))

	_, h1, ok1 := CanonicalSymmetry(p1)
	_, h2, ok2 := CanonicalSymmetry(p2)
	require.True(t, ok1)
	require.True(t, ok2)
	assert.Equal(t, h1, h2)
}
