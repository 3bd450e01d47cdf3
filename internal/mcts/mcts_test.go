package mcts

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janpfeifer/alphago9/internal/board"
)

// uniformPriors returns a flat distribution over legal moves, zero elsewhere.
func uniformPriors(p *board.Position) []float32 {
	priors := make([]float32, board.NumMoves(p.Size))
	var legalCount int
	for _, legal := range p.LegalMoves {
		if legal {
			legalCount++
		}
	}
	for i, legal := range p.LegalMoves {
		if legal {
			priors[i] = 1.0 / float32(legalCount)
		}
	}
	return priors
}

// expandWithUniform is a test helper that runs one SelectLeaf/IncorporateResults round with a
// flat prior and a fixed value, to exercise the tree without a real inference backend.
func expandWithUniform(t *testing.T, tree *MctsTree, v float32) *MctsNode {
	t.Helper()
	leaf := tree.SelectLeaf(true)
	if leaf.IsGameOver() {
		tree.IncorporateEndGameResult(leaf, v)
		return leaf
	}
	tree.IncorporateResults(leaf, uniformPriors(leaf.Position()), v)
	return leaf
}

// TestSelectLeafExpandsAndVisitsAccumulate checks that repeated SelectLeaf/IncorporateResults
// rounds grow the root's totalN by exactly one per round after the first, which expands the
// root itself and so backs up through no edge.
func TestSelectLeafExpandsAndVisitsAccumulate(t *testing.T) {
	size := 9
	p := board.NewPosition(size, 7.5)
	tree := NewMctsTree(p, DefaultOptions())

	for i := 0; i < 40; i++ {
		expandWithUniform(t, tree, 0.5)
	}

	assert.Equal(t, float32(39), tree.Root().TotalN())
}

// TestVirtualLossBalancesToZero checks that Add followed by Revert leaves every edge's W
// exactly where it was, for a tree with some real search depth.
func TestVirtualLossBalancesToZero(t *testing.T) {
	size := 9
	p := board.NewPosition(size, 7.5)
	tree := NewMctsTree(p, DefaultOptions())

	for i := 0; i < 5; i++ {
		expandWithUniform(t, tree, 0.1)
	}

	leaf := tree.SelectLeaf(true)
	before := make([]float32, len(tree.Root().childW))
	copy(before, tree.Root().childW)

	tree.AddVirtualLoss(leaf)
	tree.RevertVirtualLoss(leaf)

	assert.Equal(t, before, tree.Root().childW)
}

// TestVirtualLossBiasesSelectionAway checks that after adding a virtual loss to the currently
// most-favored child, a fresh SelectLeaf prefers a different child (or at least no longer
// strictly prefers the virtual-loss-laden one with the same margin).
func TestVirtualLossBiasesSelectionAway(t *testing.T) {
	size := 9
	p := board.NewPosition(size, 7.5)
	tree := NewMctsTree(p, DefaultOptions())

	root := tree.Root()
	tree.IncorporateResults(root, uniformPriors(p), 0)

	first := tree.SelectLeaf(true)
	require.NotNil(t, first)

	scoreBefore := tree.actionScore(root, int(first.Move()), true)
	tree.AddVirtualLoss(first)
	scoreAfter := tree.actionScore(root, int(first.Move()), true)

	// Virtual loss pushes W toward the opponent's favor, so from the root's to-play
	// perspective the edge's contribution to action score should not have increased.
	assert.LessOrEqual(t, scoreAfter, scoreBefore)
}

// TestInjectNoiseKeepsDistributionNormalized checks that after noise injection, priors over
// legal moves still sum to (approximately) one and illegal moves remain at zero.
func TestInjectNoiseKeepsDistributionNormalized(t *testing.T) {
	size := 9
	p := board.NewPosition(size, 7.5)
	tree := NewMctsTree(p, DefaultOptions())
	root := tree.Root()
	tree.IncorporateResults(root, uniformPriors(p), 0)

	tree.InjectNoise(0.03, 0.25)

	var sum float32
	for i, legal := range p.LegalMoves {
		if !legal {
			assert.Zero(t, root.P(board.Coord(i)))
		}
		sum += root.P(board.Coord(i))
	}
	assert.InDelta(t, 1.0, sum, 1e-3)
}

// TestReshapeFinalVisitsPreservesBestMove checks that reshaping never reduces the best move's
// own visit count and never increases any other move's visit count.
func TestReshapeFinalVisitsPreservesBestMove(t *testing.T) {
	size := 9
	p := board.NewPosition(size, 7.5)
	tree := NewMctsTree(p, DefaultOptions())

	for i := 0; i < 60; i++ {
		expandWithUniform(t, tree, 0.3)
	}

	root := tree.Root()
	before := make([]float32, len(root.childN))
	copy(before, root.childN)
	bestMove := tree.argmaxN(root)

	tree.ReshapeFinalVisits(false)

	assert.Equal(t, before[bestMove], root.childN[bestMove])
	for i := range root.childN {
		if board.Coord(i) == bestMove {
			continue
		}
		assert.LessOrEqual(t, root.childN[i], before[i])
	}
}

// TestCalculateSearchPiSumsToOne checks the returned policy target is a valid distribution.
func TestCalculateSearchPiSumsToOne(t *testing.T) {
	size := 9
	p := board.NewPosition(size, 7.5)
	tree := NewMctsTree(p, DefaultOptions())

	for i := 0; i < 10; i++ {
		expandWithUniform(t, tree, 0.0)
	}

	pi := tree.CalculateSearchPi()
	var sum float32
	for _, v := range pi {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-3)
}

// TestPlayMoveAdvancesRootAndDropsSiblings checks that PlayMove moves the root down to the
// selected child, and that the new root's parent pointer is cleared so the rest of the tree
// (and the old root itself) can be garbage collected.
func TestPlayMoveAdvancesRootAndDropsSiblings(t *testing.T) {
	size := 9
	p := board.NewPosition(size, 7.5)
	tree := NewMctsTree(p, DefaultOptions())
	root := tree.Root()
	tree.IncorporateResults(root, uniformPriors(p), 0)

	move := board.NewCoord(size, 4, 4)
	require.NoError(t, tree.PlayMove(move))

	assert.Equal(t, move, tree.Root().Move())
	assert.Nil(t, tree.Root().Parent())
	assert.Equal(t, 1, tree.Root().Position().MoveNumber)
}

// TestPickMoveRespectsPassAliveRestriction checks that when restrictPassAlive is set and every
// remaining legal point lies in a pass-alive region, PickMove falls back to pass.
func TestPickMoveRespectsPassAliveRestriction(t *testing.T) {
	size := 9
	p := board.NewPosition(size, 0)

	// Build a fully pass-alive board: Black surrounds two eyes and nothing else is in play.
	ring := []board.Coord{
		board.NewCoord(size, 0, 1), board.NewCoord(size, 0, 2), board.NewCoord(size, 0, 3),
		board.NewCoord(size, 1, 0), board.NewCoord(size, 1, 2), board.NewCoord(size, 1, 3),
		board.NewCoord(size, 2, 1), board.NewCoord(size, 2, 2), board.NewCoord(size, 2, 3),
		board.NewCoord(size, 0, 5), board.NewCoord(size, 0, 6), board.NewCoord(size, 0, 7),
		board.NewCoord(size, 1, 4), board.NewCoord(size, 1, 6), board.NewCoord(size, 1, 7),
		board.NewCoord(size, 2, 5), board.NewCoord(size, 2, 6), board.NewCoord(size, 2, 7),
	}
	for _, c := range ring {
		require.NoError(t, p.PlayMove(c, board.Black, nil))
		require.NoError(t, p.PlayMove(board.PassCoord(size), board.White, nil))
	}

	tree := NewMctsTree(p, DefaultOptions())
	root := tree.Root()
	tree.IncorporateResults(root, uniformPriors(p), 0)

	rnd := rand.New(rand.NewSource(1))
	move := tree.PickMove(rnd, true)
	assert.Equal(t, board.PassCoord(size), move)
}
