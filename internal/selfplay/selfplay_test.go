package selfplay

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janpfeifer/alphago9/internal/features"
	"github.com/janpfeifer/alphago9/internal/inferencecache"
	"github.com/janpfeifer/alphago9/internal/mcts"
)

func testOptions() Options {
	return Options{
		MCTS:              mcts.DefaultOptions(),
		NumReadouts:       8,
		FastPlayReadouts:  4,
		FastPlayFrequency: 0,
		VirtualLosses:     4,
		AllowPass:         true,
		FeatureKind:       features.AGZ,
		Layout:            features.NHWC,
	}
}

// driveOneMove runs SelectLeaves/ProcessInferences rounds (serving every queued inference with
// a uniform fake policy) until MaybePlayMove succeeds once.
func driveOneMove(t *testing.T, g *SelfplayGame, cache *inferencecache.Cache) {
	t.Helper()
	for i := 0; i < 200; i++ {
		g.SelectLeaves(cache)
		pending := g.DrainPending()
		if len(pending) > 0 {
			numMoves := len(pending[0].Policy)
			uniform := 1.0 / float32(numMoves)
			for _, inf := range pending {
				for j := range inf.Policy {
					inf.Policy[j] = uniform
				}
				inf.Value = 0
			}
			g.ProcessInferences("fake-model", pending)
		}
		if g.MaybePlayMove() {
			return
		}
	}
	t.Fatal("MaybePlayMove never returned true")
}

func TestSelfplayGamePlaysOneMove(t *testing.T) {
	cache := inferencecache.NewCache(2, 1000)
	rnd := rand.New(rand.NewSource(1))
	g := NewSelfplayGame(9, 7.5, testOptions(), rnd)

	driveOneMove(t, g, cache)

	require.Len(t, g.Game.Moves, 1)
	assert.True(t, g.Game.Moves[0].Trainable)
	assert.NotEmpty(t, g.Game.Moves[0].SearchPi)
}

func TestSelfplayGameResignsWhenEnabled(t *testing.T) {
	cache := inferencecache.NewCache(2, 1000)
	rnd := rand.New(rand.NewSource(1))
	opts := testOptions()
	opts.ResignEnabled = true
	opts.ResignThreshold = 2 // impossible to exceed with Q in [-1,1]: always resigns immediately.
	g := NewSelfplayGame(9, 7.5, opts, rnd)

	driveOneMove(t, g, cache)

	assert.True(t, g.Finished())
	assert.True(t, g.Game.Resigned)
}

func TestSelfplayGamePlaysSeveralMovesAndFinishes(t *testing.T) {
	cache := inferencecache.NewCache(2, 2000)
	rnd := rand.New(rand.NewSource(42))
	opts := testOptions()
	opts.NumReadouts = 4
	opts.VirtualLosses = 2
	opts.MinMoveNumberForAutoPass = 2
	g := NewSelfplayGame(5, 0, opts, rnd)

	for i := 0; i < 400 && !g.Finished(); i++ {
		g.SelectLeaves(cache)
		pending := g.DrainPending()
		if len(pending) > 0 {
			numMoves := len(pending[0].Policy)
			uniform := 1.0 / float32(numMoves)
			for _, inf := range pending {
				for j := range inf.Policy {
					inf.Policy[j] = uniform
				}
			}
			g.ProcessInferences("fake-model", pending)
		}
		g.MaybePlayMove()
	}

	assert.True(t, g.Finished())
	examples := g.Examples()
	for _, e := range examples {
		assert.NotZero(t, e.Outcome*e.Outcome) // outcome is always +-1, never 0.
	}
}
