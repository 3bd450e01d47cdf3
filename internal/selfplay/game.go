// Package selfplay implements the self-play pipeline of spec.md sections 4.6-4.8: one
// SelfplayGame drives a single game's MctsTree through leaf selection, inference processing,
// and move playing; a SelfplayThread owns a batch of concurrently-playing games and pumps them
// through one tick at a time; a Selfplayer orchestrates the model pool, the output queue, and
// the directory/abort watchers across a fleet of SelfplayThreads.
package selfplay

import (
	"math/rand"
	"time"

	"github.com/janpfeifer/alphago9/internal/board"
	"github.com/janpfeifer/alphago9/internal/features"
	"github.com/janpfeifer/alphago9/internal/inferencecache"
	"github.com/janpfeifer/alphago9/internal/mcts"
)

// Move is one recorded move of a finished or in-progress Game. Trainable moves (not played
// during a fast-play tick) carry the search statistics a training example needs; fast-play
// moves carry only the move itself.
type Move struct {
	Coord     board.Coord
	Color     board.Color
	Trainable bool

	Q        float32
	N        float32
	SearchPi []float32
	Input    []float32
}

// Game is the complete record of one self-play game, independent of the search machinery that
// produced it.
type Game struct {
	Size  int
	Komi  float32
	Moves []Move

	FinalScore float32 // Tromp-Taylor area score, Black-perspective.
	Winner     board.Color
	Resigned   bool

	ModelNames []string
	StartTime  time.Time
}

// Options configures one SelfplayGame's search and move-selection behavior -- the per-game
// counterpart to mcts.Options, carrying the self-play-specific knobs from spec.md 4.6 and the
// CLI surface in section 6.
type Options struct {
	MCTS mcts.Options

	NumReadouts       int
	FastPlayReadouts  int
	FastPlayFrequency float32
	VirtualLosses     int

	ResignEnabled   bool
	ResignThreshold float32

	AllowPass                  bool
	RestrictPassAliveThreshold int
	MinMoveNumberForAutoPass   int

	FeatureKind features.Kind
	Layout      features.Layout
}

// Inference is a leaf awaiting a model evaluation: the cache key it was probed under, the
// canonical and (randomly chosen, per-query) inference symmetries, the leaf itself, the
// already-encoded input tensor, and in/out policy-value buffers the caller fills in.
type Inference struct {
	Cacheable    bool
	CacheKey     inferencecache.Key
	CanonicalSym board.Symmetry
	InferenceSym board.Symmetry
	Leaf         *mcts.MctsNode

	Input  []float32
	Policy []float32
	Value  float32
}

// SelfplayGame drives one game's MctsTree forward: SelectLeaves queues work, ProcessInferences
// feeds results back in, MaybePlayMove advances the game once enough readouts have
// accumulated.
type SelfplayGame struct {
	Options Options
	Tree    *mcts.MctsTree
	Game    Game

	rnd *rand.Rand

	encoder features.Encoder

	fastPlay    bool
	injectNoise bool

	consecutivePasses int

	finished bool
	resigned bool

	pending []*Inference
}

// NewSelfplayGame starts a new game from an empty position of the given size/komi.
func NewSelfplayGame(size int, komi float32, opts Options, rnd *rand.Rand) *SelfplayGame {
	pos := board.NewPosition(size, komi)
	return &SelfplayGame{
		Options: opts,
		Tree:    mcts.NewMctsTree(pos, opts.MCTS),
		Game: Game{
			Size:      size,
			Komi:      komi,
			StartTime: time.Now(),
		},
		rnd:         rnd,
		encoder:     features.NewEncoder(opts.FeatureKind),
		injectNoise: true,
	}
}

// Finished reports whether the game has reached a terminal state (two passes, resignation, or
// a played-out end game).
func (g *SelfplayGame) Finished() bool { return g.finished }

// targetReadouts is the per-move readout budget for the move currently being searched.
func (g *SelfplayGame) targetReadouts() float32 {
	if g.fastPlay {
		return float32(g.Options.FastPlayReadouts)
	}
	return float32(g.Options.NumReadouts)
}

// positionHistory walks from leaf up through its ancestors, most-recent-first, up to window
// positions (padding is handled by the Encoder itself when fewer ancestors exist).
func positionHistory(leaf *mcts.MctsNode, window int) []*board.Position {
	history := make([]*board.Position, 0, window)
	cur := leaf
	for i := 0; i < window && cur != nil; i++ {
		history = append(history, cur.Position())
		cur = cur.Parent()
	}
	return history
}

// tromptaylorWinnerValue returns +1 if Black's area score (after komi) is non-negative, -1
// otherwise -- the backup value fed to IncorporateEndGameResult for a terminal leaf.
func tromptaylorWinnerValue(p *board.Position) float32 {
	if p.CalculateScore() >= 0 {
		return 1
	}
	return -1
}

// SelectLeaves runs SelectLeaf/cache-probe rounds until VirtualLosses leaves are queued for
// inference, the root has reached its readout target, or selection returns a leaf that is
// already queued, per spec.md 4.6's SelectLeaves paragraph.
func (g *SelfplayGame) SelectLeaves(cache *inferencecache.Cache) {
	if g.finished {
		return
	}
	historyWindow := g.encoder.HistoryWindow()

	for len(g.pending) < g.Options.VirtualLosses && g.Tree.Root().TotalN() < g.targetReadouts() {
		if g.injectNoise && g.Tree.Root().IsExpanded() && !g.fastPlay {
			g.Tree.InjectNoise(g.Options.MCTS.DirichletAlpha, g.Options.MCTS.NoiseMix)
			g.injectNoise = false
		}

		leaf := g.Tree.SelectLeaf(g.Options.AllowPass)
		if leaf == g.Tree.Root() && leaf.IsExpanded() {
			g.injectNoise = false
		}

		if leaf.IsGameOver() {
			v := tromptaylorWinnerValue(leaf.Position())
			g.Tree.IncorporateEndGameResult(leaf, v)
			continue
		}

		alreadyQueued := false
		for _, inf := range g.pending {
			alreadyQueued = alreadyQueued || inf.Leaf == leaf
		}
		if alreadyQueued {
			// Virtual loss did not steer selection off a leaf still awaiting inference (always
			// the case for the unexpanded root); it is expanded once, when its result arrives.
			break
		}

		canonicalSym, cacheHash, canCache := inferencecache.CanonicalSymmetry(leaf.Position())
		inferenceSym := board.AllSymmetries[g.rnd.Intn(len(board.AllSymmetries))]

		if canCache {
			key := inferencecache.BuildKey(leaf.Position(), cacheHash)
			var out inferencecache.Output
			out.Policy = make([]float32, board.NumMoves(leaf.Position().Size))
			if cache.TryGet(key, canonicalSym, inferenceSym, &out, leaf.Position().Size) {
				g.Tree.IncorporateResults(leaf, out.Policy, out.Value)
				continue
			}
			input := g.encoder.Encode(positionHistory(leaf, historyWindow), inferenceSym, g.Options.Layout)
			g.Tree.AddVirtualLoss(leaf)
			g.pending = append(g.pending, &Inference{
				Cacheable:    true,
				CacheKey:     key,
				CanonicalSym: canonicalSym,
				InferenceSym: inferenceSym,
				Leaf:         leaf,
				Input:        input,
				Policy:       make([]float32, board.NumMoves(leaf.Position().Size)),
			})
			continue
		}

		input := g.encoder.Encode(positionHistory(leaf, historyWindow), inferenceSym, g.Options.Layout)
		g.Tree.AddVirtualLoss(leaf)
		g.pending = append(g.pending, &Inference{
			InferenceSym: inferenceSym,
			Leaf:         leaf,
			Input:        input,
			Policy:       make([]float32, board.NumMoves(leaf.Position().Size)),
		})
	}
}

// DrainPending removes and returns every currently queued Inference, for the SelfplayThread to
// fold into a batch.
func (g *SelfplayGame) DrainPending() []*Inference {
	out := g.pending
	g.pending = nil
	return out
}

// ProcessInferences incorporates every (now-filled-in) inference result and reverts its virtual
// loss, remembering modelName if it's new -- spec.md 4.6's ProcessInferences paragraph.
func (g *SelfplayGame) ProcessInferences(modelName string, inferences []*Inference) {
	for _, inf := range inferences {
		g.Tree.IncorporateResults(inf.Leaf, inf.Policy, inf.Value)
		g.Tree.RevertVirtualLoss(inf.Leaf)
	}
	if modelName != "" && (len(g.Game.ModelNames) == 0 || g.Game.ModelNames[len(g.Game.ModelNames)-1] != modelName) {
		g.Game.ModelNames = append(g.Game.ModelNames, modelName)
	}
}
