package selfplay

import (
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"

	"github.com/janpfeifer/alphago9/internal/async"
	"github.com/janpfeifer/alphago9/internal/inferencecache"
	"github.com/janpfeifer/alphago9/internal/model"
)

// SelfplayThread owns up to len(Games) concurrently-playing SelfplayGames and pumps them
// through one tick of the pipeline at a time, per spec.md 4.7.
type SelfplayThread struct {
	Games    []*SelfplayGame
	Executor *async.ShardedExecutor
	Cache    *inferencecache.Cache
	Model    model.Backend

	BoardSize int
	NumPlanes int
	NumMoves  int

	Selfplayer *Selfplayer
}

// Tick runs exactly one round of the pipeline across every non-nil game slot: refill empty
// slots, fan out leaf selection across Executor's shards, run one batched model call, merge
// results into the cache, process them back into each game's tree, and finally try to play a
// move in every game, handing finished games back to the Selfplayer.
func (t *SelfplayThread) Tick() error {
	for i, g := range t.Games {
		if g == nil {
			t.Games[i] = t.Selfplayer.StartNewGame(false)
		}
	}

	var gameIndex int64 = -1
	err := t.Executor.Execute(func(shardIndex, numShards int) error {
		for {
			i := int(atomic.AddInt64(&gameIndex, 1))
			if i >= len(t.Games) {
				return nil
			}
			g := t.Games[i]
			if g == nil || g.Finished() {
				continue
			}
			g.SelectLeaves(t.Cache)
		}
	})
	if err != nil {
		return err
	}

	var allInferences []*Inference
	spans := make([][]*Inference, len(t.Games))
	for i, g := range t.Games {
		if g == nil {
			continue
		}
		spans[i] = g.DrainPending()
		allInferences = append(allInferences, spans[i]...)
	}

	var modelName string
	if len(allInferences) > 0 {
		inputs := make([]float32, 0, len(allInferences)*t.NumPlanes*t.BoardSize*t.BoardSize)
		policies := make([][]float32, len(allInferences))
		values := make([]float32, len(allInferences))
		for i, inf := range allInferences {
			inputs = append(inputs, inf.Input...)
			policies[i] = inf.Policy
		}
		var err error
		modelName, err = t.Model.RunMany(inputs, policies, values)
		if err != nil {
			return err
		}
		for i, inf := range allInferences {
			inf.Value = values[i]
		}
		for _, inf := range allInferences {
			if !inf.Cacheable {
				continue
			}
			out := &inferencecache.Output{Policy: inf.Policy, Value: inf.Value, ModelName: modelName}
			t.Cache.Merge(inf.CacheKey, inf.CanonicalSym, inf.InferenceSym, out, t.BoardSize)
			inf.Policy = out.Policy
			inf.Value = out.Value
		}
	}

	var wg errgroup.Group
	for i, g := range t.Games {
		if g == nil {
			continue
		}
		i := i
		g := g
		wg.Go(func() error {
			g.ProcessInferences(modelName, spans[i])
			g.MaybePlayMove()
			return nil
		})
	}
	if err := wg.Wait(); err != nil {
		return err
	}

	for i, g := range t.Games {
		if g != nil && g.Finished() {
			klog.V(1).Infof("selfplay: game finished, winner=%s score=%.1f", g.Game.Winner, g.Game.FinalScore)
			t.Selfplayer.FinishGame(g)
			t.Games[i] = nil
		}
	}
	return nil
}
