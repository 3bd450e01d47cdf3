package selfplay

import (
	"github.com/janpfeifer/alphago9/internal/board"
	"github.com/janpfeifer/alphago9/internal/training"
)

// MaybePlayMove implements spec.md 4.6's MaybePlayMove: returns false until the root has
// reached its readout target; otherwise checks resignation, restricts play to non-pass-alive
// points once the opponent has passed enough in a row, picks (and optionally reshapes) a move,
// records it, advances the tree, auto-passes to game-over once the whole board is pass-alive
// past a minimum move number, and rolls the dice for the next tick's fast-play mode.
func (g *SelfplayGame) MaybePlayMove() bool {
	if g.finished {
		return false
	}
	root := g.Tree.Root()
	if root.TotalN() < g.targetReadouts() {
		return false
	}

	if g.Options.ResignEnabled && g.Tree.QPerspective() < g.Options.ResignThreshold {
		g.resigned = true
		g.finalize(true)
		return true
	}

	restrictPassAlive := g.Options.RestrictPassAliveThreshold > 0 &&
		g.consecutivePasses >= g.Options.RestrictPassAliveThreshold

	if !g.fastPlay {
		g.Tree.ReshapeFinalVisits(restrictPassAlive)
	}

	move := g.Tree.PickMove(g.rnd, restrictPassAlive)

	color := root.Position().ToPlay
	rec := Move{Coord: move, Color: color}
	if !g.fastPlay {
		rec.Trainable = true
		rec.Q = root.Q(move)
		rec.N = root.N(move)
		rec.SearchPi = g.Tree.CalculateSearchPi()
		history := positionHistory(root, g.encoder.HistoryWindow())
		sym := board.Identity
		rec.Input = g.encoder.Encode(history, sym, g.Options.Layout)
	}
	g.Game.Moves = append(g.Game.Moves, rec)

	if move == board.PassCoord(root.Position().Size) {
		if g.consecutivePasses < g.Options.RestrictPassAliveThreshold {
			g.consecutivePasses++
		}
	} else {
		g.consecutivePasses = 0
	}

	if err := g.Tree.PlayMove(move); err != nil {
		panic(err)
	}
	g.injectNoise = true

	if g.Tree.Root().IsGameOver() {
		g.finalize(false)
		return true
	}

	if root.Position().MoveNumber >= g.Options.MinMoveNumberForAutoPass && g.Tree.Root().Position().AllPassAlive() {
		g.autoPassToGameOver()
		return true
	}

	g.fastPlay = g.rnd.Float32() < g.Options.FastPlayFrequency
	if g.fastPlay {
		g.injectNoise = false
	}
	return true
}

// autoPassToGameOver plays pass for both sides until the tree reaches a terminal node, used
// once the whole board is already pass-alive and no further search is worth the cost.
func (g *SelfplayGame) autoPassToGameOver() {
	for !g.Tree.Root().IsGameOver() {
		pass := board.PassCoord(g.Tree.Root().Position().Size)
		color := g.Tree.Root().Position().ToPlay
		g.Game.Moves = append(g.Game.Moves, Move{Coord: pass, Color: color})
		if err := g.Tree.PlayMove(pass); err != nil {
			panic(err)
		}
	}
	g.finalize(false)
}

// finalize records the game's final score/winner and marks it finished.
func (g *SelfplayGame) finalize(resigned bool) {
	g.finished = true
	g.resigned = resigned
	g.Game.Resigned = resigned
	if resigned {
		// The resigning side is whoever was to play when QPerspective dropped below
		// threshold; the winner is their opponent.
		loser := g.Tree.Root().Position().ToPlay
		g.Game.Winner = board.OpponentColor(loser)
		if loser == board.Black {
			g.Game.FinalScore = -1
		} else {
			g.Game.FinalScore = 1
		}
		return
	}
	score := g.Tree.Root().Position().CalculateScore()
	g.Game.FinalScore = score
	if score >= 0 {
		g.Game.Winner = board.Black
	} else {
		g.Game.Winner = board.White
	}
}

// Examples converts every trainable move into a training.Example, with the game's eventual
// outcome (+1/-1, Black's perspective) attached to each one.
func (g *SelfplayGame) Examples() []training.Example {
	outcome := float32(1)
	if g.Game.Winner == board.White {
		outcome = -1
	}
	var examples []training.Example
	modelName := ""
	if len(g.Game.ModelNames) > 0 {
		modelName = g.Game.ModelNames[len(g.Game.ModelNames)-1]
	}
	for _, m := range g.Game.Moves {
		if !m.Trainable {
			continue
		}
		examples = append(examples, training.Example{
			Input:     m.Input,
			SearchPi:  m.SearchPi,
			Outcome:   outcome,
			Color:     m.Color,
			Komi:      g.Game.Komi,
			ModelName: modelName,
		})
	}
	return examples
}
