package features

import (
	"github.com/janpfeifer/alphago9/internal/board"
)

// mlperf07Encoder implements the 13-plane mlperf07 feature set: 4 most-recent plies of {my,
// their} stones (8 planes), a to-play plane, three liberty-count planes, and one would-capture
// plane.
type mlperf07Encoder struct{}

const mlperf07HistoryPlies = 4
const mlperf07NumPlanes = mlperf07HistoryPlies*2 + 1 + 3 + 1

func (mlperf07Encoder) Kind() Kind        { return Mlperf07 }
func (mlperf07Encoder) NumPlanes() int    { return mlperf07NumPlanes }
func (mlperf07Encoder) HistoryWindow() int { return mlperf07HistoryPlies }

func (mlperf07Encoder) Encode(history []*board.Position, sym board.Symmetry, layout Layout) []float32 {
	cur := current(history)
	if cur == nil {
		return nil
	}
	size := cur.Size
	toPlay := cur.ToPlay
	opponent := board.OpponentColor(toPlay)
	tensor := make([]float32, mlperf07NumPlanes*size*size)

	for ply := 0; ply < mlperf07HistoryPlies; ply++ {
		minePlane := ply * 2
		theirsPlane := ply*2 + 1
		var pos *board.Position
		if ply < len(history) {
			pos = history[ply]
		}
		if pos == nil {
			continue
		}
		for row := 0; row < size; row++ {
			for col := 0; col < size; col++ {
				c := board.NewCoord(size, row, col)
				color := pos.StoneColorAt(c)
				if color == board.Empty {
					continue
				}
				tr, tc := sym.Transform(row, col, size)
				if color == toPlay {
					setPlane(tensor, layout, size, mlperf07NumPlanes, minePlane, tr, tc, 1)
				} else {
					setPlane(tensor, layout, size, mlperf07NumPlanes, theirsPlane, tr, tc, 1)
				}
			}
		}
	}

	toPlayPlane := mlperf07HistoryPlies * 2
	libertyBase := toPlayPlane + 1
	wouldCapturePlane := libertyBase + 3

	if toPlay == board.Black {
		for row := 0; row < size; row++ {
			for col := 0; col < size; col++ {
				tr, tc := sym.Transform(row, col, size)
				setPlane(tensor, layout, size, mlperf07NumPlanes, toPlayPlane, tr, tc, 1)
			}
		}
	}

	for row := 0; row < size; row++ {
		for col := 0; col < size; col++ {
			c := board.NewCoord(size, row, col)
			tr, tc := sym.Transform(row, col, size)

			color := cur.StoneColorAt(c)
			if color != board.Empty {
				libs := cur.Pool.Get(cur.StoneGroupID(c)).NumLiberties
				plane := -1
				switch {
				case libs == 1:
					plane = libertyBase
				case libs == 2:
					plane = libertyBase + 1
				case libs >= 3:
					plane = libertyBase + 2
				}
				if plane >= 0 {
					setPlane(tensor, layout, size, mlperf07NumPlanes, plane, tr, tc, 1)
				}
				continue
			}

			if cur.LegalMoves[c] && wouldCapture(cur, c, toPlay, opponent) {
				setPlane(tensor, layout, size, mlperf07NumPlanes, wouldCapturePlane, tr, tc, 1)
			}
		}
	}

	return tensor
}

// wouldCapture reports whether playing toPlay at the empty point c would immediately reduce
// some neighboring opponent group to zero liberties.
func wouldCapture(p *board.Position, c board.Coord, toPlay, opponent board.Color) bool {
	for _, nc := range c.Neighbors4(p.Size) {
		if p.StoneColorAt(nc) != opponent {
			continue
		}
		group := p.Pool.Get(p.StoneGroupID(nc))
		if group.NumLiberties == 1 {
			return true
		}
	}
	return false
}
