package features

import (
	"github.com/janpfeifer/alphago9/internal/board"
)

// agzEncoder implements the 17-plane AlphaGo Zero feature set: 8 most-recent plies, each
// contributing {my stones, their stones} planes, plus one constant to-play plane.
type agzEncoder struct{}

const agzHistoryPlies = 8
const agzNumPlanes = agzHistoryPlies*2 + 1

func (agzEncoder) Kind() Kind        { return AGZ }
func (agzEncoder) NumPlanes() int    { return agzNumPlanes }
func (agzEncoder) HistoryWindow() int { return agzHistoryPlies }

func (agzEncoder) Encode(history []*board.Position, sym board.Symmetry, layout Layout) []float32 {
	cur := current(history)
	if cur == nil {
		return nil
	}
	size := cur.Size
	toPlay := cur.ToPlay
	tensor := make([]float32, agzNumPlanes*size*size)

	for ply := 0; ply < agzHistoryPlies; ply++ {
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
					setPlane(tensor, layout, size, agzNumPlanes, minePlane, tr, tc, 1)
				} else {
					setPlane(tensor, layout, size, agzNumPlanes, theirsPlane, tr, tc, 1)
				}
			}
		}
	}

	toPlayPlane := agzHistoryPlies * 2
	if toPlay == board.Black {
		for row := 0; row < size; row++ {
			for col := 0; col < size; col++ {
				tr, tc := sym.Transform(row, col, size)
				setPlane(tensor, layout, size, agzNumPlanes, toPlayPlane, tr, tc, 1)
			}
		}
	}
	return tensor
}
