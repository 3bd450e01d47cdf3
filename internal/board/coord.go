package board

import "fmt"

// Coord is a point on the board, encoded as row*size+col, or one of the two
// special values Pass/Resign. It's a 16-bit value so positions are cheap to
// copy and stones are cheap to pack (see Stone).
type Coord uint16

// InvalidCoord is the 0xffff sentinel for "no coordinate" (e.g. no ko point).
const InvalidCoord Coord = 0xffff

// PassCoord returns the reserved Coord value for "pass" on a board of the given size.
func PassCoord(size int) Coord {
	return Coord(size * size)
}

// ResignCoord returns the reserved Coord value for "resign" on a board of the given size.
func ResignCoord(size int) Coord {
	return Coord(size*size + 1)
}

// NumMoves is the number of distinct move values on a board of the given size: every
// point plus pass. Resign is not itself a legal move to search over.
func NumMoves(size int) int {
	return size*size + 1
}

// NewCoord builds a Coord from (row, col) on a board of the given size, row and col both
// in [0, size).
func NewCoord(size, row, col int) Coord {
	return Coord(row*size + col)
}

// RowCol decodes a Coord into (row, col) for a board of the given size. Only valid for
// on-board coordinates (not Pass/Resign/Invalid).
func (c Coord) RowCol(size int) (row, col int) {
	v := int(c)
	return v / size, v % size
}

// IsOnBoard returns whether c refers to an actual point on a board of the given size (as
// opposed to pass, resign, or invalid).
func (c Coord) IsOnBoard(size int) bool {
	return int(c) < size*size
}

func (c Coord) String() string {
	return fmt.Sprintf("Coord(%d)", uint16(c))
}

// Neighbors4 returns the up-to-4 orthogonal neighbors of c on a board of the given size, in
// N, E, S, W order. Off-board neighbors are omitted.
func (c Coord) Neighbors4(size int) []Coord {
	row, col := c.RowCol(size)
	neighbors := make([]Coord, 0, 4)
	if row > 0 {
		neighbors = append(neighbors, NewCoord(size, row-1, col))
	}
	if col < size-1 {
		neighbors = append(neighbors, NewCoord(size, row, col+1))
	}
	if row < size-1 {
		neighbors = append(neighbors, NewCoord(size, row+1, col))
	}
	if col > 0 {
		neighbors = append(neighbors, NewCoord(size, row, col-1))
	}
	return neighbors
}

// Move packages a Coord with the Color playing it -- used when recording a Game's moves
// and when computing potential stone hashes without mutating the board.
type Move struct {
	Coord Coord
	Color Color
}

func (m Move) String() string {
	return fmt.Sprintf("%s@%s", m.Color, m.Coord)
}
