package board

// Symmetry identifies one of the 8 dihedral transforms of a square board (4 rotations times
// optional reflection). Represented as a small enum with precomputed Inverse/Concat tables so
// the inner search/feature-encoding loops stay branch-free, per the design note recommending
// table-driven symmetries over recomputing them.
type Symmetry uint8

const (
	Identity Symmetry = iota
	Rot90
	Rot180
	Rot270
	FlipIdentity
	FlipRot90
	FlipRot180
	FlipRot270
	NumSymmetries = 8
)

// AllSymmetries lists every dihedral transform, in a fixed order used when iterating "all 8
// symmetries" (e.g. to find the canonical one).
var AllSymmetries = [NumSymmetries]Symmetry{
	Identity, Rot90, Rot180, Rot270, FlipIdentity, FlipRot90, FlipRot180, FlipRot270,
}

func rotate90(r, c, n int) (int, int)  { return c, n - 1 - r }
func rotate180(r, c, n int) (int, int) { return n - 1 - r, n - 1 - c }
func rotate270(r, c, n int) (int, int) { return n - 1 - c, r }
func flipCols(r, c, n int) (int, int)  { return r, n - 1 - c }

// Transform applies the symmetry to a (row, col) point on a board of side n.
func (s Symmetry) Transform(row, col, n int) (int, int) {
	if s >= FlipIdentity {
		row, col = flipCols(row, col, n)
		s -= FlipIdentity
	}
	switch s {
	case Rot90:
		return rotate90(row, col, n)
	case Rot180:
		return rotate180(row, col, n)
	case Rot270:
		return rotate270(row, col, n)
	default:
		return row, col
	}
}

// TransformCoord applies the symmetry to a Coord on a board of the given size. Pass/Resign/
// Invalid coordinates are unaffected (they aren't board points).
func (s Symmetry) TransformCoord(c Coord, size int) Coord {
	if !c.IsOnBoard(size) {
		return c
	}
	row, col := c.RowCol(size)
	row, col = s.Transform(row, col, size)
	return NewCoord(size, row, col)
}

var (
	inverseTable [NumSymmetries]Symmetry
	concatTable  [NumSymmetries][NumSymmetries]Symmetry
)

// probeSize must be large enough that no two distinct points of the 8 transforms collide when
// building the tables below; any size > 1 works since the dihedral group acts faithfully.
const probeSize = 5

func init() {
	// probePoints: apply each symmetry to every point of a probeSize x probeSize board and use
	// the resulting point-to-point mapping as the transform's fingerprint.
	fingerprint := func(s Symmetry) [probeSize * probeSize][2]int {
		var out [probeSize * probeSize][2]int
		for r := 0; r < probeSize; r++ {
			for c := 0; c < probeSize; c++ {
				nr, nc := s.Transform(r, c, probeSize)
				out[r*probeSize+c] = [2]int{nr, nc}
			}
		}
		return out
	}
	fingerprints := make(map[[probeSize * probeSize][2]int]Symmetry, NumSymmetries)
	for _, s := range AllSymmetries {
		fingerprints[fingerprint(s)] = s
	}

	// Concat(a, b) is the symmetry equivalent to first applying b, then a.
	for _, a := range AllSymmetries {
		for _, b := range AllSymmetries {
			var composed [probeSize * probeSize][2]int
			for r := 0; r < probeSize; r++ {
				for c := 0; c < probeSize; c++ {
					mr, mc := b.Transform(r, c, probeSize)
					fr, fc := a.Transform(mr, mc, probeSize)
					composed[r*probeSize+c] = [2]int{fr, fc}
				}
			}
			concatTable[a][b] = fingerprints[composed]
		}
	}
	for _, s := range AllSymmetries {
		for _, candidate := range AllSymmetries {
			if concatTable[s][candidate] == Identity {
				inverseTable[s] = candidate
				break
			}
		}
	}
}

// Inverse returns the symmetry that undoes s.
func (s Symmetry) Inverse() Symmetry {
	return inverseTable[s]
}

// Concat returns the symmetry equivalent to applying s2 first, then s ("s . s2").
func (s Symmetry) Concat(s2 Symmetry) Symmetry {
	return concatTable[s][s2]
}

// TransformPolicy applies s to a per-point policy vector of length NumMoves(size) (one entry
// per board point, plus a trailing pass entry left untouched), returning a freshly allocated
// result. Used by inferencecache and features to move a policy between the canonical symmetry
// an inference was requested/cached under and the symmetry actually observed by the board.
func (s Symmetry) TransformPolicy(size int, policy []float32) []float32 {
	out := make([]float32, len(policy))
	out[size*size] = policy[size*size] // pass entry is symmetry-invariant.
	for row := 0; row < size; row++ {
		for col := 0; col < size; col++ {
			from := NewCoord(size, row, col)
			nr, nc := s.Transform(row, col, size)
			to := NewCoord(size, nr, nc)
			out[to] = policy[from]
		}
	}
	return out
}
