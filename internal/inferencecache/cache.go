// Package inferencecache implements the sharded, symmetry-aware cache of neural-network
// inference results described in spec.md section 4.3. Positions that are dihedral-symmetric
// to one already seen reuse (and refine, via a running average) the same cached policy/value
// instead of paying for another model call.
package inferencecache

import (
	"github.com/janpfeifer/alphago9/internal/board"
)

// Key identifies one cached position, independent of which of the 8 symmetric views of it was
// actually queried. Equality on both fields (rather than cacheHash alone) papers over the rare
// cacheHash collision -- see spec.md 4.3's Key paragraph.
type Key struct {
	CacheHash uint64
	StoneHash uint64
}

// Output is the policy/value pair a model produces for one position, plus the name of the
// model that produced it (selfplay threads track this to detect stale models mid-batch).
type Output struct {
	Policy    []float32
	Value     float32
	ModelName string
}

// Clone returns a deep copy of o, safe to mutate independently.
func (o *Output) Clone() *Output {
	c := &Output{Value: o.Value, ModelName: o.ModelName}
	c.Policy = make([]float32, len(o.Policy))
	copy(c.Policy, o.Policy)
	return c
}

// CanonicalSymmetry computes the position's cacheHash under the smallest-stone_hash symmetry
// and reports whether a unique minimum exists. If the minimum stone_hash is shared by more than
// one symmetry, the position is treated as having no canonical symmetry and callers should skip
// caching entirely, per spec.md 4.3.
func CanonicalSymmetry(p *board.Position) (sym board.Symmetry, cacheHash uint64, ok bool) {
	bestHash := uint64(0)
	bestSym := board.Identity
	tie := false
	first := true
	for _, s := range board.AllSymmetries {
		h := transformedStoneHash(p, s)
		if first || h < bestHash {
			bestHash = h
			bestSym = s
			tie = false
			first = false
		} else if h == bestHash {
			tie = true
		}
	}
	if tie {
		return board.Identity, 0, false
	}
	return bestSym, cacheHashFor(p, bestSym), true
}

// transformedStoneHash recomputes what p.StoneHash would be if every point were relabeled by
// s -- built from the same per-point/side hashes the incremental engine uses (MoveHash,
// ToPlayHash, OpponentPassedHash), applied under the permutation s induces on coordinates.
func transformedStoneHash(p *board.Position, s board.Symmetry) uint64 {
	var h uint64
	size := p.Size
	for row := 0; row < size; row++ {
		for col := 0; col < size; col++ {
			c := board.NewCoord(size, row, col)
			color := p.StoneColorAt(c)
			if color == board.Empty {
				continue
			}
			tc := s.TransformCoord(c, size)
			h ^= board.MoveHash(tc, color)
		}
	}
	h ^= board.ToPlayHash(p.ToPlay)
	if p.PrevMovePassed {
		h ^= board.OpponentPassedHash()
	}
	return h
}

// cacheHashFor builds the cache_hash for p under symmetry sym: per-point MoveHash for stones,
// IllegalEmptyPointHash for illegal empty points, ToPlayHash, and OpponentPassedHash, all
// visited in canonical (symmetry-relabeled) coordinates -- see spec.md 4.3's Key paragraph.
func cacheHashFor(p *board.Position, sym board.Symmetry) uint64 {
	var h uint64
	size := p.Size
	for row := 0; row < size; row++ {
		for col := 0; col < size; col++ {
			c := board.NewCoord(size, row, col)
			tc := sym.TransformCoord(c, size)
			color := p.StoneColorAt(c)
			if color != board.Empty {
				h ^= board.MoveHash(tc, color)
			} else if !p.LegalMoves[c] {
				h ^= board.IllegalEmptyPointHash(tc)
			}
		}
	}
	h ^= board.ToPlayHash(p.ToPlay)
	if p.PrevMovePassed {
		h ^= board.OpponentPassedHash()
	}
	return h
}

// BuildKey packages a position's Key given its already-computed canonical cacheHash.
func BuildKey(p *board.Position, cacheHash uint64) Key {
	return Key{CacheHash: cacheHash, StoneHash: p.StoneHash}
}
