package board

import (
	"fmt"

	"github.com/pkg/errors"
)

// MoveType classifies what a candidate move would do, without actually playing it: whether
// it's illegal, legal with no capture, or legal and captures at least one opposing group.
// Mirrors the 3-way classification the original engine uses to cheaply pre-screen leaf
// expansions before committing to the more expensive AddStoneToBoard bookkeeping.
type MoveType int

const (
	MoveIllegal MoveType = iota
	MoveNoCapture
	MoveCapture
)

// ZobristHistory is the superko oracle a Position consults when recomputing legal moves: it
// reports whether a given stone_hash has occurred anywhere on the path from the current
// position back to the game root. MctsNode implements this by walking ancestors (and
// short-circuiting through a SuperkoCache when one is available).
type ZobristHistory interface {
	Contains(stoneHash uint64) bool
}

// Position is a single Go board position: the stones on it, their group bookkeeping, whose
// turn it is, and enough history (ko point, stone hash) to support incremental updates,
// capture, and positional superko. It has no notion of a game tree; MctsNode builds the tree
// out of Positions linked by moves.
type Position struct {
	Size int
	Komi float32
	Pool GroupPool

	Stones []Stone

	ToPlay         Color
	MoveNumber     int
	KoPoint        Coord
	PrevMovePassed bool
	StoneHash      uint64
	NumCaptures    [3]int // indexed by Color; NumCaptures[Black] is stones Black has captured.

	// LegalMoves[c] is whether Coord c (including PassCoord) is legal to play right now,
	// recomputed by UpdateLegalMoves after every PlayMove.
	LegalMoves []bool
}

// NewPosition returns the empty starting position for a board of the given size, Black to
// play, with the given komi (added to White's score at scoring time).
func NewPosition(size int, komi float32) *Position {
	p := &Position{
		Size:    size,
		Komi:    komi,
		Pool:    NewGroupPool(size * size),
		Stones:  make([]Stone, size*size),
		ToPlay:  Black,
		KoPoint: InvalidCoord,
	}
	p.StoneHash ^= ToPlayHash(Black)
	p.LegalMoves = make([]bool, NumMoves(size))
	p.UpdateLegalMoves(nil)
	return p
}

// Clone returns a deep copy, safe to mutate independently of the receiver. MctsNode expansion
// clones the parent position before playing the child's move into the copy.
func (p *Position) Clone() *Position {
	np := &Position{
		Size:           p.Size,
		Komi:           p.Komi,
		Pool:           p.Pool.Clone(),
		Stones:         make([]Stone, len(p.Stones)),
		ToPlay:         p.ToPlay,
		MoveNumber:     p.MoveNumber,
		KoPoint:        p.KoPoint,
		PrevMovePassed: p.PrevMovePassed,
		StoneHash:      p.StoneHash,
		NumCaptures:    p.NumCaptures,
		LegalMoves:     make([]bool, len(p.LegalMoves)),
	}
	copy(np.Stones, p.Stones)
	copy(np.LegalMoves, p.LegalMoves)
	return np
}

func (p *Position) numPoints() int { return p.Size * p.Size }

func (p *Position) stoneAt(c Coord) Stone    { return p.Stones[c] }
func (p *Position) setStoneAt(c Coord, s Stone) { p.Stones[c] = s }

// StoneColorAt returns the color of the stone at c, or Empty if the point is vacant. Exported
// for downstream packages (feature encoding, inference-cache canonicalization) that need
// read-only access to board contents without reaching into the Stones slice directly.
func (p *Position) StoneColorAt(c Coord) Color { return p.Stones[c].Color() }

// StoneGroupID returns the GroupID of the stone at c. Only meaningful when StoneColorAt(c) is
// not Empty; callers should check that first.
func (p *Position) StoneGroupID(c Coord) GroupID { return p.Stones[c].GroupID() }

// PlayMove plays color's move at c (which may be PassCoord(p.Size) or ResignCoord(p.Size)),
// updating groups, captures, ko, stone hash, side to play and legal moves. Pass and resign are
// always accepted; an on-board move is rejected unless p.LegalMoves[c] already says so (it's
// kept current by the previous call's UpdateLegalMoves, so this is an O(1) check, not a
// re-derivation). history is consulted by the post-move UpdateLegalMoves call for positional
// superko; it may be nil, in which case superko is not enforced (used for scratch/what-if
// positions).
func (p *Position) PlayMove(c Coord, color Color, history ZobristHistory) error {
	if color != p.ToPlay {
		return errors.Errorf("board: PlayMove called with %s to move but position has %s to move", color, p.ToPlay)
	}
	passCoord := PassCoord(p.Size)
	resignCoord := ResignCoord(p.Size)
	if c == passCoord || c == resignCoord {
		p.MoveNumber++
		p.KoPoint = InvalidCoord
		p.PrevMovePassed = c == passCoord
		p.ToPlay = OpponentColor(p.ToPlay)
		p.StoneHash ^= ToPlayHash(color) ^ ToPlayHash(p.ToPlay)
		if p.PrevMovePassed {
			p.StoneHash ^= OpponentPassedHash()
		}
		p.UpdateLegalMoves(history)
		return nil
	}
	if !c.IsOnBoard(p.Size) {
		return errors.Errorf("board: PlayMove called with off-board coord %s", c)
	}
	if !p.LegalMoves[c] {
		return errors.Errorf("board: %s is not a legal move for %s", c, color)
	}
	p.addStoneToBoard(c, color)
	p.MoveNumber++
	oldToPlay := p.ToPlay
	p.PrevMovePassed = false
	p.ToPlay = OpponentColor(p.ToPlay)
	p.StoneHash ^= ToPlayHash(oldToPlay) ^ ToPlayHash(p.ToPlay)
	p.UpdateLegalMoves(history)
	return nil
}

// capturedGroup records a captured opponent group by its id and a representative member
// coordinate, so removeGroup can BFS outward to find the rest of its members without any
// group ever storing a member list.
type capturedGroup struct {
	id GroupID
	at Coord
}

// addStoneToBoard is the uncheck-legality workhorse behind PlayMove's on-board case: it wires
// the new stone into neighboring groups (allocating, extending, or merging as needed), removes
// any opposing groups left with zero liberties, and sets p.KoPoint iff the move has the classic
// single-stone-recapture "koish" shape.
func (p *Position) addStoneToBoard(c Coord, color Color) {
	opponent := OpponentColor(color)
	neighbors := c.Neighbors4(p.Size)

	var liberties int
	neighborGroups := map[GroupID]bool{}
	for _, nc := range neighbors {
		ns := p.stoneAt(nc)
		switch {
		case ns.IsEmpty():
			liberties++
		case ns.Color() == color:
			neighborGroups[ns.GroupID()] = true
		}
	}

	// Capture opposing groups that drop to zero liberties. Each opponent neighbor group is
	// decremented once (seenOpponent dedupes by group id); the representative neighbor
	// coordinate nc is kept so removeGroup can BFS from a known member without a stored member
	// list.
	var capturedGroups []capturedGroup
	var capturedGroupSize int // size of the single captured group, when exactly one is captured; feeds the ko check below.
	var capturedStones int
	seenOpponent := map[GroupID]Coord{}
	for _, nc := range neighbors {
		ns := p.stoneAt(nc)
		if ns.IsEmpty() || ns.Color() != opponent {
			continue
		}
		id := ns.GroupID()
		if _, ok := seenOpponent[id]; ok {
			continue
		}
		seenOpponent[id] = nc
		g := p.Pool.Get(id)
		g.NumLiberties--
		p.Pool.Set(id, g)
		if g.NumLiberties == 0 {
			capturedGroups = append(capturedGroups, capturedGroup{id: id, at: nc})
			capturedGroupSize = g.Size
			capturedStones += g.Size
		}
	}

	var newID GroupID
	switch len(neighborGroups) {
	case 0:
		newID = p.Pool.Alloc(1, liberties)
		p.setStoneAt(c, newStone(color, newID))
	case 1:
		for id := range neighborGroups {
			newID = id
		}
		p.setStoneAt(c, newStone(color, newID))
		// mergeGroup recomputes size/liberties from scratch rather than patched incrementally,
		// since a liberty shared between the new stone and its neighbor group must not be
		// double counted.
		p.mergeGroup(c)
	default:
		for id := range neighborGroups {
			newID = id
			break
		}
		p.setStoneAt(c, newStone(color, newID))
		for id := range neighborGroups {
			if id == newID {
				continue
			}
			p.reassignGroup(id, newID)
			p.Pool.Free(id)
		}
		p.mergeGroup(c)
	}
	p.StoneHash ^= MoveHash(c, color)

	for _, cap := range capturedGroups {
		p.removeGroup(cap.at)
	}
	p.NumCaptures[color] += capturedStones

	p.KoPoint = InvalidCoord
	if len(capturedGroups) == 1 && capturedGroupSize == 1 {
		// Koish: the capture removed exactly one stone, and that point's neighbors (now that
		// the capturing stone occupies c) are all of color -- recapturing at cap.at would be an
		// immediate single-stone recapture, the classic ko shape.
		capAt := capturedGroups[0].at
		if p.isKoish(capAt) == color {
			p.KoPoint = capAt
		}
	}
}

// reassignGroup walks every stone belonging to fromID and repaints it as toID, used when two
// or more groups merge under a newly placed stone.
func (p *Position) reassignGroup(fromID, toID GroupID) {
	for c := Coord(0); int(c) < p.numPoints(); c++ {
		s := p.stoneAt(c)
		if !s.IsEmpty() && s.GroupID() == fromID {
			p.setStoneAt(c, newStone(s.Color(), toID))
		}
	}
}

// mergeGroup recomputes the size and liberty count of the group containing c from scratch by
// walking its full 4-connected extent. Used after a stone is added that touches one or more
// existing same-color groups, where an incremental liberty update would risk double-counting
// a liberty shared between merged chains.
func (p *Position) mergeGroup(c Coord) {
	id := p.stoneAt(c).GroupID()
	color := p.stoneAt(c).Color()

	visitedStones := map[Coord]bool{}
	visitedLiberties := map[Coord]bool{}
	queue := []Coord{c}
	visitedStones[c] = true
	size := 0
	for len(queue) > 0 {
		cur := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		size++
		for _, nc := range cur.Neighbors4(p.Size) {
			ns := p.stoneAt(nc)
			if ns.IsEmpty() {
				visitedLiberties[nc] = true
				continue
			}
			if ns.Color() == color && !visitedStones[nc] {
				visitedStones[nc] = true
				p.setStoneAt(nc, newStone(color, id))
				queue = append(queue, nc)
			}
		}
	}
	p.Pool.Set(id, Group{Size: size, NumLiberties: len(visitedLiberties)})
}

// removeGroup deletes every stone of the group reachable from the representative coordinate
// start (a neighbor of the capturing move that belonged to the captured group), without ever
// having stored that group's member list. It XORs each removed stone's hash contribution back
// out of StoneHash and restores one liberty to every distinct neighboring opposing-color group.
func (p *Position) removeGroup(start Coord) {
	s := p.stoneAt(start)
	if s.IsEmpty() {
		// Already removed as part of a larger capture that reached this point first (can
		// happen when a move captures two groups that were adjacent to each other, sharing
		// a representative... not possible since distinct group ids can't share members, but
		// guarding keeps removeGroup safe to call defensively).
		return
	}
	id := s.GroupID()
	color := s.Color()

	otherGroupsTouched := map[GroupID]bool{}
	queue := []Coord{start}
	visited := map[Coord]bool{start: true}
	for len(queue) > 0 {
		cur := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		p.StoneHash ^= MoveHash(cur, color)
		p.setStoneAt(cur, Stone(0))
		for _, nc := range cur.Neighbors4(p.Size) {
			ns := p.stoneAt(nc)
			if ns.IsEmpty() {
				continue
			}
			if ns.GroupID() == id && !visited[nc] {
				visited[nc] = true
				queue = append(queue, nc)
				continue
			}
			if ns.GroupID() != id {
				otherGroupsTouched[ns.GroupID()] = true
			}
		}
	}
	for otherID := range otherGroupsTouched {
		g := p.Pool.Get(otherID)
		g.NumLiberties++
		p.Pool.Set(otherID, g)
	}
	p.Pool.Free(id)
}

// isKoish returns the single color surrounding the empty point c if every neighbor is that one
// non-empty color, else Empty. Used to decide whether a just-resolved single-stone capture
// leaves a true ko point.
func (p *Position) isKoish(c Coord) Color {
	var found Color
	for _, nc := range c.Neighbors4(p.Size) {
		nColor := p.stoneAt(nc).Color()
		if nColor == Empty {
			return Empty
		}
		if found == Empty {
			found = nColor
		} else if found != nColor {
			return Empty
		}
	}
	return found
}

// ClassifyMove reports what playing color at c would do, without mutating the position. Pass
// and resign are always MoveNoCapture. An occupied point, or the ko point, is always
// MoveIllegal. Otherwise the move is legal (MoveNoCapture) if it has a liberty of its own or
// joins a same-color group with a spare liberty, or if it captures an opponent group down to
// zero liberties (MoveCapture); a move touching only full-liberty opponent groups and no
// friendly liberties is suicide and stays MoveIllegal.
func (p *Position) ClassifyMove(c Coord, color Color) MoveType {
	passCoord := PassCoord(p.Size)
	resignCoord := ResignCoord(p.Size)
	if c == passCoord || c == resignCoord {
		return MoveNoCapture
	}
	if !c.IsOnBoard(p.Size) {
		return MoveIllegal
	}
	if !p.stoneAt(c).IsEmpty() {
		return MoveIllegal
	}
	if c == p.KoPoint {
		return MoveIllegal
	}

	result := MoveIllegal
	opponent := OpponentColor(color)
	for _, nc := range c.Neighbors4(p.Size) {
		ns := p.stoneAt(nc)
		if ns.IsEmpty() {
			if result == MoveIllegal {
				result = MoveNoCapture
			}
			continue
		}
		g := p.Pool.Get(ns.GroupID())
		if ns.Color() == opponent {
			if g.NumLiberties == 1 {
				result = MoveCapture
			}
		} else {
			if g.NumLiberties > 1 && result == MoveIllegal {
				result = MoveNoCapture
			}
		}
	}
	return result
}

// wouldCaptureHash computes the stone_hash that would result from playing color at c, without
// mutating the position: it XORs in the new stone's contribution and XORs out every stone of
// every opponent group that would be captured. Used by UpdateLegalMoves to test positional
// superko without a full play/undo.
func (p *Position) wouldCaptureHash(c Coord, color Color) uint64 {
	hash := p.StoneHash ^ MoveHash(c, color) ^ ToPlayHash(p.ToPlay) ^ ToPlayHash(OpponentColor(p.ToPlay))
	opponent := OpponentColor(color)
	seen := map[GroupID]bool{}
	for _, nc := range c.Neighbors4(p.Size) {
		ns := p.stoneAt(nc)
		if ns.IsEmpty() || ns.Color() != opponent {
			continue
		}
		id := ns.GroupID()
		if seen[id] {
			continue
		}
		seen[id] = true
		g := p.Pool.Get(id)
		if g.NumLiberties != 1 {
			continue
		}
		hash ^= p.groupStonesHash(nc, id, opponent)
	}
	return hash
}

// groupStonesHash walks the group containing start (of the given color/id) and returns the
// XOR of every member stone's MoveHash contribution, without mutating the board. Used only by
// wouldCaptureHash's read-only superko probe.
func (p *Position) groupStonesHash(start Coord, id GroupID, color Color) uint64 {
	var hash uint64
	visited := map[Coord]bool{start: true}
	queue := []Coord{start}
	for len(queue) > 0 {
		cur := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		hash ^= MoveHash(cur, color)
		for _, nc := range cur.Neighbors4(p.Size) {
			ns := p.stoneAt(nc)
			if !ns.IsEmpty() && ns.GroupID() == id && !visited[nc] {
				visited[nc] = true
				queue = append(queue, nc)
			}
		}
	}
	return hash
}

// UpdateLegalMoves recomputes p.LegalMoves for the side to move: a point is legal if
// ClassifyMove doesn't call it illegal, and (when history is non-nil) if the stone_hash that
// would result from playing there has not already occurred on the path back to the game root
// (positional superko, generalizing simple ko beyond the single KoPoint check already folded
// into ClassifyMove).
func (p *Position) UpdateLegalMoves(history ZobristHistory) {
	passCoord := PassCoord(p.Size)
	for i := range p.LegalMoves {
		p.LegalMoves[i] = false
	}
	p.LegalMoves[passCoord] = true
	for c := Coord(0); int(c) < p.numPoints(); c++ {
		mt := p.ClassifyMove(c, p.ToPlay)
		if mt == MoveIllegal {
			continue
		}
		if history != nil {
			if history.Contains(p.wouldCaptureHash(c, p.ToPlay)) {
				continue
			}
		}
		p.LegalMoves[c] = true
	}
}

// CalculateScore returns the Tromp-Taylor-style area score (positive favors Black): each
// player's stones plus the empty territory that borders only that color, minus komi on
// White's side. Dame (empty regions bordering both colors) score nothing. Matches
// Position::CalculateScore in the reference implementation's area-scoring mode.
func (p *Position) CalculateScore() float32 {
	var score float32
	visitedGroup := map[GroupID]bool{}
	visitedEmpty := map[Coord]bool{}

	for c := Coord(0); int(c) < p.numPoints(); c++ {
		s := p.stoneAt(c)
		if s.IsEmpty() {
			if visitedEmpty[c] {
				continue
			}
			region, borders := p.floodEmptyRegion(c, visitedEmpty)
			switch borders {
			case Black:
				score += float32(region)
			case White:
				score -= float32(region)
			}
			continue
		}
		if visitedGroup[s.GroupID()] {
			continue
		}
		visitedGroup[s.GroupID()] = true
		g := p.Pool.Get(s.GroupID())
		if s.Color() == Black {
			score += float32(g.Size)
		} else {
			score -= float32(g.Size)
		}
	}
	return score - p.Komi
}

// floodEmptyRegion walks the maximal empty region containing c, marking every point it visits
// in visited, and returns the region's size plus the single color bordering it (Empty if the
// region borders both colors, i.e. dame).
func (p *Position) floodEmptyRegion(c Coord, visited map[Coord]bool) (size int, borderColor Color) {
	queue := []Coord{c}
	visited[c] = true
	sawBlack, sawWhite := false, false
	for len(queue) > 0 {
		cur := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		size++
		for _, nc := range cur.Neighbors4(p.Size) {
			ns := p.stoneAt(nc)
			if ns.IsEmpty() {
				if !visited[nc] {
					visited[nc] = true
					queue = append(queue, nc)
				}
				continue
			}
			if ns.Color() == Black {
				sawBlack = true
			} else {
				sawWhite = true
			}
		}
	}
	switch {
	case sawBlack && !sawWhite:
		return size, Black
	case sawWhite && !sawBlack:
		return size, White
	default:
		return size, Empty
	}
}

func (p *Position) String() string {
	return fmt.Sprintf("Position(size=%d, moveNumber=%d, toPlay=%s)", p.Size, p.MoveNumber, p.ToPlay)
}
