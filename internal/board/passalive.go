package board

import (
	"github.com/janpfeifer/alphago9/internal/generics"
)

// PassAliveRegion describes one maximal empty region that borders stones of a single color
// only (an "enclosed" region, the eye-shape Benson's algorithm reasons about). Regions bordering
// both colors (dame) never appear here.
type PassAliveRegion struct {
	Color   Color
	Points  generics.Set[Coord]
	Chains  generics.Set[GroupID] // distinct same-color groups bordering this region.
}

// findEnclosedRegions walks every maximal empty region on the board and keeps the ones that
// border exactly one color, recording which of that color's chains border them. Dame (regions
// touching both colors) and regions touching no stone at all (the empty board) are dropped.
func (p *Position) findEnclosedRegions() []PassAliveRegion {
	var regions []PassAliveRegion
	visited := map[Coord]bool{}
	for c := Coord(0); int(c) < p.numPoints(); c++ {
		if !p.stoneAt(c).IsEmpty() || visited[c] {
			continue
		}
		points := generics.MakeSet[Coord](0)
		chains := generics.MakeSet[GroupID](0)
		queue := []Coord{c}
		visited[c] = true
		sawBlack, sawWhite := false, false
		for len(queue) > 0 {
			cur := queue[len(queue)-1]
			queue = queue[:len(queue)-1]
			points.Insert(cur)
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
		if sawBlack == sawWhite {
			// Either dame (both) or a region with no bordering stone at all (neither); neither
			// is enclosed, so it contributes no vital region to any chain.
			continue
		}
		regionColor := Black
		if sawWhite {
			regionColor = White
		}
		for pt := range points {
			for _, nc := range pt.Neighbors4(p.Size) {
				ns := p.stoneAt(nc)
				if !ns.IsEmpty() && ns.Color() == regionColor {
					chains.Insert(ns.GroupID())
				}
			}
		}
		regions = append(regions, PassAliveRegion{Color: regionColor, Points: points, Chains: chains})
	}
	return regions
}

// PassAliveChains returns the set of group ids that are unconditionally alive: a chain is
// pass-alive if it borders at least two distinct enclosed regions of its own color (a simplified
// form of Benson's "two eyes" criterion). A region counts for every chain that borders it,
// whether or not each of its empty points is adjacent to that chain, and no iterative removal
// of chains or regions is run, so a chain can be reported alive that Benson's algorithm would
// not accept -- for example every chain of a wall that splits an otherwise empty board.
func (p *Position) PassAliveChains() generics.Set[GroupID] {
	regions := p.findEnclosedRegions()
	vitalCount := map[GroupID]int{}
	for _, r := range regions {
		for id := range r.Chains {
			vitalCount[id]++
		}
	}
	alive := generics.MakeSet[GroupID](0)
	for id, count := range vitalCount {
		if count >= 2 {
			alive.Insert(id)
		}
	}
	return alive
}

// PassAlivePoints returns every point that's part of a pass-alive chain or inside one of that
// chain's vital eye regions -- the area MCTS's early-pass heuristic and scoring fallback treat
// as settled regardless of further play.
func (p *Position) PassAlivePoints() generics.Set[Coord] {
	aliveChains := p.PassAliveChains()
	points := generics.MakeSet[Coord](0)
	if len(aliveChains) == 0 {
		return points
	}
	for c := Coord(0); int(c) < p.numPoints(); c++ {
		s := p.stoneAt(c)
		if !s.IsEmpty() && aliveChains.Has(s.GroupID()) {
			points.Insert(c)
		}
	}
	for _, r := range p.findEnclosedRegions() {
		for id := range r.Chains {
			if aliveChains.Has(id) {
				for pt := range r.Points {
					points.Insert(pt)
				}
				break
			}
		}
	}
	return points
}

// AllPassAlive reports whether every stone on the board belongs to a pass-alive chain of its
// color -- the condition under which both players passing ends the game with area scoring
// giving an unambiguous result (no further play can change the outcome).
func (p *Position) AllPassAlive() bool {
	alive := p.PassAliveChains()
	for c := Coord(0); int(c) < p.numPoints(); c++ {
		s := p.stoneAt(c)
		if s.IsEmpty() {
			continue
		}
		if !alive.Has(s.GroupID()) {
			return false
		}
	}
	return true
}
