package board

// GroupID identifies a live group in a GroupPool. 0 means "no group" (an empty Stone).
type GroupID uint16

// Stone packs a point's color into its low 2 bits and, for a non-empty point, the owning
// group's id into the high 14 bits. An empty Stone is the zero value.
type Stone uint16

// newStone builds a packed Stone for the given color and group.
func newStone(color Color, id GroupID) Stone {
	return Stone(color) | Stone(id)<<2
}

// Color returns the stone's color (Empty for an empty point).
func (s Stone) Color() Color {
	return Color(s & 0x3)
}

// GroupID returns the id of the group this stone belongs to. Only meaningful if
// s.Color() != Empty.
func (s Stone) GroupID() GroupID {
	return GroupID(s >> 2)
}

// IsEmpty returns whether the point is unoccupied.
func (s Stone) IsEmpty() bool {
	return s.Color() == Empty
}

// Group holds the two counters MCTS/the board engine care about for a connected chain of
// same-colored stones: how many stones it has, and how many distinct empty points border it.
// Membership itself isn't stored in the Group (no union-find): the board is walked via
// 4-connectivity starting from any known member whenever the actual member set is needed
// (capture removal, group merges, Benson's algorithm), matching the "union-find-like groups
// without union-find" design.
type Group struct {
	Size         int
	NumLiberties int
}

// GroupPool is an index-allocated slab of live Groups with a free list, so group ids stay
// stable while a group is alive and are recycled once it's captured or merged away. At most
// size*size groups can be live simultaneously on a board of the given size.
type GroupPool struct {
	groups []Group
	free   []GroupID
}

// NewGroupPool returns an empty pool sized for a board with the given number of points.
func NewGroupPool(numPoints int) GroupPool {
	return GroupPool{
		groups: make([]Group, 1, numPoints+1), // index 0 reserved ("no group").
	}
}

// Alloc reserves a new group id with the given initial size/liberties.
func (p *GroupPool) Alloc(size, numLiberties int) GroupID {
	if n := len(p.free); n > 0 {
		id := p.free[n-1]
		p.free = p.free[:n-1]
		p.groups[id] = Group{Size: size, NumLiberties: numLiberties}
		return id
	}
	p.groups = append(p.groups, Group{Size: size, NumLiberties: numLiberties})
	return GroupID(len(p.groups) - 1)
}

// Free releases a group id back to the pool for reuse.
func (p *GroupPool) Free(id GroupID) {
	p.groups[id] = Group{}
	p.free = append(p.free, id)
}

// Get returns the group with the given id by value.
func (p *GroupPool) Get(id GroupID) Group {
	return p.groups[id]
}

// Set overwrites the group with the given id.
func (p *GroupPool) Set(id GroupID, g Group) {
	p.groups[id] = g
}

// Clone returns a deep copy of the pool (used by Position.Clone).
func (p *GroupPool) Clone() GroupPool {
	np := GroupPool{
		groups: make([]Group, len(p.groups)),
		free:   make([]GroupID, len(p.free)),
	}
	copy(np.groups, p.groups)
	copy(np.free, p.free)
	return np
}
