package mcts

import "github.com/janpfeifer/alphago9/internal/board"

// SuperkoCache is the O(1) positional-superko oracle mentioned in spec.md 4.1/4.2: it holds the
// cumulative set of stone hashes for a node and every one of its ancestors. Rebuilding this set
// from scratch at every node would be wasteful, so a full cache is only materialized once every
// 8 levels of depth (a "checkpoint"); ancestorHistory.Contains below never has to walk more than
// 8 ancestors before it finds one.
type SuperkoCache struct {
	hashes map[uint64]bool
}

// Contains reports whether hash was ever a position's stone_hash in this cache.
func (c *SuperkoCache) Contains(hash uint64) bool {
	if c == nil {
		return false
	}
	return c.hashes[hash]
}

// attachSuperkoCheckpoint materializes a full SuperkoCache on n if n's depth is a multiple of 8
// (the root, at depth 0, always gets one). It does so by walking up from n until it finds an
// ancestor that already carries a checkpoint (at most 8 steps away, since checkpoints are dense
// every 8 levels and the tree's root always carries one) and unioning in the hashes of every node walked.
func (n *MctsNode) attachSuperkoCheckpoint() {
	if n.depth%8 != 0 {
		return
	}
	var chain []*MctsNode
	cur := n
	for cur != nil && cur.superko == nil {
		chain = append(chain, cur)
		cur = cur.parent
	}
	hashes := make(map[uint64]bool, len(chain)+1)
	if cur != nil {
		for h := range cur.superko.hashes {
			hashes[h] = true
		}
	}
	for _, node := range chain {
		hashes[node.position.StoneHash] = true
	}
	n.superko = &SuperkoCache{hashes: hashes}
}

// ancestorHistory implements board.ZobristHistory by walking up from node, stopping as soon as
// it either matches the queried hash directly or reaches a node carrying a SuperkoCache
// checkpoint (which already covers every hash further back). Bounded to at most 8 ancestor
// comparisons, per spec.md 4.1's "Superko" paragraph.
type ancestorHistory struct {
	node *MctsNode
}

// Contains implements board.ZobristHistory.
func (h ancestorHistory) Contains(hash uint64) bool {
	cur := h.node
	for i := 0; i < 8 && cur != nil; i++ {
		if cur.position.StoneHash == hash {
			return true
		}
		if cur.superko != nil {
			return cur.superko.Contains(hash)
		}
		cur = cur.parent
	}
	return false
}
