package inferencecache

import (
	"sync"

	"github.com/janpfeifer/alphago9/internal/board"
)

// entry is one node of a shard's intrusive doubly-linked LRU list. symObserved packs one bit
// per board.Symmetry (8 total) recording which inference symmetries have contributed to the
// cached canonical output.
type entry struct {
	key   Key
	value Output

	symObserved uint8
	numObserved int

	prev, next *entry
}

func (e *entry) hasSymmetry(s board.Symmetry) bool { return e.symObserved&(1<<uint(s)) != 0 }
func (e *entry) setSymmetry(s board.Symmetry)      { e.symObserved |= 1 << uint(s) }

// shard is one independently-locked partition of the cache, an intrusive doubly-linked LRU list
// of individually allocated entries indexed by the byKey map, rather than container/list or a
// third-party LRU package.
type shard struct {
	mu       sync.Mutex
	capacity int
	byKey    map[Key]*entry
	head     *entry // MRU
	tail     *entry // LRU
}

func newShard(capacity int) *shard {
	return &shard{
		capacity: capacity,
		byKey:    make(map[Key]*entry, capacity),
	}
}

func (s *shard) unlink(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		s.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		s.tail = e.prev
	}
	e.prev, e.next = nil, nil
}

func (s *shard) pushFront(e *entry) {
	e.prev = nil
	e.next = s.head
	if s.head != nil {
		s.head.prev = e
	}
	s.head = e
	if s.tail == nil {
		s.tail = e
	}
}

func (s *shard) touchMRU(e *entry) {
	if s.head == e {
		return
	}
	s.unlink(e)
	s.pushFront(e)
}

func (s *shard) evictTailLocked() {
	if s.tail == nil {
		return
	}
	victim := s.tail
	s.unlink(victim)
	delete(s.byKey, victim.key)
}

// Cache is the full sharded inference cache: cache_hash mod num_shards selects a shard, each
// independently mutex-protected and independently sized, as spec.md 4.3's Sharding paragraph
// describes.
type Cache struct {
	shards []*shard
}

// NewCache builds a cache with numShards independent LRU partitions, each sized to roughly
// totalCapacity/numShards entries.
func NewCache(numShards, totalCapacity int) *Cache {
	if numShards < 1 {
		numShards = 1
	}
	perShard := totalCapacity / numShards
	if perShard < 1 {
		perShard = 1
	}
	c := &Cache{shards: make([]*shard, numShards)}
	for i := range c.shards {
		c.shards[i] = newShard(perShard)
	}
	return c
}

func (c *Cache) shardFor(key Key) *shard {
	return c.shards[key.CacheHash%uint64(len(c.shards))]
}

// Merge incorporates a freshly computed inference result (in output, under inferenceSym) for
// key/canonicalSym into the cache, running-averaging it with any prior observation under a
// different symmetry, and overwrites output in place with the resulting canonical-sym view --
// exactly spec.md 4.3's Merge contract.
func (c *Cache) Merge(key Key, canonicalSym, inferenceSym board.Symmetry, output *Output, boardSize int) {
	s := c.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	toCanonical := canonicalSym.Inverse()
	canonicalPolicy := inferenceSym.Concat(toCanonical).TransformPolicy(boardSize, output.Policy)

	e, ok := s.byKey[key]
	if !ok {
		e = &entry{
			key: key,
			value: Output{
				Policy:    canonicalPolicy,
				Value:     output.Value,
				ModelName: output.ModelName,
			},
			numObserved: 1,
		}
		e.setSymmetry(inferenceSym)
		s.byKey[key] = e
		s.pushFront(e)
		if len(s.byKey) > s.capacity {
			s.evictTailLocked()
		}
	} else if !e.hasSymmetry(inferenceSym) {
		n := float32(e.numObserved)
		a := n / (n + 1)
		b := 1 / (n + 1)
		merged := make([]float32, len(e.value.Policy))
		for i := range merged {
			merged[i] = a*e.value.Policy[i] + b*canonicalPolicy[i]
		}
		e.value.Policy = merged
		e.value.Value = a*e.value.Value + b*output.Value
		e.value.ModelName = output.ModelName
		e.setSymmetry(inferenceSym)
		e.numObserved++
		s.touchMRU(e)
	} else {
		s.touchMRU(e)
	}

	output.Policy = canonicalSym.TransformPolicy(boardSize, e.value.Policy)
	output.Value = e.value.Value
	output.ModelName = e.value.ModelName
}

// TryGet looks up key; if present and inferenceSym has already been observed, writes the
// canonical-sym transform of the cached output into output and returns true. A miss (absent
// key, or present but missing the symmetry bit) returns false and leaves output untouched --
// exactly spec.md 4.3's TryGet contract, including the "symmetry miss" case.
func (c *Cache) TryGet(key Key, canonicalSym, inferenceSym board.Symmetry, output *Output, boardSize int) bool {
	s := c.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.byKey[key]
	if !ok || !e.hasSymmetry(inferenceSym) {
		return false
	}
	s.touchMRU(e)
	output.Policy = canonicalSym.TransformPolicy(boardSize, e.value.Policy)
	output.Value = e.value.Value
	output.ModelName = e.value.ModelName
	return true
}

// EstimateCapacity approximates how many entries fit in budgetMiB of memory, given a policy
// vector of policySize float32 entries per cached value: per-entry bytes accounts for the key,
// the policy payload, the prev/next pointers, and the symmetry bitmask, observation count and
// value, all scaled down by an
// assumed hash-map load factor -- spec.md 4.3's Capacity estimation paragraph.
func EstimateCapacity(budgetMiB int, policySize int) int {
	const assumedLoadFactor = 0.44
	const keyBytes = 16               // two uint64 fields.
	const backPointerBytes = 16        // prev+next *entry, 8 bytes each.
	const bookkeepingBytes = 1 + 4 + 4 // symObserved byte, numObserved, value float32.
	perEntry := keyBytes + backPointerBytes + bookkeepingBytes + policySize*4
	budgetBytes := float64(budgetMiB) * 1024 * 1024 * assumedLoadFactor
	n := int(budgetBytes / float64(perEntry))
	if n < 1 {
		n = 1
	}
	return n
}
