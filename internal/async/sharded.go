// Package async implements the concurrency primitives the self-play pipeline is built on:
// ShardedExecutor (fan-out search across worker threads), a generic ThreadSafeQueue, PollThread
// (periodic cancellable callback), and DirectoryWatcher (fsnotify-backed model-generation
// polling).
package async

import (
	"sync"

	"golang.org/x/sync/errgroup"
)

// ShardedExecutor is the fan-out primitive described in spec.md section 4.7: one shard runs on
// the calling goroutine and the rest on worker goroutines, each receiving (shardIndex,
// numShards). Concurrent Execute calls serialize on e.mu so that CPU tree search and GPU/TPU
// inference pipeline naturally -- when search is parallelized, inference is not, and vice
// versa.
type ShardedExecutor struct {
	mu        sync.Mutex
	numShards int
}

// NewShardedExecutor builds an executor that fans a call out across numShards shards.
func NewShardedExecutor(numShards int) *ShardedExecutor {
	if numShards < 1 {
		numShards = 1
	}
	return &ShardedExecutor{numShards: numShards}
}

// NumShards returns the configured shard count.
func (e *ShardedExecutor) NumShards() int { return e.numShards }

// Execute runs fn once per shard, shard 0 on the calling goroutine and the remainder via an
// errgroup, and blocks until every shard has returned.
func (e *ShardedExecutor) Execute(fn func(shardIndex, numShards int) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.numShards == 1 {
		return fn(0, 1)
	}

	var g errgroup.Group
	for shard := 1; shard < e.numShards; shard++ {
		shard := shard
		g.Go(func() error {
			return fn(shard, e.numShards)
		})
	}
	err0 := fn(0, e.numShards)
	errRest := g.Wait()
	if err0 != nil {
		return err0
	}
	return errRest
}
