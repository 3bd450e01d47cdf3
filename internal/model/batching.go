package model

import (
	"sync"

	"github.com/chewxy/math32"
	"github.com/pkg/errors"
)

// pendingRequest is one client's queued RunMany call, waiting to be folded into the next fired
// batch.
type pendingRequest struct {
	inputs   []float32
	policies [][]float32
	values   []float32
	done     chan batchResult
}

type batchResult struct {
	modelName string
	err       error
}

// BatchingBackend wraps a pool of per-model Backend instances and serves many concurrent
// clients' RunMany calls by aggregating them into fewer, larger model calls, per spec.md
// section 4.5's Client API/Batching policy/Output semantics.
type BatchingBackend struct {
	mu sync.Mutex

	pool        chan Backend
	bufferCount int
	numMoves    int
	numPlanes   int

	activeClients  int
	waitingClients int

	pending []*pendingRequest

	latestModelName string
}

// NewBatchingBackend constructs a batcher over backends (one entry per concurrent inference
// thread slot), with bufferCount controlling how many in-flight batches double/triple-buffer
// the pool (spec.md 4.5's "buffer_count >= 1").
func NewBatchingBackend(backends []Backend, bufferCount, numPlanes, numMoves int) *BatchingBackend {
	pool := make(chan Backend, len(backends))
	for _, b := range backends {
		pool <- b
	}
	if bufferCount < 1 {
		bufferCount = 1
	}
	return &BatchingBackend{
		pool:        pool,
		bufferCount: bufferCount,
		numMoves:    numMoves,
		numPlanes:   numPlanes,
	}
}

// StartGame registers one more active client.
func (b *BatchingBackend) StartGame() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.activeClients++
}

// EndGame deregisters a client.
func (b *BatchingBackend) EndGame() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.activeClients--
}

// SetWaiting marks whether the calling client is currently blocked on a two-player opponent's
// move and therefore cannot submit a request -- used by the firing-policy formula so a batch
// can still fire with fewer than active_clients/buffer_count requests queued when enough
// clients are known to be unable to contribute right now.
func (b *BatchingBackend) SetWaiting(waiting bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if waiting {
		b.waitingClients++
	} else {
		b.waitingClients--
	}
}

// targetBatchSizeLocked computes ceil(active_clients / buffer_count), at least 1.
func (b *BatchingBackend) targetBatchSizeLocked() int {
	target := int(math32.Ceil(float32(b.activeClients) / float32(b.bufferCount)))
	if target < 1 {
		target = 1
	}
	return target
}

// shouldFireLocked implements spec.md 4.5's firing policy: fire when the queue alone reaches
// the target batch size, or when the queue is at least half of active_clients and queue+waiting
// together cover every active client (so a batch can always make progress without deadlocking
// on clients that can never submit because they're waiting on an opponent).
func (b *BatchingBackend) shouldFireLocked() bool {
	target := b.targetBatchSizeLocked()
	queue := len(b.pending)
	if queue >= target {
		return true
	}
	if queue >= b.activeClients/2 && queue+b.waitingClients >= b.activeClients {
		return true
	}
	return false
}

// RunMany enqueues one client's request and blocks until the batch it lands in has been
// evaluated. Per spec.md 4.5's Ordering paragraph, there is no ordering guarantee across
// clients, but this call preserves the caller's own vector index order.
func (b *BatchingBackend) RunMany(inputs []float32, policies [][]float32, values []float32) (string, error) {
	req := &pendingRequest{
		inputs:   inputs,
		policies: policies,
		values:   values,
		done:     make(chan batchResult, 1),
	}

	b.mu.Lock()
	b.pending = append(b.pending, req)
	var fired []*pendingRequest
	if b.shouldFireLocked() {
		fired = b.pending
		b.pending = nil
	}
	b.mu.Unlock()

	if fired != nil {
		b.fireBatch(fired)
	}

	result := <-req.done
	return result.modelName, result.err
}

// fireBatch runs a fired batch's model call with the backend's mutex released, so other
// clients can keep enqueuing into the next batch while this one is in flight, then notifies
// every request exactly once.
func (b *BatchingBackend) fireBatch(reqs []*pendingRequest) {
	backend, ok := <-b.pool
	if !ok {
		for _, r := range reqs {
			r.done <- batchResult{err: errors.New("model: batching backend pool closed")}
		}
		return
	}

	var allInputs []float32
	var allPolicies [][]float32
	var allValues []float32
	offsets := make([]int, len(reqs))
	for i, r := range reqs {
		offsets[i] = len(allPolicies)
		allInputs = append(allInputs, r.inputs...)
		allPolicies = append(allPolicies, r.policies...)
		allValues = append(allValues, r.values...)
	}

	modelName, err := backend.RunMany(allInputs, allPolicies, allValues)

	if err == nil && modelName != "" {
		b.mu.Lock()
		if modelName == b.latestModelName || b.latestModelName == "" {
			b.pool <- backend
		}
		// else: stale model generation, drop this backend instance so it drains.
		b.mu.Unlock()
	} else {
		b.pool <- backend
	}

	for i, r := range reqs {
		n := len(r.values)
		copy(r.values, allValues[offsets[i]:offsets[i]+n])
		for j := 0; j < n; j++ {
			copy(r.policies[j], allPolicies[offsets[i]+j])
		}
		r.done <- batchResult{modelName: modelName, err: err}
	}
}

// SetLatestModelName updates the name RunMany results are compared against to decide whether a
// just-used backend instance should be returned to the pool or discarded as stale. Called by
// cmd/selfplay's model-polling loop after ReloadingBackend.CheckForNewGeneration swaps in a new
// model generation.
func (b *BatchingBackend) SetLatestModelName(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.latestModelName = name
}

// Close drains the backend pool, signaling any further RunMany calls should fail rather than
// block forever.
func (b *BatchingBackend) Close() {
	close(b.pool)
}
