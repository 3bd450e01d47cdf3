// Package model defines the InferenceBackend capability the MCTS/self-play core consumes, and
// the two wrapper backends described in spec.md section 4.5/4.8: a BatchingBackend that
// aggregates many clients' requests into single model calls, and a ReloadingBackend that swaps
// in a new underlying backend as new model generations appear on disk.
package model

import (
	"github.com/janpfeifer/alphago9/internal/features"
)

// Backend is the InferenceBackend capability: a name, the feature layout it expects, and a
// synchronous, in-place batched evaluation call. Multiple Backend instances of the same model
// may run concurrently, one per inference thread.
type Backend interface {
	Name() string
	Features() features.Descriptor

	// RunMany evaluates every row of inputs (length batchSize*numPlanes*size*size, already
	// laid out per Features()) and writes policies (batchSize*numMoves) and values (batchSize)
	// in place. Returns the concrete model name actually used, which callers compare against
	// the latest known name to decide whether to keep or discard this backend instance.
	RunMany(inputs []float32, policies [][]float32, values []float32) (modelName string, err error)
}

// Factory constructs a Backend from a model path or pattern.
type Factory interface {
	New(path string) (Backend, error)
}

// FakeBackend is a deterministic test double: it returns a uniform policy over the board plus
// pass and a configurable constant value, regardless of input, used by tests (and usable as a
// smoke-test stand-in before a real TensorFlow/TF-Lite loader is wired in).
type FakeBackend struct {
	BackendName string
	Desc        features.Descriptor
	NumMoves    int
	Value       float32
}

func (f *FakeBackend) Name() string                    { return f.BackendName }
func (f *FakeBackend) Features() features.Descriptor   { return f.Desc }

func (f *FakeBackend) RunMany(inputs []float32, policies [][]float32, values []float32) (string, error) {
	uniform := 1.0 / float32(f.NumMoves)
	for i := range policies {
		for j := range policies[i] {
			policies[i][j] = uniform
		}
		values[i] = f.Value
	}
	return f.BackendName, nil
}
