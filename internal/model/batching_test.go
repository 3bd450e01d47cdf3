package model

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janpfeifer/alphago9/internal/features"
)

func newFakePool(n int, value float32) []Backend {
	backends := make([]Backend, n)
	for i := range backends {
		backends[i] = &FakeBackend{
			BackendName: "fake",
			Desc:        features.Descriptor{Kind: features.AGZ, Layout: features.NHWC},
			NumMoves:    82,
			Value:       value,
		}
	}
	return backends
}

// TestBatchingLiveness is spec.md's "Batching liveness" testable property: with K clients all
// concurrently waiting on RunMany, the batch eventually fires and every one of them returns.
func TestBatchingLiveness(t *testing.T) {
	b := NewBatchingBackend(newFakePool(1, 0.25), 1, 17*9*9, 82)
	const K = 6
	for i := 0; i < K; i++ {
		b.StartGame()
	}

	var wg sync.WaitGroup
	results := make([]string, K)
	for i := 0; i < K; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			policies := [][]float32{make([]float32, 82)}
			values := make([]float32, 1)
			name, err := b.RunMany(make([]float32, 17*9*9), policies, values)
			assert.NoError(t, err)
			results[i] = name
		}(i)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("batching backend deadlocked: not all clients were notified")
	}

	for _, name := range results {
		assert.Equal(t, "fake", name)
	}
}

// TestBatchingFiresAtTargetSize checks that a batch fires once the queue reaches
// ceil(active/bufferCount), without waiting for every active client to submit.
func TestBatchingFiresAtTargetSize(t *testing.T) {
	b := NewBatchingBackend(newFakePool(1, 0.0), 2, 17*9*9, 82)
	for i := 0; i < 4; i++ {
		b.StartGame()
	}
	// target = ceil(4/2) = 2
	assert.Equal(t, 2, b.targetBatchSizeLocked())

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			policies := [][]float32{make([]float32, 82)}
			values := make([]float32, 1)
			_, err := b.RunMany(make([]float32, 17*9*9), policies, values)
			assert.NoError(t, err)
		}()
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("batch did not fire at target size")
	}
}

func TestLargestGeneration(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"model-3.pb", "model-10.pb", "model-7.pb", "ignore.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}

	gen, path, ok := LargestGeneration(dir, "model-%d.pb")
	require.True(t, ok)
	assert.Equal(t, 10, gen)
	assert.Equal(t, filepath.Join(dir, "model-10.pb"), path)
}

func TestLargestGenerationNoMatch(t *testing.T) {
	dir := t.TempDir()
	_, _, ok := LargestGeneration(dir, "model-%d.pb")
	assert.False(t, ok)
}
