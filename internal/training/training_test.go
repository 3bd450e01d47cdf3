package training

import (
	"encoding/gob"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janpfeifer/alphago9/internal/board"
)

func TestGobSinkRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "examples.gob")
	sink, err := NewGobSink(path)
	require.NoError(t, err)

	examples := []Example{
		{Input: []float32{1, 0, 0}, SearchPi: []float32{0.5, 0.5}, Outcome: 1, Color: board.Black, Komi: 7.5, ModelName: "m1"},
		{Input: []float32{0, 1, 0}, SearchPi: []float32{0.1, 0.9}, Outcome: -1, Color: board.White, Komi: 7.5, ModelName: "m1"},
	}
	require.NoError(t, sink.WriteExamples(examples))
	require.NoError(t, sink.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	dec := gob.NewDecoder(f)
	var got []Example
	for {
		var e Example
		if err := dec.Decode(&e); err != nil {
			break
		}
		got = append(got, e)
	}
	assert.Equal(t, examples, got)
}
