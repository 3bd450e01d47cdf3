// Package training holds the self-play pipeline's output record type and the sinks that persist
// it, per spec.md section 6's "Training examples" paragraph: serialization itself is delegated
// to an external sink, the core only defines the record shape.
package training

import (
	"github.com/janpfeifer/alphago9/internal/board"
)

// Example is one trainable move: the already-encoded feature tensor the network saw, the
// search-derived policy target, the game's eventual outcome from Black's perspective, the color
// to move, the game's komi, and which model produced the move. The tensor (rather than the raw
// Position) is what's stored, since that's what an external trainer actually consumes and it
// round-trips through gob without needing board's internal group-pool bookkeeping along for
// the ride.
type Example struct {
	Input     []float32
	SearchPi  []float32
	Outcome   float32 // +1 or -1, Black's perspective.
	Color     board.Color
	Komi      float32
	ModelName string
}

// OutputSink persists a batch of Examples, returning an error the caller may choose to treat as
// non-fatal (spec.md 7's error taxonomy: "self-play treats a single failed SGF write as
// non-fatal but a failed file/directory creation at startup as fatal" applies analogously here).
type OutputSink interface {
	WriteExamples(examples []Example) error
	Close() error
}
