// Package features turns a window of board.Positions into the tensors a neural network
// consumes, per spec.md section 4.4: the 17-plane AGZ encoding and the 13-plane mlperf07
// encoding, each emittable in NHWC or NCHW layout. Encoders always emit float32 values; a
// declared uint8 element type is recorded but does not change the output.
package features

import (
	"github.com/janpfeifer/alphago9/internal/board"
)

// Kind selects which feature set an Encoder produces.
type Kind int

const (
	AGZ Kind = iota
	Mlperf07
)

// Layout selects the tensor's plane/spatial axis ordering.
type Layout int

const (
	NHWC Layout = iota
	NCHW
)

// DType selects the tensor's element type; a model declares which it expects at load time.
type DType int

const (
	Float32 DType = iota
	UInt8
)

// Descriptor is everything a model declares about the input tensor it expects.
type Descriptor struct {
	Kind   Kind
	Layout Layout
	DType  DType
}

// Encoder produces a feature tensor for a position given a short window of its most recent
// ancestors (most-recent-first), applying a dihedral symmetry as the very last step.
type Encoder interface {
	Kind() Kind
	NumPlanes() int
	// HistoryWindow is how many most-recent positions (including the current one) Encode reads
	// from history; fewer supplied positions are treated as all-zero padding.
	HistoryWindow() int
	// Encode renders the tensor as a flat []float32 of length NumPlanes()*size*size, laid out
	// according to layout. sym is applied to every plane's spatial coordinates.
	Encode(history []*board.Position, sym board.Symmetry, layout Layout) []float32
}

// NewEncoder returns the Encoder for the given feature kind.
func NewEncoder(kind Kind) Encoder {
	switch kind {
	case Mlperf07:
		return mlperf07Encoder{}
	default:
		return agzEncoder{}
	}
}

// setPlane writes value at (plane, row, col) of a flat tensor of the given layout, size, and
// plane count.
func setPlane(tensor []float32, layout Layout, size, numPlanes, plane, row, col int, value float32) {
	switch layout {
	case NCHW:
		tensor[plane*size*size+row*size+col] = value
	default: // NHWC
		tensor[(row*size+col)*numPlanes+plane] = value
	}
}

// current returns history[0], the position being encoded "now" -- Encode always treats the
// first element of history as the position to featurize and the rest as its ancestors.
func current(history []*board.Position) *board.Position {
	if len(history) == 0 {
		return nil
	}
	return history[0]
}
