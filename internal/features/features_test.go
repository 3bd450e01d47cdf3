package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janpfeifer/alphago9/internal/board"
)

func TestAGZEncoderShape(t *testing.T) {
	size := 9
	p := board.NewPosition(size, 7.5)
	require.NoError(t, p.PlayMove(board.NewCoord(size, 2, 2), board.Black, nil))

	enc := NewEncoder(AGZ)
	out := enc.Encode([]*board.Position{p}, board.Identity, NHWC)
	assert.Len(t, out, enc.NumPlanes()*size*size)
}

func TestAGZEncoderMyStonePlane(t *testing.T) {
	size := 9
	p := board.NewPosition(size, 7.5)
	stone := board.NewCoord(size, 2, 2)
	require.NoError(t, p.PlayMove(stone, board.Black, nil))
	require.NoError(t, p.PlayMove(board.PassCoord(size), board.White, nil))

	enc := NewEncoder(AGZ)
	out := enc.Encode([]*board.Position{p}, board.Identity, NCHW)

	row, col := 2, 2
	// Black to play again after White's pass, so Black's stone shows up on the "mine" plane of
	// ply 0, not "theirs".
	minePlane := 0
	assert.Equal(t, float32(1), out[minePlane*size*size+row*size+col])
	theirsPlane := 1
	assert.Equal(t, float32(0), out[theirsPlane*size*size+row*size+col])
}

func TestMlperf07EncoderLibertyPlane(t *testing.T) {
	size := 9
	p := board.NewPosition(size, 7.5)
	// A lone stone on an empty board has 4 liberties (interior point), landing in the >=3 plane.
	require.NoError(t, p.PlayMove(board.NewCoord(size, 4, 4), board.Black, nil))
	require.NoError(t, p.PlayMove(board.PassCoord(size), board.White, nil))

	enc := NewEncoder(Mlperf07)
	out := enc.Encode([]*board.Position{p}, board.Identity, NHWC)

	libertyBase := mlperf07HistoryPlies*2 + 1
	atLeast3Plane := libertyBase + 2
	idx := (4*size+4)*enc.NumPlanes() + atLeast3Plane
	assert.Equal(t, float32(1), out[idx])
}

func TestMlperf07EncoderWouldCapturePlane(t *testing.T) {
	size := 9
	p := board.NewPosition(size, 0)

	// White stone at (1,1) surrounded on 3 sides by Black, one liberty left at (1,2).
	// Black moves first, so Black passes to let White place it.
	require.NoError(t, p.PlayMove(board.PassCoord(size), board.Black, nil))
	require.NoError(t, p.PlayMove(board.NewCoord(size, 1, 1), board.White, nil))
	require.NoError(t, p.PlayMove(board.NewCoord(size, 0, 1), board.Black, nil))
	require.NoError(t, p.PlayMove(board.PassCoord(size), board.White, nil))
	require.NoError(t, p.PlayMove(board.NewCoord(size, 1, 0), board.Black, nil))
	require.NoError(t, p.PlayMove(board.PassCoord(size), board.White, nil))
	require.NoError(t, p.PlayMove(board.NewCoord(size, 2, 1), board.Black, nil))
	// It's now White to play again; capture point is (1,2), owned by Black to play next, so
	// set up one more exchange to get Black to play with the capturing point open.
	require.NoError(t, p.PlayMove(board.PassCoord(size), board.White, nil))

	enc := NewEncoder(Mlperf07)
	out := enc.Encode([]*board.Position{p}, board.Identity, NHWC)

	libertyBase := mlperf07HistoryPlies*2 + 1
	wouldCapturePlane := libertyBase + 3
	capturePoint := board.NewCoord(size, 1, 2)
	row, col := capturePoint.RowCol(size)
	idx := (row*size+col)*enc.NumPlanes() + wouldCapturePlane
	assert.Equal(t, float32(1), out[idx])
}
