package coordtext

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janpfeifer/alphago9/internal/board"
)

func TestKGSRoundTrip(t *testing.T) {
	size := 9
	for row := 0; row < size; row++ {
		for col := 0; col < size; col++ {
			c := board.NewCoord(size, row, col)
			text := ToKGS(c, size)
			back, err := FromKGS(text, size)
			require.NoError(t, err)
			assert.Equal(t, c, back)
		}
	}
}

func TestKGSSkipsI(t *testing.T) {
	assert.NotContains(t, kgsColumns, "I")
}

func TestKGSPass(t *testing.T) {
	size := 9
	assert.Equal(t, "pass", ToKGS(board.PassCoord(size), size))
	c, err := FromKGS("pass", size)
	require.NoError(t, err)
	assert.Equal(t, board.PassCoord(size), c)
}

func TestSGFRoundTrip(t *testing.T) {
	size := 19
	for row := 0; row < size; row++ {
		for col := 0; col < size; col++ {
			c := board.NewCoord(size, row, col)
			text := ToSGF(c, size)
			back, err := FromSGF(text, size)
			require.NoError(t, err)
			assert.Equal(t, c, back)
		}
	}
}

func TestSGFPassIsEmptyString(t *testing.T) {
	size := 9
	assert.Equal(t, "", ToSGF(board.PassCoord(size), size))
	c, err := FromSGF("", size)
	require.NoError(t, err)
	assert.Equal(t, board.PassCoord(size), c)
}
