// Package coordtext renders board.Coords to and from the two textual coordinate grammars
// external tools use: KGS/GTP (letters skipping "I", 1-indexed rows from the bottom) and SGF
// (lowercase a..s, empty string for pass). The core itself stays coordinate-agnostic, per
// spec.md section 6 -- these conversions only exist at the boundary.
package coordtext

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/janpfeifer/alphago9/internal/board"
)

// kgsColumns skips "I" to avoid confusion with "1", the traditional Go board-coordinate
// convention.
const kgsColumns = "ABCDEFGHJKLMNOPQRST"

// ToKGS renders c in KGS/GTP notation for a board of the given size: "pass" for PassCoord,
// otherwise a column letter followed by a 1-indexed row counted from the bottom.
func ToKGS(c board.Coord, size int) string {
	if c == board.PassCoord(size) {
		return "pass"
	}
	row, col := c.RowCol(size)
	kgsRow := size - row
	return string(kgsColumns[col]) + strconv.Itoa(kgsRow)
}

// FromKGS parses KGS/GTP notation back into a Coord.
func FromKGS(s string, size int) (board.Coord, error) {
	if strings.EqualFold(s, "pass") {
		return board.PassCoord(size), nil
	}
	if len(s) < 2 {
		return board.InvalidCoord, errors.Errorf("coordtext: %q is not a valid KGS coordinate", s)
	}
	colLetter := strings.ToUpper(s[:1])
	col := strings.Index(kgsColumns, colLetter)
	if col < 0 {
		return board.InvalidCoord, errors.Errorf("coordtext: unknown column letter in %q", s)
	}
	kgsRow, err := strconv.Atoi(s[1:])
	if err != nil {
		return board.InvalidCoord, errors.Wrapf(err, "coordtext: invalid row in %q", s)
	}
	row := size - kgsRow
	if row < 0 || row >= size || col >= size {
		return board.InvalidCoord, errors.Errorf("coordtext: %q is off-board for size %d", s, size)
	}
	return board.NewCoord(size, row, col), nil
}

// ToSGF renders c in SGF notation: empty string for pass, otherwise two lowercase letters
// (column then row), 'a' + index, top row first.
func ToSGF(c board.Coord, size int) string {
	if c == board.PassCoord(size) {
		return ""
	}
	row, col := c.RowCol(size)
	return string(rune('a'+col)) + string(rune('a'+row))
}

// FromSGF parses SGF notation back into a Coord; empty string means pass.
func FromSGF(s string, size int) (board.Coord, error) {
	if s == "" {
		return board.PassCoord(size), nil
	}
	if len(s) != 2 {
		return board.InvalidCoord, errors.Errorf("coordtext: %q is not a valid SGF coordinate", s)
	}
	col := int(s[0] - 'a')
	row := int(s[1] - 'a')
	if row < 0 || row >= size || col < 0 || col >= size {
		return board.InvalidCoord, errors.Errorf("coordtext: %q is off-board for size %d", s, size)
	}
	return board.NewCoord(size, row, col), nil
}
