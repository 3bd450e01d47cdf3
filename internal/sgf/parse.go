package sgf

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Game is what Parse recovers from an SGF string: the main-line moves and their comments. It
// does not attempt to represent the full SGF game-tree grammar (branches, every property) --
// only what Write ever emits, since Parse here exists solely to support the emit round-trip
// test, not as a general SGF reader (that's a GTP driver's job, outside the core).
type Game struct {
	Size   int
	Komi   float32
	Result string
	Moves  []ParsedMove
}

// ParsedMove is one recovered ;B[xy] or ;W[xy] node.
type ParsedMove struct {
	Color   byte
	Coord   string
	Comment string
}

// Parse recovers a Game from SGF text produced by Writer.String.
func Parse(text string) (*Game, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "(")
	text = strings.TrimSuffix(text, ")")

	g := &Game{}
	nodes := splitNodes(text)
	for _, node := range nodes {
		props := parseProps(node)
		for _, p := range props {
			switch p.ident {
			case "SZ":
				n, err := strconv.Atoi(p.value)
				if err != nil {
					return nil, errors.Wrapf(err, "sgf: invalid SZ value %q", p.value)
				}
				g.Size = n
			case "KM":
				f, err := strconv.ParseFloat(p.value, 32)
				if err != nil {
					return nil, errors.Wrapf(err, "sgf: invalid KM value %q", p.value)
				}
				g.Komi = float32(f)
			case "RE":
				g.Result = unescape(p.value)
			case "B", "W":
				g.Moves = append(g.Moves, ParsedMove{Color: p.ident[0], Coord: unescape(p.value)})
			case "C":
				if len(g.Moves) > 0 {
					g.Moves[len(g.Moves)-1].Comment = unescape(p.value)
				}
			}
		}
	}
	return g, nil
}

// splitNodes splits the SGF node sequence on unescaped ';' separators (the leading node,
// holding the game-info properties, included).
func splitNodes(s string) []string {
	var nodes []string
	var cur strings.Builder
	inBracket := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\' && inBracket && i+1 < len(s):
			cur.WriteByte(c)
			i++
			cur.WriteByte(s[i])
		case c == '[':
			inBracket = true
			cur.WriteByte(c)
		case c == ']':
			inBracket = false
			cur.WriteByte(c)
		case c == ';' && !inBracket:
			if cur.Len() > 0 {
				nodes = append(nodes, cur.String())
			}
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	if cur.Len() > 0 {
		nodes = append(nodes, cur.String())
	}
	return nodes
}

type prop struct {
	ident string
	value string
}

// parseProps parses a single node's "IDENT[value]IDENT[value]..." text into properties.
func parseProps(node string) []prop {
	var props []prop
	i := 0
	for i < len(node) {
		start := i
		for i < len(node) && node[i] != '[' {
			i++
		}
		ident := strings.TrimSpace(node[start:i])
		if i >= len(node) || ident == "" {
			break
		}
		i++ // skip '['
		var val strings.Builder
		for i < len(node) && node[i] != ']' {
			if node[i] == '\\' && i+1 < len(node) {
				val.WriteByte(node[i])
				i++
			}
			val.WriteByte(node[i])
			i++
		}
		i++ // skip ']'
		props = append(props, prop{ident: ident, value: val.String()})
	}
	return props
}
