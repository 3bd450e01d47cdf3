package selfplay

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/janpfeifer/alphago9/internal/board"
	"github.com/janpfeifer/alphago9/internal/coordtext"
	"github.com/janpfeifer/alphago9/internal/outputpaths"
	"github.com/janpfeifer/alphago9/internal/sgf"
)

// SGFSink writes each finished game as its own SGF file under Dir (which may embed a "$MODEL"
// token), in a per-UTC-hour subdirectory, per spec.md section 6's filesystem-layout paragraph.
type SGFSink struct {
	Dir string
}

func (s *SGFSink) WriteGame(g *SelfplayGame) error {
	modelName := "unknown"
	if len(g.Game.ModelNames) > 0 {
		modelName = g.Game.ModelNames[len(g.Game.ModelNames)-1]
	}
	dir, err := outputpaths.EnsureHourlyDir(outputpaths.ExpandModel(s.Dir, modelName), g.Game.StartTime)
	if err != nil {
		return err
	}

	w := sgf.New(g.Game.Size, g.Game.Komi)
	result := "?"
	switch {
	case g.Game.Resigned && g.Game.Winner == board.Black:
		result = "B+R"
	case g.Game.Resigned:
		result = "W+R"
	case g.Game.Winner == board.Black:
		result = fmt.Sprintf("B+%.1f", g.Game.FinalScore)
	default:
		result = fmt.Sprintf("W+%.1f", -g.Game.FinalScore)
	}
	w.SetResult(result)

	for _, m := range g.Game.Moves {
		color := byte('B')
		if m.Color != board.Black {
			color = 'W'
		}
		coord := coordtext.ToSGF(m.Coord, g.Game.Size)
		w.AddMove(color, coord, "")
	}

	name := fmt.Sprintf("%s-%d.sgf", g.Game.StartTime.UTC().Format("20060102-150405"), g.Game.StartTime.UnixNano()%1000000)
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(w.String()), 0o644); err != nil {
		return errors.Wrapf(err, "selfplay: writing SGF file %s", path)
	}
	return nil
}
