package outputpaths

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeModelName(t *testing.T) {
	assert.Equal(t, "model_000123_pb", SanitizeModelName("model/000123.pb"))
}

func TestExpandModel(t *testing.T) {
	got := ExpandModel("/data/$MODEL/sgf", "models/42.pb")
	assert.Equal(t, "/data/models_42_pb/sgf", got)
}

func TestHourlySubdir(t *testing.T) {
	ts := time.Date(2026, 7, 30, 14, 5, 0, 0, time.UTC)
	assert.Equal(t, "2026-07-30-14", HourlySubdir(ts))
}

func TestEnsureHourlyDirCreatesDirectory(t *testing.T) {
	base := t.TempDir()
	ts := time.Date(2026, 7, 30, 14, 5, 0, 0, time.UTC)
	dir, err := EnsureHourlyDir(base, ts)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "2026-07-30-14"), dir)
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
