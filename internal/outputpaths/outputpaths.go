// Package outputpaths implements the filesystem-layout conventions for self-play output
// directories described in spec.md section 6: a "$MODEL" token expanded to a sanitized model
// name, and per-UTC-hour subdirectories.
package outputpaths

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// SanitizeModelName replaces every character unsafe for a path component with "_", so an
// arbitrary model name (which may come from a generation-numbered file path) can be embedded
// into an output directory.
func SanitizeModelName(name string) string {
	return unsafeChars.ReplaceAllString(name, "_")
}

// ExpandModel replaces every "$MODEL" token in pathTemplate with the sanitized model name.
func ExpandModel(pathTemplate, modelName string) string {
	return strings.ReplaceAll(pathTemplate, "$MODEL", SanitizeModelName(modelName))
}

// HourlySubdir returns the UTC-hour subdirectory name (e.g. "2026-07-30-14") for t, used so an
// unbounded self-play run doesn't accumulate every output file in one directory.
func HourlySubdir(t time.Time) string {
	return t.UTC().Format("2006-01-02-15")
}

// EnsureHourlyDir creates (if needed) and returns the per-UTC-hour subdirectory of baseDir for
// t. Per spec.md 7's error taxonomy, a failure to create it is a startup-fatal condition, so
// this returns an error rather than silently falling back.
func EnsureHourlyDir(baseDir string, t time.Time) (string, error) {
	dir := filepath.Join(baseDir, HourlySubdir(t))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrapf(err, "outputpaths: creating hourly output directory %s", dir)
	}
	return dir, nil
}
