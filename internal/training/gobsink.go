package training

import (
	"encoding/gob"
	"os"

	"github.com/pkg/errors"
)

// GobSink writes Examples to a single file as a stream of gob-encoded records, the simplest
// sink that satisfies OutputSink; other sinks (sharded files, remote upload) can wrap or
// replace it without the self-play pipeline caring.
type GobSink struct {
	file *os.File
	enc  *gob.Encoder
}

// NewGobSink creates (or truncates) path and returns a sink writing to it.
func NewGobSink(path string) (*GobSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "training: creating output file %s", path)
	}
	return &GobSink{file: f, enc: gob.NewEncoder(f)}, nil
}

// WriteExamples appends every example as its own gob record.
func (s *GobSink) WriteExamples(examples []Example) error {
	for i := range examples {
		if err := s.enc.Encode(&examples[i]); err != nil {
			return errors.Wrap(err, "training: encoding example")
		}
	}
	return nil
}

// Close closes the underlying file.
func (s *GobSink) Close() error {
	return s.file.Close()
}
