package video

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ldynamics/vidstore/internal/metrics"
)

// sourceReader remembers whether a copy failed on the read side.
type sourceReader struct {
	r   io.Reader
	err error
}

func (s *sourceReader) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	if err != nil && err != io.EOF {
		s.err = err
	}
	return n, err
}

// stage copies content into a fresh temp file rewound to its start. On
// error nothing is left on disk.
func (g *Gateway) stage(content io.Reader) (*os.File, int64, error) {
	f, err := os.CreateTemp(g.stagingDir, "upload-*")
	if err != nil {
		return nil, 0, fmt.Errorf("%w: create staging file: %w", ErrLocalStaging, err)
	}

	src := &sourceReader{r: content}
	size, err := io.Copy(f, src)
	if err == nil {
		_, err = f.Seek(0, io.SeekStart)
	}
	if err != nil {
		if rerr := g.release(f); rerr != nil {
			err = errors.Join(err, rerr)
		}
		if src.err != nil {
			return nil, 0, fmt.Errorf("%w: %w", ErrInvalidContent, err)
		}
		return nil, 0, fmt.Errorf("%w: write staging file: %w", ErrLocalStaging, err)
	}
	return f, size, nil
}

// release closes and removes a staging file.
func (g *Gateway) release(f *os.File) error {
	name := f.Name()
	cerr := f.Close()
	if cerr != nil && errors.Is(cerr, os.ErrClosed) {
		cerr = nil
	}
	rerr := os.Remove(name)
	if rerr != nil && errors.Is(rerr, os.ErrNotExist) {
		rerr = nil
	}
	if err := errors.Join(cerr, rerr); err != nil {
		metrics.StagingCleanupFailures.Inc()
		g.log.Error().Err(err).Str("file", name).Msg("staging cleanup failed")
		return fmt.Errorf("%w: remove staging file: %w", ErrLocalStaging, err)
	}
	return nil
}
