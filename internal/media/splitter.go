package media

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/veritas-legal/deposcribe/internal/format"
)

// Chunk is a contiguous time-window of a Source.
// Index is 1-based and order-significant; Start offsets are strictly
// increasing and windows are non-overlapping.
type Chunk struct {
	Index  int
	Start  float64 // seconds from source start
	Length float64 // nominal seconds; the last window may extend past content end
	Path   string  // materialized sub-file, or the source path on the fast path
}

// String returns a human-readable representation for logging.
func (c Chunk) String() string {
	return fmt.Sprintf("chunk %d: start %s (%s)",
		c.Index, format.Timestamp(c.Start), filepath.Base(c.Path))
}

// Splitter cuts a Source into chunk files with ffmpeg stream copy.
type Splitter struct {
	maxDuration float64 // files at or under this are passed through whole
	cmd         commandRunner
	dirs        dirMaker
	log         logrus.FieldLogger
}

// SplitterOption configures a Splitter.
type SplitterOption func(*Splitter)

// WithSplitterRunner sets the command runner (for testing).
func WithSplitterRunner(r commandRunner) SplitterOption {
	return func(s *Splitter) { s.cmd = r }
}

// WithSplitterDirMaker sets the directory creator (for testing).
func WithSplitterDirMaker(d dirMaker) SplitterOption {
	return func(s *Splitter) { s.dirs = d }
}

// WithSplitterLogger sets the logger.
func WithSplitterLogger(l logrus.FieldLogger) SplitterOption {
	return func(s *Splitter) { s.log = l }
}

// NewSplitter creates a Splitter. maxDuration is the per-request ceiling of
// the remote model; sources at or under it are never materialized.
func NewSplitter(maxDuration float64, opts ...SplitterOption) *Splitter {
	s := &Splitter{
		maxDuration: maxDuration,
		cmd:         osCommandRunner{},
		dirs:        osDirMaker{},
		log:         logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Split cuts src into windows of chunkSeconds each.
//
// Fast path: when the source fits under the model ceiling, the original file
// is returned as the single chunk and nothing is written to disk.
//
// Otherwise floor(duration/chunkSeconds)+1 windows are cut at starts
// 0, D, 2D, ... via stream copy (no re-encoding); ffmpeg clips the final
// window to available data. Chunk files land in a chunks/ directory next to
// the source, named <stem>_chunk_NN.mp3, and are deliberately left behind
// for manual retry. A window ffmpeg fails to produce is logged and skipped,
// so the returned list can be shorter than planned; the batch summary is the
// operator's signal to check coverage.
func (s *Splitter) Split(ctx context.Context, src Source, chunkSeconds float64) ([]Chunk, error) {
	if src.Duration <= s.maxDuration {
		return []Chunk{{Index: 1, Start: 0, Length: src.Duration, Path: src.Path}}, nil
	}

	chunkDir := filepath.Join(filepath.Dir(src.Path), "chunks")
	if err := s.dirs.MkdirAll(chunkDir, 0750); err != nil {
		return nil, fmt.Errorf("create chunk directory: %w", err)
	}

	stem := strings.TrimSuffix(filepath.Base(src.Path), filepath.Ext(src.Path))
	numWindows := int(math.Floor(src.Duration/chunkSeconds)) + 1

	s.log.WithFields(logrus.Fields{
		"file":     filepath.Base(src.Path),
		"duration": src.Duration,
		"windows":  numWindows,
	}).Info("splitting audio into chunks")

	chunks := make([]Chunk, 0, numWindows)
	for i := range numWindows {
		start := float64(i) * chunkSeconds
		chunkPath := filepath.Join(chunkDir, fmt.Sprintf("%s_chunk_%02d.mp3", stem, i+1))

		if err := s.extract(ctx, src.Path, chunkPath, start, chunkSeconds); err != nil {
			// After a skip, chunk indexes compact while filenames keep their
			// window numbers, so merged timestamps for the remaining chunks
			// no longer line up with the _chunk_NN names on disk.
			s.log.WithFields(logrus.Fields{
				"file":   filepath.Base(src.Path),
				"window": i + 1,
			}).WithError(err).Warn("skipping chunk window; later chunk indexes will trail their filename window numbers")
			continue
		}

		chunks = append(chunks, Chunk{
			Index:  len(chunks) + 1,
			Start:  start,
			Length: chunkSeconds,
			Path:   chunkPath,
		})
	}

	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: no chunk window could be materialized for %s", ErrSegment, src.Path)
	}

	return chunks, nil
}

// extract stream-copies one window into chunkPath.
func (s *Splitter) extract(ctx context.Context, srcPath, chunkPath string, start, length float64) error {
	args := []string{
		"-i", srcPath,
		"-ss", formatSeconds(start),
		"-t", formatSeconds(length),
		"-acodec", "copy",
		"-y",
		chunkPath,
	}

	out, err := s.cmd.CombinedOutput(ctx, "ffmpeg", args)
	if err != nil {
		return fmt.Errorf("%w: %s: %v\noutput: %s", ErrSegment, filepath.Base(chunkPath), err, string(out))
	}
	return nil
}

// formatSeconds renders a seconds value for ffmpeg arguments without
// trailing zeros ("1400" rather than "1400.000000").
func formatSeconds(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%g", v)
}
