package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/veritas-legal/deposcribe/internal/output"
	"github.com/veritas-legal/deposcribe/internal/retry"
	"github.com/veritas-legal/deposcribe/internal/transcribe"
)

// chunkNumberPattern matches the splitter's naming scheme, <stem>_chunk_NN.
var chunkNumberPattern = regexp.MustCompile(`_chunk_(\d+)\.[^.]+$`)

// chunkNumber extracts the 1-based window number from a chunk filename.
func chunkNumber(path string) (int, error) {
	m := chunkNumberPattern.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return 0, fmt.Errorf("%s does not follow the <stem>_chunk_NN naming scheme", filepath.Base(path))
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid chunk number in %s", filepath.Base(path))
	}
	return n, nil
}

// RetryChunks re-transcribes leftover chunk files and folds their segments
// into an existing record, producing a new record file (the original is
// left untouched).
//
// Each chunk's window number is read from its filename and its segments are
// rebased by (window-1) * chunk duration before insertion. The combined
// segment list is re-sorted by start time and renumbered, so a chunk that
// failed mid-file slots back into its place in the timeline.
func (r *Runner) RetryChunks(ctx context.Context, recordPath string, chunkPaths []string) (string, error) {
	rec, err := output.LoadRecord(recordPath)
	if err != nil {
		return "", err
	}

	log := r.log.WithField("record", filepath.Base(recordPath))

	texts := []string{rec.Transcription.Text}
	for i, chunkPath := range chunkPaths {
		if i > 0 {
			if err := r.sleep(ctx, r.cfg.ChunkDelay); err != nil {
				return "", err
			}
		}

		window, err := chunkNumber(chunkPath)
		if err != nil {
			return "", err
		}

		result, err := retry.Do(ctx, r.policy, func(attempt int) (transcribe.Result, error) {
			log.WithFields(logrus.Fields{
				"chunk":   filepath.Base(chunkPath),
				"attempt": attempt,
			}).Info("retrying chunk")
			return r.client.Transcribe(ctx, chunkPath)
		}, transcribe.IsRetryable)
		if err != nil {
			return "", fmt.Errorf("chunk %s: %w", filepath.Base(chunkPath), err)
		}

		offset := float64(window-1) * r.cfg.ChunkDuration
		for _, seg := range result.Segments {
			seg.Start += offset
			seg.End += offset
			rec.Transcription.Segments = append(rec.Transcription.Segments, seg)
		}

		texts = append(texts, result.Text)
		rec.Usage = rec.Usage.Add(result.Usage)
		rec.Transcription.Usage = rec.Usage
		rec.Metadata.ChunksProcessed++
	}

	sort.SliceStable(rec.Transcription.Segments, func(i, j int) bool {
		return rec.Transcription.Segments[i].Start < rec.Transcription.Segments[j].Start
	})
	for i := range rec.Transcription.Segments {
		rec.Transcription.Segments[i].ID = fmt.Sprintf("seg_%d", i+1)
	}
	rec.Transcription.Text = strings.Join(texts, " ")

	newPath, err := r.writer.WriteRecord(rec)
	if err != nil {
		return "", err
	}

	log.WithFields(logrus.Fields{
		"chunks_added": len(chunkPaths),
		"new_record":   filepath.Base(newPath),
	}).Info("record patched")

	return newPath, nil
}
