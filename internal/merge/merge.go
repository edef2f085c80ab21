// Package merge reassembles per-chunk transcription results into one
// globally time-ordered transcript.
package merge

import (
	"fmt"
	"strings"
	"time"

	"github.com/veritas-legal/deposcribe/internal/transcribe"
)

// Transcript is the job-level aggregate over all chunk results.
// DurationSeconds is cumulative API latency, not timeline length.
type Transcript struct {
	Result          transcribe.Result
	Usage           transcribe.Usage
	DurationSeconds float64
	Timestamp       time.Time // first chunk's attempt start
	ChunksProcessed int
}

// Merge combines chunk results ordered by chunk index into one transcript.
//
// A single result is returned unchanged: no offset rebasing, no renumbering,
// original segment identifiers preserved. With multiple results, each
// chunk's segments are rebased by a running offset that advances by the
// nominal chunk duration after every chunk, not by measured audio length,
// so timelines stay comparable with records from prior runs. Identifiers
// are reassigned seg_1..seg_N in emission order, texts are joined with a
// single space, and usage counters are summed field-wise.
//
// Merge is deterministic: the same input sequence always yields the same
// transcript.
func Merge(results []transcribe.ChunkResult, chunkSeconds float64) Transcript {
	if len(results) == 0 {
		return Transcript{}
	}

	if len(results) == 1 {
		only := results[0]
		return Transcript{
			Result:          only.Result,
			Usage:           only.Usage,
			DurationSeconds: only.DurationSeconds,
			Timestamp:       only.Timestamp,
			ChunksProcessed: 1,
		}
	}

	texts := make([]string, 0, len(results))
	var segments []transcribe.Segment
	var usage transcribe.Usage
	var totalLatency float64
	offset := 0.0

	for _, cr := range results {
		texts = append(texts, cr.Result.Text)

		for _, seg := range cr.Result.Segments {
			seg.Start += offset
			seg.End += offset
			seg.ID = fmt.Sprintf("seg_%d", len(segments)+1)
			segments = append(segments, seg)
		}

		usage = usage.Add(cr.Usage)
		totalLatency += cr.DurationSeconds
		offset += chunkSeconds
	}

	return Transcript{
		Result: transcribe.Result{
			Text:     strings.Join(texts, " "),
			Segments: segments,
			Usage:    usage,
		},
		Usage:           usage,
		DurationSeconds: totalLatency,
		Timestamp:       results[0].Timestamp,
		ChunksProcessed: len(results),
	}
}
