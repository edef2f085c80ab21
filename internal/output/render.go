package output

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/veritas-legal/deposcribe/internal/format"
)

// renderedDirName holds regenerated transcripts under the record directory.
const renderedDirName = "text_transcripts"

// renderConcurrency bounds parallel record rendering.
const renderConcurrency = 4

// RenderRecord formats a saved record as a timestamped speaker transcript
// with a statistics footer.
func RenderRecord(rec Record) string {
	var b strings.Builder

	for _, g := range groupBySpeaker(rec.Transcription.Segments) {
		fmt.Fprintf(&b, "[%s] Speaker %s: %s\n", format.Timestamp(g.Start), g.Speaker, g.Text)
	}

	b.WriteString("\n")
	b.WriteString(banner("STATISTICS"))
	fmt.Fprintf(&b, "Chunks: %d\n", rec.Metadata.ChunksProcessed)
	fmt.Fprintf(&b, "Segments: %d\n", len(rec.Transcription.Segments))
	fmt.Fprintf(&b, "Speakers: %d\n", countSpeakers(rec.Transcription.Segments))
	fmt.Fprintf(&b, "Total Tokens: %s\n", format.Comma(rec.Usage.TotalTokens))
	fmt.Fprintf(&b, "Duration: %s\n", format.Timestamp(timelineEnd(rec.Transcription.Segments)))

	return b.String()
}

// RenderAll regenerates text transcripts for every JSON record in dir,
// writing them under dir/text_transcripts. Records are rendered
// concurrently; the first failure cancels the rest. It returns the number
// of transcripts written.
func RenderAll(ctx context.Context, dir string, log *logrus.Logger) (int, error) {
	records, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return 0, fmt.Errorf("scan records: %w", err)
	}
	if len(records) == 0 {
		return 0, nil
	}

	outDir := filepath.Join(dir, renderedDirName)
	if err := os.MkdirAll(outDir, 0750); err != nil {
		return 0, fmt.Errorf("create render directory: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(renderConcurrency)

	for _, recordPath := range records {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			rec, err := LoadRecord(recordPath)
			if err != nil {
				return err
			}

			stem := strings.TrimSuffix(filepath.Base(recordPath), ".json")
			target := filepath.Join(outDir, stem+".txt")
			if err := os.WriteFile(target, []byte(RenderRecord(rec)), 0644); err != nil { // #nosec G306
				return fmt.Errorf("write rendered transcript: %w", err)
			}

			log.WithFields(logrus.Fields{
				"record": filepath.Base(recordPath),
				"target": target,
			}).Debug("rendered transcript")
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return 0, err
	}
	return len(records), nil
}
