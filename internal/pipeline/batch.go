package pipeline

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/veritas-legal/deposcribe/internal/transcribe"
)

// chunkDirName is the splitter's working directory; its contents are
// intermediate artifacts, never batch inputs.
const chunkDirName = "chunks"

// BatchSummary aggregates a directory run.
type BatchSummary struct {
	Processed   int
	Succeeded   int
	Failed      int
	FailedFiles []string
	Usage       transcribe.Usage
	Reports     []FileReport
}

// FindAudioFiles walks root and returns every .mp3 under it in lexical
// order, skipping chunk directories left behind by earlier runs.
func FindAudioFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == chunkDirName {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".mp3") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}
	return files, nil
}

// RunBatch processes every audio file under root sequentially. A file
// failure is logged and the batch moves on; the summary records which files
// need another pass. Context cancellation stops the batch immediately.
func (r *Runner) RunBatch(ctx context.Context, root string) (BatchSummary, error) {
	files, err := FindAudioFiles(root)
	if err != nil {
		return BatchSummary{}, err
	}
	if len(files) == 0 {
		return BatchSummary{}, fmt.Errorf("no audio files found under %s", root)
	}

	r.log.WithField("count", len(files)).Info("starting batch")

	var summary BatchSummary
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		summary.Processed++
		report, err := r.ProcessFile(ctx, path)
		if err != nil {
			summary.Failed++
			summary.FailedFiles = append(summary.FailedFiles, path)
			r.log.WithField("file", filepath.Base(path)).WithError(err).Error("file failed")
			continue
		}

		summary.Succeeded++
		summary.Usage = summary.Usage.Add(report.Usage)
		summary.Reports = append(summary.Reports, report)
	}

	r.log.WithFields(logrus.Fields{
		"processed": summary.Processed,
		"succeeded": summary.Succeeded,
		"failed":    summary.Failed,
	}).Info("batch complete")

	return summary, nil
}
