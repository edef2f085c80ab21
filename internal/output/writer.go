package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/veritas-legal/deposcribe/internal/merge"
)

// timestampLayout produces the generation suffix that keeps successive runs
// from overwriting each other.
const timestampLayout = "20060102_150405"

// Writer serializes merged transcripts to durable storage.
type Writer struct {
	outputDir string
	now       func() time.Time
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithClock sets the time source (for testing).
func WithClock(now func() time.Time) WriterOption {
	return func(w *Writer) { w.now = now }
}

// NewWriter creates a Writer targeting outputDir.
func NewWriter(outputDir string, opts ...WriterOption) *Writer {
	w := &Writer{outputDir: outputDir, now: time.Now}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// baseName derives the output file stem from the source audio filename,
// replacing spaces so the artifacts are shell-friendly.
func (w *Writer) baseName(audioFile string) string {
	stem := strings.TrimSuffix(filepath.Base(audioFile), filepath.Ext(audioFile))
	return strings.ReplaceAll(stem, " ", "_")
}

// stamp returns the filename suffix for a transcript's outputs. It uses the
// transcript's own timestamp so the JSON record and the text transcript of
// one run always share a stem, even when written across a second boundary.
func (w *Writer) stamp(tr merge.Transcript) string {
	at := tr.Timestamp
	if at.IsZero() {
		at = w.now()
	}
	return at.Format(timestampLayout)
}

// WriteJSON persists the merged transcript and its run metadata, returning
// the record path. The filename carries a generation timestamp so prior
// runs for the same deposition are preserved.
func (w *Writer) WriteJSON(tr merge.Transcript, audioFile, model, authName string) (string, error) {
	rec := Record{
		Metadata: Metadata{
			TranscriptionDate: tr.Timestamp.Format(time.RFC3339),
			DurationSeconds:   tr.DurationSeconds,
			AudioFile:         audioFile,
			Model:             model,
			Authentication:    authName,
			ChunksProcessed:   tr.ChunksProcessed,
		},
		Usage:         tr.Usage,
		Transcription: tr.Result,
	}

	path := filepath.Join(w.outputDir,
		fmt.Sprintf("%s_%s.json", w.baseName(audioFile), w.stamp(tr)))
	if err := w.writeRecord(path, rec); err != nil {
		return "", err
	}
	return path, nil
}

// WriteRecord persists an already-built record (used by chunk retry patching).
func (w *Writer) WriteRecord(rec Record) (string, error) {
	path := filepath.Join(w.outputDir,
		fmt.Sprintf("%s_%s.json", w.baseName(rec.Metadata.AudioFile), w.now().Format(timestampLayout)))
	if err := w.writeRecord(path, rec); err != nil {
		return "", err
	}
	return path, nil
}

func (w *Writer) writeRecord(path string, rec Record) error {
	if err := os.MkdirAll(w.outputDir, 0750); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	f, err := os.Create(path) // #nosec G304 -- path is derived from the output dir
	if err != nil {
		return fmt.Errorf("create record file: %w", err)
	}
	defer func() { _ = f.Close() }()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(rec); err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	return nil
}

// WriteText renders the companion human-readable transcript next to the
// JSON record, returning its path.
func (w *Writer) WriteText(tr merge.Transcript, audioFile, model string) (string, error) {
	if err := os.MkdirAll(w.outputDir, 0750); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	path := filepath.Join(w.outputDir,
		fmt.Sprintf("%s_%s.txt", w.baseName(audioFile), w.stamp(tr)))

	content := renderTranscript(tr, filepath.Base(audioFile), model)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil { // #nosec G306 -- transcript for operator review
		return "", fmt.Errorf("write text transcript: %w", err)
	}
	return path, nil
}
