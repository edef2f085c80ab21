// Package output persists transcription runs: a structured JSON record per
// run, an optional human-readable text rendering, and regeneration of text
// transcripts from previously saved records.
package output

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/veritas-legal/deposcribe/internal/transcribe"
)

// Metadata describes one transcription run.
type Metadata struct {
	TranscriptionDate string  `json:"transcription_date"`
	DurationSeconds   float64 `json:"duration_seconds"`
	AudioFile         string  `json:"audio_file"`
	Model             string  `json:"model"`
	Authentication    string  `json:"authentication"`
	ChunksProcessed   int     `json:"chunks_processed"`
}

// Record is the durable JSON document for one run.
type Record struct {
	Metadata      Metadata          `json:"metadata"`
	Usage         transcribe.Usage  `json:"usage"`
	Transcription transcribe.Result `json:"transcription"`
}

// LoadRecord reads a Record from disk.
func LoadRecord(path string) (Record, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- operator-supplied record path
	if err != nil {
		return Record{}, fmt.Errorf("read record: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("parse record %s: %w", path, err)
	}
	return rec, nil
}
