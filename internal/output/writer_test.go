package output_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/veritas-legal/deposcribe/internal/merge"
	"github.com/veritas-legal/deposcribe/internal/output"
	"github.com/veritas-legal/deposcribe/internal/transcribe"
)

func fixedClock() func() time.Time {
	at := time.Date(2025, 11, 3, 14, 30, 52, 0, time.UTC)
	return func() time.Time { return at }
}

func sampleTranscript() merge.Transcript {
	return merge.Transcript{
		Result: transcribe.Result{
			Text: "Please state your name. Teresa Peters.",
			Segments: []transcribe.Segment{
				{ID: "seg_1", Speaker: "A", Text: "Please state your name.", Start: 0, End: 2.5},
				{ID: "seg_2", Speaker: "B", Text: "Teresa Peters.", Start: 2.9, End: 4.1},
			},
			Usage: transcribe.Usage{TotalTokens: 1200, InputTokens: 1000, OutputTokens: 200, AudioTokens: 950, TextTokens: 50},
		},
		Usage:           transcribe.Usage{TotalTokens: 1200, InputTokens: 1000, OutputTokens: 200, AudioTokens: 950, TextTokens: 50},
		DurationSeconds: 42.5,
		Timestamp:       time.Date(2025, 11, 3, 14, 30, 0, 0, time.UTC),
		ChunksProcessed: 2,
	}
}

func TestWriter_WriteJSON(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w := output.NewWriter(dir, output.WithClock(fixedClock()))

	path, err := w.WriteJSON(sampleTranscript(), "/audio/Peters Deposition Vol 2.mp3", "gpt-4o-transcribe-diarize", "API Key")
	if err != nil {
		t.Fatalf("WriteJSON() error: %v", err)
	}

	wantName := "Peters_Deposition_Vol_2_20251103_143000.json"
	if got := filepath.Base(path); got != wantName {
		t.Errorf("record filename = %q, want %q", got, wantName)
	}

	rec, err := output.LoadRecord(path)
	if err != nil {
		t.Fatalf("LoadRecord() error: %v", err)
	}
	if rec.Metadata.AudioFile != "/audio/Peters Deposition Vol 2.mp3" {
		t.Errorf("AudioFile = %q", rec.Metadata.AudioFile)
	}
	if rec.Metadata.Model != "gpt-4o-transcribe-diarize" || rec.Metadata.Authentication != "API Key" {
		t.Errorf("metadata = %+v", rec.Metadata)
	}
	if rec.Metadata.ChunksProcessed != 2 || rec.Metadata.DurationSeconds != 42.5 {
		t.Errorf("metadata = %+v", rec.Metadata)
	}
	if rec.Metadata.TranscriptionDate != "2025-11-03T14:30:00Z" {
		t.Errorf("TranscriptionDate = %q", rec.Metadata.TranscriptionDate)
	}
	if rec.Usage.TotalTokens != 1200 || len(rec.Transcription.Segments) != 2 {
		t.Errorf("round-tripped record = %+v", rec)
	}
}

func TestWriter_WriteJSON_KeyNames(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w := output.NewWriter(dir, output.WithClock(fixedClock()))

	path, err := w.WriteJSON(sampleTranscript(), "depo.mp3", "m", "API Key")
	if err != nil {
		t.Fatalf("WriteJSON() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read record: %v", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("record is not valid JSON: %v", err)
	}
	for _, key := range []string{"metadata", "usage", "transcription"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("record missing top-level key %q", key)
		}
	}
	for _, key := range []string{"transcription_date", "duration_seconds", "audio_file", "model", "authentication", "chunks_processed"} {
		if !strings.Contains(string(raw["metadata"]), `"`+key+`"`) {
			t.Errorf("metadata missing key %q", key)
		}
	}
}

func TestWriter_WriteText(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w := output.NewWriter(dir, output.WithClock(fixedClock()))

	path, err := w.WriteText(sampleTranscript(), "Peters Deposition Vol 2.mp3", "gpt-4o-transcribe-diarize")
	if err != nil {
		t.Fatalf("WriteText() error: %v", err)
	}
	if got := filepath.Base(path); got != "Peters_Deposition_Vol_2_20251103_143000.txt" {
		t.Errorf("text filename = %q", got)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read transcript: %v", err)
	}
	text := string(data)

	for _, want := range []string{
		strings.Repeat("=", 80),
		"DEPOSITION TRANSCRIPTION",
		"FULL TRANSCRIPT",
		"SPEAKER-SEGMENTED TRANSCRIPT",
		"STATISTICS",
		"Audio File: Peters Deposition Vol 2.mp3",
		"Chunks Processed: 2",
		"Total Tokens: 1,200",
		"Please state your name. Teresa Peters.",
		"[00:00] Speaker A:",
		"[00:02] Speaker B:",
		"Speakers: 2",
		"Duration: 00:04",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("transcript missing %q", want)
		}
	}
}

func TestWriter_PairedOutputsShareStem(t *testing.T) {
	t.Parallel()

	// Wall clock ticks between the two writes; the filename stems must
	// still match because both derive from the transcript's timestamp.
	ticks := time.Date(2025, 11, 3, 14, 30, 59, 0, time.UTC)
	tickingClock := func() time.Time {
		ticks = ticks.Add(time.Second)
		return ticks
	}

	dir := t.TempDir()
	w := output.NewWriter(dir, output.WithClock(tickingClock))
	tr := sampleTranscript()

	jsonPath, err := w.WriteJSON(tr, "depo.mp3", "m", "API Key")
	if err != nil {
		t.Fatalf("WriteJSON() error: %v", err)
	}
	textPath, err := w.WriteText(tr, "depo.mp3", "m")
	if err != nil {
		t.Fatalf("WriteText() error: %v", err)
	}

	jsonStem := strings.TrimSuffix(filepath.Base(jsonPath), ".json")
	textStem := strings.TrimSuffix(filepath.Base(textPath), ".txt")
	if jsonStem != textStem {
		t.Errorf("record stem %q != transcript stem %q", jsonStem, textStem)
	}
}

func TestWriter_WriteText_GroupsConsecutiveSpeakers(t *testing.T) {
	t.Parallel()

	tr := sampleTranscript()
	tr.Result.Segments = []transcribe.Segment{
		{ID: "seg_1", Speaker: "A", Text: "Good morning.", Start: 0, End: 1},
		{ID: "seg_2", Speaker: "A", Text: "Please be seated.", Start: 1, End: 2},
		{ID: "seg_3", Speaker: "B", Text: "Thank you.", Start: 2, End: 3},
	}

	w := output.NewWriter(t.TempDir(), output.WithClock(fixedClock()))
	path, err := w.WriteText(tr, "depo.mp3", "m")
	if err != nil {
		t.Fatalf("WriteText() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read transcript: %v", err)
	}
	text := string(data)

	if !strings.Contains(text, "Good morning. Please be seated.") {
		t.Error("consecutive same-speaker segments were not joined into one paragraph")
	}
	if strings.Count(text, "Speaker A:") != 1 {
		t.Errorf("Speaker A appears %d times, want one grouped paragraph", strings.Count(text, "Speaker A:"))
	}
}

func TestLoadRecord_Malformed(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := output.LoadRecord(path); err == nil {
		t.Error("LoadRecord() on malformed JSON succeeded, want error")
	}
}
