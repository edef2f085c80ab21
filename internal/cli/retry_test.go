package cli_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/veritas-legal/deposcribe/internal/cli"
)

func writeRecordFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "depo_20251103_090000.json")
	if err := os.WriteFile(path, []byte("{}"), 0600); err != nil {
		t.Fatalf("write record: %v", err)
	}
	return path
}

func TestRetryCmd_HappyPath(t *testing.T) {
	t.Parallel()

	h := newHarness(validSettings())
	h.runner.retryPath = "out/depo_patched.json"
	record := writeRecordFixture(t)
	chunk := writeAudioFixture(t, "depo_chunk_02.mp3")

	if err := execute(t, cli.RetryCmd(h.env), record, chunk); err != nil {
		t.Fatalf("retry failed: %v", err)
	}

	if h.runner.retryRecord != record {
		t.Errorf("record = %q, want %q", h.runner.retryRecord, record)
	}
	if len(h.runner.retryChunks) != 1 || h.runner.retryChunks[0] != chunk {
		t.Errorf("chunks = %v, want [%s]", h.runner.retryChunks, chunk)
	}
	if !strings.Contains(h.stdout.String(), "out/depo_patched.json") {
		t.Errorf("output missing new record path:\n%s", h.stdout.String())
	}
}

func TestRetryCmd_MissingRecord(t *testing.T) {
	t.Parallel()

	h := newHarness(validSettings())
	chunk := writeAudioFixture(t, "depo_chunk_02.mp3")

	err := execute(t, cli.RetryCmd(h.env), "/nonexistent/record.json", chunk)
	if !errors.Is(err, cli.ErrFileNotFound) {
		t.Errorf("error = %v, want ErrFileNotFound", err)
	}
}

func TestRetryCmd_MissingChunk(t *testing.T) {
	t.Parallel()

	h := newHarness(validSettings())
	record := writeRecordFixture(t)

	err := execute(t, cli.RetryCmd(h.env), record, "/nonexistent/depo_chunk_02.mp3")
	if !errors.Is(err, cli.ErrFileNotFound) {
		t.Errorf("error = %v, want ErrFileNotFound", err)
	}
}

func TestRetryCmd_RequiresChunkArgument(t *testing.T) {
	t.Parallel()

	h := newHarness(validSettings())
	record := writeRecordFixture(t)

	if err := execute(t, cli.RetryCmd(h.env), record); err == nil {
		t.Error("retry accepted a record with no chunk files")
	}
}
