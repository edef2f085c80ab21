package media_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/veritas-legal/deposcribe/internal/media"
)

type fakeDirMaker struct {
	made []string
	err  error
}

func (f *fakeDirMaker) MkdirAll(path string, _ os.FileMode) error {
	f.made = append(f.made, path)
	return f.err
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newSplitter(maxDuration float64, runner *fakeRunner, dirs *fakeDirMaker) *media.Splitter {
	return media.NewSplitter(maxDuration,
		media.WithSplitterRunner(runner),
		media.WithSplitterDirMaker(dirs),
		media.WithSplitterLogger(quietLogger()),
	)
}

func TestSplitter_IdentityFastPath(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{}
	dirs := &fakeDirMaker{}
	s := newSplitter(1500, runner, dirs)

	src := media.Source{Path: "/depo/smith.mp3", Duration: 1200}
	chunks, err := s.Split(context.Background(), src, 1400)
	if err != nil {
		t.Fatalf("Split() error: %v", err)
	}

	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	c := chunks[0]
	if c.Index != 1 || c.Start != 0 || c.Length != 1200 || c.Path != src.Path {
		t.Errorf("chunk = %+v, want identity of source", c)
	}
	if len(runner.calls) != 0 {
		t.Errorf("ffmpeg invoked %d times on fast path, want 0", len(runner.calls))
	}
	if len(dirs.made) != 0 {
		t.Errorf("chunk directory created on fast path")
	}
}

func TestSplitter_WindowLayout(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		duration   float64
		chunkSecs  float64
		wantStarts []float64
	}{
		{
			// The §8 scenario: 3000s at 1400s windows.
			name:       "3000s into 1400s windows",
			duration:   3000,
			chunkSecs:  1400,
			wantStarts: []float64{0, 1400, 2800},
		},
		{
			name:       "exact multiple still gets trailing window",
			duration:   2800,
			chunkSecs:  1400,
			wantStarts: []float64{0, 1400, 2800},
		},
		{
			name:       "just over the ceiling",
			duration:   1501,
			chunkSecs:  1400,
			wantStarts: []float64{0, 1400},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			runner := &fakeRunner{}
			s := newSplitter(1500, runner, &fakeDirMaker{})

			src := media.Source{Path: "/depo/long.mp3", Duration: tt.duration}
			chunks, err := s.Split(context.Background(), src, tt.chunkSecs)
			if err != nil {
				t.Fatalf("Split() error: %v", err)
			}

			if len(chunks) != len(tt.wantStarts) {
				t.Fatalf("got %d chunks, want %d", len(chunks), len(tt.wantStarts))
			}
			for i, c := range chunks {
				if c.Index != i+1 {
					t.Errorf("chunk[%d].Index = %d, want %d", i, c.Index, i+1)
				}
				if c.Start != tt.wantStarts[i] {
					t.Errorf("chunk[%d].Start = %v, want %v", i, c.Start, tt.wantStarts[i])
				}
				if c.Length != tt.chunkSecs {
					t.Errorf("chunk[%d].Length = %v, want %v", i, c.Length, tt.chunkSecs)
				}
			}
		})
	}
}

func TestSplitter_ChunkNaming(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{}
	dirs := &fakeDirMaker{}
	s := newSplitter(1500, runner, dirs)

	src := media.Source{Path: filepath.Join("depositions", "Teresa Peters.mp3"), Duration: 3000}
	chunks, err := s.Split(context.Background(), src, 1400)
	if err != nil {
		t.Fatalf("Split() error: %v", err)
	}

	wantDir := filepath.Join("depositions", "chunks")
	if len(dirs.made) != 1 || dirs.made[0] != wantDir {
		t.Errorf("made dirs %v, want [%s]", dirs.made, wantDir)
	}
	want := filepath.Join(wantDir, "Teresa Peters_chunk_01.mp3")
	if chunks[0].Path != want {
		t.Errorf("chunk path = %q, want %q", chunks[0].Path, want)
	}
}

func TestSplitter_SkipsFailedWindow(t *testing.T) {
	t.Parallel()

	// The second window fails to materialize; it is dropped, not retried,
	// and the remaining chunks are renumbered by list position.
	failing := filepath.Join("depo", "chunks", "long_chunk_02.mp3")
	runner := &fakeRunner{failPaths: map[string]bool{failing: true}}
	s := newSplitter(1500, runner, &fakeDirMaker{})

	src := media.Source{Path: filepath.Join("depo", "long.mp3"), Duration: 3000}
	chunks, err := s.Split(context.Background(), src, 1400)
	if err != nil {
		t.Fatalf("Split() error: %v", err)
	}

	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2 after one skipped window", len(chunks))
	}
	if chunks[0].Start != 0 || chunks[1].Start != 2800 {
		t.Errorf("starts = %v, %v; want 0, 2800", chunks[0].Start, chunks[1].Start)
	}
	if chunks[1].Index != 2 {
		t.Errorf("surviving chunk Index = %d, want list-position 2", chunks[1].Index)
	}
}

func TestSplitter_SkippedWindowWarnsAboutRenumbering(t *testing.T) {
	t.Parallel()

	// Once a window is skipped, chunk indexes compact while filenames keep
	// their window numbers. The warning must flag that divergence so the
	// operator knows the record's timeline no longer matches the files.
	logger, hook := logtest.NewNullLogger()
	failing := filepath.Join("depo", "chunks", "long_chunk_02.mp3")
	runner := &fakeRunner{failPaths: map[string]bool{failing: true}}
	s := media.NewSplitter(1500,
		media.WithSplitterRunner(runner),
		media.WithSplitterDirMaker(&fakeDirMaker{}),
		media.WithSplitterLogger(logger),
	)

	src := media.Source{Path: filepath.Join("depo", "long.mp3"), Duration: 3000}
	if _, err := s.Split(context.Background(), src, 1400); err != nil {
		t.Fatalf("Split() error: %v", err)
	}

	var warning *logrus.Entry
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warning = e
			break
		}
	}
	if warning == nil {
		t.Fatal("no warning logged for the skipped window")
	}
	if warning.Data["window"] != 2 {
		t.Errorf("warning window field = %v, want 2", warning.Data["window"])
	}
	if !strings.Contains(warning.Message, "window numbers") {
		t.Errorf("warning %q does not mention the index/window-number divergence", warning.Message)
	}
}

func TestSplitter_AllWindowsFail(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{failPaths: map[string]bool{
		filepath.Join("depo", "chunks", "long_chunk_01.mp3"): true,
		filepath.Join("depo", "chunks", "long_chunk_02.mp3"): true,
		filepath.Join("depo", "chunks", "long_chunk_03.mp3"): true,
	}}
	s := newSplitter(1500, runner, &fakeDirMaker{})

	src := media.Source{Path: filepath.Join("depo", "long.mp3"), Duration: 3000}
	if _, err := s.Split(context.Background(), src, 1400); err == nil {
		t.Error("Split() succeeded with zero materialized chunks, want error")
	}
}
