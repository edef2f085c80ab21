// Package media probes and splits deposition audio with ffprobe/ffmpeg.
package media

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Source is a reference to an audio file with its probed duration.
// Immutable once probed; the underlying file is never modified.
type Source struct {
	Path     string
	Duration float64 // seconds
}

// Prober determines the duration of an audio file.
type Prober struct {
	cmd commandRunner
}

// ProberOption configures a Prober.
type ProberOption func(*Prober)

// WithProberRunner sets the command runner (for testing).
func WithProberRunner(r commandRunner) ProberOption {
	return func(p *Prober) { p.cmd = r }
}

// NewProber creates a Prober with production defaults.
func NewProber(opts ...ProberOption) *Prober {
	p := &Prober{cmd: osCommandRunner{}}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Probe returns a Source with the file's duration in seconds.
// ffprobe prints the bare duration value on stdout:
//
//	ffprobe -v error -show_entries format=duration \
//	    -of default=noprint_wrappers=1:nokey=1 <file>
func (p *Prober) Probe(ctx context.Context, path string) (Source, error) {
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	}

	out, err := p.cmd.Output(ctx, "ffprobe", args)
	if err != nil {
		return Source{}, fmt.Errorf("%w: %s: %v", ErrProbe, path, err)
	}

	dur, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return Source{}, fmt.Errorf("%w: %s: non-numeric ffprobe output %q", ErrProbe, path, strings.TrimSpace(string(out)))
	}
	if dur < 0 {
		return Source{}, fmt.Errorf("%w: %s: negative duration %v", ErrProbe, path, dur)
	}

	return Source{Path: path, Duration: dur}, nil
}
