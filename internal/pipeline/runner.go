// Package pipeline orchestrates a deposition transcription run end to end:
// probe, split, per-chunk submission under retry, merge, persist.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/veritas-legal/deposcribe/internal/config"
	"github.com/veritas-legal/deposcribe/internal/media"
	"github.com/veritas-legal/deposcribe/internal/merge"
	"github.com/veritas-legal/deposcribe/internal/output"
	"github.com/veritas-legal/deposcribe/internal/retry"
	"github.com/veritas-legal/deposcribe/internal/transcribe"
)

// backoffCap bounds the doubling delay when exponential backoff is enabled.
const backoffCap = 8

type prober interface {
	Probe(ctx context.Context, path string) (media.Source, error)
}

type splitter interface {
	Split(ctx context.Context, src media.Source, chunkSeconds float64) ([]media.Chunk, error)
}

type transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (transcribe.Result, error)
	TranscribePlain(ctx context.Context, audioPath string) (transcribe.Result, error)
}

type recordWriter interface {
	WriteJSON(tr merge.Transcript, audioFile, model, authName string) (string, error)
	WriteText(tr merge.Transcript, audioFile, model string) (string, error)
	WriteRecord(rec output.Record) (string, error)
}

// Compile-time interface compliance checks.
var (
	_ prober       = (*media.Prober)(nil)
	_ splitter     = (*media.Splitter)(nil)
	_ transcriber  = (*transcribe.Client)(nil)
	_ recordWriter = (*output.Writer)(nil)
)

// FileReport summarizes one processed audio file.
type FileReport struct {
	AudioFile       string
	DurationSeconds float64
	ChunksProcessed int
	Usage           transcribe.Usage
	RecordPath      string
	TextPath        string
	Elapsed         time.Duration
}

// Runner drives the per-file pipeline. Chunks are submitted strictly
// sequentially; the provider throttles the diarize deployment hard enough
// that parallel submission only converts capacity errors into retries.
type Runner struct {
	cfg      config.Settings
	authName string
	probe    prober
	split    splitter
	client   transcriber
	writer   recordWriter
	log      logrus.FieldLogger
	policy   retry.Policy
	sleep    func(ctx context.Context, d time.Duration) error
	now      func() time.Time
	plain    bool
	noText   bool
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithProber sets the duration prober (for testing).
func WithProber(p prober) RunnerOption {
	return func(r *Runner) { r.probe = p }
}

// WithSplitter sets the chunk splitter (for testing).
func WithSplitter(s splitter) RunnerOption {
	return func(r *Runner) { r.split = s }
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) RunnerOption {
	return func(r *Runner) { r.log = l }
}

// WithSleeper sets the delay function (for testing).
func WithSleeper(fn func(ctx context.Context, d time.Duration) error) RunnerOption {
	return func(r *Runner) { r.sleep = fn }
}

// WithClock sets the time source (for testing).
func WithClock(now func() time.Time) RunnerOption {
	return func(r *Runner) { r.now = now }
}

// WithBackoff switches the retry policy from a fixed delay to capped
// exponential backoff with jitter.
func WithBackoff() RunnerOption {
	return func(r *Runner) {
		r.policy.Backoff = true
		r.policy.Jitter = true
		r.policy.MaxDelay = backoffCap * r.policy.Delay
	}
}

// WithPlainTranscription routes chunks through the SDK plain path
// (no speaker diarization).
func WithPlainTranscription() RunnerOption {
	return func(r *Runner) { r.plain = true }
}

// WithoutTextOutput suppresses the companion text rendering.
func WithoutTextOutput() RunnerOption {
	return func(r *Runner) { r.noText = true }
}

// NewRunner creates a Runner over the given client and writer.
func NewRunner(cfg config.Settings, client transcriber, writer recordWriter, authName string, opts ...RunnerOption) *Runner {
	r := &Runner{
		cfg:      cfg,
		authName: authName,
		probe:    media.NewProber(),
		split:    media.NewSplitter(cfg.MaxDuration),
		client:   client,
		writer:   writer,
		log:      logrus.StandardLogger(),
		policy: retry.Policy{
			MaxAttempts: cfg.MaxAttempts,
			Delay:       cfg.RetryDelay,
		},
		sleep: sleepContext,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ProcessFile runs the full pipeline for one audio file.
//
// Any chunk whose retry budget is exhausted fails the whole file: a partial
// deposition transcript with silent gaps is worse than no transcript, since
// nothing in the output would reveal the missing testimony.
func (r *Runner) ProcessFile(ctx context.Context, path string) (FileReport, error) {
	started := r.now()
	log := r.log.WithField("file", filepath.Base(path))

	src, err := r.probe.Probe(ctx, path)
	if err != nil {
		return FileReport{}, err
	}
	log.WithField("duration", src.Duration).Info("probed audio duration")

	chunks, err := r.split.Split(ctx, src, r.cfg.ChunkDuration)
	if err != nil {
		return FileReport{}, err
	}

	results := make([]transcribe.ChunkResult, 0, len(chunks))
	for i, chunk := range chunks {
		if i > 0 {
			// Throttle between successful submissions only; retry pacing
			// is the policy's job.
			if err := r.sleep(ctx, r.cfg.ChunkDelay); err != nil {
				return FileReport{}, err
			}
		}

		cr, err := r.transcribeChunk(ctx, log, chunk, len(chunks))
		if err != nil {
			return FileReport{}, fmt.Errorf("chunk %d of %s: %w", chunk.Index, filepath.Base(path), err)
		}
		results = append(results, cr)
	}

	tr := merge.Merge(results, r.cfg.ChunkDuration)

	recordPath, err := r.writer.WriteJSON(tr, path, r.cfg.Deployment, r.authName)
	if err != nil {
		return FileReport{}, err
	}

	report := FileReport{
		AudioFile:       path,
		DurationSeconds: src.Duration,
		ChunksProcessed: tr.ChunksProcessed,
		Usage:           tr.Usage,
		RecordPath:      recordPath,
		Elapsed:         r.now().Sub(started),
	}

	if !r.noText {
		textPath, err := r.writer.WriteText(tr, path, r.cfg.Deployment)
		if err != nil {
			return FileReport{}, err
		}
		report.TextPath = textPath
	}

	log.WithFields(logrus.Fields{
		"chunks": tr.ChunksProcessed,
		"tokens": tr.Usage.TotalTokens,
		"record": filepath.Base(recordPath),
	}).Info("transcription complete")

	return report, nil
}

// transcribeChunk submits one chunk under the retry policy, measuring
// wall-clock latency across all attempts.
func (r *Runner) transcribeChunk(ctx context.Context, log logrus.FieldLogger, chunk media.Chunk, total int) (transcribe.ChunkResult, error) {
	attemptStart := r.now()

	result, err := retry.Do(ctx, r.policy, func(attempt int) (transcribe.Result, error) {
		log.WithFields(logrus.Fields{
			"chunk":   fmt.Sprintf("%d/%d", chunk.Index, total),
			"attempt": attempt,
		}).Info("transcribing chunk")

		if r.plain {
			return r.client.TranscribePlain(ctx, chunk.Path)
		}
		return r.client.Transcribe(ctx, chunk.Path)
	}, transcribe.IsRetryable)
	if err != nil {
		return transcribe.ChunkResult{}, err
	}

	return transcribe.ChunkResult{
		ChunkNumber:     chunk.Index,
		Result:          result,
		Usage:           result.Usage,
		DurationSeconds: r.now().Sub(attemptStart).Seconds(),
		Timestamp:       attemptStart,
	}, nil
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	select {
	case <-ctx.Done():
		if !timer.Stop() {
			<-timer.C
		}
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
