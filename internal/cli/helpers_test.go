package cli_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/veritas-legal/deposcribe/internal/auth"
	"github.com/veritas-legal/deposcribe/internal/cli"
	"github.com/veritas-legal/deposcribe/internal/config"
	"github.com/veritas-legal/deposcribe/internal/media"
	"github.com/veritas-legal/deposcribe/internal/pipeline"
)

// --- fakes -----------------------------------------------------------------

type fakeConfigLoader struct {
	cfg config.Settings
	err error
}

func (f *fakeConfigLoader) Load() (config.Settings, error) {
	return f.cfg, f.err
}

type fakeCredentialFactory struct {
	scheme string
	err    error
}

func (f *fakeCredentialFactory) New(scheme string, cfg config.Settings) (auth.Credential, error) {
	f.scheme = scheme
	if f.err != nil {
		return nil, f.err
	}
	return auth.NewAPIKeyCredential("sk-test")
}

type fakeRunner struct {
	processPaths []string
	report       pipeline.FileReport
	processErr   error

	batchRoot string
	summary   pipeline.BatchSummary
	batchErr  error

	retryRecord string
	retryChunks []string
	retryPath   string
	retryErr    error
}

func (f *fakeRunner) ProcessFile(_ context.Context, path string) (pipeline.FileReport, error) {
	f.processPaths = append(f.processPaths, path)
	return f.report, f.processErr
}

func (f *fakeRunner) RunBatch(_ context.Context, root string) (pipeline.BatchSummary, error) {
	f.batchRoot = root
	return f.summary, f.batchErr
}

func (f *fakeRunner) RetryChunks(_ context.Context, recordPath string, chunkPaths []string) (string, error) {
	f.retryRecord = recordPath
	f.retryChunks = chunkPaths
	if f.retryErr != nil {
		return "", f.retryErr
	}
	return f.retryPath, nil
}

type fakeRunnerFactory struct {
	runner *fakeRunner
	cfg    config.Settings
	opts   []pipeline.RunnerOption
	calls  int
}

func (f *fakeRunnerFactory) New(cfg config.Settings, _ auth.Credential, _ *logrus.Logger, opts ...pipeline.RunnerOption) cli.Runner {
	f.calls++
	f.cfg = cfg
	f.opts = opts
	return f.runner
}

// flakyRunner fails its first ProcessFile call, then delegates.
type flakyRunner struct {
	inner     *fakeRunner
	failFirst *int
}

func (f *flakyRunner) ProcessFile(ctx context.Context, path string) (pipeline.FileReport, error) {
	*f.failFirst++
	if *f.failFirst == 1 {
		return pipeline.FileReport{}, errors.New("transient outage")
	}
	return f.inner.ProcessFile(ctx, path)
}

func (f *flakyRunner) RunBatch(ctx context.Context, root string) (pipeline.BatchSummary, error) {
	return f.inner.RunBatch(ctx, root)
}

func (f *flakyRunner) RetryChunks(ctx context.Context, recordPath string, chunkPaths []string) (string, error) {
	return f.inner.RetryChunks(ctx, recordPath, chunkPaths)
}

// staticRunnerFactory always hands back the same runner.
type staticRunnerFactory struct {
	runner cli.Runner
}

func (f *staticRunnerFactory) New(config.Settings, auth.Credential, *logrus.Logger, ...pipeline.RunnerOption) cli.Runner {
	return f.runner
}

type fakeDurationProber struct {
	durations map[string]float64
}

func (f *fakeDurationProber) Probe(_ context.Context, path string) (media.Source, error) {
	return media.Source{Path: path, Duration: f.durations[path]}, nil
}

// --- helpers ---------------------------------------------------------------

func validSettings() config.Settings {
	return config.Settings{
		Endpoint:      "https://example.openai.azure.com",
		APIVersion:    "2025-04-01-preview",
		APIKey:        "sk-test",
		Deployment:    "gpt-4o-transcribe-diarize",
		MaxDuration:   1500,
		ChunkDuration: 1400,
		MaxAttempts:   3,
		Language:      "en",
		OutputDir:     "out",
	}
}

type testHarness struct {
	env     *cli.Env
	runner  *fakeRunner
	factory *fakeRunnerFactory
	creds   *fakeCredentialFactory
	stdout  *bytes.Buffer
}

func newHarness(cfg config.Settings) *testHarness {
	runner := &fakeRunner{}
	factory := &fakeRunnerFactory{runner: runner}
	creds := &fakeCredentialFactory{}
	stdout := &bytes.Buffer{}

	log := logrus.New()
	log.SetOutput(io.Discard)

	env := cli.NewEnv(
		cli.WithStdout(stdout),
		cli.WithStderr(io.Discard),
		cli.WithLogger(log),
		cli.WithConfigLoader(&fakeConfigLoader{cfg: cfg}),
		cli.WithCredentialFactory(creds),
		cli.WithRunnerFactory(factory),
		cli.WithToolChecker(func() error { return nil }),
	)
	return &testHarness{env: env, runner: runner, factory: factory, creds: creds, stdout: stdout}
}

// execute runs a command with args and captures the outcome.
func execute(t *testing.T, cmd *cobra.Command, args ...string) error {
	t.Helper()
	cmd.SetArgs(args)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	return cmd.Execute()
}

// writeAudioFixture creates a stand-in .mp3 and returns its path.
func writeAudioFixture(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("ID3 fake"), 0600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}
