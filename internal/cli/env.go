// Package cli wires the deposcribe commands: process, batch, retry,
// render, probe.
package cli

import (
	"context"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/veritas-legal/deposcribe/internal/auth"
	"github.com/veritas-legal/deposcribe/internal/config"
	"github.com/veritas-legal/deposcribe/internal/media"
	"github.com/veritas-legal/deposcribe/internal/output"
	"github.com/veritas-legal/deposcribe/internal/pipeline"
	"github.com/veritas-legal/deposcribe/internal/transcribe"
)

// Authentication scheme names accepted by --auth.
const (
	AuthEntra  = "entra"
	AuthAPIKey = "api-key"
)

// Env holds injectable dependencies for CLI commands.
// This is the central injection point for testing commands in isolation.
// Use DefaultEnv() or NewEnv() to create a valid instance.
type Env struct {
	Stdout io.Writer
	Stderr io.Writer
	Logger *logrus.Logger

	ConfigLoader      ConfigLoader
	CredentialFactory CredentialFactory
	RunnerFactory     RunnerFactory
	Prober            DurationProber
	ToolChecker       func() error
	Renderer          func(ctx context.Context, dir string, log *logrus.Logger) (int, error)
}

// ConfigLoader loads pipeline settings.
type ConfigLoader interface {
	Load() (config.Settings, error)
}

// CredentialFactory builds the credential for a named auth scheme.
type CredentialFactory interface {
	New(scheme string, cfg config.Settings) (auth.Credential, error)
}

// Runner is the pipeline surface commands drive.
type Runner interface {
	ProcessFile(ctx context.Context, path string) (pipeline.FileReport, error)
	RunBatch(ctx context.Context, root string) (pipeline.BatchSummary, error)
	RetryChunks(ctx context.Context, recordPath string, chunkPaths []string) (string, error)
}

// RunnerFactory assembles a Runner from settings and a credential.
type RunnerFactory interface {
	New(cfg config.Settings, cred auth.Credential, log *logrus.Logger, opts ...pipeline.RunnerOption) Runner
}

// DurationProber reports an audio file's duration.
type DurationProber interface {
	Probe(ctx context.Context, path string) (media.Source, error)
}

// EnvOption configures an Env.
type EnvOption func(*Env)

// WithStdout sets the stdout writer.
func WithStdout(w io.Writer) EnvOption {
	return func(e *Env) { e.Stdout = w }
}

// WithStderr sets the stderr writer.
func WithStderr(w io.Writer) EnvOption {
	return func(e *Env) { e.Stderr = w }
}

// WithLogger sets the logger.
func WithLogger(l *logrus.Logger) EnvOption {
	return func(e *Env) { e.Logger = l }
}

// WithConfigLoader sets the settings loader.
func WithConfigLoader(l ConfigLoader) EnvOption {
	return func(e *Env) { e.ConfigLoader = l }
}

// WithCredentialFactory sets the credential factory.
func WithCredentialFactory(f CredentialFactory) EnvOption {
	return func(e *Env) { e.CredentialFactory = f }
}

// WithRunnerFactory sets the runner factory.
func WithRunnerFactory(f RunnerFactory) EnvOption {
	return func(e *Env) { e.RunnerFactory = f }
}

// WithProber sets the duration prober.
func WithProber(p DurationProber) EnvOption {
	return func(e *Env) { e.Prober = p }
}

// WithToolChecker sets the external-tool prerequisite check.
func WithToolChecker(fn func() error) EnvOption {
	return func(e *Env) { e.ToolChecker = fn }
}

// WithRenderer sets the record-to-text renderer.
func WithRenderer(fn func(ctx context.Context, dir string, log *logrus.Logger) (int, error)) EnvOption {
	return func(e *Env) { e.Renderer = fn }
}

// DefaultEnv returns an Env with production defaults.
func DefaultEnv() *Env {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	return &Env{
		Stdout:            os.Stdout,
		Stderr:            os.Stderr,
		Logger:            log,
		ConfigLoader:      defaultConfigLoader{},
		CredentialFactory: defaultCredentialFactory{},
		RunnerFactory:     defaultRunnerFactory{},
		Prober:            media.NewProber(),
		ToolChecker:       media.CheckTools,
		Renderer:          output.RenderAll,
	}
}

// NewEnv creates an Env with the given options applied to defaults.
func NewEnv(opts ...EnvOption) *Env {
	env := DefaultEnv()
	for _, opt := range opts {
		opt(env)
	}
	return env
}

// ---------------------------------------------------------------------------
// Default implementations - delegate to real packages
// ---------------------------------------------------------------------------

type defaultConfigLoader struct{}

func (defaultConfigLoader) Load() (config.Settings, error) {
	return config.Load()
}

type defaultCredentialFactory struct{}

func (defaultCredentialFactory) New(scheme string, cfg config.Settings) (auth.Credential, error) {
	switch scheme {
	case AuthEntra:
		return auth.NewEntraCredential()
	case AuthAPIKey:
		return auth.NewAPIKeyCredential(cfg.APIKey)
	default:
		return nil, ErrUnknownAuthScheme
	}
}

type defaultRunnerFactory struct{}

func (defaultRunnerFactory) New(cfg config.Settings, cred auth.Credential, log *logrus.Logger, opts ...pipeline.RunnerOption) Runner {
	client := transcribe.NewClient(cfg, cred)
	writer := output.NewWriter(cfg.OutputDir)
	opts = append([]pipeline.RunnerOption{pipeline.WithLogger(log)}, opts...)
	return pipeline.NewRunner(cfg, client, writer, cred.Name(), opts...)
}

// Compile-time interface verification.
var (
	_ ConfigLoader      = defaultConfigLoader{}
	_ CredentialFactory = defaultCredentialFactory{}
	_ RunnerFactory     = defaultRunnerFactory{}
	_ Runner            = (*pipeline.Runner)(nil)
	_ DurationProber    = (*media.Prober)(nil)
)
