package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/veritas-legal/deposcribe/internal/config"
	"github.com/veritas-legal/deposcribe/internal/pipeline"
)

// supportedFormats lists audio formats the transcription deployment accepts.
var supportedFormats = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".m4a":  true,
	".ogg":  true,
	".flac": true,
	".webm": true,
}

// supportedFormatsList returns a sorted, comma-separated list for error
// messages.
func supportedFormatsList() string {
	formats := make([]string, 0, len(supportedFormats))
	for ext := range supportedFormats {
		formats = append(formats, strings.TrimPrefix(ext, "."))
	}
	slices.Sort(formats)
	return strings.Join(formats, ", ")
}

// pipelineFlags are the knobs shared by process and batch.
type pipelineFlags struct {
	auth          string
	lang          string
	chunkDuration float64
	outputDir     string
	maxAttempts   int
	retryDelay    time.Duration
	backoff       bool
	plain         bool
	noText        bool
}

// register binds the shared flags onto cmd.
func (f *pipelineFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.auth, "auth", AuthEntra, "Authentication scheme: entra, api-key")
	cmd.Flags().StringVarP(&f.lang, "language", "l", "", "Audio language (BCP 47 code, e.g. en, pt-BR)")
	cmd.Flags().Float64Var(&f.chunkDuration, "chunk-duration", 0, "Seconds per chunk window (default from environment)")
	cmd.Flags().StringVarP(&f.outputDir, "output-dir", "o", "", "Directory for records and transcripts")
	cmd.Flags().IntVar(&f.maxAttempts, "max-attempts", 0, "Attempts per chunk before the file fails")
	cmd.Flags().DurationVar(&f.retryDelay, "retry-delay", 0, "Delay between attempts")
	cmd.Flags().BoolVar(&f.backoff, "backoff", false, "Use capped exponential backoff with jitter instead of a fixed delay")
	cmd.Flags().BoolVar(&f.plain, "plain", false, "Plain transcription without speaker diarization")
	cmd.Flags().BoolVar(&f.noText, "no-text", false, "Skip the companion text transcript")
}

// apply folds changed flags into the settings and returns runner options.
// Validation order: auth scheme -> language -> endpoint.
func (f *pipelineFlags) apply(cmd *cobra.Command, cfg *config.Settings) ([]pipeline.RunnerOption, error) {
	if f.auth != AuthEntra && f.auth != AuthAPIKey {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAuthScheme, f.auth)
	}
	if err := validateLanguage(f.lang); err != nil {
		return nil, err
	}
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("%w (e.g. https://<resource>.openai.azure.com)", ErrEndpointMissing)
	}

	if cmd.Flags().Changed("chunk-duration") {
		if f.chunkDuration <= 0 {
			return nil, fmt.Errorf("--chunk-duration must be positive, got %v", f.chunkDuration)
		}
		cfg.ChunkDuration = f.chunkDuration
	}
	if cmd.Flags().Changed("language") {
		cfg.Language = f.lang
	}
	if cmd.Flags().Changed("output-dir") {
		cfg.OutputDir = f.outputDir
	}
	if cmd.Flags().Changed("max-attempts") {
		if f.maxAttempts < 1 {
			return nil, fmt.Errorf("--max-attempts must be at least 1, got %d", f.maxAttempts)
		}
		cfg.MaxAttempts = f.maxAttempts
	}
	if cmd.Flags().Changed("retry-delay") {
		if f.retryDelay < 0 {
			return nil, fmt.Errorf("--retry-delay must be non-negative, got %v", f.retryDelay)
		}
		cfg.RetryDelay = f.retryDelay
	}

	var opts []pipeline.RunnerOption
	if f.backoff {
		opts = append(opts, pipeline.WithBackoff())
	}
	if f.plain {
		opts = append(opts, pipeline.WithPlainTranscription())
	}
	if f.noText {
		opts = append(opts, pipeline.WithoutTextOutput())
	}
	return opts, nil
}

// validateLanguage accepts an empty code or anything that parses as BCP 47.
func validateLanguage(code string) error {
	if code == "" {
		return nil
	}
	if _, err := language.Parse(code); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidLanguage, code)
	}
	return nil
}

// checkAudioFile validates that path exists and has a supported extension.
func checkAudioFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return fmt.Errorf("cannot access input file: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(path))
	if !supportedFormats[ext] {
		return fmt.Errorf("%w: %q (supported: %s)", ErrUnsupportedFormat, ext, supportedFormatsList())
	}
	return nil
}

// buildRunner resolves config, flags, credential, and runner for a pipeline
// command.
func buildRunner(cmd *cobra.Command, env *Env, flags *pipelineFlags) (Runner, error) {
	if err := env.ToolChecker(); err != nil {
		return nil, err
	}

	cfg, err := env.ConfigLoader.Load()
	if err != nil {
		return nil, err
	}
	opts, err := flags.apply(cmd, &cfg)
	if err != nil {
		return nil, err
	}

	cred, err := env.CredentialFactory.New(flags.auth, cfg)
	if err != nil {
		return nil, err
	}

	return env.RunnerFactory.New(cfg, cred, env.Logger, opts...), nil
}
