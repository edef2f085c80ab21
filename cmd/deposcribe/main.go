package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/veritas-legal/deposcribe/internal/auth"
	"github.com/veritas-legal/deposcribe/internal/cli"
	"github.com/veritas-legal/deposcribe/internal/media"
	"github.com/veritas-legal/deposcribe/internal/retry"
	"github.com/veritas-legal/deposcribe/internal/transcribe"
)

// Injected at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

// Exit codes.
const (
	ExitOK            = 0
	ExitGeneral       = 1
	ExitUsage         = 2
	ExitSetup         = 3
	ExitValidation    = 4
	ExitTranscription = 5
	ExitInterrupt     = 130
)

func main() {
	// Load .env file if present (ignore error if missing).
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	env := cli.DefaultEnv()

	var verbose bool
	rootCmd := &cobra.Command{
		Use:     "deposcribe",
		Short:   "Transcribe deposition recordings with speaker diarization",
		Version: fmt.Sprintf("%s (commit: %s)", version, commit),
		PersistentPreRun: func(*cobra.Command, []string) {
			if verbose {
				env.Logger.SetLevel(logrus.DebugLevel)
			}
		},
		// Silence Cobra's default error/usage printing; we handle it ourselves.
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(cli.ProcessCmd(env))
	rootCmd.AddCommand(cli.BatchCmd(env))
	rootCmd.AddCommand(cli.RetryCmd(env))
	rootCmd.AddCommand(cli.RenderCmd(env))
	rootCmd.AddCommand(cli.ProbeCmd(env))

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps errors to exit codes.
func exitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	if errors.Is(err, context.Canceled) {
		return ExitInterrupt
	}

	if isCobraUsageError(err) {
		return ExitUsage
	}

	// Setup errors: missing tools, credentials, endpoint.
	if errors.Is(err, media.ErrToolNotFound) || errors.Is(err, auth.ErrAPIKeyMissing) ||
		errors.Is(err, cli.ErrEndpointMissing) || errors.Is(err, cli.ErrUnknownAuthScheme) {
		return ExitSetup
	}

	// Validation errors: bad inputs caught before any API call.
	if errors.Is(err, cli.ErrFileNotFound) || errors.Is(err, cli.ErrUnsupportedFormat) ||
		errors.Is(err, cli.ErrInvalidLanguage) || errors.Is(err, cli.ErrInvalidSchedule) ||
		errors.Is(err, media.ErrProbe) {
		return ExitValidation
	}

	// Transcription errors: the service said no, or kept saying no.
	if errors.Is(err, retry.ErrExhausted) || errors.Is(err, transcribe.ErrRequest) ||
		errors.Is(err, transcribe.ErrServer) || errors.Is(err, transcribe.ErrTransport) ||
		errors.Is(err, cli.ErrNoTranscriptions) {
		return ExitTranscription
	}

	return ExitGeneral
}

// cobraUsageErrorPatterns contains error message substrings that indicate
// Cobra usage errors. Cobra doesn't expose typed errors, so string matching
// is the only reliable approach.
var cobraUsageErrorPatterns = []string{
	"required flag",
	"unknown flag",
	"unknown shorthand",
	"unknown command",
	"flag needs an argument",
	"invalid argument",
	"accepts ",
	"requires at least",
	"requires at most",
}

// isCobraUsageError checks if an error is a Cobra usage/parsing error.
func isCobraUsageError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, pattern := range cobraUsageErrorPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
