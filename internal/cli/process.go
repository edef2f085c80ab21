package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/veritas-legal/deposcribe/internal/format"
	"github.com/veritas-legal/deposcribe/internal/pipeline"
)

// ProcessCmd creates the process command.
func ProcessCmd(env *Env) *cobra.Command {
	flags := &pipelineFlags{}

	cmd := &cobra.Command{
		Use:   "process <audio-file>...",
		Short: "Transcribe deposition recordings",
		Long: `Transcribe deposition recordings with speaker diarization.

Recordings longer than the deployment's duration ceiling are split into
chunks with ffmpeg, transcribed sequentially, and merged back into a single
timeline. Each run produces a JSON record and a companion text transcript.

With multiple files, a failure moves on to the next file; the command
succeeds if at least one file was transcribed.`,
		Example: `  deposcribe process peters_vol1.mp3
  deposcribe process peters_vol1.mp3 peters_vol2.mp3 --auth api-key
  deposcribe process peters_vol1.mp3 --plain --no-text`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcess(cmd, env, flags, args)
		},
	}

	flags.register(cmd)
	return cmd
}

func runProcess(cmd *cobra.Command, env *Env, flags *pipelineFlags, paths []string) error {
	for _, path := range paths {
		if err := checkAudioFile(path); err != nil {
			return err
		}
	}

	runner, err := buildRunner(cmd, env, flags)
	if err != nil {
		return err
	}

	var succeeded int
	var lastErr error
	for _, path := range paths {
		report, err := runner.ProcessFile(cmd.Context(), path)
		if err != nil {
			lastErr = err
			if len(paths) == 1 {
				return err
			}
			env.Logger.WithError(err).Error("file failed")
			fmt.Fprintf(env.Stdout, "failed: %s\n", path)
			continue
		}
		succeeded++
		printReport(env, path, report)
	}

	if succeeded == 0 {
		return lastErr
	}
	return nil
}

func printReport(env *Env, path string, report pipeline.FileReport) {
	fmt.Fprintf(env.Stdout, "Transcribed %s (%s of audio, %d chunks)\n",
		path, format.Timestamp(report.DurationSeconds), report.ChunksProcessed)
	fmt.Fprintf(env.Stdout, "Tokens used: %s\n", format.Comma(report.Usage.TotalTokens))
	fmt.Fprintf(env.Stdout, "Record: %s\n", report.RecordPath)
	if report.TextPath != "" {
		fmt.Fprintf(env.Stdout, "Transcript: %s\n", report.TextPath)
	}
}
