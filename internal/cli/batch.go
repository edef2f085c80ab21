package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/veritas-legal/deposcribe/internal/format"
	"github.com/veritas-legal/deposcribe/internal/pipeline"
)

// BatchCmd creates the batch command.
func BatchCmd(env *Env) *cobra.Command {
	flags := &pipelineFlags{}
	var schedule string

	cmd := &cobra.Command{
		Use:   "batch <directory>",
		Short: "Transcribe every recording under a directory",
		Long: `Walk a directory tree and transcribe every audio file found, skipping
chunk directories left behind by earlier runs.

A failed file does not stop the batch; the summary lists what needs another
pass. The command exits successfully if at least one file was transcribed.

With --schedule, the batch reruns on a cron expression until interrupted,
picking up recordings dropped into the directory between runs.`,
		Example: `  deposcribe batch ./depositions
  deposcribe batch ./depositions --auth api-key
  deposcribe batch ./inbox --schedule "0 2 * * *"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, env, flags, schedule, args[0])
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&schedule, "schedule", "", "Cron expression for recurring runs (e.g. \"0 2 * * *\")")
	return cmd
}

func runBatch(cmd *cobra.Command, env *Env, flags *pipelineFlags, schedule, root string) error {
	if info, err := os.Stat(root); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, root)
		}
		return fmt.Errorf("cannot access directory: %w", err)
	} else if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", root)
	}

	runner, err := buildRunner(cmd, env, flags)
	if err != nil {
		return err
	}

	if schedule == "" {
		return runBatchOnce(cmd, env, runner, root)
	}
	return runBatchScheduled(cmd, env, runner, schedule, root)
}

func runBatchOnce(cmd *cobra.Command, env *Env, runner Runner, root string) error {
	summary, err := runner.RunBatch(cmd.Context(), root)
	if err != nil {
		return err
	}
	printSummary(env, summary)

	if summary.Succeeded == 0 {
		return fmt.Errorf("%w: %d of %d files failed", ErrNoTranscriptions, summary.Failed, summary.Processed)
	}
	return nil
}

// runBatchScheduled reruns the batch on a cron schedule until the context
// is cancelled. Per-run failures are logged and do not stop the schedule.
func runBatchScheduled(cmd *cobra.Command, env *Env, runner Runner, schedule, root string) error {
	ctx := cmd.Context()

	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		summary, err := runner.RunBatch(ctx, root)
		if err != nil {
			env.Logger.WithError(err).Error("scheduled batch failed")
			return
		}
		printSummary(env, summary)
	})
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidSchedule, schedule, err)
	}

	env.Logger.WithField("schedule", schedule).Info("batch scheduler started")
	c.Start()
	<-ctx.Done()

	stopped := c.Stop()
	<-stopped.Done() // let an in-flight run drain
	return ctx.Err()
}

func printSummary(env *Env, summary pipeline.BatchSummary) {
	fmt.Fprintf(env.Stdout, "Processed %d files: %d succeeded, %d failed\n",
		summary.Processed, summary.Succeeded, summary.Failed)
	fmt.Fprintf(env.Stdout, "Total tokens: %s\n", format.Comma(summary.Usage.TotalTokens))
	for _, path := range summary.FailedFiles {
		fmt.Fprintf(env.Stdout, "  failed: %s\n", filepath.Base(path))
	}
}
