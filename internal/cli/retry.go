package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// RetryCmd creates the retry command.
func RetryCmd(env *Env) *cobra.Command {
	flags := &pipelineFlags{}

	cmd := &cobra.Command{
		Use:   "retry <record.json> <chunk-file>...",
		Short: "Re-transcribe failed chunks into an existing record",
		Long: `Re-transcribe leftover chunk files and fold their segments into an
existing JSON record, producing a new record file.

Chunk files must follow the splitter's <stem>_chunk_NN naming so each one
can be rebased to its place in the timeline. The original record is left
untouched.`,
		Example: `  deposcribe retry output/depo_20251103_090000.json chunks/depo_chunk_03.mp3
  deposcribe retry record.json chunks/depo_chunk_02.mp3 chunks/depo_chunk_05.mp3`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRetry(cmd, env, flags, args[0], args[1:])
		},
	}

	flags.register(cmd)
	return cmd
}

func runRetry(cmd *cobra.Command, env *Env, flags *pipelineFlags, recordPath string, chunkPaths []string) error {
	if _, err := os.Stat(recordPath); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, recordPath)
		}
		return fmt.Errorf("cannot access record: %w", err)
	}
	for _, chunkPath := range chunkPaths {
		if err := checkAudioFile(chunkPath); err != nil {
			return err
		}
	}

	runner, err := buildRunner(cmd, env, flags)
	if err != nil {
		return err
	}

	newPath, err := runner.RetryChunks(cmd.Context(), recordPath, chunkPaths)
	if err != nil {
		return err
	}

	fmt.Fprintf(env.Stdout, "Patched %d chunks into %s\n", len(chunkPaths), newPath)
	return nil
}
