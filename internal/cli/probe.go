package cli

import (
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"github.com/veritas-legal/deposcribe/internal/format"
)

// ProbeCmd creates the probe command.
func ProbeCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "probe <audio-file>...",
		Short: "Show audio durations and the chunking plan",
		Long: `Probe each file's duration with ffprobe and report how it would be
chunked, without contacting the transcription service.`,
		Example: `  deposcribe probe peters_vol1.mp3 peters_vol2.mp3`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProbe(cmd, env, args)
		},
	}
	return cmd
}

func runProbe(cmd *cobra.Command, env *Env, paths []string) error {
	if err := env.ToolChecker(); err != nil {
		return err
	}
	cfg, err := env.ConfigLoader.Load()
	if err != nil {
		return err
	}

	for _, path := range paths {
		if err := checkAudioFile(path); err != nil {
			return err
		}

		src, err := env.Prober.Probe(cmd.Context(), path)
		if err != nil {
			return err
		}

		if src.Duration <= cfg.MaxDuration {
			fmt.Fprintf(env.Stdout, "%s: %s, fits in a single request\n",
				path, format.Timestamp(src.Duration))
			continue
		}

		windows := int(math.Floor(src.Duration/cfg.ChunkDuration)) + 1
		fmt.Fprintf(env.Stdout, "%s: %s, %d chunks of %.0fs\n",
			path, format.Timestamp(src.Duration), windows, cfg.ChunkDuration)
	}
	return nil
}
