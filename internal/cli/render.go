package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// RenderCmd creates the render command.
func RenderCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render <directory>",
		Short: "Regenerate text transcripts from saved JSON records",
		Long: `Regenerate speaker-attributed text transcripts from the JSON records in a
directory. Output lands in a text_transcripts subdirectory.

Needs no credentials or external tools; useful after changing nothing but
the rendering, or for records produced on another machine.`,
		Example: `  deposcribe render output/depositions`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, env, args[0])
		},
	}
	return cmd
}

func runRender(cmd *cobra.Command, env *Env, dir string) error {
	if info, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, dir)
		}
		return fmt.Errorf("cannot access directory: %w", err)
	} else if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	n, err := env.Renderer(cmd.Context(), dir, env.Logger)
	if err != nil {
		return err
	}
	fmt.Fprintf(env.Stdout, "Rendered %d transcripts\n", n)
	return nil
}
