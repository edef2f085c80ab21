package media

import (
	"context"
	"os"
	"os/exec"
)

// commandRunner executes external commands.
type commandRunner interface {
	// Output runs the command and returns its stdout.
	Output(ctx context.Context, name string, args []string) ([]byte, error)
	// CombinedOutput runs the command and returns stdout and stderr together.
	CombinedOutput(ctx context.Context, name string, args []string) ([]byte, error)
}

// dirMaker creates directories.
type dirMaker interface {
	MkdirAll(path string, perm os.FileMode) error
}

// --- Default implementations using real OS functions ---

// osCommandRunner implements commandRunner using exec.CommandContext.
type osCommandRunner struct{}

func (osCommandRunner) Output(ctx context.Context, name string, args []string) ([]byte, error) {
	// #nosec G204 -- name and args are built by the prober/splitter, not user input
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.Output()
}

func (osCommandRunner) CombinedOutput(ctx context.Context, name string, args []string) ([]byte, error) {
	// #nosec G204 -- name and args are built by the prober/splitter, not user input
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.CombinedOutput()
}

// osDirMaker implements dirMaker using os.MkdirAll.
type osDirMaker struct{}

func (osDirMaker) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// CheckTools verifies ffmpeg and ffprobe are invocable.
// Called once at command startup so a missing prerequisite fails fast.
func CheckTools() error {
	for _, tool := range []string{"ffmpeg", "ffprobe"} {
		if _, err := exec.LookPath(tool); err != nil {
			return ErrToolNotFound
		}
	}
	return nil
}
