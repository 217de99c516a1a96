package ffmpegcmd

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Binary is the default ffmpeg executable name.
const Binary = "ffmpeg"

// maxOutputTail bounds how much tool output is folded into an error.
const maxOutputTail = 2000

// Runner executes an external command and reports failure with its output.
type Runner func(ctx context.Context, name string, args ...string) error

// Exec runs name with args, folding combined output into the returned error.
func Exec(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%s: %w", name, ctx.Err())
		}
		return fmt.Errorf("%s: %w: %s", name, err, Tail(string(output)))
	}
	return nil
}

// Tail trims tool output to its final maxOutputTail bytes.
func Tail(output string) string {
	output = strings.TrimSpace(output)
	if len(output) <= maxOutputTail {
		return output
	}
	return "..." + output[len(output)-maxOutputTail:]
}

// OrDefault returns runner, or Exec when runner is nil.
func OrDefault(runner Runner) Runner {
	if runner != nil {
		return runner
	}
	return Exec
}
