package enhance

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"unicode/utf8"
)

// CommandRunner executes an external program and returns its combined output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	return cmd.CombinedOutput()
}

const outputTailLimit = 512

// outputTail keeps the end of tool output, where ffmpeg and friends print the
// actual failure.
func outputTail(output []byte) string {
	text := strings.TrimSpace(string(output))
	if len(text) > outputTailLimit {
		cut := len(text) - outputTailLimit
		for cut < len(text) && !utf8.RuneStart(text[cut]) {
			cut++
		}
		text = "..." + text[cut:]
	}
	return text
}

func runTool(ctx context.Context, run CommandRunner, name string, args ...string) error {
	if run == nil {
		run = execCommand
	}
	output, err := run(ctx, name, args...)
	if err != nil {
		if tail := outputTail(output); tail != "" {
			return fmt.Errorf("%s: %w: %s", name, err, tail)
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}
