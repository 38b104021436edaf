package gocmd

// go.go provides utilities for executing Go commands.

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// ListDir runs 'go list' for a single package and returns its source directory.
func ListDir(pkg string) (string, error) {
	cmd := exec.Command("go", "list", "-f", "{{.Dir}}", pkg)

	// Capture stdout and stderr separately
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		// Show the first line of the error
		errMsg := strings.TrimSpace(stderr.String())
		if line, _, _ := strings.Cut(errMsg, "\n"); line != "" {
			return "", fmt.Errorf("failed to list package %q: %s", pkg, line)
		}
		return "", fmt.Errorf("failed to list package %q: %w", pkg, err)
	}

	dir := strings.TrimSpace(stdout.String())
	if dir == "" {
		return "", fmt.Errorf("package %q has no directory", pkg)
	}
	return dir, nil
}

// TestJSONArgs returns the arguments of a 'go test' invocation emitting
// test2json events, adding -json unless it is already present.
func TestJSONArgs(args []string) []string {
	out := []string{"test"}
	for _, arg := range args {
		if arg == "-json" || arg == "--json" || arg == "-json=true" {
			return append(out, args...)
		}
	}
	out = append(out, "-json")
	return append(out, args...)
}

// Command creates an exec.Cmd for running a Go command.
// The first argument is the Go subcommand (e.g., "build", "test"), followed by its arguments.
func Command(ctx context.Context, args ...string) *exec.Cmd {
	return exec.CommandContext(ctx, "go", args...)
}
