package cli

// This file contains Git integration utilities for retrieving
// repository information.

import (
	"fmt"
	"os/exec"
	"strings"
)

func gitOutput(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	output, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(output)), nil
}

func (a *App) getGitInfo(dir string) (commit, branch string, err error) {
	// Get current commit hash
	commit, err = gitOutput(dir, "rev-parse", "HEAD")
	if err != nil {
		return "", "", fmt.Errorf("failed to get git commit: %w", err)
	}

	// Get current branch, a detached HEAD has none
	branch, err = gitOutput(dir, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", "", fmt.Errorf("failed to get git branch: %w", err)
	}
	if branch == "HEAD" {
		branch = ""
	}

	return commit, branch, nil
}

// repoRoot returns the top level directory of the repository containing dir.
func (a *App) repoRoot(dir string) (string, error) {
	root, err := gitOutput(dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", fmt.Errorf("failed to get git top level: %w", err)
	}
	return root, nil
}
