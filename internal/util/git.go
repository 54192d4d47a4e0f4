package util

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// HeadCommit returns the commit id HEAD points to in the git repository at
// repoPath.
func HeadCommit(ctx context.Context, repoPath string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "HEAD")
	cmd.Dir = repoPath
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git rev-parse HEAD in %s: %w", repoPath, err)
	}
	return strings.TrimSpace(string(out)), nil
}
