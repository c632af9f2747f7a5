package exec

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotARepository is returned when the working directory has no git HEAD.
var ErrNotARepository = errors.New("not inside a git repository")

// HeadCommit resolves the SHA of the local HEAD commit.
func HeadCommit(ctx context.Context, e CommandExecutor) (string, error) {
	stdout, stderr, err := e.Execute(ctx, "git", "rev-parse", "HEAD")
	if err != nil {
		msg := strings.TrimSpace(stderr)
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("%w: %s", ErrNotARepository, msg)
	}

	sha := strings.TrimSpace(stdout)
	if sha == "" {
		return "", ErrNotARepository
	}
	return sha, nil
}
