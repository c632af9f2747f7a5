package exec_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/pendingchecks/internal/exec"
)

func TestHeadCommit(t *testing.T) {
	mock := exec.NewMockExecutor()
	mock.AddGitHead("0123456789abcdef")

	sha, err := exec.HeadCommit(context.Background(), mock)

	require.NoError(t, err)
	assert.Equal(t, "0123456789abcdef", sha)
	require.Len(t, mock.ExecutedCommands, 1)
	assert.Equal(t, "git", mock.ExecutedCommands[0].Name)
	assert.Equal(t, []string{"rev-parse", "HEAD"}, mock.ExecutedCommands[0].Args)
}

func TestHeadCommit_NotARepository(t *testing.T) {
	mock := exec.NewMockExecutor()
	mock.AddCommand("git", []string{"rev-parse", "HEAD"}, "",
		"fatal: not a git repository (or any of the parent directories): .git\n",
		errors.New("exit status 128"))

	_, err := exec.HeadCommit(context.Background(), mock)

	require.Error(t, err)
	assert.ErrorIs(t, err, exec.ErrNotARepository)
	assert.Contains(t, err.Error(), "fatal: not a git repository")
}

func TestHeadCommit_EmptyOutput(t *testing.T) {
	mock := exec.NewMockExecutor()
	mock.AddCommand("git", []string{"rev-parse", "HEAD"}, "  \n", "", nil)

	_, err := exec.HeadCommit(context.Background(), mock)

	assert.ErrorIs(t, err, exec.ErrNotARepository)
}
