package exec

import (
	"context"
	"fmt"
	"strings"
)

// MockExecutor simulates command execution for testing.
type MockExecutor struct {
	// Commands maps "command arg1 arg2" keys to responses.
	Commands map[string]*CommandResult

	// ExecutedCommands tracks all commands that were executed.
	ExecutedCommands []ExecutedCommand
}

// CommandResult represents the result of a command execution.
type CommandResult struct {
	Stdout string
	Stderr string
	Error  error
}

// ExecutedCommand tracks a command that was executed.
type ExecutedCommand struct {
	Name string
	Args []string
}

// NewMockExecutor creates a new mock executor.
func NewMockExecutor() *MockExecutor {
	return &MockExecutor{
		Commands:         make(map[string]*CommandResult),
		ExecutedCommands: make([]ExecutedCommand, 0),
	}
}

// Execute looks the command up in the Commands map.
func (m *MockExecutor) Execute(_ context.Context, name string, args ...string) (string, string, error) {
	m.ExecutedCommands = append(m.ExecutedCommands, ExecutedCommand{
		Name: name,
		Args: args,
	})

	cmdKey := buildCommandKey(name, args)
	if result, ok := m.Commands[cmdKey]; ok {
		return result.Stdout, result.Stderr, result.Error
	}

	return "", "", fmt.Errorf("mock executor: no result configured for command: %s", cmdKey)
}

// AddCommand registers a command response.
func (m *MockExecutor) AddCommand(name string, args []string, stdout, stderr string, err error) {
	m.Commands[buildCommandKey(name, args)] = &CommandResult{
		Stdout: stdout,
		Stderr: stderr,
		Error:  err,
	}
}

// AddGitHead registers the response of `git rev-parse HEAD`.
func (m *MockExecutor) AddGitHead(sha string) {
	m.AddCommand("git", []string{"rev-parse", "HEAD"}, sha+"\n", "", nil)
}

func buildCommandKey(name string, args []string) string {
	parts := append([]string{name}, args...)
	return strings.Join(parts, " ")
}
