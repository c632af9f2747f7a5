// Package exec runs external commands behind an interface so callers can be
// tested without a real git checkout.
package exec

import (
	"bytes"
	"context"
	"os/exec"
)

// CommandExecutor defines an interface for executing external commands.
type CommandExecutor interface {
	// Execute runs a command with the given name and arguments.
	// Returns stdout, stderr, and any error.
	Execute(ctx context.Context, name string, args ...string) (stdout string, stderr string, err error)
}

// RealExecutor executes actual system commands.
type RealExecutor struct{}

// NewRealExecutor creates an executor that runs real commands.
func NewRealExecutor() *RealExecutor {
	return &RealExecutor{}
}

// Execute runs the actual command using os/exec.
func (e *RealExecutor) Execute(ctx context.Context, name string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}
