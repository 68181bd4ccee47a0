// Package shared provides common utility functions used across multiple
// packages in the remote-apt-dater codebase.
package shared

import (
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/mattn/go-shellwords"
)

// CommandError wraps a command execution error with its trimmed output
// for cleaner error messages.
func CommandError(output []byte, err error) error {
	trimmed := strings.TrimSpace(string(output))
	if trimmed == "" {
		return err
	}
	return fmt.Errorf("%s: %w", trimmed, err)
}

// SplitCommandLine splits a configured command string into argv using
// POSIX shell quoting rules. Environment references are left as-is.
func SplitCommandLine(command string) ([]string, error) {
	argv, err := shellwords.Parse(command)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("malformed command line").
			WithCause(err)
	}
	if len(argv) == 0 {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg("command is not configured")
	}
	return argv, nil
}

// AgentEnv returns the environment entries that point child processes at
// the configured ssh agent socket.
func AgentEnv(socket string) []string {
	socket = strings.TrimSpace(socket)
	if socket == "" {
		return nil
	}
	return []string{"SSH_AUTH_SOCK=" + socket}
}
