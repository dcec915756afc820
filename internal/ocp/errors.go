package ocp

import (
	"fmt"
	"strings"
)

// CommandFailedError reports a command that exited non-zero.
type CommandFailedError struct {
	Command  []string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *CommandFailedError) Error() string {
	msg := fmt.Sprintf("command %q failed with exit code %d", strings.Join(e.Command, " "), e.ExitCode)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

func (e *CommandFailedError) Unwrap() error {
	return e.Err
}

// UnavailableResourceError reports that a precondition resource does not
// exist, or not in sufficient quantity.
type UnavailableResourceError struct {
	Resource string
	Reason   string
}

func (e *UnavailableResourceError) Error() string {
	return fmt.Sprintf("resource %s unavailable: %s", e.Resource, e.Reason)
}
