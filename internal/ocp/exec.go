package ocp

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"

	"sigs.k8s.io/controller-runtime/pkg/log"
)

// Executor runs a command line against one cluster.
type Executor interface {
	// Run executes the command with args and returns its captured output.
	// A non-zero exit returns *CommandFailedError.
	Run(ctx context.Context, args ...string) (*Result, error)

	// RunWithInput is Run with stdin fed from input.
	RunWithInput(ctx context.Context, input []byte, args ...string) (*Result, error)
}

// Result is the captured output of a finished command.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// String returns the trimmed stdout.
func (r *Result) String() string {
	return strings.TrimSpace(string(r.Stdout))
}

// CLI executes a binary with KUBECONFIG pointed at one cluster.
type CLI struct {
	Binary     string
	Kubeconfig string
	// Dir is the working directory. Empty means the current directory.
	Dir string
	// Env holds extra KEY=VALUE pairs appended to the process environment.
	Env []string
}

// NewCLI returns a CLI for binary bound to kubeconfig.
func NewCLI(binary, kubeconfig string) *CLI {
	return &CLI{Binary: binary, Kubeconfig: kubeconfig}
}

// Run implements Executor.
func (c *CLI) Run(ctx context.Context, args ...string) (*Result, error) {
	return c.RunWithInput(ctx, nil, args...)
}

// RunWithInput implements Executor.
func (c *CLI) RunWithInput(ctx context.Context, input []byte, args ...string) (*Result, error) {
	logger := log.FromContext(ctx)
	command := append([]string{c.Binary}, args...)
	logger.V(1).Info("running command", "command", strings.Join(command, " "))

	// #nosec G204 - binary and args are assembled by stage code, not read from user input
	cmd := exec.CommandContext(ctx, c.Binary, args...)
	cmd.Dir = c.Dir
	cmd.Env = os.Environ()
	if c.Kubeconfig != "" {
		cmd.Env = append(cmd.Env, "KUBECONFIG="+c.Kubeconfig)
	}
	cmd.Env = append(cmd.Env, c.Env...)
	if input != nil {
		cmd.Stdin = bytes.NewReader(input)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := &Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err == nil {
		return res, nil
	}

	res.ExitCode = -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
	}
	return res, &CommandFailedError{
		Command:  command,
		ExitCode: res.ExitCode,
		Stderr:   stderr.String(),
		Err:      err,
	}
}

// Apply runs "apply -f -" with manifest on stdin.
func Apply(ctx context.Context, e Executor, manifest []byte) error {
	_, err := e.RunWithInput(ctx, manifest, "apply", "-f", "-")
	return err
}
