// Package logging builds the process logger and the per-cluster loggers
// derived from it.
package logging

import (
	"context"
	"io"
	"os"

	"github.com/go-logr/logr"
	"go.uber.org/zap/zapcore"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"

	"github.com/ocp4mco/ocp4mco/internal/cluster"
)

// Options configures the root logger.
type Options struct {
	// Verbosity enables V(n) logs up to n.
	Verbosity int
	// Development switches to the console encoder with stack traces on warnings.
	Development bool
	// Output defaults to stderr.
	Output io.Writer
}

// New builds the root logger and registers it with controller-runtime.
func New(opts Options) logr.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	logger := zap.New(
		zap.UseDevMode(opts.Development),
		zap.WriteTo(out),
		zap.Level(zapcore.Level(-opts.Verbosity)),
	)
	ctrl.SetLogger(logger)
	return logger
}

// FromEnv reads OCP4MCO_DEBUG and OCP4MCO_VERBOSITY on top of opts.
func FromEnv(opts Options) Options {
	if os.Getenv("OCP4MCO_DEBUG") == "true" {
		opts.Development = true
		if opts.Verbosity < 1 {
			opts.Verbosity = 1
		}
	}
	return opts
}

// ForCluster returns ctx with a logger tagged with the cluster name. The tag
// is only added when the set holds more than one cluster.
func ForCluster(ctx context.Context, set *cluster.Set, c cluster.Config) context.Context {
	if set == nil || !set.Multicluster() {
		return ctx
	}
	logger := log.FromContext(ctx).WithValues("cluster", c.Name)
	return log.IntoContext(ctx, logger)
}

// ForStage returns ctx with a logger named after stage.
func ForStage(ctx context.Context, stage string) context.Context {
	return log.IntoContext(ctx, log.FromContext(ctx).WithValues("stage", stage))
}
