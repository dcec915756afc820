package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/ocp4mco/ocp4mco/internal/cluster"
	"github.com/ocp4mco/ocp4mco/internal/util/retry"
)

// IsolationMode decides what a failed cluster does to the rest of the run.
type IsolationMode int

const (
	// ContinueOnError records the failure and moves on to the next cluster.
	ContinueOnError IsolationMode = iota
	// AbortStage skips the remaining clusters of the stage.
	AbortStage
	// AbortRun skips the remaining clusters and every later stage.
	AbortRun
)

func (m IsolationMode) String() string {
	switch m {
	case ContinueOnError:
		return "continue"
	case AbortStage:
		return "abort-stage"
	case AbortRun:
		return "abort-run"
	default:
		return fmt.Sprintf("isolation(%d)", int(m))
	}
}

// ParseIsolation parses the configuration spelling of an IsolationMode.
func ParseIsolation(s string) (IsolationMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "continue", "continue-on-error":
		return ContinueOnError, nil
	case "abort-stage":
		return AbortStage, nil
	case "abort-run":
		return AbortRun, nil
	}
	return 0, fmt.Errorf("unknown isolation mode %q (want continue, abort-stage or abort-run)", s)
}

// Func is a cluster-scoped operation. It receives an immutable snapshot of
// the cluster it runs against.
type Func func(ctx context.Context, c cluster.Config) error

// Stage is one step of a deployment.
type Stage struct {
	Name      string
	Scope     cluster.Scope
	Parallel  bool
	Isolation IsolationMode
	// Retry wraps Run when set.
	Retry *retry.Policy
	// Requires names stages that must be declared earlier.
	Requires []string
	// Skip overrides the per-cluster skip toggle lookup.
	Skip func(c cluster.Config) bool
	// Prepare runs sequentially for every cluster before Run. For parallel
	// stages it is the only part that runs under the cluster context.
	Prepare Func
	Run     Func
}

func (s Stage) skips(c cluster.Config) bool {
	if s.Skip != nil {
		return s.Skip(c)
	}
	return c.Skips(s.Name)
}

func validateStages(stages []Stage) error {
	declared := make(map[string]bool, len(stages))
	for i, st := range stages {
		if st.Name == "" {
			return cluster.Errorf("stage %d has no name", i)
		}
		if declared[st.Name] {
			return cluster.Errorf("stage %q declared twice", st.Name)
		}
		if st.Run == nil {
			return cluster.Errorf("stage %q has no operation", st.Name)
		}
		for _, dep := range st.Requires {
			if !declared[dep] {
				return cluster.Errorf("stage %q requires %q, which is not declared before it", st.Name, dep)
			}
		}
		declared[st.Name] = true
	}
	return nil
}
