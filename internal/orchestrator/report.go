package orchestrator

import (
	"errors"
	"fmt"
	"time"
)

// Status is the outcome of one stage on one cluster.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
	// StatusNotRun marks clusters left out by an abort.
	StatusNotRun Status = "not-run"
)

// StageResult is the outcome of one stage on one cluster.
type StageResult struct {
	Stage    string
	Cluster  string
	Index    int
	Status   Status
	Err      error
	Duration time.Duration
}

// Report collects the results of a run.
type Report struct {
	RunID    string
	Started  time.Time
	Duration time.Duration
	Results  []StageResult
	// AbortedAt names the stage that stopped the run, if any.
	AbortedAt string
}

// Failed returns the failed results in run order.
func (r *Report) Failed() []StageResult {
	var out []StageResult
	for _, res := range r.Results {
		if res.Status == StatusFailed {
			out = append(out, res)
		}
	}
	return out
}

// Stage returns the results of the named stage.
func (r *Report) Stage(name string) []StageResult {
	var out []StageResult
	for _, res := range r.Results {
		if res.Stage == name {
			out = append(out, res)
		}
	}
	return out
}

// Err joins every failure, each prefixed with stage and cluster. It is nil
// when nothing failed.
func (r *Report) Err() error {
	var errs []error
	for _, res := range r.Failed() {
		errs = append(errs, fmt.Errorf("%s on %s: %w", res.Stage, res.Cluster, res.Err))
	}
	return errors.Join(errs...)
}

// Counts returns the number of results per status.
func (r *Report) Counts() map[Status]int {
	counts := make(map[Status]int, 4)
	for _, res := range r.Results {
		counts[res.Status]++
	}
	return counts
}
