package orchestrator

import (
	"context"
	"fmt"
	"runtime/debug"
	"slices"
	"time"

	"github.com/google/uuid"
	"k8s.io/utils/clock"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/ocp4mco/ocp4mco/internal/cluster"
	"github.com/ocp4mco/ocp4mco/internal/logging"
	"github.com/ocp4mco/ocp4mco/internal/util/async"
	"github.com/ocp4mco/ocp4mco/internal/util/retry"
)

// Orchestrator sequences stages across the clusters of a cluster.Context.
type Orchestrator struct {
	clusters *cluster.Context
	stages   []Stage
	metrics  *Metrics
	clock    clock.PassiveClock
	runID    string
	retryOps []retry.DoOption
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithMetrics records every stage result in m.
func WithMetrics(m *Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithClock sets the clock used for durations.
func WithClock(c clock.PassiveClock) Option {
	return func(o *Orchestrator) { o.clock = c }
}

// WithRunID sets the run identifier carried by logs and the report.
func WithRunID(id string) Option {
	return func(o *Orchestrator) { o.runID = id }
}

// WithRetryOptions passes options to every retried stage, mainly to replace
// the sleeper in tests.
func WithRetryOptions(opts ...retry.DoOption) Option {
	return func(o *Orchestrator) { o.retryOps = append(o.retryOps, opts...) }
}

// New validates the stage list and returns an Orchestrator. A stage that
// requires a stage not declared before it is a configuration error.
func New(clusters *cluster.Context, stages []Stage, opts ...Option) (*Orchestrator, error) {
	if clusters == nil {
		return nil, cluster.Errorf("no cluster context")
	}
	if err := validateStages(stages); err != nil {
		return nil, err
	}
	o := &Orchestrator{
		clusters: clusters,
		stages:   append([]Stage(nil), stages...),
		clock:    clock.RealClock{},
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.runID == "" {
		o.runID = uuid.NewString()[:8]
	}
	return o, nil
}

// RunID returns the run identifier.
func (o *Orchestrator) RunID() string { return o.runID }

// Stages returns the declared stage names in order.
func (o *Orchestrator) Stages() []string {
	names := make([]string, len(o.stages))
	for i, st := range o.stages {
		names[i] = st.Name
	}
	return names
}

// Run executes every stage in order and returns the collected results. It
// only stops early for an AbortRun failure or a cancelled context.
func (o *Orchestrator) Run(ctx context.Context) *Report {
	logger := log.FromContext(ctx).WithValues("run", o.runID)
	ctx = log.IntoContext(ctx, logger)

	report := &Report{RunID: o.runID, Started: o.clock.Now()}
	logger.Info("starting deployment", "stages", len(o.stages), "clusters", o.clusters.Set().Len())

	for i, st := range o.stages {
		if err := ctx.Err(); err != nil {
			logger.Info("run cancelled, skipping remaining stages", "next", st.Name)
			report.AbortedAt = st.Name
			break
		}
		stageCtx := logging.ForStage(ctx, st.Name)
		stageLogger := log.FromContext(stageCtx)
		stageLogger.Info("stage starting", "step", fmt.Sprintf("%d/%d", i+1, len(o.stages)), "scope", st.Scope.String())
		start := o.clock.Now()

		results, abort := o.runStage(stageCtx, st)
		for _, r := range results {
			o.metrics.observe(r)
		}
		report.Results = append(report.Results, results...)

		stageLogger.Info("stage finished", "duration", o.clock.Since(start).Round(time.Millisecond), "failed", countFailed(results))
		if abort {
			stageLogger.Info("aborting run after stage failure")
			report.AbortedAt = st.Name
			break
		}
	}

	o.clusters.SwitchDefault()
	report.Duration = o.clock.Since(report.Started)
	logger.Info("deployment finished", "duration", report.Duration.Round(time.Second), "failed", len(report.Failed()))
	return report
}

func countFailed(results []StageResult) int {
	n := 0
	for _, r := range results {
		if r.Status == StatusFailed {
			n++
		}
	}
	return n
}

func (o *Orchestrator) targets(st Stage) []cluster.Config {
	return o.clusters.Set().Select(st.Scope)
}

func (o *Orchestrator) runStage(ctx context.Context, st Stage) ([]StageResult, bool) {
	targets := o.targets(st)
	if len(targets) == 0 {
		log.FromContext(ctx).Info("no cluster in scope, stage has nothing to do")
		return nil, false
	}
	if st.Parallel && len(targets) > 1 {
		return o.runParallel(ctx, st, targets)
	}
	return o.runSequential(ctx, st, targets)
}

func (o *Orchestrator) runSequential(ctx context.Context, st Stage, targets []cluster.Config) ([]StageResult, bool) {
	results := make([]StageResult, 0, len(targets))
	for n, c := range targets {
		if res, skipped := o.skipResult(ctx, st, c); skipped {
			results = append(results, res)
			continue
		}

		start := o.clock.Now()
		err := o.clusters.Within(c.Index, func(active cluster.Config) error {
			if st.Prepare != nil {
				if err := o.invoke(ctx, st, active, st.Prepare, false); err != nil {
					return err
				}
			}
			return o.invoke(ctx, st, active, st.Run, true)
		})
		res := o.result(ctx, st, c, err, o.clock.Since(start))
		results = append(results, res)

		if err == nil || st.Isolation == ContinueOnError {
			continue
		}
		results = append(results, notRun(st, targets[n+1:])...)
		return results, st.Isolation == AbortRun
	}
	return results, false
}

func (o *Orchestrator) runParallel(ctx context.Context, st Stage, targets []cluster.Config) ([]StageResult, bool) {
	logger := log.FromContext(ctx)
	results := make([]StageResult, 0, len(targets))
	var (
		tasks     []async.Task
		scheduled []cluster.Config
		failed    bool
	)

	for n, c := range targets {
		if res, skipped := o.skipResult(ctx, st, c); skipped {
			results = append(results, res)
			continue
		}
		if st.Prepare != nil {
			start := o.clock.Now()
			err := o.clusters.Within(c.Index, func(active cluster.Config) error {
				return o.invoke(ctx, st, active, st.Prepare, false)
			})
			if err != nil {
				results = append(results, o.result(ctx, st, c, err, o.clock.Since(start)))
				failed = true
				if st.Isolation != ContinueOnError {
					results = append(results, notRun(st, scheduled)...)
					results = append(results, notRun(st, targets[n+1:])...)
					return byIndex(results), st.Isolation == AbortRun
				}
				continue
			}
		}
		snapshot := c.Clone()
		scheduled = append(scheduled, snapshot)
		tasks = append(tasks, async.Task{
			Name: snapshot.Name,
			Func: func(ctx context.Context) error {
				return o.invoke(ctx, st, snapshot, st.Run, true)
			},
		})
	}

	logger.Info("running clusters in parallel", "count", len(tasks))
	for i, r := range async.Run(ctx, tasks) {
		res := o.result(ctx, st, scheduled[i], r.Err, r.Duration)
		failed = failed || r.Err != nil
		results = append(results, res)
	}
	return byIndex(results), failed && st.Isolation == AbortRun
}

// byIndex orders results like the clusters of the set.
func byIndex(results []StageResult) []StageResult {
	slices.SortStableFunc(results, func(a, b StageResult) int { return a.Index - b.Index })
	return results
}

func (o *Orchestrator) skipResult(ctx context.Context, st Stage, c cluster.Config) (StageResult, bool) {
	if !st.skips(c) {
		return StageResult{}, false
	}
	log.FromContext(logging.ForCluster(ctx, o.clusters.Set(), c)).Info("skipping stage, disabled for cluster")
	return StageResult{Stage: st.Name, Cluster: c.Name, Index: c.Index, Status: StatusSkipped}, true
}

// invoke runs fn for c with a cluster-tagged logger, optional retries and
// panic recovery.
func (o *Orchestrator) invoke(ctx context.Context, st Stage, c cluster.Config, fn Func, retried bool) (err error) {
	ctx = logging.ForCluster(ctx, o.clusters.Set(), c)
	defer func() {
		if r := recover(); r != nil {
			err = &async.PanicError{Value: r, Stack: debug.Stack()}
		}
	}()

	if !retried || st.Retry == nil {
		return fn(ctx, c)
	}
	opts := append([]retry.DoOption{retry.WithLogger(log.FromContext(ctx)), retry.WithName(st.Name)}, o.retryOps...)
	return retry.Do(ctx, *st.Retry, func(ctx context.Context) error {
		return fn(ctx, c)
	}, opts...)
}

func (o *Orchestrator) result(ctx context.Context, st Stage, c cluster.Config, err error, d time.Duration) StageResult {
	res := StageResult{Stage: st.Name, Cluster: c.Name, Index: c.Index, Status: StatusSucceeded, Duration: d}
	logger := log.FromContext(ctx).WithValues("cluster", c.Name)
	if err != nil {
		res.Status = StatusFailed
		res.Err = err
		logger.Error(err, "stage failed on cluster", "isolation", st.Isolation.String())
		return res
	}
	logger.Info("stage succeeded on cluster", "duration", d.Round(time.Millisecond))
	return res
}

func notRun(st Stage, rest []cluster.Config) []StageResult {
	out := make([]StageResult, 0, len(rest))
	for _, c := range rest {
		out = append(out, StageResult{Stage: st.Name, Cluster: c.Name, Index: c.Index, Status: StatusNotRun})
	}
	return out
}
