package handlers

import (
	"context"
	"fmt"

	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/ocp4mco/ocp4mco/internal/cluster"
	"github.com/ocp4mco/ocp4mco/internal/config"
	"github.com/ocp4mco/ocp4mco/internal/orchestrator"
	"github.com/ocp4mco/ocp4mco/internal/report"
)

// Deploy runs every enabled deployment stage against the clusters in the
// configuration at configPath.
//
// Stage failures are reported, not returned, unless run.failOnError is set.
func Deploy(ctx context.Context, configPath string) error {
	cfg, err := loadConfigFile(configPath)
	if err != nil {
		return err
	}
	logger := log.FromContext(ctx).WithValues("run", cfg.Run.ID)
	ctx = log.IntoContext(ctx, logger)

	if err := checkTools(ctx, requirements(cfg).Tools()).Error(); err != nil {
		return err
	}

	set, err := cfg.ClusterSet()
	if err != nil {
		return err
	}
	stages, err := newDeployer(cfg, set).Stages()
	if err != nil {
		return err
	}

	logger.Info("configuration loaded", "clusters", set.Len(), "stages", len(stages))
	rep, err := run(ctx, cfg, set, stages)
	if err != nil {
		return err
	}
	return finish(ctx, cfg, rep)
}

// run executes stages and writes the stage metrics when configured.
func run(ctx context.Context, cfg *config.Config, set *cluster.Set, stages []orchestrator.Stage) (*orchestrator.Report, error) {
	metrics := orchestrator.NewMetrics()
	orch, err := orchestrator.New(cluster.NewContext(set), stages,
		orchestrator.WithRunID(cfg.Run.ID),
		orchestrator.WithMetrics(metrics),
	)
	if err != nil {
		return nil, err
	}
	rep := orch.Run(ctx)
	report.Print(stdout, rep)

	if path := cfg.Run.MetricsFile; path != "" {
		if err := metrics.WriteTextfile(path); err != nil {
			log.FromContext(ctx).Error(err, "failed to write metrics", "path", path)
		}
	}
	return rep, nil
}

// finish archives the report and turns failures into an error when the run
// asks for it.
func finish(ctx context.Context, cfg *config.Config, rep *orchestrator.Report) error {
	logger := log.FromContext(ctx)
	if archive := cfg.Reporting.Archive; archive.Enabled {
		store, err := newStore(ctx, archive)
		if err != nil {
			logger.Error(err, "failed to connect to report archive")
		} else if url, err := report.Archive(ctx, store, archive, rep); err != nil {
			logger.Error(err, "failed to archive report")
		} else {
			_, _ = fmt.Fprintf(stdout, "Report: %s\n", url)
		}
	}

	if cfg.Run.FailOnError {
		return rep.Err()
	}
	if failed := rep.Failed(); len(failed) > 0 {
		logger.Info("run finished with failures", "failed", len(failed))
	}
	return nil
}
