package handlers

import (
	"context"
	"fmt"
	"os"

	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/ocp4mco/ocp4mco/internal/report"
)

// Cleanup destroys the clusters of the configuration at configPath and
// deletes the run artifacts. Artifacts are kept when a cluster could not be
// destroyed.
func Cleanup(ctx context.Context, configPath string) error {
	cfg, err := loadConfigFile(configPath)
	if err != nil {
		return err
	}
	logger := log.FromContext(ctx).WithValues("run", cfg.Run.ID)
	ctx = log.IntoContext(ctx, logger)

	tools := requirements(cfg)
	tools.Install = true
	tools.Submariner = false
	if err := checkTools(ctx, tools.Tools()).Error(); err != nil {
		return err
	}

	set, err := cfg.ClusterSet()
	if err != nil {
		return err
	}
	stages, err := newDeployer(cfg, set).CleanupStages()
	if err != nil {
		return err
	}

	logger.Info("starting cleanup", "clusters", set.Len())
	rep, err := run(ctx, cfg, set, stages)
	if err != nil {
		return err
	}
	if err := rep.Err(); err != nil {
		return fmt.Errorf("cleanup incomplete, artifacts kept in %s: %w", cfg.Run.ArtifactDir, err)
	}

	if err := os.RemoveAll(cfg.Run.ArtifactDir); err != nil {
		return fmt.Errorf("failed to remove artifact directory: %w", err)
	}
	logger.Info("artifacts removed", "dir", cfg.Run.ArtifactDir)

	if archive := cfg.Reporting.Archive; archive.Enabled {
		store, err := newStore(ctx, archive)
		if err != nil {
			return fmt.Errorf("failed to connect to report archive: %w", err)
		}
		n, err := report.Purge(ctx, store, archive, cfg.Run.ID)
		if err != nil {
			return err
		}
		logger.Info("archived reports deleted", "objects", n)
	}
	return nil
}
