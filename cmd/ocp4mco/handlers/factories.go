package handlers

import (
	"context"
	"io"
	"os"

	"github.com/ocp4mco/ocp4mco/internal/cluster"
	"github.com/ocp4mco/ocp4mco/internal/config"
	"github.com/ocp4mco/ocp4mco/internal/deploy"
	"github.com/ocp4mco/ocp4mco/internal/orchestrator"
	"github.com/ocp4mco/ocp4mco/internal/report"
	"github.com/ocp4mco/ocp4mco/internal/util/prerequisites"
)

// stageSource builds the stages of a run.
type stageSource interface {
	Stages() ([]orchestrator.Stage, error)
	CleanupStages() ([]orchestrator.Stage, error)
	Running(ctx context.Context, c cluster.Config) bool
}

// Factory functions for dependency injection in tests.
var (
	loadConfigFile = config.LoadFile
	checkTools     = prerequisites.Check
	newDeployer    = func(cfg *config.Config, set *cluster.Set) stageSource {
		return deploy.New(cfg, set)
	}
	newStore = func(ctx context.Context, cfg config.Archive) (report.Store, error) {
		return report.NewStore(ctx, cfg)
	}
	writeSample = config.WriteSample
)

// stdout receives reports and command output.
var stdout io.Writer = os.Stdout

// requirements returns the client tools cfg needs.
func requirements(cfg *config.Config) prerequisites.Requirements {
	return prerequisites.Requirements{
		OC:         cfg.Deployment.Binaries.OC,
		Installer:  cfg.Deployment.Binaries.Installer,
		Subctl:     cfg.Deployment.Binaries.Subctl,
		Install:    cfg.StageEnabled(config.StageOCP),
		Submariner: cfg.StageEnabled(config.StageSubmariner),
	}
}
