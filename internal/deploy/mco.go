package deploy

import (
	"context"

	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/ocp4mco/ocp4mco/internal/cluster"
	"github.com/ocp4mco/ocp4mco/internal/olm"
)

// Multicluster orchestrator.
const (
	MCOPackage = "odf-multicluster-orchestrator"
	MCOPlugin  = "odf-multicluster-console"
)

// DeployMCO installs the multicluster orchestrator on the hub. It shares the
// catalog source and channel of ODF.
func (d *Deployer) DeployMCO(ctx context.Context, c cluster.Config) error {
	logger := log.FromContext(ctx)
	inst, err := d.installer(c)
	if err != nil {
		return err
	}

	source, err := d.ensureODFCatalog(ctx, inst)
	if err != nil {
		return err
	}
	if d.cfg.Deployment.EnableMCOPlugin {
		if err := inst.EnableConsolePlugin(ctx, MCOPlugin); err != nil {
			return err
		}
	}

	logger.Info("deploying MCO operator")
	_, err = inst.Install(ctx, olm.Operator{
		Package:   MCOPackage,
		Namespace: olm.OpenShiftOperatorsNS,
		Channel:   channel(c, MCOPackage, d.cfg.Deployment.ODFChannel),
		Source:    source,
	})
	return err
}
