package deploy

import (
	"context"
	"fmt"

	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/ocp4mco/ocp4mco/internal/cluster"
	"github.com/ocp4mco/ocp4mco/internal/ocp"
	"github.com/ocp4mco/ocp4mco/internal/olm"
	"github.com/ocp4mco/ocp4mco/internal/watch"
)

// Advanced Cluster Management hub.
const (
	ACMNamespace           = "open-cluster-management"
	ACMPackage             = "advanced-cluster-management"
	MultiClusterHub        = "multiclusterhub"
	MultiClusterHubRunning = "Running"
)

// DeployACM installs the ACM operator on the hub and waits for the
// MultiClusterHub to run.
func (d *Deployer) DeployACM(ctx context.Context, c cluster.Config) error {
	logger := log.FromContext(ctx)
	inst, err := d.installer(c)
	if err != nil {
		return err
	}

	logger.Info("deploying ACM hub operator")
	if _, err := inst.Install(ctx, olm.Operator{
		Package:          ACMPackage,
		Namespace:        ACMNamespace,
		Channel:          channel(c, ACMPackage, d.cfg.Deployment.ACMChannel),
		CreateNamespace:  true,
		OperatorGroup:    true,
		TargetNamespaces: []string{ACMNamespace},
	}); err != nil {
		return err
	}

	logger.Info("creating MultiClusterHub")
	hub := struct{ Name, Namespace string }{MultiClusterHub, ACMNamespace}
	if err := d.apply(ctx, inst.Accessor, "acm/multiclusterhub.yaml", hub); err != nil {
		return err
	}

	err = watch.ForPhase(ctx, inst.Accessor,
		ocp.Ref{GVK: ocp.KindMultiClusterHub, Namespace: ACMNamespace, Name: MultiClusterHub},
		MultiClusterHubRunning, d.timeouts.MultiClusterHub, d.timeouts.FastPoll, d.pollOptions(ctx)...)
	if err != nil {
		return fmt.Errorf("MultiClusterHub did not start: %w", err)
	}
	logger.Info("MultiClusterHub deployment succeeded")
	return nil
}
