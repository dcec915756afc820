package deploy

import (
	"context"
	"fmt"
	"os"

	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/ocp4mco/ocp4mco/internal/cluster"
	"github.com/ocp4mco/ocp4mco/internal/config"
	"github.com/ocp4mco/ocp4mco/internal/ocp"
	"github.com/ocp4mco/ocp4mco/internal/watch"
)

const (
	// ClusterSetLabel assigns a ManagedCluster to a cluster set.
	ClusterSetLabel = "cluster.open-cluster-management.io/clusterset"

	joinedCondition = `{.status.conditions[?(@.type=="ManagedClusterJoined")].status}`
)

type importData struct {
	Name       string
	Kubeconfig string
	ClusterSet string
}

// ImportClusters imports every managed cluster into the hub and waits for
// each to join. The first failing import stops the stage; after all imports
// the stage pauses so the klusterlet add-ons can settle.
func (d *Deployer) ImportClusters(ctx context.Context, hub cluster.Config) error {
	logger := log.FromContext(ctx)
	a, err := d.accessor(hub)
	if err != nil {
		return err
	}

	for _, c := range d.participants(ctx, config.StageImport, d.set.Managed()) {
		logger.Info("importing cluster into ACM", "managed", c.Name)
		if err := d.importCluster(ctx, a, c); err != nil {
			return fmt.Errorf("failed to import cluster %s: %w", c.Name, err)
		}
	}

	logger.Info("waiting after importing managed clusters", "duration", d.timeouts.ImportSettle)
	return d.sleep(ctx, d.timeouts.ImportSettle)
}

func (d *Deployer) importCluster(ctx context.Context, hub ocp.Accessor, c cluster.Config) error {
	// #nosec G304 - kubeconfig paths come from the run configuration
	kubeconfig, err := os.ReadFile(c.KubeconfigPath())
	if err != nil {
		return fmt.Errorf("failed to read kubeconfig: %w", err)
	}
	data := importData{Name: c.Name, Kubeconfig: string(kubeconfig), ClusterSet: d.cfg.Deployment.ClusterSet}

	if err := d.apply(ctx, hub, "import/managedcluster.yaml", data); err != nil {
		return err
	}
	// The hub creates the cluster namespace once it accepted the cluster.
	_, err = ocp.WaitForPresent(ctx, hub, ocp.Ref{GVK: ocp.KindNamespace, Name: c.Name},
		d.timeouts.ManagedCluster, d.timeouts.FastPoll, d.pollOptions(ctx)...)
	if err != nil {
		return err
	}
	if err := d.apply(ctx, hub, "import/auto-import-secret.yaml", data); err != nil {
		return err
	}
	if err := d.apply(ctx, hub, "import/klusterletaddonconfig.yaml", data); err != nil {
		return err
	}

	return watch.Until(ctx, hub, watch.Watch{
		Ref:       ocp.Ref{GVK: ocp.KindManagedCluster, Name: c.Name},
		FieldPath: joinedCondition,
		Target:    "True",
		Timeout:   d.timeouts.ManagedCluster,
		Interval:  d.timeouts.Poll,
	}, d.pollOptions(ctx)...)
}
