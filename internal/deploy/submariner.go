package deploy

import (
	"context"
	"fmt"
	"path/filepath"

	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/ocp4mco/ocp4mco/internal/cluster"
	"github.com/ocp4mco/ocp4mco/internal/config"
)

// brokerInfoFile is written by "subctl deploy-broker" into the hub directory.
const brokerInfoFile = "broker-info.subm"

// ConfigureSubmariner deploys the Submariner broker on the hub and joins
// every managed cluster to it. The first failing join stops the stage.
func (d *Deployer) ConfigureSubmariner(ctx context.Context, hub cluster.Config) error {
	logger := log.FromContext(ctx)
	subctl := d.cfg.Deployment.Binaries.Subctl

	logger.Info("deploying submariner broker")
	if _, err := d.connector.Command(subctl, hub).Run(ctx, "deploy-broker"); err != nil {
		return fmt.Errorf("failed to deploy submariner broker: %w", err)
	}

	brokerInfo := filepath.Join(hub.Path, brokerInfoFile)
	for _, c := range d.participants(ctx, config.StageSubmariner, d.set.Managed()) {
		logger.Info("joining cluster to submariner broker", "managed", c.Name)
		_, err := d.connector.Command(subctl, c).Run(ctx, "join", brokerInfo,
			"--clusterid", c.Name, "--natt=false", "--check-broker-certificate=false")
		if err != nil {
			return fmt.Errorf("failed to join cluster %s to submariner: %w", c.Name, err)
		}
	}
	return nil
}
