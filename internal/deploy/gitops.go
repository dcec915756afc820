package deploy

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/ocp4mco/ocp4mco/internal/cluster"
	"github.com/ocp4mco/ocp4mco/internal/config"
	"github.com/ocp4mco/ocp4mco/internal/ocp"
	"github.com/ocp4mco/ocp4mco/internal/olm"
	"github.com/ocp4mco/ocp4mco/internal/watch"
)

// OpenShift GitOps.
const (
	GitOpsPackage        = "openshift-gitops-operator"
	GitOpsNamespace      = "openshift-gitops"
	GitOpsClusterName    = "gitops-cluster"
	GitOpsPlacementName  = "all-openshift-clusters"
	GitOpsClusterSuccess = "successful"
)

type gitopsData struct {
	Name          string
	Namespace     string
	PlacementName string
	ClusterSet    string
}

// DeployGitOps installs OpenShift GitOps on every cluster, registers the
// managed clusters with the hub's Argo CD and grants the application
// controller cluster-admin on the managed clusters. Failures on one cluster
// do not stop the others.
func (d *Deployer) DeployGitOps(ctx context.Context, hub cluster.Config) error {
	var errs []error
	for _, c := range d.participants(ctx, config.StageGitOps, d.set.All()) {
		if err := d.installGitOps(ctx, c); err != nil {
			errs = append(errs, fmt.Errorf("cluster %s: %w", c.Name, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	if err := d.registerGitOpsCluster(ctx, hub); err != nil {
		return err
	}

	for _, c := range d.participants(ctx, config.StageGitOps, d.set.Managed()) {
		a, err := d.accessor(c)
		if err == nil {
			err = d.apply(ctx, a, "gitops/rolebinding.yaml", gitopsData{Namespace: GitOpsNamespace})
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("cluster %s: %w", c.Name, err))
		}
	}
	return errors.Join(errs...)
}

func (d *Deployer) installGitOps(ctx context.Context, c cluster.Config) error {
	log.FromContext(ctx).Info("deploying GitOps operator", "cluster", c.Name)
	inst, err := d.installer(c)
	if err != nil {
		return err
	}
	_, err = inst.Install(ctx, olm.Operator{
		Package:   GitOpsPackage,
		Namespace: olm.OpenShiftOperatorsNS,
		Channel:   c.Channel(GitOpsPackage),
	})
	return err
}

func (d *Deployer) registerGitOpsCluster(ctx context.Context, hub cluster.Config) error {
	logger := log.FromContext(ctx)
	a, err := d.accessor(hub)
	if err != nil {
		return err
	}

	clusterSet, err := d.managedClusterSet(ctx, a, hub)
	if err != nil {
		return err
	}
	logger.Info("registering managed clusters with GitOps", "clusterSet", clusterSet)

	err = d.apply(ctx, a, "gitops/hub", gitopsData{
		Name:          GitOpsClusterName,
		Namespace:     GitOpsNamespace,
		PlacementName: GitOpsPlacementName,
		ClusterSet:    clusterSet,
	})
	if err != nil {
		return err
	}

	return watch.ForPhase(ctx, a,
		ocp.Ref{GVK: ocp.KindGitOpsCluster, Namespace: GitOpsNamespace, Name: GitOpsClusterName},
		GitOpsClusterSuccess, d.timeouts.GitOpsCluster, d.timeouts.Poll, d.pollOptions(ctx)...)
}

// managedClusterSet returns the single cluster set the managed clusters
// belong to. local-cluster only counts when the hub also runs workloads.
func (d *Deployer) managedClusterSet(ctx context.Context, a ocp.Accessor, hub cluster.Config) (string, error) {
	items, err := a.List(ctx, ocp.Ref{GVK: ocp.KindManagedCluster})
	if err != nil {
		return "", fmt.Errorf("failed to list managed clusters: %w", err)
	}

	var sets []string
	for _, item := range items {
		if item.GetName() == cluster.LocalClusterName && !hub.Primary {
			continue
		}
		set := item.GetLabels()[ClusterSetLabel]
		if set == "" {
			return "", cluster.Errorf("managed cluster %s is not part of a cluster set", item.GetName())
		}
		if !slices.Contains(sets, set) {
			sets = append(sets, set)
		}
	}

	switch len(sets) {
	case 0:
		return "", cluster.Errorf("no managed cluster found on hub %s", hub.Name)
	case 1:
		return sets[0], nil
	default:
		return "", cluster.Errorf("managed clusters span several cluster sets %v, expected one", sets)
	}
}
