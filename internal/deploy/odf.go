package deploy

import (
	"context"
	"encoding/json"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/ocp4mco/ocp4mco/internal/cluster"
	"github.com/ocp4mco/ocp4mco/internal/ocp"
	"github.com/ocp4mco/ocp4mco/internal/olm"
	"github.com/ocp4mco/ocp4mco/internal/util/retry"
	"github.com/ocp4mco/ocp4mco/internal/watch"
)

// OpenShift Data Foundation.
const (
	StorageNamespace    = "openshift-storage"
	ODFPackage          = "odf-operator"
	ODFPlugin           = "odf-console"
	StorageClusterName  = "ocs-storagecluster"
	StorageClusterReady = "Ready"
)

// Node labels.
const (
	WorkerLabel  = "node-role.kubernetes.io/worker"
	ZoneLabel    = "topology.kubernetes.io/zone"
	StorageLabel = "cluster.ocs.openshift.io/openshift-storage"
	InfraLabel   = "node-role.kubernetes.io/infra"

	// storageNodes is how many workers carry the storage label.
	storageNodes = 3
)

type storageClusterData struct {
	Name           string
	Namespace      string
	DeviceSetCount int
	StorageSize    string
	StorageClass   string
	Replica        int
}

// PrepareODF installs the ODF operator on c and labels its storage nodes.
// It runs sequentially for every data plane cluster before the storage
// clusters are created in parallel.
func (d *Deployer) PrepareODF(ctx context.Context, c cluster.Config) error {
	logger := log.FromContext(ctx)
	inst, err := d.installer(c)
	if err != nil {
		return err
	}

	source, err := d.ensureODFCatalog(ctx, inst)
	if err != nil {
		return err
	}

	logger.Info("deploying ODF operator")
	if _, err := inst.Install(ctx, olm.Operator{
		Package:          ODFPackage,
		Namespace:        StorageNamespace,
		Channel:          channel(c, ODFPackage, d.cfg.Deployment.ODFChannel),
		Source:           source,
		CreateNamespace:  true,
		Monitoring:       true,
		OperatorGroup:    true,
		TargetNamespaces: []string{StorageNamespace},
	}); err != nil {
		return err
	}

	if d.cfg.Deployment.EnableODFPlugin {
		if err := inst.EnableConsolePlugin(ctx, ODFPlugin); err != nil {
			return err
		}
	}
	return LabelStorageNodes(ctx, inst.Accessor, d.cfg.Deployment.InfraNodes)
}

// ensureODFCatalog replaces the default catalog source when a custom ODF
// catalog image is configured and returns the source to subscribe from.
func (d *Deployer) ensureODFCatalog(ctx context.Context, inst *olm.Installer) (string, error) {
	image := d.cfg.Deployment.ODFCatalogImage
	if image == "" {
		return olm.DefaultSource, nil
	}
	err := inst.EnsureCatalogSource(ctx, olm.CatalogSource{
		Name:  olm.DefaultSource,
		Image: image,
	})
	if err != nil {
		return "", err
	}
	return olm.DefaultSource, nil
}

// LabelStorageNodes labels three workers for ODF, spreading them across
// availability zones. Fewer than three workers is an
// *ocp.UnavailableResourceError.
func LabelStorageNodes(ctx context.Context, a ocp.Accessor, infra bool) error {
	logger := log.FromContext(ctx)
	nodes, err := a.Kube().CoreV1().Nodes().List(ctx, metav1.ListOptions{LabelSelector: WorkerLabel})
	if err != nil {
		return fmt.Errorf("failed to list worker nodes: %w", err)
	}
	if len(nodes.Items) == 0 {
		return &ocp.UnavailableResourceError{Resource: "worker nodes", Reason: "no worker node found"}
	}

	distributed := distributeByZone(nodes.Items)
	logger.V(1).Info("distributed worker nodes", "nodes", distributed)
	if len(distributed) < storageNodes {
		return &ocp.UnavailableResourceError{
			Resource: "worker nodes",
			Reason:   fmt.Sprintf("not enough distributed worker nodes: %d, need %d", len(distributed), storageNodes),
		}
	}

	labels := map[string]string{StorageLabel: ""}
	if infra {
		labels[InfraLabel] = ""
	}
	patch, err := json.Marshal(map[string]any{"metadata": map[string]any{"labels": labels}})
	if err != nil {
		return err
	}

	for _, name := range distributed[:storageNodes] {
		logger.Info("labeling node", "node", name, "infra", infra)
		if _, err := a.Kube().CoreV1().Nodes().Patch(ctx, name, types.MergePatchType, patch, metav1.PatchOptions{}); err != nil {
			return fmt.Errorf("failed to label node %s: %w", name, err)
		}
	}
	return nil
}

// distributeByZone orders node names round-robin over zones, zones in order
// of first appearance.
func distributeByZone(nodes []corev1.Node) []string {
	var zones []string
	byZone := make(map[string][]string)
	for _, n := range nodes {
		zone := n.Labels[ZoneLabel]
		if _, ok := byZone[zone]; !ok {
			zones = append(zones, zone)
		}
		byZone[zone] = append(byZone[zone], n.Name)
	}

	out := make([]string, 0, len(nodes))
	for len(out) < len(nodes) {
		for _, zone := range zones {
			if pending := byZone[zone]; len(pending) > 0 {
				out = append(out, pending[0])
				byZone[zone] = pending[1:]
			}
		}
	}
	return out
}

// DeployStorageCluster creates the StorageCluster on c and waits until it is
// ready. Applying is retried because the operator webhook may not serve yet.
func (d *Deployer) DeployStorageCluster(ctx context.Context, c cluster.Config) error {
	logger := log.FromContext(ctx)
	if d.cfg.Deployment.SkipStorageCluster {
		logger.Info("storage cluster creation is disabled")
		return nil
	}

	out, err := d.renderer.Render("odf/storagecluster.yaml", storageClusterData{
		Name:      StorageClusterName,
		Namespace: StorageNamespace,
	})
	if err != nil {
		return err
	}

	oc := d.connector.Command(d.cfg.Deployment.Binaries.OC, c)
	policy := retry.NewPolicy(
		retry.WithMaxAttempts(d.timeouts.RetryMaxAttempts),
		retry.WithInitialDelay(d.timeouts.RetryInitialDelay),
		retry.WithMaxDelay(d.timeouts.RetryInitialDelay),
		retry.WithMultiplier(1),
		retry.WithRetryIf(retry.OnType[*ocp.CommandFailedError]()),
	)
	opts := append([]retry.DoOption{retry.WithLogger(logger), retry.WithName("apply storage cluster")}, d.retryOpts...)
	err = retry.Do(ctx, policy, func(ctx context.Context) error {
		return ocp.Apply(ctx, oc, out)
	}, opts...)
	if err != nil {
		return err
	}

	a, err := d.accessor(c)
	if err != nil {
		return err
	}
	logger.Info("verifying storage cluster", "name", StorageClusterName)
	err = watch.ForPhase(ctx, a,
		ocp.Ref{GVK: ocp.KindStorageCluster, Namespace: StorageNamespace, Name: StorageClusterName},
		StorageClusterReady, d.timeouts.StorageCluster, d.timeouts.Poll, d.pollOptions(ctx)...)
	if err != nil {
		return fmt.Errorf("storage cluster not ready: %w", err)
	}
	return nil
}
