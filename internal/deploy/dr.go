package deploy

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/yaml"

	"github.com/ocp4mco/ocp4mco/internal/cluster"
	"github.com/ocp4mco/ocp4mco/internal/config"
	"github.com/ocp4mco/ocp4mco/internal/ocp"
	"github.com/ocp4mco/ocp4mco/internal/olm"
	"github.com/ocp4mco/ocp4mco/internal/util/naming"
	"github.com/ocp4mco/ocp4mco/internal/watch"
)

// Disaster recovery.
const (
	OADPPackage   = "redhat-oadp-operator"
	OADPNamespace = "openshift-adp"
	DPAName       = "dpa-discovered-apps"

	MirrorPeerExchanged = "ExchangedSecret"
	DRPolicySucceeded   = "Succeeded"

	// RamenHubConfigMap holds the Ramen hub operator configuration.
	RamenHubConfigMap = "ramen-hub-operator-config"
	RamenConfigKey    = "ramen_manager_config.yaml"

	drPolicyReason = "{.status.conditions[0].reason}"
)

type mirrorPeer struct {
	ClusterName    string
	StorageCluster string
	Namespace      string
}

type mirrorPeerData struct {
	Name               string
	Peers              []mirrorPeer
	ODFVersion         string
	SchedulingInterval string
}

type drPolicyData struct {
	Name               string
	Clusters           []string
	SchedulingInterval string
}

// ConfigureDR installs OADP on the DR peers, pairs their storage with a
// MirrorPeer, creates the DRPolicy and lets Ramen trust the exchanged CA
// bundle.
func (d *Deployer) ConfigureDR(ctx context.Context, hub cluster.Config) error {
	peers := d.participants(ctx, config.StageDR, d.set.DRPeers())
	if len(peers) < 2 {
		return cluster.Errorf("disaster recovery needs at least two data plane clusters, got %d", len(peers))
	}

	for _, c := range peers {
		if err := d.deployOADP(ctx, c); err != nil {
			return fmt.Errorf("cluster %s: %w", c.Name, err)
		}
	}

	a, err := d.accessor(hub)
	if err != nil {
		return err
	}
	if err := d.createMirrorPeer(ctx, a, peers); err != nil {
		return err
	}
	if err := d.createDRPolicy(ctx, a, peers); err != nil {
		return err
	}
	return d.trustRamenS3Profiles(ctx, a)
}

func (d *Deployer) deployOADP(ctx context.Context, c cluster.Config) error {
	log.FromContext(ctx).Info("deploying OADP operator", "cluster", c.Name)
	inst, err := d.installer(c)
	if err != nil {
		return err
	}
	if _, err := inst.Install(ctx, olm.Operator{
		Package:          OADPPackage,
		Namespace:        OADPNamespace,
		Channel:          c.Channel(OADPPackage),
		CreateNamespace:  true,
		OperatorGroup:    true,
		TargetNamespaces: []string{OADPNamespace},
	}); err != nil {
		return err
	}
	return d.apply(ctx, inst.Accessor, "oadp/dpa.yaml", struct{ Name, Namespace string }{DPAName, OADPNamespace})
}

func (d *Deployer) createMirrorPeer(ctx context.Context, hub ocp.Accessor, peers []cluster.Config) error {
	data := mirrorPeerData{
		ODFVersion:         d.cfg.Deployment.ODFVersion,
		SchedulingInterval: d.cfg.Deployment.SchedulingInterval,
	}
	var names []string
	for _, c := range peers {
		names = append(names, c.ManagedName())
		data.Peers = append(data.Peers, mirrorPeer{
			ClusterName:    c.ManagedName(),
			StorageCluster: StorageClusterName,
			Namespace:      StorageNamespace,
		})
	}
	data.Name = naming.MirrorPeer(names...)

	log.FromContext(ctx).Info("creating mirror peer", "name", data.Name, "peers", names)
	if err := d.apply(ctx, hub, "dr/mirrorpeer.yaml", data); err != nil {
		return err
	}
	err := watch.ForPhase(ctx, hub, ocp.Ref{GVK: ocp.KindMirrorPeer, Name: data.Name},
		MirrorPeerExchanged, d.timeouts.MirrorPeer, d.timeouts.Poll, d.pollOptions(ctx)...)
	if err != nil {
		return fmt.Errorf("mirror peer %s did not exchange secrets: %w", data.Name, err)
	}
	return nil
}

func (d *Deployer) createDRPolicy(ctx context.Context, hub ocp.Accessor, peers []cluster.Config) error {
	data := drPolicyData{
		Name:               d.cfg.Deployment.DRPolicyName,
		SchedulingInterval: d.cfg.Deployment.SchedulingInterval,
	}
	for _, c := range peers {
		data.Clusters = append(data.Clusters, c.ManagedName())
	}

	log.FromContext(ctx).Info("creating DR policy", "name", data.Name, "clusters", data.Clusters)
	if err := d.apply(ctx, hub, "dr/drpolicy.yaml", data); err != nil {
		return err
	}
	return watch.Until(ctx, hub, watch.Watch{
		Ref:       ocp.Ref{GVK: ocp.KindDRPolicy, Name: data.Name},
		FieldPath: drPolicyReason,
		Target:    DRPolicySucceeded,
		Timeout:   d.timeouts.DRPolicy,
		Interval:  d.timeouts.FastPoll,
	}, d.pollOptions(ctx)...)
}

// trustRamenS3Profiles sets the hub CA bundle on every Ramen S3 store
// profile. Without an exchanged bundle there is nothing to trust.
func (d *Deployer) trustRamenS3Profiles(ctx context.Context, hub ocp.Accessor) error {
	logger := log.FromContext(ctx)
	bundle, err := hub.Get(ctx, ocp.Ref{GVK: ocp.KindConfigMap, Namespace: "openshift-config", Name: UserCABundle})
	if apierrors.IsNotFound(err) {
		logger.Info("no user CA bundle on the hub, Ramen S3 profiles left unchanged")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read user CA bundle: %w", err)
	}
	cert, _, _ := unstructured.NestedString(bundle.Object, "data", CABundleKey)

	ref := ocp.Ref{GVK: ocp.KindConfigMap, Namespace: olm.OpenShiftOperatorsNS, Name: RamenHubConfigMap}
	cm, err := ocp.WaitForPresent(ctx, hub, ref, d.timeouts.DRPolicy, d.timeouts.FastPoll, d.pollOptions(ctx)...)
	if err != nil {
		return err
	}
	raw, _, _ := unstructured.NestedString(cm.Object, "data", RamenConfigKey)

	updated, profiles, err := SetS3CACertificates(raw, base64.StdEncoding.EncodeToString([]byte(cert)))
	if err != nil {
		return err
	}
	logger.Info("adding CA bundle to Ramen S3 profiles", "profiles", profiles)

	patch, err := json.Marshal(map[string]any{"data": map[string]string{RamenConfigKey: updated}})
	if err != nil {
		return err
	}
	if err := hub.Patch(ctx, ref, types.MergePatchType, patch); err != nil {
		return fmt.Errorf("failed to update %s: %w", RamenHubConfigMap, err)
	}
	return nil
}

// SetS3CACertificates sets caCertificates on every s3StoreProfiles entry of
// a Ramen manager configuration and returns the rewritten document and the
// number of profiles touched.
func SetS3CACertificates(managerConfig, caCertificates string) (string, int, error) {
	var doc map[string]any
	if err := yaml.Unmarshal([]byte(managerConfig), &doc); err != nil {
		return "", 0, fmt.Errorf("failed to parse %s: %w", RamenConfigKey, err)
	}
	profiles, _ := doc["s3StoreProfiles"].([]any)
	if len(profiles) == 0 {
		return "", 0, &ocp.UnavailableResourceError{Resource: RamenHubConfigMap, Reason: "no s3StoreProfiles configured"}
	}
	for _, p := range profiles {
		if profile, ok := p.(map[string]any); ok {
			profile["caCertificates"] = caCertificates
		}
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return "", 0, err
	}
	return string(out), len(profiles), nil
}
