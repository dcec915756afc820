package ocp

import "k8s.io/apimachinery/pkg/runtime/schema"

// Core and OpenShift platform kinds.
var (
	KindNamespace          = schema.GroupVersionKind{Version: "v1", Kind: "Namespace"}
	KindConfigMap          = schema.GroupVersionKind{Version: "v1", Kind: "ConfigMap"}
	KindSecret             = schema.GroupVersionKind{Version: "v1", Kind: "Secret"}
	KindNode               = schema.GroupVersionKind{Version: "v1", Kind: "Node"}
	KindClusterVersion     = schema.GroupVersionKind{Group: "config.openshift.io", Version: "v1", Kind: "ClusterVersion"}
	KindProxy              = schema.GroupVersionKind{Group: "config.openshift.io", Version: "v1", Kind: "Proxy"}
	KindOperatorHub        = schema.GroupVersionKind{Group: "config.openshift.io", Version: "v1", Kind: "OperatorHub"}
	KindConsole            = schema.GroupVersionKind{Group: "operator.openshift.io", Version: "v1", Kind: "Console"}
	KindClusterRoleBinding = schema.GroupVersionKind{Group: "rbac.authorization.k8s.io", Version: "v1", Kind: "ClusterRoleBinding"}
)

// Operator Lifecycle Manager kinds.
var (
	KindCatalogSource   = schema.GroupVersionKind{Group: "operators.coreos.com", Version: "v1alpha1", Kind: "CatalogSource"}
	KindSubscription    = schema.GroupVersionKind{Group: "operators.coreos.com", Version: "v1alpha1", Kind: "Subscription"}
	KindCSV             = schema.GroupVersionKind{Group: "operators.coreos.com", Version: "v1alpha1", Kind: "ClusterServiceVersion"}
	KindOperatorGroup   = schema.GroupVersionKind{Group: "operators.coreos.com", Version: "v1", Kind: "OperatorGroup"}
	KindPackageManifest = schema.GroupVersionKind{Group: "packages.operators.coreos.com", Version: "v1", Kind: "PackageManifest"}
)

// Advanced Cluster Management and GitOps kinds.
var (
	KindMultiClusterHub          = schema.GroupVersionKind{Group: "operator.open-cluster-management.io", Version: "v1", Kind: "MultiClusterHub"}
	KindManagedCluster           = schema.GroupVersionKind{Group: "cluster.open-cluster-management.io", Version: "v1", Kind: "ManagedCluster"}
	KindManagedClusterSetBinding = schema.GroupVersionKind{Group: "cluster.open-cluster-management.io", Version: "v1beta2", Kind: "ManagedClusterSetBinding"}
	KindPlacement                = schema.GroupVersionKind{Group: "cluster.open-cluster-management.io", Version: "v1beta1", Kind: "Placement"}
	KindGitOpsCluster            = schema.GroupVersionKind{Group: "apps.open-cluster-management.io", Version: "v1beta1", Kind: "GitOpsCluster"}
	KindKlusterletAddonConfig    = schema.GroupVersionKind{Group: "agent.open-cluster-management.io", Version: "v1", Kind: "KlusterletAddonConfig"}
)

// Storage and disaster recovery kinds.
var (
	KindStorageCluster            = schema.GroupVersionKind{Group: "ocs.openshift.io", Version: "v1", Kind: "StorageCluster"}
	KindMirrorPeer                = schema.GroupVersionKind{Group: "multicluster.odf.openshift.io", Version: "v1alpha1", Kind: "MirrorPeer"}
	KindDRPolicy                  = schema.GroupVersionKind{Group: "ramendr.openshift.io", Version: "v1alpha1", Kind: "DRPolicy"}
	KindDataProtectionApplication = schema.GroupVersionKind{Group: "oadp.openshift.io", Version: "v1alpha1", Kind: "DataProtectionApplication"}
)
