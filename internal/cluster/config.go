package cluster

import (
	"fmt"
	"maps"
	"path/filepath"
)

// Default locations of the installer's auth artifacts, relative to the
// cluster directory.
const (
	DefaultKubeconfigLocation = "auth/kubeconfig"
	DefaultPasswordLocation   = "auth/kubeadmin-password"
)

// Config is the identity and deployment toggles of a single cluster.
type Config struct {
	// Name is the OpenShift cluster name.
	Name string
	// Path is the installer directory holding install-config and auth/.
	Path string
	// Kubeconfig overrides the kubeconfig location. Relative paths are
	// resolved against Path.
	Kubeconfig string
	// Index is the position of the cluster in its Set.
	Index int
	// Hub marks the cluster running the multicluster hub (ACM).
	Hub bool
	// Primary marks the preferred DR cluster.
	Primary bool
	// BaseDomain is the DNS base domain of the cluster.
	BaseDomain string
	// Region is the cloud region the cluster is installed to.
	Region string
	// Skip holds per-stage skip toggles keyed by stage name.
	Skip map[string]bool
	// Channels holds operator subscription channel overrides keyed by
	// package name.
	Channels map[string]string
}

// Clone returns a deep copy safe to hand to a concurrent worker.
func (c Config) Clone() Config {
	out := c
	out.Skip = maps.Clone(c.Skip)
	out.Channels = maps.Clone(c.Channels)
	return out
}

// KubeconfigPath returns the kubeconfig used to reach the cluster.
func (c Config) KubeconfigPath() string {
	loc := c.Kubeconfig
	if loc == "" {
		loc = DefaultKubeconfigLocation
	}
	if filepath.IsAbs(loc) {
		return loc
	}
	return filepath.Join(c.Path, loc)
}

// PasswordPath returns the kubeadmin password file written by the installer.
func (c Config) PasswordPath() string {
	return filepath.Join(c.Path, DefaultPasswordLocation)
}

// Skips reports whether stage is toggled off for this cluster.
func (c Config) Skips(stage string) bool {
	return c.Skip[stage]
}

// Channel returns the channel override for an operator package, or "".
func (c Config) Channel(pkg string) string {
	return c.Channels[pkg]
}

// ConsoleURL returns the web console URL.
func (c Config) ConsoleURL() string {
	return fmt.Sprintf("https://console-openshift-console.apps.%s.%s", c.Name, c.BaseDomain)
}

// APIServer returns the API server URL.
func (c Config) APIServer() string {
	return fmt.Sprintf("https://api.%s.%s:6443", c.Name, c.BaseDomain)
}

// Role returns a human readable role for reports.
func (c Config) Role() string {
	if c.Hub {
		return "ACM Cluster"
	}
	return "Non-ACM Cluster"
}

// ManagedName returns the name the hub registers this cluster under.
// A hub that manages itself is known as local-cluster.
func (c Config) ManagedName() string {
	if c.Hub {
		return LocalClusterName
	}
	return c.Name
}

// LocalClusterName is the ManagedCluster name of a hub managing itself.
const LocalClusterName = "local-cluster"
