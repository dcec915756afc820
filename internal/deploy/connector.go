package deploy

import (
	"sync"

	"github.com/ocp4mco/ocp4mco/internal/cluster"
	"github.com/ocp4mco/ocp4mco/internal/ocp"
)

// Connector opens clients bound to one cluster.
type Connector interface {
	// Accessor returns the resource accessor of c.
	Accessor(c cluster.Config) (ocp.Accessor, error)

	// Command returns an executor running binary against c.
	Command(binary string, c cluster.Config) ocp.Executor
}

// KubeconfigConnector connects through each cluster's kubeconfig file.
// Accessors are cached per kubeconfig path; a failed connection is not
// cached, so a cluster installed later in the run becomes reachable.
type KubeconfigConnector struct {
	mu        sync.Mutex
	accessors map[string]ocp.Accessor
}

// NewKubeconfigConnector returns an empty connector.
func NewKubeconfigConnector() *KubeconfigConnector {
	return &KubeconfigConnector{accessors: make(map[string]ocp.Accessor)}
}

// Accessor implements Connector.
func (k *KubeconfigConnector) Accessor(c cluster.Config) (ocp.Accessor, error) {
	path := c.KubeconfigPath()

	k.mu.Lock()
	defer k.mu.Unlock()
	if a, ok := k.accessors[path]; ok {
		return a, nil
	}
	a, err := ocp.NewFromKubeconfigFile(path)
	if err != nil {
		return nil, err
	}
	k.accessors[path] = a
	return a, nil
}

// Command implements Connector. The command runs in the cluster directory.
func (k *KubeconfigConnector) Command(binary string, c cluster.Config) ocp.Executor {
	cli := ocp.NewCLI(binary, c.KubeconfigPath())
	cli.Dir = c.Path
	return cli
}
