package deploy

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/ocp4mco/ocp4mco/internal/config"
	"github.com/ocp4mco/ocp4mco/internal/ocp"
	"github.com/ocp4mco/ocp4mco/internal/ocp/ocptest"
)

// acceptImports makes the hub create the cluster namespace and report the
// cluster as joined once a ManagedCluster is applied.
func acceptImports(t *testing.T, hub *ocptest.Fake, joined string) {
	t.Helper()
	reconcile(t, hub, map[string]map[string]any{
		"ManagedCluster": {"conditions": []any{
			map[string]any{"type": "HubAcceptedManagedCluster", "status": "True"},
			map[string]any{"type": "ManagedClusterJoined", "status": joined},
		}},
	})
	reconciled := hub.OnApply
	hub.OnApply = func(obj *unstructured.Unstructured) {
		reconciled(obj)
		if obj.GetKind() == "ManagedCluster" {
			require.NoError(t, hub.Upsert(context.Background(), ocptest.Object(ocp.KindNamespace, "", obj.GetName(), nil)))
		}
	}
}

func TestImportClusters(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	cfg.Deployment.ClusterSet = "dr-set"
	conn := newFakeConnector()
	hub := conn.add("hub", ocptest.NewAccessor(nil))
	acceptImports(t, hub, "True")
	var settled bool
	d := newTestDeployer(t, cfg, conn)
	d.sleep = func(context.Context, time.Duration) error {
		settled = true
		return nil
	}
	for _, name := range []string{"east", "west"} {
		writeFile(t, clusterConfig(t, d, name).KubeconfigPath(), "apiVersion: v1\nkind: Config\nclusters:\n- name: "+name+"\n")
	}

	require.NoError(t, d.ImportClusters(context.Background(), clusterConfig(t, d, "hub")))
	assert.True(t, settled)
	assert.Equal(t, []string{
		"ManagedCluster/east",
		"Secret/auto-import-secret",
		"KlusterletAddonConfig/east",
		"ManagedCluster/west",
		"Secret/auto-import-secret",
		"KlusterletAddonConfig/west",
	}, hub.AppliedKinds())

	applied := hub.Applied()
	assert.Equal(t, "dr-set", applied[0].GetLabels()[ClusterSetLabel])
	secret := applied[1]
	assert.Equal(t, "east", secret.GetNamespace())
	kubeconfig, _, _ := unstructured.NestedString(secret.Object, "stringData", "kubeconfig")
	assert.Contains(t, kubeconfig, "- name: east")
}

func TestImportClusters_NotJoined(t *testing.T) {
	t.Parallel()
	conn := newFakeConnector()
	hub := conn.add("hub", ocptest.NewAccessor(nil))
	acceptImports(t, hub, "Unknown")
	d := newTestDeployer(t, testConfig(t), conn)
	for _, name := range []string{"east", "west"} {
		writeFile(t, clusterConfig(t, d, name).KubeconfigPath(), "apiVersion: v1\nkind: Config\n")
	}

	err := d.ImportClusters(context.Background(), clusterConfig(t, d, "hub"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to import cluster east")
	// The first failure stops the stage.
	assert.NotContains(t, hub.AppliedKinds(), "ManagedCluster/west")
}

func TestImportClusters_MissingKubeconfig(t *testing.T) {
	t.Parallel()
	conn := newFakeConnector()
	hub := conn.add("hub", ocptest.NewAccessor(nil))
	d := newTestDeployer(t, testConfig(t), conn)

	err := d.ImportClusters(context.Background(), clusterConfig(t, d, "hub"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read kubeconfig")
	assert.Empty(t, hub.Applied())
}

func TestConfigureSubmariner(t *testing.T) {
	t.Parallel()
	conn := newFakeConnector()
	d := newTestDeployer(t, testConfig(t), conn)
	hub := clusterConfig(t, d, "hub")

	require.NoError(t, d.ConfigureSubmariner(context.Background(), hub))

	assert.Equal(t, []string{"deploy-broker"}, conn.executor(config.DefaultSubctlBinary, "hub").Lines())
	for _, name := range []string{"east", "west"} {
		lines := conn.executor(config.DefaultSubctlBinary, name).Lines()
		require.Len(t, lines, 1)
		assert.Contains(t, lines[0], "join "+hub.Path+"/"+brokerInfoFile+" --clusterid "+name)
	}
}

func TestConfigureSubmariner_JoinFailureStops(t *testing.T) {
	t.Parallel()
	conn := newFakeConnector()
	conn.executor(config.DefaultSubctlBinary, "east").Handler = func(ocptest.Call) (*ocp.Result, error) {
		return nil, errors.New("gateway node missing")
	}
	d := newTestDeployer(t, testConfig(t), conn)

	err := d.ConfigureSubmariner(context.Background(), clusterConfig(t, d, "hub"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to join cluster east")
	assert.Empty(t, conn.executor(config.DefaultSubctlBinary, "west").Calls())
}

func TestImportClusters_LeavesOutDisabledCluster(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	cfg.Clusters[2].Skip = []string{config.StageImport}
	conn := newFakeConnector()
	hub := conn.add("hub", ocptest.NewAccessor(nil))
	acceptImports(t, hub, "True")
	d := newTestDeployer(t, cfg, conn)
	writeFile(t, clusterConfig(t, d, "east").KubeconfigPath(), "apiVersion: v1\nkind: Config\n")

	require.NoError(t, d.ImportClusters(context.Background(), clusterConfig(t, d, "hub")))
	assert.Equal(t, []string{
		"ManagedCluster/east",
		"Secret/auto-import-secret",
		"KlusterletAddonConfig/east",
	}, hub.AppliedKinds())
}

func TestConfigureSubmariner_LeavesOutDisabledCluster(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	cfg.Clusters[2].Skip = []string{config.StageSubmariner}
	conn := newFakeConnector()
	d := newTestDeployer(t, cfg, conn)

	require.NoError(t, d.ConfigureSubmariner(context.Background(), clusterConfig(t, d, "hub")))
	assert.Len(t, conn.executor(config.DefaultSubctlBinary, "east").Lines(), 1)
	assert.Empty(t, conn.executor(config.DefaultSubctlBinary, "west").Calls())
}
