package deploy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/ocp4mco/ocp4mco/internal/ocp"
	"github.com/ocp4mco/ocp4mco/internal/ocp/ocptest"
	"github.com/ocp4mco/ocp4mco/internal/watch"
)

func TestDeployACM(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	cfg.Deployment.ACMChannel = "stable"
	conn := newFakeConnector()
	hub := conn.add("hub", ocptest.NewAccessor([]*unstructured.Unstructured{packageManifest(ACMPackage)}))
	reconcile(t, hub, map[string]map[string]any{
		"MultiClusterHub": {"phase": MultiClusterHubRunning},
	})
	d := newTestDeployer(t, cfg, conn)

	require.NoError(t, d.DeployACM(context.Background(), clusterConfig(t, d, "hub")))
	assert.Equal(t, []string{
		"Namespace/open-cluster-management",
		"OperatorGroup/open-cluster-management-operatorgroup",
		"Subscription/advanced-cluster-management",
		"MultiClusterHub/multiclusterhub",
	}, hub.AppliedKinds())
}

func TestDeployACM_HubNeverRuns(t *testing.T) {
	t.Parallel()
	conn := newFakeConnector()
	hub := conn.add("hub", ocptest.NewAccessor([]*unstructured.Unstructured{packageManifest(ACMPackage)}))
	reconcile(t, hub, map[string]map[string]any{
		"MultiClusterHub": {"phase": "Installing"},
	})
	d := newTestDeployer(t, testConfig(t), conn)

	err := d.DeployACM(context.Background(), clusterConfig(t, d, "hub"))
	var wrong *watch.ResourceWrongStatusError
	require.ErrorAs(t, err, &wrong)
	assert.Equal(t, MultiClusterHubRunning, wrong.Expected)
	assert.Equal(t, "Installing", wrong.Last)
}

func TestDeployACM_Unreachable(t *testing.T) {
	t.Parallel()
	d := newTestDeployer(t, testConfig(t), newFakeConnector())

	err := d.DeployACM(context.Background(), clusterConfig(t, d, "hub"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to cluster hub")
}

func TestDeployMCO(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	cfg.Deployment.EnableMCOPlugin = true
	cfg.Deployment.ODFChannel = "stable"
	conn := newFakeConnector()
	hub := conn.add("hub", ocptest.NewAccessor([]*unstructured.Unstructured{
		packageManifest(MCOPackage),
		ocptest.Object(ocp.KindConsole, "", "cluster", map[string]any{
			"spec": map[string]any{"plugins": []any{"monitoring-plugin"}},
		}),
	}))
	reconcile(t, hub, nil)
	d := newTestDeployer(t, cfg, conn)

	require.NoError(t, d.DeployMCO(context.Background(), clusterConfig(t, d, "hub")))
	assert.Equal(t, []string{"Subscription/odf-multicluster-orchestrator"}, hub.AppliedKinds())

	sub := hub.Applied()[0]
	assert.Equal(t, "openshift-operators", sub.GetNamespace())

	console, err := hub.Get(context.Background(), ocp.Ref{GVK: ocp.KindConsole, Name: "cluster"})
	require.NoError(t, err)
	plugins, _, _ := unstructured.NestedStringSlice(console.Object, "spec", "plugins")
	assert.Equal(t, []string{"monitoring-plugin", MCOPlugin}, plugins)
}
