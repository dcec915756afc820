package olm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	testingclock "k8s.io/utils/clock/testing"

	"github.com/ocp4mco/ocp4mco/internal/manifest"
	"github.com/ocp4mco/ocp4mco/internal/ocp"
	"github.com/ocp4mco/ocp4mco/internal/ocp/ocptest"
	"github.com/ocp4mco/ocp4mco/internal/util/poll"
	"github.com/ocp4mco/ocp4mco/internal/watch"
)

func packageManifest(name string) *unstructured.Unstructured {
	return ocptest.Object(ocp.KindPackageManifest, MarketplaceNamespace, name, map[string]any{
		"status": map[string]any{
			"defaultChannel": "stable-4.18",
			"channels": []any{
				map[string]any{"name": "stable-4.17", "currentCSV": name + ".v4.17.9"},
				map[string]any{"name": "stable-4.18", "currentCSV": name + ".v4.18.2"},
			},
		},
	})
}

func newInstaller(fake *ocptest.Fake) *Installer {
	inst := NewInstaller(fake, manifest.New())
	inst.PollOptions = []poll.Option{poll.WithClock(testingclock.NewFakeClock(time.Now()))}
	return inst
}

// reconcileSubscriptions makes applied subscriptions resolve a CSV in phase.
func reconcileSubscriptions(t *testing.T, fake *ocptest.Fake, phase string) {
	t.Helper()
	ctx := context.Background()
	fake.OnApply = func(obj *unstructured.Unstructured) {
		if obj.GetKind() != "Subscription" {
			return
		}
		csvName, _, _ := unstructured.NestedString(obj.Object, "spec", "startingCSV")
		sub := obj.DeepCopy()
		require.NoError(t, unstructured.SetNestedField(sub.Object, csvName, "status", "currentCSV"))
		require.NoError(t, fake.Upsert(ctx, sub))
		require.NoError(t, fake.Upsert(ctx, ocptest.Object(ocp.KindCSV, obj.GetNamespace(), csvName, map[string]any{
			"status": map[string]any{"phase": phase},
		})))
	}
}

func TestInstall_DefaultChannel(t *testing.T) {
	t.Parallel()
	fake := ocptest.NewAccessor([]*unstructured.Unstructured{packageManifest("odf-operator")})
	reconcileSubscriptions(t, fake, PhaseSucceeded)

	csv, err := newInstaller(fake).Install(context.Background(), Operator{
		Package:          "odf-operator",
		Namespace:        "openshift-storage",
		CreateNamespace:  true,
		Monitoring:       true,
		OperatorGroup:    true,
		TargetNamespaces: []string{"openshift-storage"},
	})
	require.NoError(t, err)
	assert.Equal(t, "odf-operator.v4.18.2", csv)
	assert.Equal(t, []string{
		"Namespace/openshift-storage",
		"OperatorGroup/openshift-storage-operatorgroup",
		"Subscription/odf-operator",
	}, fake.AppliedKinds())

	sub := fake.Applied()[2]
	channel, _, _ := unstructured.NestedString(sub.Object, "spec", "channel")
	source, _, _ := unstructured.NestedString(sub.Object, "spec", "source")
	assert.Equal(t, "stable-4.18", channel)
	assert.Equal(t, DefaultSource, source)

	ns := fake.Applied()[0]
	assert.Equal(t, "true", ns.GetLabels()["openshift.io/cluster-monitoring"])
}

func TestInstall_ChannelOverride(t *testing.T) {
	t.Parallel()
	fake := ocptest.NewAccessor([]*unstructured.Unstructured{packageManifest("advanced-cluster-management")})
	reconcileSubscriptions(t, fake, PhaseSucceeded)

	csv, err := newInstaller(fake).Install(context.Background(), Operator{
		Package:   "advanced-cluster-management",
		Namespace: "open-cluster-management",
		Channel:   "stable-4.17",
	})
	require.NoError(t, err)
	assert.Equal(t, "advanced-cluster-management.v4.17.9", csv)
}

func TestInstall_CSVNeverSucceeds(t *testing.T) {
	t.Parallel()
	fake := ocptest.NewAccessor([]*unstructured.Unstructured{packageManifest("odf-operator")})
	reconcileSubscriptions(t, fake, "Installing")
	inst := newInstaller(fake)
	inst.Timeouts.CSV = 30 * time.Second

	_, err := inst.Install(context.Background(), Operator{Package: "odf-operator", Namespace: "openshift-storage"})
	var wrong *watch.ResourceWrongStatusError
	require.ErrorAs(t, err, &wrong)
	assert.Equal(t, "Installing", wrong.Last)
}

func TestInstall_MissingPackageManifest(t *testing.T) {
	t.Parallel()
	fake := ocptest.NewAccessor(nil)
	inst := newInstaller(fake)
	inst.Timeouts.PackageManifest = 20 * time.Second

	_, err := inst.Install(context.Background(), Operator{Package: "openshift-gitops-operator", Namespace: OpenShiftOperatorsNS})
	require.Error(t, err)
	assert.True(t, poll.IsTimeout(err))
	assert.Contains(t, err.Error(), "package manifest openshift-gitops-operator not available")
	assert.Empty(t, fake.Applied())
}

func TestResolveChannel(t *testing.T) {
	t.Parallel()
	pm := packageManifest("odf-operator")

	_, _, err := ResolveChannel(pm, "stable-9.9")
	assert.ErrorContains(t, err, `no channel "stable-9.9"`)

	empty := ocptest.Object(ocp.KindPackageManifest, MarketplaceNamespace, "x", nil)
	_, _, err = ResolveChannel(empty, "")
	assert.ErrorContains(t, err, "no default channel")
}

func TestEnableConsolePlugin(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fake := ocptest.NewAccessor([]*unstructured.Unstructured{
		ocptest.Object(ocp.KindConsole, "", "cluster", map[string]any{
			"spec": map[string]any{"plugins": []any{"monitoring-plugin"}},
		}),
	})
	inst := newInstaller(fake)

	require.NoError(t, inst.EnableConsolePlugin(ctx, "odf-console"))
	require.NoError(t, inst.EnableConsolePlugin(ctx, "odf-console"))

	console, err := fake.Get(ctx, ocp.Ref{GVK: ocp.KindConsole, Name: "cluster"})
	require.NoError(t, err)
	plugins, _, _ := unstructured.NestedStringSlice(console.Object, "spec", "plugins")
	assert.Equal(t, []string{"monitoring-plugin", "odf-console"}, plugins)
}

func TestEnsureCatalogSource(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fake := ocptest.NewAccessor([]*unstructured.Unstructured{
		ocptest.Object(ocp.KindOperatorHub, "", "cluster", map[string]any{"spec": map[string]any{}}),
	})
	fake.OnApply = func(obj *unstructured.Unstructured) {
		if obj.GetKind() != "CatalogSource" {
			return
		}
		ready := obj.DeepCopy()
		require.NoError(t, unstructured.SetNestedField(ready.Object, CatalogSourceReady, "status", "connectionState", "lastObservedState"))
		require.NoError(t, fake.Upsert(ctx, ready))
	}
	inst := newInstaller(fake)
	cs := CatalogSource{Name: DefaultSource, Image: "quay.io/rhceph-dev/ocs-registry:latest-stable-4.19"}

	require.NoError(t, inst.EnsureCatalogSource(ctx, cs))
	assert.Equal(t, []string{"CatalogSource/redhat-operators"}, fake.AppliedKinds())

	hub, err := fake.Get(ctx, ocp.Ref{GVK: ocp.KindOperatorHub, Name: "cluster"})
	require.NoError(t, err)
	sources, _, _ := unstructured.NestedSlice(hub.Object, "spec", "sources")
	require.Len(t, sources, 1)
	assert.Equal(t, true, sources[0].(map[string]any)["disabled"])

	// Same image again is a no-op.
	require.NoError(t, inst.EnsureCatalogSource(ctx, cs))
	assert.Len(t, fake.Applied(), 1)
}
