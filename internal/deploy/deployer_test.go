package deploy

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	testingclock "k8s.io/utils/clock/testing"

	"github.com/ocp4mco/ocp4mco/internal/cluster"
	"github.com/ocp4mco/ocp4mco/internal/config"
	"github.com/ocp4mco/ocp4mco/internal/notify"
	"github.com/ocp4mco/ocp4mco/internal/ocp"
	"github.com/ocp4mco/ocp4mco/internal/ocp/ocptest"
	"github.com/ocp4mco/ocp4mco/internal/olm"
	"github.com/ocp4mco/ocp4mco/internal/orchestrator"
	"github.com/ocp4mco/ocp4mco/internal/util/poll"
)

// fakeConnector hands out one fake accessor per cluster name and records
// commands per binary and cluster.
type fakeConnector struct {
	mu        sync.Mutex
	accessors map[string]*ocptest.Fake
	executors map[string]*ocptest.Executor
}

func newFakeConnector() *fakeConnector {
	return &fakeConnector{
		accessors: make(map[string]*ocptest.Fake),
		executors: make(map[string]*ocptest.Executor),
	}
}

func (f *fakeConnector) Accessor(c cluster.Config) (ocp.Accessor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accessors[c.Name]
	if !ok {
		return nil, fmt.Errorf("cluster %s unreachable", c.Name)
	}
	return a, nil
}

func (f *fakeConnector) Command(binary string, c cluster.Config) ocp.Executor {
	return f.executor(binary, c.Name)
}

func (f *fakeConnector) executor(binary, name string) *ocptest.Executor {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := binary + "@" + name
	e, ok := f.executors[key]
	if !ok {
		e = &ocptest.Executor{}
		f.executors[key] = e
	}
	return e
}

func (f *fakeConnector) add(name string, fake *ocptest.Fake) *ocptest.Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accessors[name] = fake
	return fake
}

// testConfig returns a hub plus two managed clusters rooted in a temporary
// directory, east being the primary.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		Run: config.Run{
			ID:          "a1b2c3d4",
			Username:    config.DefaultUsername,
			ArtifactDir: filepath.Join(dir, "artifacts"),
		},
		Deployment: config.Deployment{
			ODFVersion:         config.DefaultODFVersion,
			SchedulingInterval: config.DefaultSchedulingInterval,
			DRPolicyName:       config.DefaultDRPolicyName,
			ClusterSet:         config.DefaultClusterSet,
			Binaries: config.Binaries{
				OC:        config.DefaultOCBinary,
				Installer: config.DefaultInstallerBinary,
				Subctl:    config.DefaultSubctlBinary,
			},
		},
	}
	for _, name := range []string{"hub", "east", "west"} {
		cfg.Clusters = append(cfg.Clusters, config.ClusterConfig{
			Name:       name,
			Path:       filepath.Join(dir, name),
			Hub:        name == "hub",
			Primary:    name == "east",
			BaseDomain: "example.com",
			Region:     "us-east-1",
		})
	}
	return cfg
}

func newTestDeployer(t *testing.T, cfg *config.Config, conn Connector, opts ...Option) *Deployer {
	t.Helper()
	set, err := cfg.ClusterSet()
	require.NoError(t, err)
	base := []Option{
		WithConnector(conn),
		WithSender(notify.Multi{}),
		WithPollOptions(poll.WithClock(testingclock.NewFakeClock(time.Now()))),
		WithSleeper(func(context.Context, time.Duration) error { return nil }),
	}
	return New(cfg, set, append(base, opts...)...)
}

func clusterConfig(t *testing.T, d *Deployer, name string) cluster.Config {
	t.Helper()
	for _, c := range d.set.All() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("no cluster %s", name)
	return cluster.Config{}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func packageManifest(name string) *unstructured.Unstructured {
	return ocptest.Object(ocp.KindPackageManifest, olm.MarketplaceNamespace, name, map[string]any{
		"status": map[string]any{
			"defaultChannel": "stable",
			"channels": []any{
				map[string]any{"name": "stable", "currentCSV": name + ".v1.0.0"},
			},
		},
	})
}

// reconcile simulates the operators: subscriptions resolve a succeeded CSV
// and applied objects of a kind in status get that status.
func reconcile(t *testing.T, fake *ocptest.Fake, status map[string]map[string]any) {
	t.Helper()
	ctx := context.Background()
	fake.OnApply = func(obj *unstructured.Unstructured) {
		if obj.GetKind() == "Subscription" {
			csvName, _, _ := unstructured.NestedString(obj.Object, "spec", "startingCSV")
			sub := obj.DeepCopy()
			require.NoError(t, unstructured.SetNestedField(sub.Object, csvName, "status", "currentCSV"))
			require.NoError(t, fake.Upsert(ctx, sub))
			require.NoError(t, fake.Upsert(ctx, ocptest.Object(ocp.KindCSV, obj.GetNamespace(), csvName, map[string]any{
				"status": map[string]any{"phase": olm.PhaseSucceeded},
			})))
			return
		}
		if s, ok := status[obj.GetKind()]; ok {
			reconciled := obj.DeepCopy()
			require.NoError(t, unstructured.SetNestedField(reconciled.Object, s, "status"))
			require.NoError(t, fake.Upsert(ctx, reconciled))
		}
	}
}

func TestStages_Order(t *testing.T) {
	t.Parallel()
	d := newTestDeployer(t, testConfig(t), newFakeConnector())

	stages, err := d.Stages()
	require.NoError(t, err)

	var names []string
	for _, s := range stages {
		names = append(names, s.Name)
		assert.NotNil(t, s.Run, s.Name)
	}
	assert.Equal(t, config.StageNames, names)

	byName := make(map[string]orchestrator.Stage)
	for _, s := range stages {
		byName[s.Name] = s
	}
	assert.Equal(t, []string{config.StageODF}, byName[config.StageMCO].Requires)
	assert.Equal(t, []string{config.StageACM}, byName[config.StageDR].Requires)
	assert.Equal(t, cluster.ScopeDataPlane, byName[config.StageODF].Scope)
	assert.True(t, byName[config.StageODF].Parallel)
	assert.NotNil(t, byName[config.StageODF].Prepare)
	assert.False(t, byName[config.StageOCP].Parallel)
	assert.Equal(t, orchestrator.AbortStage, byName[config.StageImport].Isolation)
	assert.Equal(t, orchestrator.ContinueOnError, byName[config.StageGitOps].Isolation)
}

func TestStages_IsolationOverride(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	cfg.Deployment.ParallelOCP = true
	cfg.Deployment.Isolation = map[string]string{
		config.StageImport: "continue",
		config.StageODF:    "abort-run",
	}
	d := newTestDeployer(t, cfg, newFakeConnector())

	stages, err := d.Stages()
	require.NoError(t, err)
	for _, s := range stages {
		switch s.Name {
		case config.StageImport:
			assert.Equal(t, orchestrator.ContinueOnError, s.Isolation)
		case config.StageODF:
			assert.Equal(t, orchestrator.AbortRun, s.Isolation)
		case config.StageOCP:
			assert.True(t, s.Parallel)
		}
	}
}

func TestStages_InvalidIsolation(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	cfg.Deployment.Isolation = map[string]string{config.StageSSL: "sometimes"}
	d := newTestDeployer(t, cfg, newFakeConnector())

	_, err := d.Stages()
	var cfgErr *cluster.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, err.Error(), "stage ssl")
}

func TestCleanupStages(t *testing.T) {
	t.Parallel()
	d := newTestDeployer(t, testConfig(t), newFakeConnector())

	stages, err := d.CleanupStages()
	require.NoError(t, err)
	require.Len(t, stages, 1)
	assert.Equal(t, config.StageDestroy, stages[0].Name)
	assert.Equal(t, cluster.ScopeAll, stages[0].Scope)
	assert.True(t, stages[0].Parallel)
}

func TestSenders(t *testing.T) {
	t.Parallel()

	assert.Empty(t, Senders(config.Reporting{}))

	senders := Senders(config.Reporting{
		Email:     config.Email{Enabled: true, SMTPServer: "localhost", Sender: "a@example.com", Recipients: []string{"b@example.com"}},
		Messenger: config.Messenger{Enabled: true, Type: notify.FormatSlack, WebhookURL: "https://hooks.example.com"},
	})
	require.Len(t, senders, 2)
	assert.IsType(t, &notify.EmailSender{}, senders[0])
	assert.IsType(t, &notify.WebhookSender{}, senders[1])
}

func TestChannel(t *testing.T) {
	t.Parallel()
	c := cluster.Config{Channels: map[string]string{ODFPackage: "stable-4.19"}}

	assert.Equal(t, "stable-4.19", channel(c, ODFPackage, "stable-4.18"))
	assert.Equal(t, "release-2.13", channel(c, ACMPackage, "release-2.13"))
	assert.Empty(t, channel(c, MCOPackage, ""))
}
