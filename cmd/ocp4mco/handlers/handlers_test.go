package handlers

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ocp4mco/ocp4mco/internal/cluster"
	"github.com/ocp4mco/ocp4mco/internal/config"
	"github.com/ocp4mco/ocp4mco/internal/orchestrator"
	"github.com/ocp4mco/ocp4mco/internal/report"
	"github.com/ocp4mco/ocp4mco/internal/util/prerequisites"
)

// saveAndRestoreFactories restores the factory variables after the test and
// captures stdout into the returned buffer.
func saveAndRestoreFactories(t *testing.T) *bytes.Buffer {
	t.Helper()
	origLoadConfigFile := loadConfigFile
	origCheckTools := checkTools
	origNewDeployer := newDeployer
	origNewStore := newStore
	origWriteSample := writeSample
	origStdout := stdout

	t.Cleanup(func() {
		loadConfigFile = origLoadConfigFile
		checkTools = origCheckTools
		newDeployer = origNewDeployer
		newStore = origNewStore
		writeSample = origWriteSample
		stdout = origStdout
	})

	var out bytes.Buffer
	stdout = &out
	checkTools = func(_ context.Context, tools []prerequisites.Tool) *prerequisites.CheckResults {
		results := &prerequisites.CheckResults{}
		for _, tool := range tools {
			results.Results = append(results.Results, prerequisites.CheckResult{Tool: tool, Found: true, Version: "v1"})
		}
		return results
	}
	return &out
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Run: config.Run{
			ID:          "a1b2c3d4",
			Username:    config.DefaultUsername,
			ArtifactDir: filepath.Join(dir, "artifacts"),
		},
		Deployment: config.Deployment{
			Binaries: config.Binaries{
				OC:        config.DefaultOCBinary,
				Installer: config.DefaultInstallerBinary,
				Subctl:    config.DefaultSubctlBinary,
			},
		},
		Clusters: []config.ClusterConfig{
			{Name: "hub", Path: filepath.Join(dir, "hub"), Hub: true, BaseDomain: "example.com"},
			{Name: "east", Path: filepath.Join(dir, "east"), Primary: true, BaseDomain: "example.com"},
			{Name: "west", Path: filepath.Join(dir, "west"), BaseDomain: "example.com"},
		},
	}
}

func useConfig(cfg *config.Config) {
	loadConfigFile = func(string) (*config.Config, error) {
		return cfg, nil
	}
}

type fakeDeployer struct {
	stages  []orchestrator.Stage
	cleanup []orchestrator.Stage
	running map[string]bool
}

func (f *fakeDeployer) Stages() ([]orchestrator.Stage, error)        { return f.stages, nil }
func (f *fakeDeployer) CleanupStages() ([]orchestrator.Stage, error) { return f.cleanup, nil }
func (f *fakeDeployer) Running(_ context.Context, c cluster.Config) bool {
	return f.running[c.Name]
}

func useDeployer(d *fakeDeployer) {
	newDeployer = func(*config.Config, *cluster.Set) stageSource {
		return d
	}
}

// recorder is a stage body remembering the clusters it ran on.
type recorder struct {
	mu     sync.Mutex
	seen   []string
	failOn string
}

func (r *recorder) run(_ context.Context, c cluster.Config) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, c.Name)
	if c.Name == r.failOn {
		return errors.New("boom")
	}
	return nil
}

type fakeStore struct {
	put     []string
	deleted string
	err     error
}

var _ report.Store = (*fakeStore)(nil)

func (f *fakeStore) EnsureBucket(context.Context, string) error { return f.err }

func (f *fakeStore) PutObject(_ context.Context, _, key, _ string, _ []byte) error {
	f.put = append(f.put, key)
	return nil
}

func (f *fakeStore) PresignGet(_ context.Context, bucket, key string, _ time.Duration) (string, error) {
	return "https://s3.example.com/" + bucket + "/" + key, nil
}

func (f *fakeStore) DeletePrefix(_ context.Context, _, prefix string) (int, error) {
	f.deleted = prefix
	return 2, nil
}

func useStore(s *fakeStore) {
	newStore = func(context.Context, config.Archive) (report.Store, error) {
		return s, nil
	}
}
