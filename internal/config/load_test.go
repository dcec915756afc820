package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalConfig = `
clusters:
  - name: hub
    path: clusters/hub
    hub: true
  - name: east
    path: clusters/east
    primary: true
  - name: west
    path: clusters/west
`

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load([]byte(minimalConfig))
	require.NoError(t, err)

	assert.Len(t, cfg.Run.ID, 8)
	assert.Equal(t, DefaultUsername, cfg.Run.Username)
	assert.Contains(t, cfg.Run.ArtifactDir, cfg.Run.ID)
	assert.False(t, cfg.Run.FailOnError)

	d := cfg.Deployment
	assert.Equal(t, DefaultODFVersion, d.ODFVersion)
	assert.Equal(t, DefaultSchedulingInterval, d.SchedulingInterval)
	assert.Equal(t, DefaultDRPolicyName, d.DRPolicyName)
	assert.True(t, d.EnableODFPlugin)
	assert.True(t, d.EnableMCOPlugin)
	assert.Equal(t, Binaries{OC: "oc", Installer: "openshift-install", Subctl: "subctl"}, d.Binaries)
	assert.Equal(t, 3, d.Install.WorkerReplicas)
	assert.Equal(t, 3, d.Install.MasterReplicas)

	require.Len(t, cfg.Clusters, 3)
	assert.True(t, cfg.Clusters[0].Hub)
	assert.True(t, cfg.Clusters[1].Primary)
	assert.Equal(t, "clusters/west", cfg.Clusters[2].Path)
}

func TestLoad_ExplicitValues(t *testing.T) {
	data := `
run:
  id: nightly
  failOnError: true
deployment:
  odfVersion: "4.19"
  enableODFPlugin: false
  stages:
    submariner: false
  isolation:
    odf: abort-run
reporting:
  archive:
    enabled: true
    bucket: reports
    expiry: 12h
` + minimalConfig

	cfg, err := Load([]byte(data))
	require.NoError(t, err)

	assert.Equal(t, "nightly", cfg.Run.ID)
	assert.True(t, cfg.Run.FailOnError)
	assert.Equal(t, "4.19", cfg.Deployment.ODFVersion)
	assert.False(t, cfg.Deployment.EnableODFPlugin)
	assert.Equal(t, map[string]bool{"submariner": false}, cfg.Deployment.Stages)
	assert.Equal(t, map[string]string{"odf": "abort-run"}, cfg.Deployment.Isolation)
	assert.Equal(t, 12*time.Hour, cfg.Reporting.Archive.Expiry)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("OCP4MCO_DEPLOYMENT_ODFVERSION", "4.17")
	t.Setenv("OCP4MCO_RUN_FAILONERROR", "true")
	t.Setenv("OCP4MCO_DEPLOYMENT_BINARIES_OC", "/usr/local/bin/oc")

	cfg, err := Load([]byte(minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "4.17", cfg.Deployment.ODFVersion)
	assert.True(t, cfg.Run.FailOnError)
	assert.Equal(t, "/usr/local/bin/oc", cfg.Deployment.Binaries.OC)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{
			name:    "malformed yaml",
			data:    "clusters: [",
			wantErr: "failed to parse config",
		},
		{
			name:    "no clusters",
			data:    "run:\n  id: x\n",
			wantErr: "at least one cluster is required",
		},
		{
			name:    "two hubs",
			data:    "clusters:\n  - {name: a, path: a, hub: true}\n  - {name: b, path: b, hub: true}\n",
			wantErr: "at most one hub cluster is allowed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load([]byte(tt.data))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFile_ResolvesRelativePaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ocp4mco.yaml")
	data := "deployment:\n  install:\n    pullSecretPath: secrets/pull.json\n" + minimalConfig +
		"  - name: abs\n    path: /srv/clusters/abs\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "clusters/hub"), cfg.Clusters[0].Path)
	assert.Equal(t, "/srv/clusters/abs", cfg.Clusters[3].Path)
	assert.Equal(t, filepath.Join(dir, "secrets/pull.json"), cfg.Deployment.Install.PullSecretPath)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}
